package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/VenCasMet/finboard/internal/widget"
)

// ErrNotFound is returned for an unknown widget id.
var ErrNotFound = errors.New("widget not found")

// Dashboard owns the widget store and one view-model per stored widget.
type Dashboard struct {
	store  *widget.Store
	quotes QuoteResolver
	series SeriesResolver

	mu    sync.Mutex
	views map[string]*Widget
}

// Open builds view-models for every widget already in the store. Nothing is
// fetched until MountAll or Mount is called.
func Open(store *widget.Store, quotes QuoteResolver, series SeriesResolver) *Dashboard {
	d := &Dashboard{
		store:  store,
		quotes: quotes,
		series: series,
		views:  make(map[string]*Widget),
	}
	for _, desc := range store.Widgets() {
		d.views[desc.ID] = NewWidget(desc, quotes, series, d)
	}
	return d
}

// Widgets returns the descriptors in display order.
func (d *Dashboard) Widgets() []widget.Descriptor {
	return d.store.Widgets()
}

// Widget returns the view-model for id.
func (d *Dashboard) Widget(id string) (*Widget, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return w, nil
}

// Add stores desc and mounts its view-model. A persistence error is returned
// alongside the mounted widget, since the store keeps the mutation.
func (d *Dashboard) Add(ctx context.Context, desc widget.Descriptor) (*Widget, error) {
	err := d.store.Add(desc)

	w := NewWidget(desc, d.quotes, d.series, d)
	d.mu.Lock()
	d.views[desc.ID] = w
	d.mu.Unlock()

	w.Mount(ctx)
	if err != nil {
		return w, fmt.Errorf("add widget %s: %w", desc.ID, err)
	}
	return w, nil
}

// Remove deletes the widget. An unknown id is a no-op.
func (d *Dashboard) Remove(id string) error {
	d.mu.Lock()
	delete(d.views, id)
	d.mu.Unlock()

	if err := d.store.Remove(id); err != nil {
		return fmt.Errorf("remove widget %s: %w", id, err)
	}
	return nil
}

// Reorder moves the widget at oldIndex to newIndex.
func (d *Dashboard) Reorder(oldIndex, newIndex int) error {
	if err := d.store.Reorder(oldIndex, newIndex); err != nil {
		return fmt.Errorf("reorder widgets: %w", err)
	}
	return nil
}

// MountAll mounts every widget and waits for their first load.
func (d *Dashboard) MountAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range d.list() {
		g.Go(func() error {
			w.Mount(ctx)
			w.Wait()
			return ctx.Err()
		})
	}
	return g.Wait()
}

// Wait blocks until every widget's in-flight fetches have finished.
func (d *Dashboard) Wait() {
	for _, w := range d.list() {
		w.Wait()
	}
}

func (d *Dashboard) list() []*Widget {
	descs := d.store.Widgets()
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Widget, 0, len(descs))
	for _, desc := range descs {
		if w, ok := d.views[desc.ID]; ok {
			out = append(out, w)
		}
	}
	return out
}
