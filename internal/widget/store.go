package widget

import (
	"log"
	"slices"
	"sync"
)

// Snapshotter persists the whole widget collection.
type Snapshotter interface {
	Load() ([]Descriptor, error)
	Save([]Descriptor) error
}

// Store is the ordered widget collection. Every mutation is saved through the
// Snapshotter before the call returns, no-ops included. A failed save is
// reported to the caller; the in-memory mutation stands.
type Store struct {
	mu      sync.Mutex
	widgets []Descriptor
	snap    Snapshotter
}

// Open rehydrates the collection from snap. An unreadable snapshot starts the
// store empty.
func Open(snap Snapshotter) *Store {
	s := &Store{snap: snap}
	if snap == nil {
		return s
	}
	widgets, err := snap.Load()
	if err != nil {
		log.Printf("[WARN] widget snapshot unreadable, starting empty: %v", err)
		return s
	}
	s.widgets = widgets
	log.Printf("[INFO] restored %d widgets", len(widgets))
	return s
}

// Widgets returns a copy of the collection in display order.
func (s *Store) Widgets() []Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(make([]Descriptor, 0, len(s.widgets)), s.widgets...)
}

// Len returns the number of widgets.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.widgets)
}

// Get returns the widget with the given id.
func (s *Store) Get(id string) (Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return Descriptor{}, false
	}
	return s.widgets[i], true
}

// Add appends d. Ids are expected to be unique; New guarantees that.
func (s *Store) Add(d Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.widgets = append(s.widgets, d)
	return s.save()
}

// Remove drops the first widget with the given id. An unknown id changes nothing.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.widgets = slices.Delete(s.widgets, i, i+1)
	}
	return s.save()
}

// Reorder moves the widget at oldIndex so that it ends up at newIndex.
// oldIndex outside the collection is a no-op; newIndex is clamped.
func (s *Store) Reorder(oldIndex, newIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.widgets)
	if oldIndex >= 0 && oldIndex < n {
		newIndex = max(0, min(newIndex, n-1))
		if oldIndex != newIndex {
			d := s.widgets[oldIndex]
			s.widgets = slices.Delete(s.widgets, oldIndex, oldIndex+1)
			s.widgets = slices.Insert(s.widgets, newIndex, d)
		}
	}
	return s.save()
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.widgets, func(d Descriptor) bool { return d.ID == id })
}

// save must be called with mu held.
func (s *Store) save() error {
	if s.snap == nil {
		return nil
	}
	if err := s.snap.Save(slices.Clone(s.widgets)); err != nil {
		log.Printf("[WARN] save widget snapshot: %v", err)
		return err
	}
	return nil
}
