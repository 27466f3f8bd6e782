package widget_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VenCasMet/finboard/internal/widget"
)

// memorySnapshot records every save.
type memorySnapshot struct {
	loaded  []widget.Descriptor
	loadErr error
	saveErr error
	saves   [][]widget.Descriptor
}

func (m *memorySnapshot) Load() ([]widget.Descriptor, error) { return m.loaded, m.loadErr }

func (m *memorySnapshot) Save(ws []widget.Descriptor) error {
	m.saves = append(m.saves, ws)
	return m.saveErr
}

func desc(id string) widget.Descriptor {
	return widget.Descriptor{ID: id, Title: id, Kind: widget.Card, Symbol: "AAPL"}
}

func ids(ws []widget.Descriptor) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.ID)
	}
	return out
}

func seeded(t *testing.T, idList ...string) (*widget.Store, *memorySnapshot) {
	t.Helper()
	snap := &memorySnapshot{}
	for _, id := range idList {
		snap.loaded = append(snap.loaded, desc(id))
	}
	return widget.Open(snap), snap
}

func TestNew(t *testing.T) {
	t.Parallel()

	d, err := widget.New("  Apple ", widget.Chart, " aapl ")
	require.NoError(t, err)
	require.NotEmpty(t, d.ID)
	require.Equal(t, "Apple", d.Title)
	require.Equal(t, "AAPL", d.Symbol)
	require.Equal(t, widget.Chart, d.Kind)

	other, err := widget.New("Apple", widget.Chart, "AAPL")
	require.NoError(t, err)
	require.NotEqual(t, d.ID, other.ID)

	for name, tc := range map[string]struct {
		title, symbol string
		kind          widget.Kind
	}{
		"empty title":  {"", "AAPL", widget.Card},
		"empty symbol": {"Apple", "  ", widget.Card},
		"bad kind":     {"Apple", "AAPL", widget.Kind("gauge")},
	} {
		_, err := widget.New(tc.title, tc.kind, tc.symbol)
		require.ErrorIs(t, err, widget.ErrInvalid, name)
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, err := widget.ParseKind(" Table ")
	require.NoError(t, err)
	require.Equal(t, widget.Table, k)

	_, err = widget.ParseKind("pie")
	require.ErrorIs(t, err, widget.ErrInvalid)
}

func TestStore_AddAppendsAndPersists(t *testing.T) {
	t.Parallel()

	store, snap := seeded(t, "a")
	require.NoError(t, store.Add(desc("b")))

	require.Equal(t, []string{"a", "b"}, ids(store.Widgets()))
	require.Len(t, snap.saves, 1)
	require.Equal(t, []string{"a", "b"}, ids(snap.saves[0]))

	got, ok := store.Get("b")
	require.True(t, ok)
	require.Equal(t, desc("b"), got)
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()

	store, snap := seeded(t, "a", "b", "c")

	require.NoError(t, store.Remove("b"))
	require.Equal(t, []string{"a", "c"}, ids(store.Widgets()))

	// Assert: absent id is a no-op that still persists
	require.NoError(t, store.Remove("zzz"))
	require.Equal(t, []string{"a", "c"}, ids(store.Widgets()))
	require.Len(t, snap.saves, 2)

	_, ok := store.Get("b")
	require.False(t, ok)
}

func TestStore_Reorder(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		from, to int
		want     []string
	}{
		"forward":          {0, 2, []string{"b", "c", "a"}},
		"backward":         {2, 0, []string{"c", "a", "b"}},
		"adjacent":         {1, 2, []string{"a", "c", "b"}},
		"identity":         {1, 1, []string{"a", "b", "c"}},
		"clamp high":       {0, 10, []string{"b", "c", "a"}},
		"clamp low":        {2, -3, []string{"c", "a", "b"}},
		"old out of range": {3, 0, []string{"a", "b", "c"}},
		"old negative":     {-1, 1, []string{"a", "b", "c"}},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store, snap := seeded(t, "a", "b", "c")
			require.NoError(t, store.Reorder(tc.from, tc.to))
			require.Equal(t, tc.want, ids(store.Widgets()))
			require.Len(t, snap.saves, 1)
		})
	}
}

func TestStore_ReorderIsPermutation(t *testing.T) {
	t.Parallel()

	all := []string{"a", "b", "c", "d", "e"}
	for from := -1; from <= len(all); from++ {
		for to := -2; to <= len(all)+1; to++ {
			store, _ := seeded(t, all...)
			require.NoError(t, store.Reorder(from, to))
			require.ElementsMatch(t, all, ids(store.Widgets()))
		}
	}
}

func TestStore_WidgetsReturnsCopy(t *testing.T) {
	t.Parallel()

	store, _ := seeded(t, "a", "b")
	ws := store.Widgets()
	ws[0].Title = "changed"

	got, _ := store.Get("a")
	require.Equal(t, "a", got.Title)
}

func TestStore_SaveErrorKeepsMutation(t *testing.T) {
	t.Parallel()

	snap := &memorySnapshot{saveErr: errors.New("disk full")}
	store := widget.Open(snap)

	err := store.Add(desc("a"))
	require.Error(t, err)
	require.Equal(t, []string{"a"}, ids(store.Widgets()))
}

func TestStore_LoadErrorStartsEmpty(t *testing.T) {
	t.Parallel()

	store := widget.Open(&memorySnapshot{loadErr: errors.New("corrupt")})
	require.Zero(t, store.Len())
	require.NotNil(t, store.Widgets())
}

func TestFileSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, err := widget.New("Apple", widget.Card, "AAPL")
	require.NoError(t, err)
	b, err := widget.New("Tesla", widget.Chart, "TSLA")
	require.NoError(t, err)

	// Arrange: a first session builds a collection
	store := widget.Open(widget.NewFileSnapshot(dir, ""))
	require.NoError(t, store.Add(a))
	require.NoError(t, store.Add(b))
	require.NoError(t, store.Reorder(1, 0))

	// Act: a second session opens the same snapshot
	restored := widget.Open(widget.NewFileSnapshot(dir, ""))

	// Assert
	require.Equal(t, []widget.Descriptor{b, a}, restored.Widgets())
	require.FileExists(t, filepath.Join(dir, widget.DefaultName+".json"))
}

func TestFileSnapshot_Missing(t *testing.T) {
	t.Parallel()

	ws, err := widget.NewFileSnapshot(t.TempDir(), "nothing").Load()
	require.NoError(t, err)
	require.Empty(t, ws)
}

func TestFileSnapshot_CorruptStartsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	snap := widget.NewFileSnapshot(dir, "broken")
	require.NoError(t, os.WriteFile(snap.Path, []byte("{not json"), 0o644))

	_, err := snap.Load()
	require.Error(t, err)

	store := widget.Open(snap)
	require.Zero(t, store.Len())

	// Assert: the next mutation overwrites the broken file
	require.NoError(t, store.Add(desc("a")))
	ws, err := snap.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, ids(ws))
}

func TestFileSnapshot_Format(t *testing.T) {
	t.Parallel()

	snap := widget.NewFileSnapshot(t.TempDir(), "fmt")
	require.NoError(t, snap.Save([]widget.Descriptor{{ID: "1", Title: "Apple", Kind: widget.Table, Symbol: "AAPL"}}))

	data, err := os.ReadFile(snap.Path)
	require.NoError(t, err)
	require.JSONEq(t, `{"version":1,"widgets":[{"id":"1","title":"Apple","type":"table","symbol":"AAPL"}]}`, string(data))
}

func TestFileSnapshot_Versions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Assert: a snapshot without a version is read as the current one
	legacy := widget.NewFileSnapshot(dir, "legacy")
	require.NoError(t, os.WriteFile(legacy.Path, []byte(`{"widgets":[{"id":"1","title":"Apple","type":"card","symbol":"AAPL"}]}`), 0o644))
	ws, err := legacy.Load()
	require.NoError(t, err)
	require.Equal(t, []widget.Descriptor{{ID: "1", Title: "Apple", Kind: widget.Card, Symbol: "AAPL"}}, ws)
	require.Equal(t, 1, widget.Open(legacy).Len())

	// Assert: an unknown future version is refused
	future := widget.NewFileSnapshot(dir, "future")
	require.NoError(t, os.WriteFile(future.Path, []byte(`{"version":2,"widgets":[]}`), 0o644))
	_, err = future.Load()
	require.Error(t, err)
}

func TestSQLiteSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "finboard.db")

	snap, err := widget.OpenSQLite(path, "")
	require.NoError(t, err)
	ws, err := snap.Load()
	require.NoError(t, err)
	require.Empty(t, ws)

	store := widget.Open(snap)
	require.NoError(t, store.Add(desc("a")))
	require.NoError(t, store.Add(desc("b")))
	require.NoError(t, store.Add(desc("c")))
	require.NoError(t, store.Remove("b"))
	require.NoError(t, snap.Close())

	reopened, err := widget.OpenSQLite(path, "")
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	require.Equal(t, []string{"a", "c"}, ids(widget.Open(reopened).Widgets()))

	// Assert: snapshots are isolated by name
	other, err := widget.OpenSQLite(path, "other")
	require.NoError(t, err)
	t.Cleanup(func() { other.Close() })
	ws, err = other.Load()
	require.NoError(t, err)
	require.Empty(t, ws)
}
