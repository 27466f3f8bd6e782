package widget

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultName is the snapshot name used when none is configured.
const DefaultName = "finboard-dashboard"

const snapshotVersion = 1

type snapshot struct {
	Version int          `json:"version"`
	Widgets []Descriptor `json:"widgets"`
}

func encode(widgets []Descriptor) ([]byte, error) {
	if widgets == nil {
		widgets = []Descriptor{}
	}
	return json.MarshalIndent(snapshot{Version: snapshotVersion, Widgets: widgets}, "", "  ")
}

func decode(data []byte) ([]Descriptor, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	// snapshots written before versioning carry only widgets
	if snap.Version != 0 && snap.Version != snapshotVersion {
		return nil, fmt.Errorf("decode snapshot: unsupported version %d", snap.Version)
	}
	return snap.Widgets, nil
}

// FileSnapshot keeps the collection in a single JSON file.
type FileSnapshot struct {
	Path string
}

// NewFileSnapshot stores the snapshot called name under dir.
func NewFileSnapshot(dir, name string) *FileSnapshot {
	if name == "" {
		name = DefaultName
	}
	return &FileSnapshot{Path: filepath.Join(dir, name+".json")}
}

// Load returns an empty collection if the file doesn't exist.
func (f *FileSnapshot) Load() ([]Descriptor, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return decode(data)
}

// Save replaces the file atomically.
func (f *FileSnapshot) Save(widgets []Descriptor) error {
	data, err := encode(widgets)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}
