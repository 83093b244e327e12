package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// MarkerFile is the per-project marker recording which assistants a
// project uses. Written by `crosscli init`, read to scope queries to the
// current project.
const MarkerFile = ".crosscli.toml"

// Marker is the parsed contents of a project marker file.
type Marker struct {
	Adapters      []string  `toml:"adapters"` // empty = all detected
	InitializedAt time.Time `toml:"initialized_at"`

	// Dir is the directory holding the marker. Not serialized.
	Dir string `toml:"-"`
}

// FindMarker walks upward from dir looking for a marker file. Returns nil
// when no marker exists up to the filesystem root.
func FindMarker(dir string) (*Marker, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, MarkerFile)
		if _, err := os.Stat(path); err == nil {
			return LoadMarker(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// LoadMarker reads and parses a marker file.
func LoadMarker(path string) (*Marker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Marker
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m.Dir = filepath.Dir(path)
	return &m, nil
}

// SaveMarker writes the marker into dir.
func SaveMarker(dir string, m Marker) error {
	if m.InitializedAt.IsZero() {
		m.InitializedAt = time.Now()
	}
	f, err := os.OpenFile(filepath.Join(dir, MarkerFile), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(m)
}
