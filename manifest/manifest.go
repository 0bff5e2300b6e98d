// Package manifest handles picorb.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a picorb.toml project configuration.
type Manifest struct {
	Project  Project  `toml:"project"`
	Runtime  Runtime  `toml:"runtime"`
	Snapshot Snapshot `toml:"snapshot"`

	// Dir is the directory containing the picorb.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Runtime configures the interpreter.
type Runtime struct {
	// MemoryLimit caps the byte-accounted heap; 0 means unlimited.
	MemoryLimit int `toml:"memory-limit"`

	// MissingMethod selects the dispatch-miss policy: "log" or "raise".
	MissingMethod string `toml:"missing-method"`
}

// Snapshot configures snapshot persistence.
type Snapshot struct {
	// Database is the SQLite path; empty disables persistence.
	Database string `toml:"database"`
}

// Load parses a picorb.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "picorb.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.Runtime.MissingMethod == "" {
		m.Runtime.MissingMethod = "log"
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a picorb.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "picorb.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) validate() error {
	switch m.Runtime.MissingMethod {
	case "log", "raise":
	default:
		return fmt.Errorf("runtime.missing-method must be \"log\" or \"raise\", got %q", m.Runtime.MissingMethod)
	}
	if m.Runtime.MemoryLimit < 0 {
		return fmt.Errorf("runtime.memory-limit must be >= 0, got %d", m.Runtime.MemoryLimit)
	}
	return nil
}
