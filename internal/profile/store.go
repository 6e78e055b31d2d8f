package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the profile as a JSON file.
type FileStore struct {
	Path string
}

// Load reads the file and merges it over the defaults. A missing file
// yields the defaults; a corrupt one yields the defaults and an error.
func (f FileStore) Load() (Profile, error) {
	p := Defaults()
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("read profile: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Defaults(), fmt.Errorf("parse profile %s: %w", f.Path, err)
	}
	if p.BestTimes == nil {
		p.BestTimes = map[string]int{}
	}
	if p.LastResults == nil {
		p.LastResults = map[string]string{}
	}
	return p, nil
}

// Save writes the profile through a temporary file so a crash never leaves
// a truncated profile behind.
func (f FileStore) Save(p Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}

// MemoryStore keeps the profile in memory.
type MemoryStore struct {
	mu sync.Mutex
	p  *Profile
}

func (m *MemoryStore) Load() (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.p == nil {
		return Defaults(), nil
	}
	return *m.p, nil
}

func (m *MemoryStore) Save(p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.p = &p
	return nil
}
