package host

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/ini.v1"
)

// Mods answers installedness queries against a mods directory, where each
// installed mod is a subdirectory carrying a meta.ini with its mod id.
//
// Installed and Rescan are safe to call concurrently. Subdirectories
// without a usable meta.ini (manually created mods, separators) are
// skipped silently, matching how the mod manager itself treats them.
type Mods struct {
	dir string

	mu    sync.RWMutex
	index map[int]bool
}

// NewMods creates a Mods view over dir and performs the initial scan.
// A missing directory is not an error; it scans empty.
func NewMods(dir string) (*Mods, error) {
	m := &Mods{dir: dir, index: make(map[int]bool)}
	if err := m.Rescan(); err != nil {
		return nil, err
	}
	return m, nil
}

// Dir returns the mods directory.
func (m *Mods) Dir() string { return m.dir }

// Rescan rebuilds the installed-mod index from the directory contents.
func (m *Mods) Rescan() error {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		entries = nil
	} else if err != nil {
		return err
	}

	index := make(map[int]bool)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		f, err := ini.Load(filepath.Join(m.dir, e.Name(), "meta.ini"))
		if err != nil {
			continue
		}
		if id := f.Section("General").Key("modid").MustInt(0); id > 0 {
			index[id] = true
		}
	}

	m.mu.Lock()
	m.index = index
	m.mu.Unlock()
	return nil
}

// Installed reports whether the mod is present in the mods directory.
func (m *Mods) Installed(modID int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index[modID]
}
