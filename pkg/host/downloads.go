package host

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
)

// Archive filenames as the platform serves them end in
// "-<modID>-<fileID>-<version hash>.<ext>".
var archiveNameRE = regexp.MustCompile(`-(\d+)-(\d+)-.*\.(?:7z|zip|rar)$`)

// Downloads answers ownership queries against a downloads directory.
//
// An archive counts as owned when its filename carries the platform's
// "-<modID>-<fileID>-" stamp, or when its .meta companion names an origin.
// The index is rebuilt by Rescan; Downloaded and Rescan are safe to call
// concurrently.
type Downloads struct {
	dir string

	mu    sync.RWMutex
	index map[[2]int]bool
}

// NewDownloads creates a Downloads view over dir and performs the initial
// scan. A missing directory is not an error; it scans empty.
func NewDownloads(dir string) (*Downloads, error) {
	d := &Downloads{dir: dir, index: make(map[[2]int]bool)}
	if err := d.Rescan(); err != nil {
		return nil, err
	}
	return d, nil
}

// Dir returns the downloads directory.
func (d *Downloads) Dir() string { return d.dir }

// Rescan rebuilds the ownership index from the directory contents.
func (d *Downloads) Rescan() error {
	entries, err := os.ReadDir(d.dir)
	if os.IsNotExist(err) {
		entries = nil
	} else if err != nil {
		return err
	}

	index := make(map[[2]int]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if m := archiveNameRE.FindStringSubmatch(e.Name()); m != nil {
			modID, _ := strconv.Atoi(m[1])
			fileID, _ := strconv.Atoi(m[2])
			index[[2]int{modID, fileID}] = true
			continue
		}
		// Renamed archives still identify themselves via their .meta.
		if filepath.Ext(e.Name()) == ".meta" {
			continue
		}
		if meta, err := ReadMeta(filepath.Join(d.dir, e.Name())); err == nil && meta != nil {
			index[[2]int{meta.ModID, meta.FileID}] = true
		}
	}

	d.mu.Lock()
	d.index = index
	d.mu.Unlock()
	return nil
}

// Downloaded reports whether an archive for the given file already exists.
func (d *Downloads) Downloaded(modID, fileID int) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.index[[2]int{modID, fileID}]
}

// Record adds one archive to the index without a full rescan. The
// dispatcher calls it right after landing a file.
func (d *Downloads) Record(modID, fileID int) {
	d.mu.Lock()
	d.index[[2]int{modID, fileID}] = true
	d.mu.Unlock()
}
