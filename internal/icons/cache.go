package icons

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vrsandeep/gitpm/internal/metrics"
	"github.com/vrsandeep/gitpm/internal/util"
)

const iconExt = ".png"

// DiskCache tracks the icon files in a directory with an LRU. Evicting an
// entry deletes its file.
type DiskCache struct {
	dir     string
	entries *lru.Cache[string, struct{}]
}

// NewDiskCache validates dir and seeds the LRU with the files already in it,
// oldest first, so a restart keeps the most recently written icons.
func NewDiskCache(dir string, maxEntries int) (*DiskCache, error) {
	if err := util.EnsureWritableDir(dir); err != nil {
		return nil, fmt.Errorf("icon cache directory: %w", err)
	}
	if maxEntries <= 0 {
		maxEntries = 512
	}

	c := &DiskCache{dir: dir}
	entries, err := lru.NewWithEvict(maxEntries, c.onEvict)
	if err != nil {
		return nil, err
	}
	c.entries = entries

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	type seeded struct {
		name string
		mod  int64
	}
	var existing []seeded
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), iconExt) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		existing = append(existing, seeded{name: f.Name(), mod: info.ModTime().UnixNano()})
	}
	sort.Slice(existing, func(i, j int) bool { return existing[i].mod < existing[j].mod })
	for _, s := range existing {
		c.entries.Add(s.name, struct{}{})
	}
	return c, nil
}

// Dir is the cache directory.
func (c *DiskCache) Dir() string { return c.dir }

// Path is the file path for a repository's icon.
func (c *DiskCache) Path(repoName string) string {
	return filepath.Join(c.dir, fileName(repoName))
}

// Has reports whether the icon is cached and marks it recently used.
func (c *DiskCache) Has(repoName string) bool {
	_, ok := c.entries.Get(fileName(repoName))
	return ok
}

// Use marks the icon recently used, tracking it if the file was written
// without going through the cache.
func (c *DiskCache) Use(repoName string) {
	name := fileName(repoName)
	if _, ok := c.entries.Get(name); !ok {
		c.entries.Add(name, struct{}{})
	}
}

// Len is the number of tracked icons.
func (c *DiskCache) Len() int { return c.entries.Len() }

// Write stores data through a temp file and rename, then tracks it.
func (c *DiskCache) Write(repoName string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	name := fileName(repoName)
	tmp, err := os.CreateTemp(c.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(c.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	c.entries.Add(name, struct{}{})
	return nil
}

// track and forget keep the LRU in line with files written or deleted by
// other processes sharing the directory.
func (c *DiskCache) track(name string) {
	if _, err := os.Stat(filepath.Join(c.dir, name)); err == nil {
		c.entries.ContainsOrAdd(name, struct{}{})
	}
}

func (c *DiskCache) forget(name string) {
	c.entries.Remove(name)
}

func (c *DiskCache) onEvict(name string, _ struct{}) {
	err := os.Remove(filepath.Join(c.dir, name))
	switch {
	case err == nil:
		metrics.IconCache.WithLabelValues("evicted").Inc()
	case !os.IsNotExist(err):
		log.Printf("Warning: failed to remove evicted icon %s: %v", name, err)
	}
}

func fileName(repoName string) string {
	return util.SafeFileName(repoName) + iconExt
}
