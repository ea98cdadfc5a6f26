// Package packages keeps an in-memory index of what the installation
// backend currently has installed.
package packages

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/vrsandeep/gitpm/internal/backend"
	"github.com/vrsandeep/gitpm/internal/models"
)

const defaultPollInterval = 10 * time.Millisecond

// Index maps record ids to installed packages. Lookups by a partial bundle
// name are memoized under that name; a memoized key is never overwritten
// and is only dropped by the next Refresh.
type Index struct {
	backend      backend.Backend
	pollInterval time.Duration

	mu      sync.RWMutex
	entries map[string]models.InstalledPackage
	records []models.InstalledPackage
}

func NewIndex(b backend.Backend, pollInterval time.Duration) *Index {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Index{
		backend:      b,
		pollInterval: pollInterval,
		entries:      make(map[string]models.InstalledPackage),
	}
}

// Refresh rebuilds the index from a full backend listing. The previous
// contents stay visible until the listing completes, then are replaced as a
// whole, memoized aliases included. On failure the index is left empty.
func (idx *Index) Refresh(ctx context.Context) error {
	req := idx.backend.List(true)
	if err := backend.Wait(ctx, req, idx.pollInterval); err != nil {
		idx.swap(nil)
		return err
	}
	if req.Status() != backend.Success {
		idx.swap(nil)
		return fmt.Errorf("failed to list installed packages: %w", req.Err())
	}

	records := req.Result()
	idx.swap(records)
	log.Printf("Installed package index refreshed: %d packages", len(records))
	return nil
}

func (idx *Index) swap(records []models.InstalledPackage) {
	entries := make(map[string]models.InstalledPackage, len(records))
	for _, r := range records {
		entries[r.ID] = r
	}
	records = append([]models.InstalledPackage(nil), records...)

	idx.mu.Lock()
	idx.entries = entries
	idx.records = records
	idx.mu.Unlock()
}

// Exists reports whether an installed record's id contains bundle and, when
// version is non-empty, has exactly that version.
func (idx *Index) Exists(bundle, version string) bool {
	_, ok := idx.lookup(bundle, version)
	return ok
}

// GetRecord returns the first installed record whose id contains bundle.
func (idx *Index) GetRecord(bundle string) (models.InstalledPackage, bool) {
	return idx.lookup(bundle, "")
}

// Records returns the installed records in backend order.
func (idx *Index) Records() []models.InstalledPackage {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]models.InstalledPackage(nil), idx.records...)
}

// Len is the number of installed records.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records)
}

func (idx *Index) lookup(bundle, version string) (models.InstalledPackage, bool) {
	if bundle == "" {
		return models.InstalledPackage{}, false
	}

	idx.mu.RLock()
	if rec, ok := idx.entries[bundle]; ok && (version == "" || rec.Version == version) {
		idx.mu.RUnlock()
		return rec, true
	}
	idx.mu.RUnlock()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, rec := range idx.records {
		if !strings.Contains(rec.ID, bundle) {
			continue
		}
		if version != "" && rec.Version != version {
			continue
		}
		if _, exists := idx.entries[bundle]; !exists {
			idx.entries[bundle] = rec
		}
		return rec, true
	}
	return models.InstalledPackage{}, false
}
