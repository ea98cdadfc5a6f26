package backend

import (
	"fmt"
	"log"
	"sync"

	"github.com/vrsandeep/gitpm/internal/models"
	"github.com/vrsandeep/gitpm/internal/store"
)

const (
	SourceGit      = "git"
	SourceRegistry = "registry"
)

// LocalBackend records installed packages in the SQLite store. Each call
// returns at once and the work runs on its own goroutine; mutations are
// applied one at a time.
type LocalBackend struct {
	store *store.Store
	mu    sync.Mutex

	// resolved and compiled count Resolve and RequestCompilation calls.
	statsMu  sync.Mutex
	resolved int
	compiled int
}

func NewLocalBackend(st *store.Store) *LocalBackend {
	return &LocalBackend{store: st}
}

// List returns every installed record. The local backend installs
// everything explicitly, so includeIndirect does not change the result.
func (b *LocalBackend) List(includeIndirect bool) *Request {
	return b.run(func() ([]Record, error) {
		records, err := b.store.ListInstalledPackages()
		if err != nil {
			return nil, fmt.Errorf("failed to list installed packages: %w", err)
		}
		return records, nil
	})
}

func (b *LocalBackend) Add(references ...string) *Request {
	return b.AddAndRemove(references, nil)
}

func (b *LocalBackend) Remove(names ...string) *Request {
	return b.AddAndRemove(nil, names)
}

// AddAndRemove applies both lists in a single transaction. Any invalid
// reference or unknown name fails the whole request.
func (b *LocalBackend) AddAndRemove(add []string, remove []string) *Request {
	return b.run(func() ([]Record, error) {
		records := make([]Record, 0, len(add))
		for _, raw := range add {
			ref, err := ParseReference(raw)
			if err != nil {
				return nil, err
			}
			records = append(records, recordFor(ref))
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if err := b.store.ApplyPackageChanges(records, remove); err != nil {
			return nil, err
		}
		for _, r := range records {
			log.Printf("Installed %s (%s)", r.Name, r.ID)
		}
		for _, name := range remove {
			log.Printf("Removed %s", name)
		}
		return records, nil
	})
}

// Resolve re-reads the installed set so callers observe a consistent state
// after a batch change.
func (b *LocalBackend) Resolve() *Request {
	return b.run(func() ([]Record, error) {
		b.statsMu.Lock()
		b.resolved++
		b.statsMu.Unlock()
		return b.store.ListInstalledPackages()
	})
}

// RequestCompilation has nothing to compile locally; it completes once the
// pending mutations have been applied.
func (b *LocalBackend) RequestCompilation() *Request {
	return b.run(func() ([]Record, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.statsMu.Lock()
		b.compiled++
		b.statsMu.Unlock()
		return nil, nil
	})
}

// Stats returns how many resolve and compilation requests were served.
func (b *LocalBackend) Stats() (resolved, compiled int) {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	return b.resolved, b.compiled
}

func (b *LocalBackend) run(fn func() ([]Record, error)) *Request {
	req := NewRequest()
	go func() {
		result, err := fn()
		req.Complete(result, err)
	}()
	return req
}

func recordFor(ref Reference) Record {
	source := SourceRegistry
	if ref.IsGit() {
		source = SourceGit
	}
	return models.InstalledPackage{
		ID:      ref.ID(),
		Name:    ref.Name,
		Version: ref.Version,
		Source:  source,
	}
}
