// Package catalog discovers the repositories of a source, resolves their
// manifests, icons and releases concurrently, and keeps the result as an
// in-memory catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"github.com/vrsandeep/gitpm/internal/github"
	"github.com/vrsandeep/gitpm/internal/metrics"
	"github.com/vrsandeep/gitpm/internal/models"
	"github.com/vrsandeep/gitpm/internal/util"
)

const JobID = "catalog-sync"

var (
	ErrNoSource        = errors.New("no source selected")
	ErrStaleGeneration = errors.New("catalog selection changed")
)

// Remote is the subset of the GitHub client the catalog needs.
type Remote interface {
	ListSources(ctx context.Context) []models.Source
	ListRepositories(ctx context.Context, source models.Source) []*gh.Repository
	FetchManifest(ctx context.Context, owner, repo, ref string) models.PackageManifest
	FetchReleases(ctx context.Context, owner, repo string) github.ReleaseSet
	IconURL(owner, repo, branch, iconPath string) string
}

type IconFetcher interface {
	GetIcon(ctx context.Context, repoName, iconURL string) image.Image
}

// Installed is the installed-package index as seen by the catalog.
type Installed interface {
	InstalledChecker
	GetRecord(bundle string) (models.InstalledPackage, bool)
}

// Broadcaster receives progress updates, normally the websocket hub.
type Broadcaster interface {
	BroadcastJSON(v any)
}

type Options struct {
	// AppendDelay is slept between appending two resolved repositories.
	AppendDelay time.Duration
	// Concurrency bounds the repositories resolved at once.
	Concurrency int
}

// Catalog is safe for concurrent use. Every selection gets a new
// generation; results produced for an older generation are dropped.
type Catalog struct {
	remote Remote
	icons  IconFetcher
	index  Installed
	hub    Broadcaster
	opts   Options

	mu         sync.RWMutex
	sources    []models.Source
	selected   models.Source
	generation uint64
	repos      []*models.RepositoryInfo
	loading    bool
	loaded     int
	total      int
	cancel     context.CancelFunc
	done       chan struct{}
}

func New(remote Remote, icons IconFetcher, index Installed, hub Broadcaster, opts Options) *Catalog {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	done := make(chan struct{})
	close(done)
	return &Catalog{
		remote: remote,
		icons:  icons,
		index:  index,
		hub:    hub,
		opts:   opts,
		done:   done,
	}
}

// LoadSources fetches the sources available to the authenticated user.
func (c *Catalog) LoadSources(ctx context.Context) []models.Source {
	sources := c.remote.ListSources(ctx)
	c.mu.Lock()
	c.sources = sources
	c.mu.Unlock()
	return sources
}

// Sources returns the last loaded sources. Empty means not loaded yet.
func (c *Catalog) Sources() []models.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Source(nil), c.sources...)
}

func (c *Catalog) SelectedSource() models.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

func (c *Catalog) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Select switches to source: it starts a new generation, clears the
// repository list and launches discovery in the background. Any sync still
// running for an older generation is cancelled.
func (c *Catalog) Select(ctx context.Context, source models.Source) uint64 {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	c.selected = source
	c.repos = nil
	c.loaded, c.total = 0, 0
	c.loading = true
	syncCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	log.Printf("Catalog: selected source %s (generation %d)", source, gen)
	go func() {
		defer close(done)
		defer cancel()
		if err := c.Sync(syncCtx, source, gen); err != nil && !errors.Is(err, ErrStaleGeneration) {
			log.Printf("Warning: catalog sync for %s failed: %v", source, err)
		}
	}()
	return gen
}

// Refresh re-discovers the current selection under a new generation.
func (c *Catalog) Refresh(ctx context.Context) (uint64, error) {
	source := c.SelectedSource()
	if source == "" {
		return 0, ErrNoSource
	}
	return c.Select(ctx, source), nil
}

// Wait blocks until the sync started by the latest Select finishes.
func (c *Catalog) Wait(ctx context.Context) error {
	c.mu.RLock()
	done := c.done
	c.mu.RUnlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sync lists the repositories of source and resolves each one. Resolved
// entries are appended in completion order, AppendDelay apart. It returns
// ErrStaleGeneration once gen is no longer current.
func (c *Catalog) Sync(ctx context.Context, source models.Source, gen uint64) error {
	if !c.isCurrent(gen) {
		return ErrStaleGeneration
	}

	repos := c.remote.ListRepositories(ctx, source)
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return ErrStaleGeneration
	}
	c.total = len(repos)
	c.mu.Unlock()
	c.broadcast(fmt.Sprintf("Fetched 0/%d", len(repos)), 0, "in_progress", false)

	results := make(chan *models.RepositoryInfo)
	go func() {
		p := pool.New().WithMaxGoroutines(c.opts.Concurrency)
		for _, repo := range repos {
			repo := repo
			p.Go(func() {
				results <- c.resolveRepository(ctx, repo)
			})
		}
		p.Wait()
		close(results)
	}()

	stale := false
	for info := range results {
		if stale {
			continue
		}
		loaded, total, ok := c.appendRepository(gen, info)
		if !ok {
			stale = true
			metrics.StaleResultsDiscarded.Inc()
			continue
		}
		metrics.RepositoriesResolved.Inc()
		c.broadcast(fmt.Sprintf("Fetched %d/%d", loaded, total), percent(loaded, total), "in_progress", false)

		if c.opts.AppendDelay > 0 {
			select {
			case <-time.After(c.opts.AppendDelay):
			case <-ctx.Done():
			}
		}
	}
	if stale {
		return ErrStaleGeneration
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return ErrStaleGeneration
	}
	c.loading = false
	loaded := c.loaded
	c.mu.Unlock()

	log.Printf("Catalog: %d repositories loaded for %s", loaded, source)
	c.broadcast(fmt.Sprintf("Loaded %d repositories from %s", loaded, source), 100, "completed", true)
	return nil
}

// resolveRepository fetches the manifest and icon, and the releases,
// concurrently and returns once all of them are done.
func (c *Catalog) resolveRepository(ctx context.Context, repo *gh.Repository) *models.RepositoryInfo {
	info := &models.RepositoryInfo{
		Owner:         repo.GetOwner().GetLogin(),
		Name:          repo.GetName(),
		CloneURL:      repo.GetCloneURL(),
		DefaultBranch: repo.GetDefaultBranch(),
		Stars:         repo.GetStargazersCount(),
		UpdatedAt:     repo.GetUpdatedAt().Time,
	}

	var set github.ReleaseSet
	var wg conc.WaitGroup
	wg.Go(func() {
		info.Manifest = c.remote.FetchManifest(ctx, info.Owner, info.Name, "")
		info.IconURL = c.remote.IconURL(info.Owner, info.Name, info.DefaultBranch, info.Manifest.IconPath)
		if c.icons != nil {
			info.Icon = c.icons.GetIcon(ctx, info.Name, info.IconURL)
		}
	})
	wg.Go(func() {
		set = c.remote.FetchReleases(ctx, info.Owner, info.Name)
	})
	wg.Wait()

	info.Versions = ReconcileVersions(set.Releases, set.Manifests, set.LatestID, set.HasLatest, c.index)
	c.markInstalled(info)
	return info
}

// markInstalled snapshots the installed state and whether the installed
// version is older than the current release.
func (c *Catalog) markInstalled(info *models.RepositoryInfo) {
	if c.index == nil {
		return
	}
	name := info.Manifest.Name
	current, hasCurrent := info.CurrentVersion()
	if name == "" && hasCurrent {
		name = current.Package.Name
	}
	if name == "" {
		return
	}

	record, ok := c.index.GetRecord(name)
	info.IsInstalled = ok
	if !ok || !hasCurrent || current.Package.Version == "" {
		return
	}
	newer, err := util.IsNewerVersion(record.Version, current.Package.Version)
	if err == nil {
		info.UpdateAvailable = newer
	}
}

func (c *Catalog) appendRepository(gen uint64, info *models.RepositoryInfo) (loaded, total int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return 0, 0, false
	}
	c.repos = append(c.repos, info)
	c.loaded++
	return c.loaded, c.total, true
}

func (c *Catalog) isCurrent(gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation == gen
}

// Repositories returns a snapshot of the catalog in append order.
func (c *Catalog) Repositories() []models.RepositoryInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.RepositoryInfo, 0, len(c.repos))
	for _, r := range c.repos {
		out = append(out, *r)
	}
	return out
}

// Repository looks up one repository by name.
func (c *Catalog) Repository(name string) (models.RepositoryInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.repos {
		if r.Name == name {
			return *r, true
		}
	}
	return models.RepositoryInfo{}, false
}

func (c *Catalog) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Progress returns how many repositories were appended out of how many the
// current source has.
func (c *Catalog) Progress() (loaded, total int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded, c.total
}

func (c *Catalog) broadcast(message string, progress float64, status string, done bool) {
	if c.hub == nil {
		return
	}
	c.hub.BroadcastJSON(models.ProgressUpdate{
		JobID:    JobID,
		Message:  message,
		Progress: progress,
		Status:   status,
		Done:     done,
	})
}

func percent(n, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(n) / float64(total) * 100
}
