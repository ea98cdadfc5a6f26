// Package installer drives import, remove and update requests against the
// installation backend and keeps the installed index current afterwards.
package installer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/vrsandeep/gitpm/internal/backend"
	"github.com/vrsandeep/gitpm/internal/metrics"
	"github.com/vrsandeep/gitpm/internal/models"
	"github.com/vrsandeep/gitpm/internal/util"
)

const JobID = "installer"

var (
	ErrInstallInProgress = errors.New("an installation is already in progress")
	ErrNotInstalled      = errors.New("package is not installed")
	ErrInvalidManifest   = errors.New("manifest has no package name")
)

// Update phases.
const (
	PhaseRemove  = "remove"
	PhaseImport  = "import"
	PhaseResolve = "resolve"
)

// UpdateError reports which phase of an update failed. A failure in the
// import phase leaves the package uninstalled; nothing is rolled back. In
// the resolve phase the new release is already installed.
type UpdateError struct {
	Package string
	Phase   string
	Err     error
}

func (e *UpdateError) Error() string {
	switch e.Phase {
	case PhaseImport:
		return fmt.Sprintf("update of %s failed while importing, the package is no longer installed: %v", e.Package, e.Err)
	case PhaseResolve:
		return fmt.Sprintf("update of %s installed the new release but did not complete: %v", e.Package, e.Err)
	}
	return fmt.Sprintf("update of %s failed while removing: %v", e.Package, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// Index is the installed-package index the orchestrator refreshes.
type Index interface {
	Refresh(ctx context.Context) error
	GetRecord(bundle string) (models.InstalledPackage, bool)
}

// OperationLog persists the outcome of every request.
type OperationLog interface {
	RecordOperation(kind, target string, refs []string, status, message string) (int64, error)
}

type Broadcaster interface {
	BroadcastJSON(v any)
}

// Orchestrator serializes mutations: while one import, update or remove is
// outstanding, another is rejected with ErrInstallInProgress.
type Orchestrator struct {
	backend      backend.Backend
	index        Index
	ops          OperationLog
	hub          Broadcaster
	pollInterval time.Duration

	mu       sync.Mutex
	inFlight bool
	onReload func()
}

func New(b backend.Backend, index Index, ops OperationLog, hub Broadcaster, pollInterval time.Duration) *Orchestrator {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Millisecond
	}
	return &Orchestrator{
		backend:      b,
		index:        index,
		ops:          ops,
		hub:          hub,
		pollInterval: pollInterval,
	}
}

// OnReload registers fn to run after every successful mutation.
func (o *Orchestrator) OnReload(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onReload = fn
}

// InFlight reports whether a mutation is outstanding.
func (o *Orchestrator) InFlight() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight
}

// ImportReferences lists what an import of manifest adds: every dependency
// as name@constraint, every third-party URL, then the package itself
// pinned to its release tag. Constraints are passed through verbatim.
func ImportReferences(cloneURL string, manifest models.PackageManifest) []string {
	refs := make([]string, 0, len(manifest.Dependencies)+len(manifest.ThirdPartyDependencies)+1)
	for _, name := range sortedKeys(manifest.Dependencies) {
		refs = append(refs, name+"@"+manifest.Dependencies[name])
	}
	for _, label := range sortedKeys(manifest.ThirdPartyDependencies) {
		refs = append(refs, manifest.ThirdPartyDependencies[label])
	}
	target := manifest.Name + "@" + cloneURL
	if manifest.Version != "" {
		target += "#" + util.TagVersion(manifest.Version)
	}
	return append(refs, target)
}

// Import installs the package described by manifest from cloneURL,
// together with its dependencies, as one batched backend request.
func (o *Orchestrator) Import(ctx context.Context, cloneURL string, manifest models.PackageManifest) error {
	if manifest.Name == "" {
		return ErrInvalidManifest
	}
	refs := ImportReferences(cloneURL, manifest)
	return o.run(ctx, models.OperationImport, manifest.Name, refs, func(ctx context.Context) ([]string, error) {
		_, err := o.importRefs(ctx, manifest.Name, refs)
		return refs, err
	})
}

// Remove uninstalls a package the index reports as present.
func (o *Orchestrator) Remove(ctx context.Context, packageName string) error {
	return o.run(ctx, models.OperationRemove, packageName, nil, func(ctx context.Context) ([]string, error) {
		record, ok := o.index.GetRecord(packageName)
		if !ok {
			return nil, fmt.Errorf("%s: %w", packageName, ErrNotInstalled)
		}
		return []string{record.Name}, o.remove(ctx, record.Name)
	})
}

// Update removes the installed package, then imports the new release. The
// import only runs if the remove succeeded. A package that is not
// installed is simply imported.
func (o *Orchestrator) Update(ctx context.Context, packageName, cloneURL string, manifest models.PackageManifest) error {
	if manifest.Name == "" {
		return ErrInvalidManifest
	}
	refs := ImportReferences(cloneURL, manifest)
	return o.run(ctx, models.OperationUpdate, packageName, refs, func(ctx context.Context) ([]string, error) {
		return refs, o.update(ctx, packageName, manifest.Name, refs)
	})
}

// run holds the in-flight flag for the whole mutation. The mutation itself
// runs detached from ctx so the flag is only released once the backend is
// done; a caller whose ctx ends stops waiting and gets ctx's error.
func (o *Orchestrator) run(ctx context.Context, kind, target string, refs []string, fn func(ctx context.Context) ([]string, error)) error {
	if !o.acquire() {
		o.reject(kind, target, refs)
		return ErrInstallInProgress
	}

	done := make(chan error, 1)
	go func() {
		used, err := fn(context.WithoutCancel(ctx))
		o.finish(kind, target, used, err)
		o.release()
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		log.Printf("Warning: stopped waiting for %s of %s, it continues in the background: %v", kind, target, ctx.Err())
		return fmt.Errorf("%s of %s still running: %w", kind, target, ctx.Err())
	}
}

func (o *Orchestrator) update(ctx context.Context, packageName, newName string, refs []string) error {
	if record, ok := o.index.GetRecord(packageName); ok {
		o.progress(fmt.Sprintf("Removing %s", record.Name), 0, "in_progress")
		if err := o.remove(ctx, record.Name); err != nil {
			return &UpdateError{Package: packageName, Phase: PhaseRemove, Err: err}
		}
	} else {
		log.Printf("Update: %s is not installed, importing", packageName)
	}

	added, err := o.importRefs(ctx, newName, refs)
	switch {
	case err == nil:
		return nil
	case added:
		return &UpdateError{Package: packageName, Phase: PhaseResolve, Err: err}
	default:
		return &UpdateError{Package: packageName, Phase: PhaseImport, Err: err}
	}
}

// importRefs reports whether the backend accepted the references. Once
// they are added the index is refreshed even if a later step fails.
func (o *Orchestrator) importRefs(ctx context.Context, name string, refs []string) (added bool, err error) {
	o.progress(fmt.Sprintf("Installing %s (%d references)", name, len(refs)), 10, "in_progress")

	if err := o.await(ctx, o.backend.AddAndRemove(refs, nil)); err != nil {
		return false, fmt.Errorf("failed to install %s: %w", name, err)
	}
	defer o.refreshAndReload(ctx)

	if err := o.await(ctx, o.backend.Resolve()); err != nil {
		return true, fmt.Errorf("failed to resolve packages after installing %s: %w", name, err)
	}
	if err := o.await(ctx, o.backend.RequestCompilation()); err != nil {
		return true, fmt.Errorf("compilation after installing %s failed: %w", name, err)
	}
	return true, nil
}

func (o *Orchestrator) remove(ctx context.Context, name string) error {
	if err := o.await(ctx, o.backend.Remove(name)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	o.refreshAndReload(ctx)
	return nil
}

// await polls req until it completes and converts a failed status into an
// error.
func (o *Orchestrator) await(ctx context.Context, req *backend.Request) error {
	if err := backend.Wait(ctx, req, o.pollInterval); err != nil {
		return err
	}
	if req.Status() != backend.Success {
		if req.Err() != nil {
			return req.Err()
		}
		return errors.New("backend request failed")
	}
	return nil
}

func (o *Orchestrator) refreshAndReload(ctx context.Context) {
	if err := o.index.Refresh(ctx); err != nil {
		log.Printf("Warning: failed to refresh installed packages: %v", err)
	}
	o.mu.Lock()
	reload := o.onReload
	o.mu.Unlock()
	if reload != nil {
		reload()
	}
	o.progress("Installed packages changed", 100, "reload")
}

func (o *Orchestrator) acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		return false
	}
	o.inFlight = true
	return true
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.inFlight = false
	o.mu.Unlock()
}

func (o *Orchestrator) reject(kind, target string, refs []string) {
	log.Printf("Warning: %s of %s rejected: %v", kind, target, ErrInstallInProgress)
	metrics.Installations.WithLabelValues(kind, models.OperationRejected).Inc()
	o.record(kind, target, refs, models.OperationRejected, ErrInstallInProgress.Error())
}

func (o *Orchestrator) finish(kind, target string, refs []string, err error) {
	status, message := models.OperationSuccess, ""
	if err != nil {
		status, message = models.OperationFailed, err.Error()
		log.Printf("Warning: %s of %s failed: %v", kind, target, err)
		o.progress(message, 100, "failed")
	} else {
		log.Printf("%s of %s succeeded", kind, target)
		o.progress(fmt.Sprintf("%s of %s completed", kind, target), 100, "completed")
	}
	metrics.Installations.WithLabelValues(kind, status).Inc()
	o.record(kind, target, refs, status, message)
}

func (o *Orchestrator) record(kind, target string, refs []string, status, message string) {
	if o.ops == nil {
		return
	}
	if _, err := o.ops.RecordOperation(kind, target, refs, status, message); err != nil {
		log.Printf("Warning: failed to record %s operation: %v", kind, err)
	}
}

func (o *Orchestrator) progress(message string, progress float64, status string) {
	if o.hub == nil {
		return
	}
	o.hub.BroadcastJSON(models.ProgressUpdate{
		JobID:    JobID,
		Message:  message,
		Progress: progress,
		Status:   status,
		Done:     status != "in_progress",
	})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
