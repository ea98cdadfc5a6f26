// Package icons resolves repository icons through a bounded on-disk cache,
// falling back to a placeholder image.
package icons

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/vrsandeep/gitpm/internal/metrics"
)

const maxIconBytes = 4 << 20

// Resolver implements GetIcon. Concurrent requests for the same repository
// share one download.
type Resolver struct {
	cache        *DiskCache
	client       *http.Client
	placeholders []string

	placeholderOnce sync.Once
	placeholder     image.Image

	mu       sync.Mutex
	inflight map[string]*download
}

type download struct {
	done chan struct{}
	img  image.Image
}

// NewResolver uses client for downloads; it is expected to attach the
// bearer token. placeholderPaths are tried in order.
func NewResolver(cache *DiskCache, client *http.Client, placeholderPaths ...string) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Resolver{
		cache:        cache,
		client:       client,
		placeholders: placeholderPaths,
		inflight:     make(map[string]*download),
	}
}

// Cache returns the backing disk cache.
func (r *Resolver) Cache() *DiskCache { return r.cache }

// Placeholder returns the placeholder image, loading it on first use.
func (r *Resolver) Placeholder() image.Image {
	r.placeholderOnce.Do(func() {
		r.placeholder = loadPlaceholder(r.placeholders...)
	})
	return r.placeholder
}

// GetIcon returns the icon for repoName. A cached file is served without
// network access; otherwise iconURL is downloaded and cached. Any failure
// yields the placeholder.
func (r *Resolver) GetIcon(ctx context.Context, repoName, iconURL string) image.Image {
	if iconURL == "" || repoName == "" {
		return r.Placeholder()
	}

	if img, ok := r.readCached(repoName); ok {
		metrics.IconCache.WithLabelValues("hit").Inc()
		return img
	}

	r.mu.Lock()
	if d, ok := r.inflight[repoName]; ok {
		r.mu.Unlock()
		select {
		case <-d.done:
		case <-ctx.Done():
			return r.Placeholder()
		}
		if d.img == nil {
			return r.Placeholder()
		}
		return d.img
	}
	d := &download{done: make(chan struct{})}
	r.inflight[repoName] = d
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inflight, repoName)
		r.mu.Unlock()
		close(d.done)
	}()

	// Another request may have finished the download while we waited for
	// the lock.
	if img, ok := r.readCached(repoName); ok {
		d.img = img
		return img
	}

	metrics.IconCache.WithLabelValues("miss").Inc()
	img, err := r.download(ctx, repoName, iconURL)
	if err != nil {
		metrics.IconCache.WithLabelValues("failed").Inc()
		log.Printf("Warning: failed to fetch icon for %s: %v", repoName, err)
		return r.Placeholder()
	}
	d.img = img
	return img
}

func (r *Resolver) readCached(repoName string) (image.Image, bool) {
	data, err := os.ReadFile(r.cache.Path(repoName))
	if err != nil {
		return nil, false
	}
	img, err := Decode(data)
	if err != nil {
		log.Printf("Warning: cached icon for %s is corrupt, refetching: %v", repoName, err)
		return nil, false
	}
	r.cache.Use(repoName)
	return img, true
}

func (r *Resolver) download(ctx context.Context, repoName, iconURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, iconURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIconBytes))
	if err != nil {
		return nil, err
	}
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	metrics.IconCache.WithLabelValues("downloaded").Inc()

	encoded, err := EncodePNG(img)
	if err != nil {
		return img, nil
	}
	if err := r.cache.Write(repoName, encoded); err != nil {
		log.Printf("Warning: failed to cache icon for %s: %v", repoName, err)
	}
	return img, nil
}
