package icons

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps a DiskCache in sync with icon files created or removed by
// other processes sharing the cache directory.
type Watcher struct {
	cache    *DiskCache
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	events   chan fsnotify.Event // optional, for tests
}

func NewWatcher(cache *DiskCache) *Watcher {
	return &Watcher{
		cache:    cache,
		stopChan: make(chan struct{}),
	}
}

// Start begins watching the cache directory.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.cache.Dir()); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher
	log.Printf("Icon cache watcher started for: %s", w.cache.Dir())

	go w.processEvents()
	return nil
}

// Stop stops the watcher. It is safe to call once.
func (w *Watcher) Stop() error {
	close(w.stopChan)
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
			if w.events != nil {
				w.events <- event
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Icon cache watcher error: %v", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, iconExt) {
		return
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.cache.forget(name)
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.cache.track(name)
	}
}
