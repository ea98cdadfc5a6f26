package icons

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCacheEviction(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir(), 2)
	require.NoError(t, err)
	data := testPNG(t, 4, 4, color.White)

	require.NoError(t, cache.Write("a", data))
	require.NoError(t, cache.Write("b", data))
	assert.True(t, cache.Has("a")) // a is now most recent
	require.NoError(t, cache.Write("c", data))

	assert.Equal(t, 2, cache.Len())
	assert.FileExists(t, cache.Path("a"))
	assert.NoFileExists(t, cache.Path("b"))
	assert.FileExists(t, cache.Path("c"))
}

func TestDiskCacheSeedsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	data := testPNG(t, 4, 4, color.White)
	old := time.Now().Add(-time.Hour)
	for i, name := range []string{"old.png", "mid.png", "new.png"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, data, 0644))
		mod := old.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, mod, mod))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	cache, err := NewDiskCache(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
	assert.NoFileExists(t, filepath.Join(dir, "old.png"))
	assert.True(t, cache.Has("new"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestDiskCacheRejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, nil, 0644))
	_, err := NewDiskCache(f, 2)
	assert.Error(t, err)
}

func TestWatcherTracksExternalChanges(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir(), 10)
	require.NoError(t, err)

	w := NewWatcher(cache)
	w.events = make(chan fsnotify.Event, 16)
	require.NoError(t, w.Start())
	defer w.Stop()

	waitFor := func(op fsnotify.Op, name string) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case ev := <-w.events:
				if ev.Op&op != 0 && filepath.Base(ev.Name) == name {
					return
				}
			case <-deadline:
				t.Fatalf("no %v event for %s", op, name)
			}
		}
	}

	p := cache.Path("external")
	require.NoError(t, os.WriteFile(p, testPNG(t, 4, 4, color.White), 0644))
	waitFor(fsnotify.Create|fsnotify.Write, "external.png")
	assert.True(t, cache.Has("external"))

	require.NoError(t, os.Remove(p))
	waitFor(fsnotify.Remove, "external.png")
	assert.False(t, cache.Has("external"))
}
