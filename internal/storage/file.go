package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/fsnotify/fsnotify"
)

const fileExt = ".json"

// FileBackend stores each slot as <dir>/<key>.json and learns about writes
// from other processes through a directory watch.
type FileBackend struct {
	watcher  *fsnotify.Watcher
	watchers *watcherSet
	seen     map[string][]byte
	done     chan struct{}
	dir      string
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   atomic.Bool
}

// NewFileBackend creates dir if needed and returns a backend rooted there.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := validateString(dir, "dir"); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{
		dir:      dir,
		watchers: newWatcherSet(),
		seen:     make(map[string][]byte),
		done:     make(chan struct{}),
	}, nil
}

// Dir returns the directory holding the slot files.
func (f *FileBackend) Dir() string {
	return f.dir
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, key+fileExt)
}

// Get implements Backend.
func (f *FileBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := f.check(ctx, key); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return data, true, nil
}

// Set implements Backend. The file is replaced atomically via rename.
func (f *FileBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := f.check(ctx, key); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		return fmt.Errorf("failed to replace key %q: %w", key, err)
	}
	f.seen[key] = bytes.Clone(value)
	return nil
}

// Delete implements Backend.
func (f *FileBackend) Delete(ctx context.Context, key string) error {
	if err := f.check(ctx, key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	f.seen[key] = nil
	return nil
}

// Watch implements Backend. The first call starts the directory watcher.
func (f *FileBackend) Watch(key string, fn ChangeFunc) (func(), error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, ErrNilParameter
	}
	if f.closed.Load() {
		return nil, common.ErrClosed
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, known := f.seen[key]; !known {
		data, err := os.ReadFile(f.path(key))
		switch {
		case err == nil:
			f.seen[key] = data
		case errors.Is(err, fs.ErrNotExist):
			f.seen[key] = nil
		default:
			return nil, fmt.Errorf("failed to read key %q: %w", key, err)
		}
	}

	if f.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
		if err := w.Add(f.dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", f.dir, err)
		}
		f.watcher = w
		f.wg.Add(1)
		go f.run(w)
	}

	return f.watchers.add(key, fn), nil
}

func (f *FileBackend) run(w *fsnotify.Watcher) {
	defer f.wg.Done()

	for {
		select {
		case <-f.done:
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if change, changed := f.handleEvent(event); changed {
				f.watchers.notify(change)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("file watcher error", "dir", f.dir, "error", err)
		}
	}
}

// handleEvent turns a filesystem event into a Change when the slot's
// content differs from what this backend last saw or wrote.
func (f *FileBackend) handleEvent(event fsnotify.Event) (Change, bool) {
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".") {
		return Change{}, false
	}
	key := strings.TrimSuffix(name, fileExt)
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return Change{}, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	prev, watched := f.seen[key]
	if !watched {
		return Change{}, false
	}

	data, err := os.ReadFile(f.path(key))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if prev == nil {
			return Change{}, false
		}
		f.seen[key] = nil
		return Change{Key: key, Deleted: true}, true
	case err != nil:
		slog.Warn("failed to read changed slot", "key", key, "error", err)
		return Change{}, false
	}

	if prev != nil && bytes.Equal(prev, data) {
		return Change{}, false
	}
	f.seen[key] = data
	return Change{Key: key, Value: data}, true
}

// Close stops the watcher.
func (f *FileBackend) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	close(f.done)

	f.mu.Lock()
	w := f.watcher
	f.mu.Unlock()

	var err error
	if w != nil {
		err = w.Close()
	}
	f.wg.Wait()
	f.watchers.clear()
	return err
}

func (f *FileBackend) check(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if f.closed.Load() {
		return common.ErrClosed
	}
	return nil
}
