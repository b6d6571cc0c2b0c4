package storage

import (
	"sync"
)

// watcherSet tracks change callbacks by key.
type watcherSet struct {
	byKey  map[string]map[int]ChangeFunc
	nextID int
	mu     sync.RWMutex
}

func newWatcherSet() *watcherSet {
	return &watcherSet{byKey: make(map[string]map[int]ChangeFunc)}
}

// add registers fn and returns a function that removes it.
func (w *watcherSet) add(key string, fn ChangeFunc) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++
	if w.byKey[key] == nil {
		w.byKey[key] = make(map[int]ChangeFunc)
	}
	w.byKey[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.byKey[key], id)
			if len(w.byKey[key]) == 0 {
				delete(w.byKey, key)
			}
		})
	}
}

// keys returns the keys that currently have watchers.
func (w *watcherSet) keys() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	keys := make([]string, 0, len(w.byKey))
	for k := range w.byKey {
		keys = append(keys, k)
	}
	return keys
}

// notify calls every watcher of change.Key. Callbacks run outside the lock.
func (w *watcherSet) notify(change Change) {
	w.mu.RLock()
	fns := make([]ChangeFunc, 0, len(w.byKey[change.Key]))
	for _, fn := range w.byKey[change.Key] {
		fns = append(fns, fn)
	}
	w.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}

// clear drops every watcher.
func (w *watcherSet) clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.byKey = make(map[string]map[int]ChangeFunc)
}
