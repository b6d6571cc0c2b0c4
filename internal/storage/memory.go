package storage

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"

	"github.com/Veraticus/kakeibo/internal/common"
)

// memoryData is the state shared by sibling MemoryBackend contexts.
type memoryData struct {
	values   map[string][]byte
	contexts map[*MemoryBackend]struct{}
	mu       sync.RWMutex
}

// MemoryBackend keeps slots in process memory. Sibling handles created with
// Context share the same data and see each other's writes as changes, the
// way two browser tabs share localStorage.
type MemoryBackend struct {
	data     *memoryData
	watchers *watcherSet
	closed   atomic.Bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	data := &memoryData{
		values:   make(map[string][]byte),
		contexts: make(map[*MemoryBackend]struct{}),
	}
	return data.attach()
}

func (d *memoryData) attach() *MemoryBackend {
	m := &MemoryBackend{data: d, watchers: newWatcherSet()}
	d.mu.Lock()
	d.contexts[m] = struct{}{}
	d.mu.Unlock()
	return m
}

// Context returns a sibling handle over the same data.
func (m *MemoryBackend) Context() *MemoryBackend {
	return m.data.attach()
}

// Get implements Backend.
func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := m.check(ctx, key); err != nil {
		return nil, false, err
	}

	m.data.mu.RLock()
	defer m.data.mu.RUnlock()

	v, ok := m.data.values[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set implements Backend.
func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := m.check(ctx, key); err != nil {
		return err
	}

	m.data.mu.Lock()
	m.data.values[key] = bytes.Clone(value)
	peers := m.peersLocked()
	m.data.mu.Unlock()

	for _, p := range peers {
		p.watchers.notify(Change{Key: key, Value: bytes.Clone(value)})
	}
	return nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	if err := m.check(ctx, key); err != nil {
		return err
	}

	m.data.mu.Lock()
	_, existed := m.data.values[key]
	delete(m.data.values, key)
	peers := m.peersLocked()
	m.data.mu.Unlock()

	if existed {
		for _, p := range peers {
			p.watchers.notify(Change{Key: key, Deleted: true})
		}
	}
	return nil
}

// Watch implements Backend.
func (m *MemoryBackend) Watch(key string, fn ChangeFunc) (func(), error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, ErrNilParameter
	}
	if m.closed.Load() {
		return nil, common.ErrClosed
	}
	return m.watchers.add(key, fn), nil
}

// Close implements Backend. Closing one context leaves its siblings usable.
func (m *MemoryBackend) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.data.mu.Lock()
	delete(m.data.contexts, m)
	m.data.mu.Unlock()
	m.watchers.clear()
	return nil
}

func (m *MemoryBackend) check(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if m.closed.Load() {
		return common.ErrClosed
	}
	return ctx.Err()
}

// peersLocked returns the other open contexts. Caller holds data.mu.
func (m *MemoryBackend) peersLocked() []*MemoryBackend {
	peers := make([]*MemoryBackend, 0, len(m.data.contexts))
	for p := range m.data.contexts {
		if p != m {
			peers = append(peers, p)
		}
	}
	return peers
}
