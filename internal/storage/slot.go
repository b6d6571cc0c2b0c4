package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// CorruptPolicy decides what happens when a slot holds data that cannot be decoded.
type CorruptPolicy int

const (
	// KeepCorrupt falls back to the initial value and leaves the stored bytes alone.
	KeepCorrupt CorruptPolicy = iota
	// ClearCorrupt deletes the slot before falling back to the initial value.
	ClearCorrupt
)

// SlotListener is called after the slot's value changes. external is true
// when the change was adopted from another context.
type SlotListener[T any] func(value T, external bool)

// Slot mirrors one JSON-encoded value stored under a key. Reads are served
// from memory and writes replace the whole stored value. Writes from other
// contexts are adopted as they arrive (last writer wins). A change that
// arrives while a local write is in flight is settled by re-reading the
// backend once the write finishes, so the mirror ends on what is stored.
type Slot[T any] struct {
	backend   Backend
	logger    *slog.Logger
	listeners map[int]SlotListener[T]
	stopWatch func()
	value     T
	key       string
	nextID    int
	policy    CorruptPolicy
	mu        sync.RWMutex
	writeMu   sync.Mutex
	persisted bool
	writing   bool // guarded by mu
	pending   bool // guarded by mu
}

// SlotOption configures a Slot.
type SlotOption func(*slotOptions)

type slotOptions struct {
	logger *slog.Logger
	policy CorruptPolicy
	watch  bool
}

// WithCorruptPolicy sets the behavior for undecodable stored data.
func WithCorruptPolicy(p CorruptPolicy) SlotOption {
	return func(o *slotOptions) {
		o.policy = p
	}
}

// WithLogger sets the logger used for storage warnings.
func WithLogger(l *slog.Logger) SlotOption {
	return func(o *slotOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithoutWatch disables adoption of changes from other contexts.
func WithoutWatch() SlotOption {
	return func(o *slotOptions) {
		o.watch = false
	}
}

// OpenSlot loads key from backend. When nothing is stored, or the stored
// data cannot be read, the slot starts at initial; initial is not written
// back until the first Write.
func OpenSlot[T any](ctx context.Context, backend Backend, key string, initial T, opts ...SlotOption) (*Slot[T], error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend", ErrNilParameter)
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	o := slotOptions{logger: slog.Default(), watch: true}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Slot[T]{
		backend:   backend,
		key:       key,
		logger:    o.logger.With("key", key),
		policy:    o.policy,
		listeners: make(map[int]SlotListener[T]),
		value:     initial,
	}
	s.load(ctx, initial)

	if o.watch {
		stop, err := backend.Watch(key, s.adopt)
		if err != nil {
			// The slot still works for this session; it just won't see
			// writes from elsewhere.
			s.logger.Warn("failed to watch storage key", "error", err)
		} else {
			s.stopWatch = stop
		}
	}
	return s, nil
}

func (s *Slot[T]) load(ctx context.Context, initial T) {
	data, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("error reading storage key", "error", err)
		return
	}
	if !ok {
		return
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.Warn("error parsing storage key", "error", err)
		if s.policy == ClearCorrupt {
			if delErr := s.backend.Delete(ctx, s.key); delErr != nil {
				s.logger.Warn("error clearing storage key", "error", delErr)
			}
		}
		s.value = initial
		return
	}
	s.value = v
	s.persisted = true
}

// Key returns the slot's key.
func (s *Slot[T]) Key() string {
	return s.key
}

// Value returns the current in-memory value.
func (s *Slot[T]) Value() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Persisted reports whether the current value came from, or has been
// written to, the backend.
func (s *Slot[T]) Persisted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persisted
}

// Write replaces the value. The mirror is updated before the backend write,
// so a failed write leaves the new value authoritative for this session;
// the failure is logged and returned.
func (s *Slot[T]) Write(ctx context.Context, value T) error {
	return s.Update(ctx, func(T) T { return value })
}

// Update computes the new value from the current one and writes it.
func (s *Slot[T]) Update(ctx context.Context, fn func(T) T) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	next := fn(s.value)
	s.value = next
	s.writing = true
	s.mu.Unlock()

	err := s.persist(ctx, next)
	s.emit(next, false)
	s.settle(ctx)
	return err
}

// settle re-reads the backend until no external change arrived during the
// write. Callers hold writeMu.
func (s *Slot[T]) settle(ctx context.Context) {
	for {
		s.mu.Lock()
		if !s.pending {
			s.writing = false
			s.mu.Unlock()
			return
		}
		s.pending = false
		s.mu.Unlock()

		s.reload(ctx)
	}
}

func (s *Slot[T]) persist(ctx context.Context, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("error encoding storage key", "error", err)
		return fmt.Errorf("failed to encode %s: %w", s.key, err)
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		s.logger.Warn("error setting storage key", "error", err)
		return fmt.Errorf("failed to persist %s: %w", s.key, err)
	}

	s.mu.Lock()
	s.persisted = true
	s.mu.Unlock()
	return nil
}

// adopt takes a change made by another context into the mirror. The
// backend is re-read rather than trusting change.Value, since a watcher may
// deliver a change after a newer write has landed.
func (s *Slot[T]) adopt(change Change) {
	if change.Deleted {
		return
	}

	s.mu.Lock()
	if s.writing {
		// Backends may notify on the writer's goroutine; the write settles it.
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.reload(context.Background())
}

// reload replaces the mirror with the stored value. Missing or undecodable
// data leaves the mirror alone.
func (s *Slot[T]) reload(ctx context.Context) {
	data, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("error reading storage key", "error", err)
		return
	}
	if !ok {
		return
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.Warn("error parsing storage key", "error", err)
		return
	}

	s.mu.Lock()
	s.value = v
	s.persisted = true
	s.mu.Unlock()

	s.logger.Debug("adopted external storage change")
	s.emit(v, true)
}

// Subscribe registers fn for value changes. The returned function removes it.
func (s *Slot[T]) Subscribe(fn SlotListener[T]) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Slot[T]) emit(value T, external bool) {
	s.mu.RLock()
	fns := make([]SlotListener[T], 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(value, external)
	}
}

// Close stops watching the backend. The backend itself stays open.
func (s *Slot[T]) Close() {
	s.mu.Lock()
	stop := s.stopWatch
	s.stopWatch = nil
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
}
