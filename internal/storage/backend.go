// Package storage provides the key/value slots that persist kakeibo state,
// along with change notifications from other processes sharing the same data.
package storage

import (
	"context"
)

// Change describes a write to a watched key made by another context.
type Change struct {
	Key     string
	Value   []byte
	Deleted bool
}

// ChangeFunc receives changes for a watched key. It is called from a
// backend-owned goroutine and must not block for long.
type ChangeFunc func(Change)

// Backend is the host storage primitive: synchronous get/set on named
// slots plus a subscription to writes made by other contexts.
// A context's own writes are never reported back to its watchers.
type Backend interface {
	// Get returns the bytes stored under key. ok is false when nothing is stored.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set overwrites the slot.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the slot. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Watch registers fn for changes to key. The returned function stops it.
	Watch(key string, fn ChangeFunc) (stop func(), err error)
	// Close releases the backend and stops all watchers.
	Close() error
}
