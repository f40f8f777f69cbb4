package hostfuncs

import (
	"sync"
)

// Table maps guest-visible handles to host values. Handles are assigned in
// increasing order starting at zero and are never reused within a table.
type Table[T any] struct {
	items map[uint32]T
	mu    sync.RWMutex
	next  uint32
	limit int
}

// NewTable creates a table that holds at most limit entries; zero means
// unlimited.
func NewTable[T any](limit int) *Table[T] {
	return &Table[T]{items: make(map[uint32]T), limit: limit}
}

// Insert stores v and returns its handle. It fails with busy when the table
// is full.
func (t *Table[T]) Insert(v T) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.limit > 0 && len(t.items) >= t.limit {
		return 0, Errorf(ErrnoBusy, "handle table full (%d entries)", t.limit)
	}
	h := t.next
	t.next++
	t.items[h] = v
	return h, nil
}

// Get retrieves a value by handle.
func (t *Table[T]) Get(h uint32) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.items[h]
	return v, ok
}

// Remove drops a handle and returns its value.
func (t *Table[T]) Remove(h uint32) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.items[h]
	if ok {
		delete(t.items, h)
	}
	return v, ok
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// Clear drops every handle. Handle numbering continues where it left off.
func (t *Table[T]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.items)
}
