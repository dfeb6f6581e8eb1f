package dag

// WeakTable maps never-reused identities to their live targets. A target is
// registered while alive and invalidated when it is destroyed; lookups after
// that fail even if the target's storage has been recycled.
type WeakTable[T any] struct {
	entries map[uint64]T
}

func NewWeakTable[T any]() *WeakTable[T] {
	return &WeakTable[T]{entries: make(map[uint64]T)}
}

func (w *WeakTable[T]) Register(id uint64, target T) {
	w.entries[id] = target
}

func (w *WeakTable[T]) Lookup(id uint64) (T, bool) {
	t, ok := w.entries[id]
	return t, ok
}

func (w *WeakTable[T]) Invalidate(id uint64) {
	delete(w.entries, id)
}

func (w *WeakTable[T]) Len() int { return len(w.entries) }

// Clear invalidates every entry and returns how many there were.
func (w *WeakTable[T]) Clear() int {
	n := len(w.entries)
	clear(w.entries)
	return n
}
