package recorder

import (
	"sync"
)

// Buffer is a thread-safe ring buffer that doubles its capacity when it
// reaches 70% full, so a slow writer never drops feed messages.
type Buffer[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	read   int
	write  int
	size   int
	cap    int
	closed bool

	totalIn  int64
	totalOut int64
	grows    int
}

// NewBuffer creates a buffer with the given initial capacity.
func NewBuffer[T any](initialCapacity int) *Buffer[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	b := &Buffer[T]{
		items: make([]T, initialCapacity),
		cap:   initialCapacity,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Send adds an item. Returns false if the buffer is closed.
func (b *Buffer[T]) Send(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	threshold := (b.cap * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if b.size+1 >= threshold {
		b.grow()
	}

	b.items[b.write] = item
	b.write = (b.write + 1) % b.cap
	b.size++
	b.totalIn++

	b.cond.Signal()
	return true
}

// Receive blocks until an item is available or the buffer is closed.
// Returns false only when the buffer is closed and drained.
func (b *Buffer[T]) Receive() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.size == 0 && !b.closed {
		b.cond.Wait()
	}

	if b.size == 0 {
		var zero T
		return zero, false
	}

	return b.take(), true
}

// TryReceive returns immediately with ok=false when the buffer is empty.
func (b *Buffer[T]) TryReceive() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == 0 {
		var zero T
		return zero, false
	}

	return b.take(), true
}

// Close marks the buffer closed. Receivers drain remaining items first.
func (b *Buffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.cond.Broadcast()
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the current capacity.
func (b *Buffer[T]) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cap
}

// Stats returns buffer counters.
func (b *Buffer[T]) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{
		Len:      b.size,
		Cap:      b.cap,
		TotalIn:  b.totalIn,
		TotalOut: b.totalOut,
		Grows:    b.grows,
	}
}

// BufferStats contains buffer counters.
type BufferStats struct {
	Len      int
	Cap      int
	TotalIn  int64
	TotalOut int64
	Grows    int
}

// take pops the oldest item. Caller must hold b.mu.
func (b *Buffer[T]) take() T {
	item := b.items[b.read]
	var zero T
	b.items[b.read] = zero
	b.read = (b.read + 1) % b.cap
	b.size--
	b.totalOut++
	return item
}

// grow doubles the capacity. Caller must hold b.mu.
func (b *Buffer[T]) grow() {
	next := make([]T, b.cap*2)
	if b.size > 0 {
		if b.read < b.write {
			copy(next, b.items[b.read:b.write])
		} else {
			n := copy(next, b.items[b.read:])
			copy(next[n:], b.items[:b.write])
		}
	}
	b.items = next
	b.read = 0
	b.write = b.size
	b.cap = len(next)
	b.grows++
}
