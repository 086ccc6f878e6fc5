package buffer

import (
	"sync"

	"github.com/c360/submux/errors"
)

// circularBuffer is a thread-safe ring buffer with configurable overflow
// policies.
type circularBuffer[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // next read position
	stats    *Statistics
	metrics  *bufferMetrics
	opts     *bufferOptions[T]

	// For the Block policy
	notFull *sync.Cond
	closed  bool
}

func newCircularBuffer[T any](capacity int, opts *bufferOptions[T]) (*circularBuffer[T], error) {
	if capacity <= 0 {
		capacity = 1
	}

	var metrics *bufferMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "buffer", "newCircularBuffer", "metrics registration")
		}
	}

	cb := &circularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    NewStatistics(),
		metrics:  metrics,
		opts:     opts,
	}
	cb.notFull = sync.NewCond(&cb.mu)

	return cb, nil
}

// Write adds an item according to the overflow policy. The drop callback,
// when one fires, runs after the lock is released so it may re-enter the
// buffer.
func (cb *circularBuffer[T]) Write(item T) error {
	cb.mu.Lock()

	if cb.closed {
		cb.mu.Unlock()
		return errors.WrapInvalid(errors.ErrClosed, "Buffer", "Write", "write to closed buffer")
	}

	var dropped []T
	if cb.size == cb.capacity {
		switch cb.opts.overflowPolicy {
		case DropOldest:
			d := cb.items[cb.tail]
			cb.tail = (cb.tail + 1) % cb.capacity
			cb.size--
			cb.recordDrop()
			if cb.opts.dropCallback != nil {
				dropped = append(dropped, d)
			}

		case DropNewest:
			cb.recordDrop()
			cb.mu.Unlock()
			if cb.opts.dropCallback != nil {
				cb.opts.dropCallback(item)
			}
			return nil

		case Block:
			for cb.size == cb.capacity && !cb.closed {
				cb.notFull.Wait()
			}
			if cb.closed {
				cb.mu.Unlock()
				return errors.WrapInvalid(errors.ErrClosed, "Buffer", "Write", "buffer closed during blocking wait")
			}
		}
	}

	cb.items[cb.head] = item
	cb.head = (cb.head + 1) % cb.capacity
	cb.size++

	cb.stats.Write()
	cb.stats.UpdateSize(int64(cb.size))
	if cb.metrics != nil {
		cb.metrics.recordWrite(cb.size, cb.capacity)
	}
	cb.mu.Unlock()

	for _, d := range dropped {
		cb.opts.dropCallback(d)
	}
	return nil
}

// Read retrieves and removes one item.
func (cb *circularBuffer[T]) Read() (T, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var zero T
	if cb.size == 0 {
		return zero, false
	}

	item := cb.items[cb.tail]
	cb.items[cb.tail] = zero // release for GC
	cb.tail = (cb.tail + 1) % cb.capacity
	cb.size--

	cb.stats.Read()
	cb.stats.UpdateSize(int64(cb.size))
	if cb.metrics != nil {
		cb.metrics.recordRead(cb.size, cb.capacity)
	}

	cb.notFull.Signal()
	return item, true
}

// Peek retrieves one item without removing it.
func (cb *circularBuffer[T]) Peek() (T, bool) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	var zero T
	if cb.size == 0 {
		return zero, false
	}

	cb.stats.Peek()
	if cb.metrics != nil {
		cb.metrics.recordPeek()
	}
	return cb.items[cb.tail], true
}

// Size returns the current number of items.
func (cb *circularBuffer[T]) Size() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.size
}

// Capacity returns the maximum number of items. Immutable, no lock needed.
func (cb *circularBuffer[T]) Capacity() int {
	return cb.capacity
}

// IsFull reports whether the buffer is at capacity.
func (cb *circularBuffer[T]) IsFull() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.size == cb.capacity
}

// IsEmpty reports whether the buffer holds no items.
func (cb *circularBuffer[T]) IsEmpty() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.size == 0
}

// Clear removes all items, running the drop callback for each after the
// lock is released.
func (cb *circularBuffer[T]) Clear() {
	cb.mu.Lock()

	var dropped []T
	if cb.opts.dropCallback != nil && cb.size > 0 {
		dropped = make([]T, cb.size)
		for i := 0; i < cb.size; i++ {
			dropped[i] = cb.items[(cb.tail+i)%cb.capacity]
		}
	}

	var zero T
	for i := range cb.items {
		cb.items[i] = zero
	}
	cb.head = 0
	cb.tail = 0
	cb.size = 0

	cb.stats.UpdateSize(0)
	if cb.metrics != nil {
		cb.metrics.updateSize(0, cb.capacity)
	}

	cb.notFull.Broadcast()
	cb.mu.Unlock()

	for _, item := range dropped {
		cb.opts.dropCallback(item)
	}
}

// Stats returns buffer statistics.
func (cb *circularBuffer[T]) Stats() *Statistics {
	return cb.stats
}

// Close shuts the buffer down and releases blocked writers.
func (cb *circularBuffer[T]) Close() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.closed {
		return nil
	}
	cb.closed = true
	cb.notFull.Broadcast()
	return nil
}

// recordDrop tracks one overflow-caused drop in stats and metrics.
// Caller holds cb.mu.
func (cb *circularBuffer[T]) recordDrop() {
	cb.stats.Overflow()
	cb.stats.Drop()
	if cb.metrics != nil {
		cb.metrics.recordOverflow()
		cb.metrics.recordDrop()
	}
}
