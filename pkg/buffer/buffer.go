// Package buffer provides a generic, thread-safe bounded buffer with
// configurable overflow policies. The pubsub stream queue uses it in capped
// mode; statistics are always collected and can optionally be exported as
// Prometheus metrics.
package buffer

// Buffer is a generic bounded FIFO buffer.
type Buffer[T any] interface {
	// Write adds an item. When the buffer is full, the overflow policy
	// decides whether the oldest item is evicted, the new item is dropped,
	// or the writer blocks.
	Write(item T) error

	// Read retrieves and removes one item. Returns the zero value and
	// false when the buffer is empty.
	Read() (T, bool)

	// Peek retrieves one item without removing it.
	Peek() (T, bool)

	// Size returns the current number of items.
	Size() int

	// Capacity returns the maximum number of items.
	Capacity() int

	// IsFull reports whether the buffer is at capacity.
	IsFull() bool

	// IsEmpty reports whether the buffer holds no items.
	IsEmpty() bool

	// Clear removes all items.
	Clear()

	// Stats returns buffer statistics (always collected).
	Stats() *Statistics

	// Close shuts the buffer down. Blocked writers are released with an
	// error; further writes fail.
	Close() error
}

// OverflowPolicy defines how the buffer behaves when it reaches capacity.
type OverflowPolicy int

const (
	// DropOldest evicts the oldest item to make room for new items.
	DropOldest OverflowPolicy = iota

	// DropNewest drops new items while the buffer is full.
	DropNewest

	// Block makes Write wait until space is available.
	Block
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	case Block:
		return "Block"
	default:
		return "Unknown"
	}
}

// DropCallback is called with each item dropped by the overflow policy.
type DropCallback[T any] func(item T)

// NewCircularBuffer creates a circular buffer with the given capacity.
// Returns an error only when metrics registration was requested and failed.
func NewCircularBuffer[T any](capacity int, options ...Option[T]) (Buffer[T], error) {
	opts := applyOptions(options...)
	return newCircularBuffer(capacity, opts)
}
