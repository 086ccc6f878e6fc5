package buffer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/submux/errors"
)

func TestCircularBuffer_FIFO(t *testing.T) {
	buf, err := NewCircularBuffer[int](4)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, buf.Write(i))
	}
	assert.Equal(t, 3, buf.Size())
	assert.Equal(t, 4, buf.Capacity())
	assert.False(t, buf.IsFull())
	assert.False(t, buf.IsEmpty())

	for i := 1; i <= 3; i++ {
		v, ok := buf.Read()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}

	_, ok := buf.Read()
	assert.False(t, ok)
	assert.True(t, buf.IsEmpty())
}

func TestCircularBuffer_DropOldest(t *testing.T) {
	var (
		mu      sync.Mutex
		dropped []int
	)
	buf, err := NewCircularBuffer[int](2,
		WithOverflowPolicy[int](DropOldest),
		WithDropCallback[int](func(item int) {
			mu.Lock()
			dropped = append(dropped, item)
			mu.Unlock()
		}),
	)
	require.NoError(t, err)

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Write(2))
	require.NoError(t, buf.Write(3))

	v, ok := buf.Read()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	v, ok = buf.Read()
	require.True(t, ok)
	assert.Equal(t, 3, v)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1}, dropped)
}

func TestCircularBuffer_DropNewest(t *testing.T) {
	buf, err := NewCircularBuffer[int](2, WithOverflowPolicy[int](DropNewest))
	require.NoError(t, err)

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Write(2))
	require.NoError(t, buf.Write(3))

	v, ok := buf.Read()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = buf.Read()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = buf.Read()
	assert.False(t, ok)
}

func TestCircularBuffer_DropCallbackReentersBuffer(t *testing.T) {
	// The callback runs outside the buffer lock, so it may call back into
	// the buffer without deadlocking.
	var (
		buf   Buffer[int]
		sizes []int
	)
	b, err := NewCircularBuffer[int](2,
		WithOverflowPolicy[int](DropOldest),
		WithDropCallback[int](func(int) {
			sizes = append(sizes, buf.Size())
		}),
	)
	require.NoError(t, err)
	buf = b

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Write(2))
	require.NoError(t, buf.Write(3)) // evicts 1
	assert.Equal(t, []int{2}, sizes)

	buf.Clear() // drops 2 and 3
	assert.Equal(t, []int{2, 0, 0}, sizes)
}

func TestCircularBuffer_DropNewestCallbackReentersBuffer(t *testing.T) {
	var (
		buf   Buffer[int]
		sizes []int
	)
	b, err := NewCircularBuffer[int](1,
		WithOverflowPolicy[int](DropNewest),
		WithDropCallback[int](func(int) {
			sizes = append(sizes, buf.Size())
		}),
	)
	require.NoError(t, err)
	buf = b

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Write(2)) // dropped, buffer stays full
	assert.Equal(t, []int{1}, sizes)
}

func TestCircularBuffer_BlockReleasedByRead(t *testing.T) {
	buf, err := NewCircularBuffer[int](1, WithOverflowPolicy[int](Block))
	require.NoError(t, err)

	require.NoError(t, buf.Write(1))

	done := make(chan error, 1)
	go func() {
		done <- buf.Write(2)
	}()

	select {
	case <-done:
		t.Fatal("Write returned while buffer was full")
	case <-time.After(20 * time.Millisecond):
	}

	v, ok := buf.Read()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("blocked writer was not released by read")
	}
}

func TestCircularBuffer_Peek(t *testing.T) {
	buf, err := NewCircularBuffer[string](2)
	require.NoError(t, err)

	_, ok := buf.Peek()
	assert.False(t, ok)

	require.NoError(t, buf.Write("a"))

	v, ok := buf.Peek()
	require.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, 1, buf.Size())
}

func TestCircularBuffer_Clear(t *testing.T) {
	buf, err := NewCircularBuffer[int](4)
	require.NoError(t, err)

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Write(2))

	buf.Clear()
	assert.True(t, buf.IsEmpty())

	_, ok := buf.Read()
	assert.False(t, ok)

	// Still usable after Clear.
	require.NoError(t, buf.Write(3))
	v, ok := buf.Read()
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestCircularBuffer_Close(t *testing.T) {
	buf, err := NewCircularBuffer[int](2)
	require.NoError(t, err)

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Close())
	require.NoError(t, buf.Close())

	writeErr := buf.Write(2)
	require.Error(t, writeErr)
	assert.ErrorIs(t, writeErr, errors.ErrClosed)

	// Reads drain remaining items after close.
	v, ok := buf.Read()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestCircularBuffer_CloseReleasesBlockedWriter(t *testing.T) {
	buf, err := NewCircularBuffer[int](1, WithOverflowPolicy[int](Block))
	require.NoError(t, err)

	require.NoError(t, buf.Write(1))

	done := make(chan error, 1)
	go func() {
		done <- buf.Write(2)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, buf.Close())

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked writer was not released by close")
	}
}

func TestCircularBuffer_Statistics(t *testing.T) {
	buf, err := NewCircularBuffer[int](2, WithOverflowPolicy[int](DropOldest))
	require.NoError(t, err)

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Write(2))
	require.NoError(t, buf.Write(3)) // evicts 1
	buf.Read()
	buf.Peek()

	summary := buf.Stats().Summary()
	assert.Equal(t, int64(3), summary.Writes)
	assert.Equal(t, int64(1), summary.Reads)
	assert.Equal(t, int64(1), summary.Peeks)
	assert.Equal(t, int64(1), summary.Overflows)
	assert.Equal(t, int64(1), summary.Drops)
	assert.Equal(t, int64(1), summary.CurrentSize)
	assert.Equal(t, int64(2), summary.MaxSize)
	assert.InDelta(t, 1.0/3.0, summary.DropRate, 1e-9)
}

func TestOverflowPolicy_String(t *testing.T) {
	assert.Equal(t, "DropOldest", DropOldest.String())
	assert.Equal(t, "DropNewest", DropNewest.String())
	assert.Equal(t, "Block", Block.String())
	assert.Equal(t, "Unknown", OverflowPolicy(99).String())
}
