package pubsub

import (
	"context"
	"sync"

	"github.com/c360/submux/errors"
	"github.com/c360/submux/pkg/buffer"
)

// Stream presents one or more triggers as a single pull-based, cancellable
// sequence of decoded values for one consumer.
//
// Subscriptions are established lazily on the first Next call; until then the
// stream consumes no transport resources. The sequence is infinite under
// normal operation and ends only through Close or a subscribe error during
// lazy initialization. A closed stream is not restartable.
type Stream struct {
	ps       *PubSub
	triggers []string
	opts     []SubscribeOption

	queueCap    int
	queuePolicy buffer.OverflowPolicy

	initOnce sync.Once
	initErr  error

	mu      sync.Mutex
	ids     []SubscriptionID
	pending []any
	buf     buffer.Buffer[any]
	closed  bool

	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Stream creates a stream over the given triggers. The subscribe options
// apply to every trigger. Queue capacity and overflow policy come from the
// PubSub's WithStreamQueue option; the default queue is unbounded.
func (ps *PubSub) Stream(triggers []string, opts ...SubscribeOption) *Stream {
	return &Stream{
		ps:          ps,
		triggers:    triggers,
		opts:        opts,
		queueCap:    ps.streamCap,
		queuePolicy: ps.streamPolicy,
		notify:      make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

// Next returns the next value in the sequence, suspending until one arrives.
// It returns errors.ErrStreamClosed once the stream is closed (pending Next
// calls resolve with it immediately), the init error if lazy subscription
// failed (on the first and every subsequent call), or ctx.Err() when the
// caller's context ends first.
func (s *Stream) Next(ctx context.Context) (any, error) {
	s.initOnce.Do(func() { s.initErr = s.init(ctx) })
	if s.initErr != nil {
		return nil, s.initErr
	}

	for {
		select {
		case <-s.done:
			return nil, errors.ErrStreamClosed
		default:
		}

		if v, ok := s.pop(); ok {
			return v, nil
		}

		select {
		case <-s.notify:
		case <-s.done:
			return nil, errors.ErrStreamClosed
		case <-ctx.Done():
			return nil, errors.WrapTransient(ctx.Err(), "Stream", "Next", "wait for next value")
		}
	}
}

// Close cancels the stream: it unsubscribes every trigger and resolves any
// suspended Next call with errors.ErrStreamClosed. Safe to call more than
// once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		ids := s.ids
		s.ids = nil
		buf := s.buf
		s.mu.Unlock()

		close(s.done)
		for _, id := range ids {
			// ErrUnknownSubscription here just means init lost a race
			// with Close; nothing to clean up.
			_ = s.ps.Unsubscribe(id)
		}
		if buf != nil {
			_ = buf.Close()
		}
	})
	return nil
}

// init subscribes every trigger, pushing deliveries into the shared queue.
// On any subscribe failure the already-established subscriptions are torn
// down and the error becomes the stream's permanent result.
func (s *Stream) init(ctx context.Context) error {
	if len(s.triggers) == 0 {
		return invalidConfig("Stream", "stream needs at least one trigger")
	}

	if s.queueCap > 0 {
		buf, err := buffer.NewCircularBuffer[any](s.queueCap, buffer.WithOverflowPolicy[any](s.queuePolicy))
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.buf = buf
		s.mu.Unlock()
	}

	for _, trigger := range s.triggers {
		s.mu.Lock()
		if s.closed {
			ids := s.ids
			s.ids = nil
			s.mu.Unlock()
			s.unsubscribeAll(ids)
			return errors.ErrStreamClosed
		}
		s.mu.Unlock()

		id, err := s.ps.Subscribe(ctx, trigger, s.push, s.opts...)
		if err != nil {
			s.mu.Lock()
			ids := s.ids
			s.ids = nil
			s.mu.Unlock()
			s.unsubscribeAll(ids)
			return err
		}

		s.mu.Lock()
		if s.closed {
			// Close ran between Subscribe returning and this append; it
			// never saw the new id, so release it here.
			s.mu.Unlock()
			_ = s.ps.Unsubscribe(id)
			return errors.ErrStreamClosed
		}
		s.ids = append(s.ids, id)
		s.mu.Unlock()
	}
	return nil
}

func (s *Stream) unsubscribeAll(ids []SubscriptionID) {
	for _, id := range ids {
		_ = s.ps.Unsubscribe(id)
	}
}

// push is the listener shared by every trigger subscription.
func (s *Stream) push(value any) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.buf != nil {
		// Capped queue: the overflow policy decides what to drop.
		_ = s.buf.Write(value)
	} else {
		s.pending = append(s.pending, value)
	}
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Stream) pop() (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf != nil {
		return s.buf.Read()
	}
	if len(s.pending) == 0 {
		return nil, false
	}
	v := s.pending[0]
	s.pending[0] = nil
	s.pending = s.pending[1:]
	return v, true
}
