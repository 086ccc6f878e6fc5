package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/c360/submux/transport"
)

// Call records one transport operation observed by a FakeConn.
type Call struct {
	// Op is one of "publish", "subscribe", "psubscribe", "unsubscribe",
	// "punsubscribe", "close".
	Op      string
	Channel string
	Payload []byte
}

// FakeConn is an instrumented in-memory transport double implementing both
// transport.Publisher and transport.Subscriber. It records every operation
// in order, lets tests inject failures per channel, and delivers published
// messages straight back to the installed handler (literal match only;
// tests drive pattern deliveries through Inject). Safe for concurrent use.
type FakeConn struct {
	mu       sync.Mutex
	handler  transport.Handler
	events   transport.EventFunc
	calls    []Call
	literals map[string]struct{}
	patterns map[string]struct{}
	failSubs map[string]error
	holdSubs map[string]chan error
	failPub  error
	closed   bool
}

// NewFakeConn creates an empty fake transport connection.
func NewFakeConn() *FakeConn {
	return &FakeConn{
		literals: make(map[string]struct{}),
		patterns: make(map[string]struct{}),
		failSubs: make(map[string]error),
		holdSubs: make(map[string]chan error),
	}
}

// FailSubscribes makes subscribe calls for channel fail with err.
func (c *FakeConn) FailSubscribes(channel string, err error) {
	c.mu.Lock()
	c.failSubs[channel] = err
	c.mu.Unlock()
}

// FailPublishes makes every publish fail with err.
func (c *FakeConn) FailPublishes(err error) {
	c.mu.Lock()
	c.failPub = err
	c.mu.Unlock()
}

// HoldSubscribes makes subscribe calls for channel block after being
// recorded, until the returned release function runs. Releasing with nil
// confirms the subscription; releasing with an error rejects it. The hold is
// removed on release, so later subscribes for the channel proceed normally.
// Tests use it to open a pending-confirmation window.
func (c *FakeConn) HoldSubscribes(channel string) func(error) {
	gate := make(chan error, 1)
	c.mu.Lock()
	c.holdSubs[channel] = gate
	c.mu.Unlock()

	return func(err error) {
		c.mu.Lock()
		delete(c.holdSubs, channel)
		c.mu.Unlock()
		gate <- err
	}
}

// Publish records the call and delivers payload to the handler if channel
// is literally subscribed.
func (c *FakeConn) Publish(_ context.Context, channel string, payload []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("publish on closed fake connection")
	}
	if err := c.failPub; err != nil {
		c.mu.Unlock()
		return err
	}
	c.calls = append(c.calls, Call{Op: "publish", Channel: channel, Payload: payload})
	handler := c.handler
	_, subscribed := c.literals[channel]
	c.mu.Unlock()

	if subscribed && handler != nil {
		handler(transport.Message{Channel: channel, Payload: payload})
	}
	return nil
}

// SetHandler installs the inbound message handler.
func (c *FakeConn) SetHandler(h transport.Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// SubscribeLiteral records the call and registers the literal channel.
func (c *FakeConn) SubscribeLiteral(_ context.Context, channel string) error {
	return c.subscribe("subscribe", channel, c.literals)
}

// SubscribePattern records the call and registers the pattern.
func (c *FakeConn) SubscribePattern(_ context.Context, pattern string) error {
	return c.subscribe("psubscribe", pattern, c.patterns)
}

func (c *FakeConn) subscribe(op, channel string, set map[string]struct{}) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("subscribe on closed fake connection")
	}
	if err := c.failSubs[channel]; err != nil {
		c.mu.Unlock()
		return err
	}
	c.calls = append(c.calls, Call{Op: op, Channel: channel})
	gate := c.holdSubs[channel]
	c.mu.Unlock()

	if gate != nil {
		if err := <-gate; err != nil {
			return err
		}
	}

	c.mu.Lock()
	set[channel] = struct{}{}
	c.mu.Unlock()
	return nil
}

// UnsubscribeLiteral records the call and removes the literal channel.
func (c *FakeConn) UnsubscribeLiteral(channel string) {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Op: "unsubscribe", Channel: channel})
	delete(c.literals, channel)
	c.mu.Unlock()
}

// UnsubscribePattern records the call and removes the pattern.
func (c *FakeConn) UnsubscribePattern(pattern string) {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Op: "punsubscribe", Channel: pattern})
	delete(c.patterns, pattern)
	c.mu.Unlock()
}

// NotifyEvents installs a connection-event observer.
func (c *FakeConn) NotifyEvents(fn transport.EventFunc) {
	c.mu.Lock()
	c.events = fn
	c.mu.Unlock()
}

// EmitEvent delivers a connection event to the installed observer, so tests
// can simulate connection loss and errors.
func (c *FakeConn) EmitEvent(ev transport.Event) {
	c.mu.Lock()
	fn := c.events
	c.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// Close records the call and marks the connection closed.
func (c *FakeConn) Close(_ context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.calls = append(c.calls, Call{Op: "close"})
	}
	c.mu.Unlock()
	return nil
}

// Inject delivers an arbitrary message to the handler, bypassing the
// subscription state. Tests use it for pattern deliveries and for messages
// on channels nobody subscribed to.
func (c *FakeConn) Inject(msg transport.Message) {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	if handler != nil {
		handler(msg)
	}
}

// Calls returns a copy of every recorded call in order.
func (c *FakeConn) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallsFor returns the recorded calls with the given op, in order.
func (c *FakeConn) CallsFor(op string) []Call {
	var out []Call
	for _, call := range c.Calls() {
		if call.Op == op {
			out = append(out, call)
		}
	}
	return out
}

// Subscribed reports whether channel currently has a literal subscription.
func (c *FakeConn) Subscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.literals[channel]
	return ok
}

// PatternSubscribed reports whether pattern currently has a pattern
// subscription.
func (c *FakeConn) PatternSubscribed(pattern string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.patterns[pattern]
	return ok
}

// Closed reports whether Close was called.
func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
