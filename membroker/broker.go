// Package membroker provides an in-process transport with Redis-style glob
// pattern matching for tests and single-process deployments.
package membroker

import (
	"context"
	"sort"
	"sync"

	"github.com/c360/submux/errors"
	"github.com/c360/submux/transport"
)

// Broker is an in-process message broker. It implements the same delivery
// semantics submux expects from Redis pub/sub: at-most-once, no persistence,
// literal and pattern subscriptions, with the matching pattern reported on
// pattern deliveries.
type Broker struct {
	mu     sync.RWMutex
	subs   map[*SubConn]struct{}
	closed bool
}

// New creates an empty broker.
func New() *Broker {
	return &Broker{
		subs: make(map[*SubConn]struct{}),
	}
}

// Publisher returns a new publish-side connection to the broker.
func (b *Broker) Publisher() *PubConn {
	return &PubConn{broker: b}
}

// Subscriber returns a new subscribe-side connection to the broker.
func (b *Broker) Subscriber() *SubConn {
	conn := &SubConn{
		broker:   b,
		literals: make(map[string]struct{}),
		patterns: make(map[string]struct{}),
	}

	b.mu.Lock()
	if !b.closed {
		b.subs[conn] = struct{}{}
	}
	b.mu.Unlock()

	return conn
}

// Close shuts the broker down. Existing connections fail on further use.
func (b *Broker) Close() {
	b.mu.Lock()
	b.closed = true
	b.subs = make(map[*SubConn]struct{})
	b.mu.Unlock()
}

// publish delivers payload to every matching subscription on every
// subscriber connection, synchronously and in subscription order.
func (b *Broker) publish(channel string, payload []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return errors.ErrClosed
	}
	conns := make([]*SubConn, 0, len(b.subs))
	for conn := range b.subs {
		conns = append(conns, conn)
	}
	b.mu.RUnlock()

	for _, conn := range conns {
		conn.deliver(channel, payload)
	}
	return nil
}

func (b *Broker) detach(conn *SubConn) {
	b.mu.Lock()
	delete(b.subs, conn)
	b.mu.Unlock()
}

// PubConn is the publish side of an in-process connection pair.
type PubConn struct {
	broker *Broker
	mu     sync.Mutex
	events transport.EventFunc
	closed bool
}

// Publish sends payload on channel.
func (c *PubConn) Publish(_ context.Context, channel string, payload []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return errors.WrapInvalid(errors.ErrClosed, "PubConn", "Publish", "publish on closed connection")
	}
	return c.broker.publish(channel, payload)
}

// NotifyEvents installs a connection-event observer. An in-process
// connection is connected from birth, so the observer sees a connected
// event immediately.
func (c *PubConn) NotifyEvents(fn transport.EventFunc) {
	c.mu.Lock()
	c.events = fn
	c.mu.Unlock()
	if fn != nil {
		fn(transport.Event{Side: transport.SidePublisher, Kind: transport.EventConnected})
	}
}

// Close releases the connection.
func (c *PubConn) Close(_ context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	fn := c.events
	c.mu.Unlock()

	if fn != nil {
		fn(transport.Event{Side: transport.SidePublisher, Kind: transport.EventDisconnected})
	}
	return nil
}

// SubConn is the subscribe side of an in-process connection pair.
type SubConn struct {
	broker   *Broker
	mu       sync.Mutex
	handler  transport.Handler
	events   transport.EventFunc
	literals map[string]struct{}
	patterns map[string]struct{}
	closed   bool
}

// SetHandler installs the inbound message handler.
func (c *SubConn) SetHandler(h transport.Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// SubscribeLiteral registers a literal-channel subscription.
func (c *SubConn) SubscribeLiteral(_ context.Context, channel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.WrapInvalid(errors.ErrClosed, "SubConn", "SubscribeLiteral", "subscribe on closed connection")
	}
	c.literals[channel] = struct{}{}
	return nil
}

// SubscribePattern registers a pattern subscription.
func (c *SubConn) SubscribePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.WrapInvalid(errors.ErrClosed, "SubConn", "SubscribePattern", "subscribe on closed connection")
	}
	c.patterns[pattern] = struct{}{}
	return nil
}

// UnsubscribeLiteral removes a literal subscription. Idempotent.
func (c *SubConn) UnsubscribeLiteral(channel string) {
	c.mu.Lock()
	delete(c.literals, channel)
	c.mu.Unlock()
}

// UnsubscribePattern removes a pattern subscription. Idempotent.
func (c *SubConn) UnsubscribePattern(pattern string) {
	c.mu.Lock()
	delete(c.patterns, pattern)
	c.mu.Unlock()
}

// NotifyEvents installs a connection-event observer.
func (c *SubConn) NotifyEvents(fn transport.EventFunc) {
	c.mu.Lock()
	c.events = fn
	c.mu.Unlock()
	if fn != nil {
		fn(transport.Event{Side: transport.SideSubscriber, Kind: transport.EventConnected})
	}
}

// Close detaches the connection from the broker.
func (c *SubConn) Close(_ context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	fn := c.events
	c.mu.Unlock()

	c.broker.detach(c)
	if fn != nil {
		fn(transport.Event{Side: transport.SideSubscriber, Kind: transport.EventDisconnected})
	}
	return nil
}

// deliver hands one published message to the handler, once per matching
// literal subscription and once per matching pattern.
func (c *SubConn) deliver(channel string, payload []byte) {
	c.mu.Lock()
	if c.closed || c.handler == nil {
		c.mu.Unlock()
		return
	}
	handler := c.handler

	_, literal := c.literals[channel]
	var matched []string
	for pattern := range c.patterns {
		if Match(pattern, channel) {
			matched = append(matched, pattern)
		}
	}
	c.mu.Unlock()
	sort.Strings(matched)

	if literal {
		handler(transport.Message{Channel: channel, Payload: payload})
	}
	for _, pattern := range matched {
		handler(transport.Message{Pattern: pattern, Channel: channel, Payload: payload})
	}
}
