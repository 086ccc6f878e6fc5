// Package natsclient implements the submux transport on core NATS subjects.
package natsclient

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/c360/submux/errors"
	"github.com/c360/submux/transport"
)

// Publisher is the publish-side NATS connection.
type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger

	mu     sync.Mutex
	events transport.EventFunc
}

// NewPublisher connects a publish-side client to the NATS server at url.
func NewPublisher(url string, opts ...Option) (*Publisher, error) {
	o, err := applyOptions(url, opts)
	if err != nil {
		return nil, err
	}

	p := &Publisher{logger: o.logger}
	p.conn, err = nats.Connect(url, o.natsOptions("pub", transport.SidePublisher, p.emit)...)
	if err != nil {
		return nil, errors.WrapTransient(err, "Publisher", "NewPublisher", "connect to NATS")
	}

	p.logger.Debug("created nats publisher", "url", url)
	return p, nil
}

// Publish sends payload on the subject named by channel.
func (p *Publisher) Publish(_ context.Context, channel string, payload []byte) error {
	if err := p.conn.Publish(channel, payload); err != nil {
		return errors.WrapTransient(err, "Publisher", "Publish", "nats publish")
	}
	return nil
}

// NotifyEvents installs a connection-event observer.
func (p *Publisher) NotifyEvents(fn transport.EventFunc) {
	p.mu.Lock()
	p.events = fn
	p.mu.Unlock()
	if fn != nil && p.conn.IsConnected() {
		fn(transport.Event{Side: transport.SidePublisher, Kind: transport.EventConnected})
	}
}

// Close drains the connection. Safe to call more than once.
func (p *Publisher) Close(_ context.Context) error {
	if p.conn.IsClosed() {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return errors.WrapTransient(err, "Publisher", "Close", "drain connection")
	}
	return nil
}

func (p *Publisher) emit(ev transport.Event) {
	p.mu.Lock()
	fn := p.events
	p.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// subKey distinguishes a literal subscription from a pattern subscription on
// the same subject string.
type subKey struct {
	subject string
	pattern bool
}

// Subscriber is the subscribe-side NATS connection. NATS has one subscribe
// primitive; "pattern" subscriptions are subjects containing wildcards
// ('*' per token, '>' for the tail), and the two kinds are tracked
// separately so the registry's paired unsubscribes stay independent.
type Subscriber struct {
	conn   *nats.Conn
	logger *slog.Logger

	mu      sync.Mutex
	handler transport.Handler
	events  transport.EventFunc
	subs    map[subKey]*nats.Subscription
}

// NewSubscriber connects a subscribe-side client to the NATS server at url.
func NewSubscriber(url string, opts ...Option) (*Subscriber, error) {
	o, err := applyOptions(url, opts)
	if err != nil {
		return nil, err
	}

	s := &Subscriber{
		logger: o.logger,
		subs:   make(map[subKey]*nats.Subscription),
	}
	s.conn, err = nats.Connect(url, o.natsOptions("sub", transport.SideSubscriber, s.emit)...)
	if err != nil {
		return nil, errors.WrapTransient(err, "Subscriber", "NewSubscriber", "connect to NATS")
	}

	s.logger.Debug("created nats subscriber", "url", url)
	return s, nil
}

// SetHandler installs the inbound message handler.
func (s *Subscriber) SetHandler(h transport.Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// SubscribeLiteral subscribes to channel as an exact subject.
func (s *Subscriber) SubscribeLiteral(ctx context.Context, channel string) error {
	return s.subscribe(ctx, channel, false)
}

// SubscribePattern subscribes to pattern as a wildcard subject. Deliveries
// report the pattern alongside the concrete subject.
func (s *Subscriber) SubscribePattern(ctx context.Context, pattern string) error {
	return s.subscribe(ctx, pattern, true)
}

func (s *Subscriber) subscribe(ctx context.Context, subject string, pattern bool) error {
	method := "SubscribeLiteral"
	if pattern {
		method = "SubscribePattern"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := subKey{subject: subject, pattern: pattern}
	if _, exists := s.subs[key]; exists {
		// The registry refcounts channels, so a duplicate means a cancelled
		// subscribe raced its own teardown. Keeping the live one is right.
		return nil
	}

	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		s.mu.Lock()
		h := s.handler
		s.mu.Unlock()
		if h == nil {
			return
		}
		m := transport.Message{Channel: msg.Subject, Payload: msg.Data}
		if pattern {
			m.Pattern = subject
		}
		h(m)
	})
	if err != nil {
		return errors.WrapTransient(err, "Subscriber", method, "nats subscribe")
	}

	// Force the SUB out to the server so the subscription is live when the
	// registry resolves the caller.
	if err := s.conn.FlushWithContext(ctx); err != nil {
		_ = sub.Unsubscribe()
		return errors.WrapTransient(err, "Subscriber", method, "flush subscribe")
	}

	s.subs[key] = sub
	return nil
}

// UnsubscribeLiteral removes the literal subscription for channel.
// Fire-and-forget and idempotent.
func (s *Subscriber) UnsubscribeLiteral(channel string) {
	s.unsubscribe(channel, false)
}

// UnsubscribePattern removes the pattern subscription for pattern.
// Fire-and-forget and idempotent.
func (s *Subscriber) UnsubscribePattern(pattern string) {
	s.unsubscribe(pattern, true)
}

func (s *Subscriber) unsubscribe(subject string, pattern bool) {
	s.mu.Lock()
	key := subKey{subject: subject, pattern: pattern}
	sub, ok := s.subs[key]
	if ok {
		delete(s.subs, key)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	if err := sub.Unsubscribe(); err != nil {
		s.logger.Debug("nats unsubscribe failed", "subject", subject, "pattern", pattern, "error", err)
	}
}

// NotifyEvents installs a connection-event observer.
func (s *Subscriber) NotifyEvents(fn transport.EventFunc) {
	s.mu.Lock()
	s.events = fn
	s.mu.Unlock()
	if fn != nil && s.conn.IsConnected() {
		fn(transport.Event{Side: transport.SideSubscriber, Kind: transport.EventConnected})
	}
}

// Close drains the connection, which also unsubscribes everything.
func (s *Subscriber) Close(_ context.Context) error {
	if s.conn.IsClosed() {
		return nil
	}

	s.mu.Lock()
	s.subs = make(map[subKey]*nats.Subscription)
	s.mu.Unlock()

	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
		return errors.WrapTransient(err, "Subscriber", "Close", "drain connection")
	}
	return nil
}

func (s *Subscriber) emit(ev transport.Event) {
	s.mu.Lock()
	fn := s.events
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// NewPair connects both sides to the same NATS server. NATS does not force
// the split the way Redis does, but the separate connections keep slow
// subscriber backpressure away from the publish path.
func NewPair(url string, opts ...Option) (*Publisher, *Subscriber, error) {
	pub, err := NewPublisher(url, opts...)
	if err != nil {
		return nil, nil, err
	}
	sub, err := NewSubscriber(url, opts...)
	if err != nil {
		_ = pub.Close(context.Background())
		return nil, nil, err
	}
	return pub, sub, nil
}
