// Package redisclient implements the submux transport on Redis pub/sub.
package redisclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/c360/submux/errors"
	"github.com/c360/submux/transport"
)

// Publisher is the publish-side Redis connection.
type Publisher struct {
	client *redis.Client
	logger *slog.Logger

	mu     sync.Mutex
	events transport.EventFunc
	closed bool
}

// NewPublisher connects a publish-side client to the Redis server at addr.
func NewPublisher(addr string, opts ...Option) (*Publisher, error) {
	o, err := applyOptions(addr, opts)
	if err != nil {
		return nil, err
	}

	p := &Publisher{logger: o.logger}
	p.client = redis.NewClient(o.redisOptions("pub", func() {
		p.emit(transport.Event{Side: transport.SidePublisher, Kind: transport.EventConnected})
	}))

	p.logger.Debug("created redis publisher", "addr", addr)
	return p, nil
}

// Publish sends payload on channel.
func (p *Publisher) Publish(ctx context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return errors.WrapInvalid(errors.ErrClosed, "Publisher", "Publish", "publish on closed connection")
	}

	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return errors.WrapTransient(err, "Publisher", "Publish", "redis publish")
	}
	return nil
}

// NotifyEvents installs a connection-event observer.
func (p *Publisher) NotifyEvents(fn transport.EventFunc) {
	p.mu.Lock()
	p.events = fn
	p.mu.Unlock()
}

// Close releases the connection. Safe to call more than once.
func (p *Publisher) Close(_ context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	err := p.client.Close()
	p.emit(transport.Event{Side: transport.SidePublisher, Kind: transport.EventDisconnected, Err: err})
	if err != nil {
		return errors.WrapTransient(err, "Publisher", "Close", "close redis client")
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

// Subscriber is the subscribe-side Redis connection. It holds one
// *redis.PubSub carrying every SUBSCRIBE and PSUBSCRIBE this process needs;
// go-redis re-establishes them itself after a reconnect.
type Subscriber struct {
	client *redis.Client
	pubsub *redis.PubSub
	logger *slog.Logger

	mu      sync.Mutex
	handler transport.Handler
	events  transport.EventFunc
	closed  bool

	recvDone chan struct{}
}

// NewSubscriber connects a subscribe-side client to the Redis server at
// addr and starts its receive loop.
func NewSubscriber(addr string, opts ...Option) (*Subscriber, error) {
	o, err := applyOptions(addr, opts)
	if err != nil {
		return nil, err
	}

	s := &Subscriber{
		logger:   o.logger,
		recvDone: make(chan struct{}),
	}
	s.client = redis.NewClient(o.redisOptions("sub", func() {
		s.emit(transport.Event{Side: transport.SideSubscriber, Kind: transport.EventConnected})
	}))

	// An empty Subscribe puts the connection in subscribe mode without
	// subscribing to anything yet.
	s.pubsub = s.client.Subscribe(context.Background())
	go s.receive()

	s.logger.Debug("created redis subscriber", "addr", addr)
	return s, nil
}

// SetHandler installs the inbound message handler.
func (s *Subscriber) SetHandler(h transport.Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// SubscribeLiteral issues SUBSCRIBE for channel.
func (s *Subscriber) SubscribeLiteral(ctx context.Context, channel string) error {
	if err := s.pubsub.Subscribe(ctx, channel); err != nil {
		return errors.WrapTransient(err, "Subscriber", "SubscribeLiteral", "redis SUBSCRIBE")
	}
	return nil
}

// SubscribePattern issues PSUBSCRIBE for pattern.
func (s *Subscriber) SubscribePattern(ctx context.Context, pattern string) error {
	if err := s.pubsub.PSubscribe(ctx, pattern); err != nil {
		return errors.WrapTransient(err, "Subscriber", "SubscribePattern", "redis PSUBSCRIBE")
	}
	return nil
}

// UnsubscribeLiteral issues UNSUBSCRIBE for channel. Fire-and-forget: a
// failure is logged, not returned, and Redis treats an UNSUBSCRIBE for a
// channel that was never subscribed as a no-op.
func (s *Subscriber) UnsubscribeLiteral(channel string) {
	if err := s.pubsub.Unsubscribe(context.Background(), channel); err != nil {
		s.logger.Debug("redis UNSUBSCRIBE failed", "channel", channel, "error", err)
	}
}

// UnsubscribePattern issues PUNSUBSCRIBE for pattern. Fire-and-forget.
func (s *Subscriber) UnsubscribePattern(pattern string) {
	if err := s.pubsub.PUnsubscribe(context.Background(), pattern); err != nil {
		s.logger.Debug("redis PUNSUBSCRIBE failed", "pattern", pattern, "error", err)
	}
}

// NotifyEvents installs a connection-event observer.
func (s *Subscriber) NotifyEvents(fn transport.EventFunc) {
	s.mu.Lock()
	s.events = fn
	s.mu.Unlock()
}

// Close tears down the pub/sub state and the connection. Safe to call more
// than once.
func (s *Subscriber) Close(_ context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.pubsub.Close()
	if cerr := s.client.Close(); err == nil {
		err = cerr
	}
	<-s.recvDone

	s.emit(transport.Event{Side: transport.SideSubscriber, Kind: transport.EventDisconnected, Err: err})
	if err != nil {
		return errors.WrapTransient(err, "Subscriber", "Close", "close redis pubsub")
	}
	return nil
}

// receive pumps inbound messages from go-redis to the handler until the
// pubsub closes. Message.Pattern carries the matching pattern for pmessage
// deliveries and is empty for plain messages, which is exactly the
// transport.Message contract.
func (s *Subscriber) receive() {
	defer close(s.recvDone)

	for msg := range s.pubsub.Channel() {
		s.mu.Lock()
		h := s.handler
		s.mu.Unlock()
		if h == nil {
			continue
		}
		h(transport.Message{
			Pattern: msg.Pattern,
			Channel: msg.Channel,
			Payload: []byte(msg.Payload),
		})
	}
}

func (s *Subscriber) emit(ev transport.Event) {
	s.mu.Lock()
	fn := s.events
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// NewPair connects both sides to the same Redis server. This is the usual
// entry point:
//
//	pub, sub, err := redisclient.NewPair("localhost:6379")
//	ps, err := pubsub.New(pubsub.WithPublisher(pub), pubsub.WithSubscriber(sub))
func NewPair(addr string, opts ...Option) (*Publisher, *Subscriber, error) {
	pub, err := NewPublisher(addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	sub, err := NewSubscriber(addr, opts...)
	if err != nil {
		_ = pub.Close(context.Background())
		return nil, nil, err
	}
	return pub, sub, nil
}

// connName builds a per-connection client name so the two sides are
// distinguishable in CLIENT LIST output.
func connName(base, side string) string {
	if base == "" {
		base = "submux"
	}
	return fmt.Sprintf("%s-%s-%s", base, side, uuid.NewString()[:8])
}
