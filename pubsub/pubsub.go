// Package pubsub implements the submux subscription registry: many logical
// subscriptions multiplexed over a small number of physical transport
// subscriptions, with decode and fan-out on message arrival.
package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/c360/submux/codec"
	"github.com/c360/submux/errors"
	"github.com/c360/submux/membroker"
	"github.com/c360/submux/metric"
	"github.com/c360/submux/pkg/buffer"
	"github.com/c360/submux/transport"
)

// SubscriptionID is a process-unique handle for one logical subscription.
// IDs increment monotonically and are never reused within a process.
type SubscriptionID uint64

// Listener receives each decoded value delivered on a subscription.
type Listener func(value any)

// TriggerTransform maps an application trigger plus subscribe options to the
// physical channel name used on the wire. The default is identity.
type TriggerTransform func(trigger string, opts SubscribeOptions) string

// subscription is the registry's record for one logical subscription.
type subscription struct {
	id      SubscriptionID
	channel string
	fn      Listener
}

// channelRefs is the ordered refset of logical subscriptions sharing one
// physical channel. Its length is the refcount: the transport subscription
// exists iff the refset is non-empty. ready is closed once the transport
// confirmed (or rejected) the physical subscribe; err is written before
// ready closes on rejection.
type channelRefs struct {
	pattern bool
	ids     []SubscriptionID
	ready   chan struct{}
	err     error
}

// PubSub is the subscription registry and dispatch engine. All methods are
// safe for concurrent use; the id counter, the record table, and the refset
// table are mutated together under one mutex.
type PubSub struct {
	pub       transport.Publisher
	sub       transport.Subscriber
	codec     codec.Codec
	transform TriggerTransform
	logger    *slog.Logger
	metrics   *metric.Metrics
	onEvent   transport.EventFunc

	serializer   codec.EncodeFunc
	deserializer codec.DecodeFunc
	reviver      codec.Reviver
	streamCap    int
	streamPolicy buffer.OverflowPolicy

	ownBroker *membroker.Broker

	mu       sync.RWMutex
	nextID   SubscriptionID
	records  map[SubscriptionID]*subscription
	channels map[string]*channelRefs
	closed   bool
}

// New creates a PubSub. With no transport configured it runs on a private
// in-process broker (see membroker); hosts talking to a real broker pass
// WithPublisher and WithSubscriber, typically built by redisclient or
// natsclient.
func New(opts ...Option) (*PubSub, error) {
	ps := &PubSub{
		transform: func(trigger string, _ SubscribeOptions) string { return trigger },
		logger:    slog.Default(),
		records:   make(map[SubscriptionID]*subscription),
		channels:  make(map[string]*channelRefs),
	}

	for _, opt := range opts {
		if err := opt(ps); err != nil {
			return nil, err
		}
	}

	c, err := codec.New(ps.serializer, ps.deserializer, ps.reviver)
	if err != nil {
		return nil, err
	}
	ps.codec = c

	switch {
	case ps.pub == nil && ps.sub == nil:
		ps.ownBroker = membroker.New()
		ps.pub = ps.ownBroker.Publisher()
		ps.sub = ps.ownBroker.Subscriber()
	case ps.pub == nil || ps.sub == nil:
		return nil, invalidConfig("New", "publisher and subscriber must be configured together")
	}

	ps.sub.SetHandler(ps.dispatch)

	if notifier, ok := ps.pub.(transport.EventNotifier); ok {
		notifier.NotifyEvents(ps.handleEvent)
	}
	if notifier, ok := ps.sub.(transport.EventNotifier); ok {
		notifier.NotifyEvents(ps.handleEvent)
	}

	return ps, nil
}

// Publisher returns the publish-side transport connection.
func (ps *PubSub) Publisher() transport.Publisher {
	return ps.pub
}

// Subscriber returns the subscribe-side transport connection.
func (ps *PubSub) Subscriber() transport.Subscriber {
	return ps.sub
}

// Publish encodes value and sends it on the trigger's literal name. The
// trigger transform does not apply to publishes.
func (ps *PubSub) Publish(ctx context.Context, trigger string, value any) error {
	data, err := ps.codec.Encode(value)
	if err != nil {
		return err
	}

	if err := ps.pub.Publish(ctx, trigger, data); err != nil {
		return errors.WrapTransient(
			fmt.Errorf("%w: %w", errors.ErrPublishFailed, err),
			"PubSub", "Publish", "transport publish")
	}

	if ps.metrics != nil {
		ps.metrics.RecordPublish()
	}
	return nil
}

// Subscribe registers fn as a listener for trigger and returns its id.
//
// The first subscription for a physical channel establishes the transport
// subscription and blocks until the broker confirms it; later subscriptions
// for the same channel reuse the established one. Subscribes that arrive
// while the first is still pending wait for the same confirmation, so no id
// is ever valid before its physical subscription is live.
//
// The first subscribe for a channel fixes the channel's kind (literal or
// pattern) for as long as any subscription holds it. A later subscribe that
// requests the other kind for the same channel name silently reuses the
// established kind; it is logged at debug level but not rejected.
func (ps *PubSub) Subscribe(
	ctx context.Context, trigger string, fn Listener, opts ...SubscribeOption,
) (SubscriptionID, error) {
	if fn == nil {
		return 0, invalidConfig("Subscribe", "nil listener")
	}

	o := applySubscribeOptions(opts)
	channel := ps.transform(trigger, o)

	ps.mu.Lock()
	if ps.closed {
		ps.mu.Unlock()
		return 0, errors.WrapInvalid(errors.ErrClosed, "PubSub", "Subscribe", "subscribe after close")
	}

	if refs, exists := ps.channels[channel]; exists {
		return ps.join(ctx, channel, fn, o, refs)
	}

	refs := &channelRefs{pattern: o.Pattern, ready: make(chan struct{})}
	ps.channels[channel] = refs
	id := ps.allocateLocked(channel, fn, refs)
	ps.mu.Unlock()

	var err error
	if o.Pattern {
		err = ps.sub.SubscribePattern(ctx, channel)
	} else {
		err = ps.sub.SubscribeLiteral(ctx, channel)
	}

	return ps.confirm(channel, id, refs, err)
}

// join adds a subscription to an existing refset. Called with ps.mu held;
// releases it. If the refset's transport subscription is still pending, the
// caller waits for the same confirmation the initiator is waiting for.
func (ps *PubSub) join(
	ctx context.Context, channel string, fn Listener, o SubscribeOptions, refs *channelRefs,
) (SubscriptionID, error) {
	if refs.pattern != o.Pattern {
		ps.logger.Debug("reusing physical subscription of a different kind",
			"channel", channel,
			"established_pattern", refs.pattern,
			"requested_pattern", o.Pattern)
	}

	id := ps.allocateLocked(channel, fn, refs)
	ready := refs.ready
	ps.mu.Unlock()

	select {
	case <-ready:
	case <-ctx.Done():
		ps.drop(id)
		return 0, errors.WrapTransient(ctx.Err(), "PubSub", "Subscribe", "wait for transport confirmation")
	}

	// err is written before ready closes, so this read is ordered.
	if refs.err != nil {
		return 0, refs.err
	}

	if ps.metrics != nil {
		ps.metrics.RecordSubscriptionOpened()
	}
	return id, nil
}

// confirm settles a fresh physical subscription after the transport call
// returned. The refcount-became-zero decision is re-made against current
// state here, not against a snapshot from when the subscribe was issued: an
// unsubscribe during the pending window may already have emptied the refset.
func (ps *PubSub) confirm(
	channel string, id SubscriptionID, refs *channelRefs, transportErr error,
) (SubscriptionID, error) {
	ps.mu.Lock()

	if transportErr != nil {
		// No refset survives a rejected subscribe. Every waiter joined
		// during the pending window fails with the same error.
		if ps.channels[channel] == refs {
			delete(ps.channels, channel)
		}
		for _, waiter := range refs.ids {
			delete(ps.records, waiter)
		}
		refs.ids = nil
		refs.err = errors.WrapTransient(
			fmt.Errorf("%w: %w", errors.ErrSubscribeFailed, transportErr),
			"PubSub", "Subscribe", "transport subscribe")
		close(refs.ready)
		ps.mu.Unlock()
		return 0, refs.err
	}

	if ps.channels[channel] != refs || len(refs.ids) == 0 {
		// Everyone unsubscribed while the transport call was in flight.
		// Tear the fresh physical subscription down unless a successor
		// refset has since claimed the channel and issued its own.
		if _, taken := ps.channels[channel]; !taken {
			ps.sub.UnsubscribeLiteral(channel)
			ps.sub.UnsubscribePattern(channel)
		}
		close(refs.ready)
		ps.mu.Unlock()
		return id, nil
	}

	close(refs.ready)
	if ps.metrics != nil {
		ps.metrics.RecordSubscriptionOpened()
		ps.metrics.RecordChannelOpened(kindLabel(refs.pattern))
	}
	ps.mu.Unlock()
	return id, nil
}

// Unsubscribe removes a logical subscription. When the last subscription for
// a physical channel goes away, both the literal and the pattern transport
// unsubscribe are issued (they are idempotent on the transport side) while
// the registry lock is held, so wire order cannot invert against a
// concurrent re-subscribe. It never blocks on transport confirmation.
func (ps *PubSub) Unsubscribe(id SubscriptionID) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	rec, ok := ps.records[id]
	if !ok {
		return errors.WrapInvalid(errors.ErrUnknownSubscription, "PubSub", "Unsubscribe",
			fmt.Sprintf("lookup id %d", id))
	}

	ps.dropLocked(rec)
	return nil
}

// drop removes a subscription without the unknown-id check. Used for
// internal cleanup paths where the record may already be gone.
func (ps *PubSub) drop(id SubscriptionID) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if rec, ok := ps.records[id]; ok {
		ps.dropLocked(rec)
	}
}

// dropLocked removes rec from both tables and tears the physical channel
// down if rec was the last holder. Caller holds ps.mu.
func (ps *PubSub) dropLocked(rec *subscription) {
	delete(ps.records, rec.id)

	refs := ps.channels[rec.channel]
	if refs == nil {
		return
	}
	for i, id := range refs.ids {
		if id == rec.id {
			refs.ids = append(refs.ids[:i], refs.ids[i+1:]...)
			break
		}
	}

	if ps.metrics != nil {
		ps.metrics.RecordSubscriptionClosed()
	}

	if len(refs.ids) > 0 {
		return
	}
	delete(ps.channels, rec.channel)

	select {
	case <-refs.ready:
		if refs.err == nil {
			ps.sub.UnsubscribeLiteral(rec.channel)
			ps.sub.UnsubscribePattern(rec.channel)
			if ps.metrics != nil {
				ps.metrics.RecordChannelClosed(kindLabel(refs.pattern))
			}
		}
	default:
		// Transport subscribe still pending. The confirmation path sees
		// the emptied refset and tears down whatever was established.
	}
}

// dispatch is the inbound message handler installed on the subscriber
// connection. It fans the decoded value out to every listener currently
// bound to the message's dispatch key, in subscription order.
func (ps *PubSub) dispatch(msg transport.Message) {
	// Pattern deliveries are keyed by the pattern that matched, because
	// that is the string the refset was registered under.
	key := msg.Channel
	if msg.Pattern != "" {
		key = msg.Pattern
	}

	ps.mu.RLock()
	var fns []Listener
	if refs := ps.channels[key]; refs != nil {
		fns = make([]Listener, 0, len(refs.ids))
		for _, id := range refs.ids {
			if rec := ps.records[id]; rec != nil {
				fns = append(fns, rec.fn)
			}
		}
	}
	ps.mu.RUnlock()

	if len(fns) == 0 {
		// Late delivery after the last unsubscribe, or a channel nobody
		// ever subscribed to here.
		if ps.metrics != nil {
			ps.metrics.RecordDrop()
		}
		ps.logger.Debug("dropping message with no registered listener", "key", key)
		return
	}

	value, err := ps.codec.Decode(msg.Payload)
	if err != nil {
		// Decode failures are never fatal to dispatch: listeners get the
		// raw payload instead.
		value = any(msg.Payload)
		if ps.metrics != nil {
			ps.metrics.RecordDecodeFailure()
		}
		ps.logger.Debug("delivering raw payload after decode failure", "key", key, "error", err)
	}

	for _, fn := range fns {
		ps.deliver(fn, value)
	}
	if ps.metrics != nil {
		ps.metrics.RecordDelivery(len(fns))
	}
}

// deliver invokes one listener, isolating panics so one failing listener
// cannot stop delivery to the rest.
func (ps *PubSub) deliver(fn Listener, value any) {
	defer func() {
		if r := recover(); r != nil {
			if ps.metrics != nil {
				ps.metrics.RecordListenerPanic()
			}
			ps.logger.Error("listener panicked during fan-out", "panic", r)
		}
	}()
	fn(value)
}

// Close closes both transport connections concurrently. In-flight
// subscriptions are abandoned, not individually unsubscribed; the broker
// forgets them when the subscribe connection drops.
func (ps *PubSub) Close(ctx context.Context) error {
	ps.mu.Lock()
	if ps.closed {
		ps.mu.Unlock()
		return nil
	}
	ps.closed = true
	ps.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ps.pub.Close(ctx) })
	g.Go(func() error { return ps.sub.Close(ctx) })
	err := g.Wait()

	if ps.ownBroker != nil {
		ps.ownBroker.Close()
	}

	if err != nil {
		return errors.WrapTransient(err, "PubSub", "Close", "close transport connections")
	}
	return nil
}

// handleEvent routes connection-level transport events to the configured
// observer, or logs errors when no observer is set.
func (ps *PubSub) handleEvent(ev transport.Event) {
	if ps.metrics != nil {
		switch ev.Kind {
		case transport.EventConnected:
			ps.metrics.RecordTransportStatus(ev.Side.String(), true)
		case transport.EventDisconnected:
			ps.metrics.RecordTransportStatus(ev.Side.String(), false)
		case transport.EventError:
			ps.metrics.RecordTransportError(ev.Side.String())
		}
	}

	if ps.onEvent != nil {
		ps.onEvent(ev)
		return
	}
	if ev.Kind == transport.EventError {
		ps.logger.Error("transport connection error", "side", ev.Side.String(), "error", ev.Err)
	}
}

// allocateLocked issues the next id and records the subscription in both
// tables. Caller holds ps.mu.
func (ps *PubSub) allocateLocked(channel string, fn Listener, refs *channelRefs) SubscriptionID {
	id := ps.nextID
	ps.nextID++
	ps.records[id] = &subscription{id: id, channel: channel, fn: fn}
	refs.ids = append(refs.ids, id)
	return id
}

func kindLabel(pattern bool) string {
	if pattern {
		return "pattern"
	}
	return "literal"
}

func invalidConfig(method, action string) error {
	return errors.WrapInvalid(errors.ErrInvalidConfig, "PubSub", method, action)
}
