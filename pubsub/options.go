package pubsub

import (
	"log/slog"

	"github.com/c360/submux/codec"
	"github.com/c360/submux/metric"
	"github.com/c360/submux/pkg/buffer"
	"github.com/c360/submux/transport"
)

// Option is a functional option for configuring a PubSub at construction.
type Option func(*PubSub) error

// WithPublisher sets the publish-side transport connection. Must be paired
// with WithSubscriber; the two sides always come from the same broker.
func WithPublisher(p transport.Publisher) Option {
	return func(ps *PubSub) error {
		ps.pub = p
		return nil
	}
}

// WithSubscriber sets the subscribe-side transport connection.
func WithSubscriber(s transport.Subscriber) Option {
	return func(ps *PubSub) error {
		ps.sub = s
		return nil
	}
}

// WithTriggerTransform replaces the identity trigger transform. The
// transform maps an application trigger plus its subscribe options to the
// physical channel name used on the wire. Subscribe applies it; Publish
// does not (publishes go out on the literal trigger string).
func WithTriggerTransform(fn TriggerTransform) Option {
	return func(ps *PubSub) error {
		if fn != nil {
			ps.transform = fn
		}
		return nil
	}
}

// WithSerializer sets a custom payload serializer used by Publish in place
// of the JSON default.
func WithSerializer(fn codec.EncodeFunc) Option {
	return func(ps *PubSub) error {
		ps.serializer = fn
		return nil
	}
}

// WithDeserializer sets a full custom payload deserializer used during
// dispatch in place of the JSON default. Mutually exclusive with
// WithReviver.
func WithDeserializer(fn codec.DecodeFunc) Option {
	return func(ps *PubSub) error {
		ps.deserializer = fn
		return nil
	}
}

// WithReviver sets a per-key decode hook applied over every decoded value
// tree. Mutually exclusive with WithDeserializer.
func WithReviver(fn codec.Reviver) Option {
	return func(ps *PubSub) error {
		ps.reviver = fn
		return nil
	}
}

// WithConnectionObserver installs an observer for connection-level transport
// events. Without one, transport errors are logged and otherwise swallowed.
func WithConnectionObserver(fn transport.EventFunc) Option {
	return func(ps *PubSub) error {
		ps.onEvent = fn
		return nil
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ps *PubSub) error {
		if logger != nil {
			ps.logger = logger
		}
		return nil
	}
}

// WithMetrics wires the core submux metrics into the registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(ps *PubSub) error {
		if registry != nil {
			ps.metrics = registry.CoreMetrics()
		}
		return nil
	}
}

// WithStreamQueue caps the delivery queue of streams created by this PubSub
// at capacity items, with policy deciding what to drop on overflow. The
// default is an unbounded queue. buffer.Block is not accepted: a stream
// listener runs inside the dispatch loop and must never block it.
func WithStreamQueue(capacity int, policy buffer.OverflowPolicy) Option {
	return func(ps *PubSub) error {
		if capacity <= 0 {
			return invalidConfig("WithStreamQueue", "stream queue capacity must be positive")
		}
		if policy == buffer.Block {
			return invalidConfig("WithStreamQueue", "Block overflow policy is not supported for streams")
		}
		ps.streamCap = capacity
		ps.streamPolicy = policy
		return nil
	}
}

// SubscribeOptions carries the per-call options of Subscribe. The trigger
// transform receives it so custom transforms can key off the pattern flag.
type SubscribeOptions struct {
	// Pattern selects a pattern-channel subscription instead of a literal
	// one. The first subscribe for a physical channel fixes its kind for
	// the lifetime of that channel's refset.
	Pattern bool
}

// SubscribeOption is a functional option for a single Subscribe call.
type SubscribeOption func(*SubscribeOptions)

// WithPattern subscribes to the physical channel as a glob pattern rather
// than a literal channel name.
func WithPattern() SubscribeOption {
	return func(o *SubscribeOptions) {
		o.Pattern = true
	}
}

func applySubscribeOptions(opts []SubscribeOption) SubscribeOptions {
	var o SubscribeOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
