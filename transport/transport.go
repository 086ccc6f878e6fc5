// Package transport defines the port between the subscription registry and
// the underlying pub/sub broker. Implementations live in redisclient,
// natsclient, and membroker.
package transport

import "context"

// Message is one inbound delivery from the broker.
//
// Pattern is the pattern string that matched when the message arrived through
// a pattern subscription, and empty for literal subscriptions. Dispatch keys
// off the pattern when present because pattern subscriptions are registered
// under the pattern string, not the concrete channel name.
type Message struct {
	Pattern string
	Channel string
	Payload []byte
}

// Handler consumes inbound messages. Implementations of Subscriber invoke it
// sequentially, in the order the broker delivered messages.
type Handler func(Message)

// Publisher is the publish side of a transport connection pair.
type Publisher interface {
	// Publish sends payload on channel. It returns an error if the broker
	// rejects the send or the connection is down.
	Publish(ctx context.Context, channel string, payload []byte) error

	// Close releases the connection. Safe to call more than once.
	Close(ctx context.Context) error
}

// Subscriber is the subscribe side of a transport connection pair.
//
// SubscribeLiteral and SubscribePattern block until the broker confirms the
// subscription. UnsubscribeLiteral and UnsubscribePattern are fire-and-forget:
// they enqueue the wire command and return without waiting for confirmation,
// and are idempotent when the named subscription does not exist.
type Subscriber interface {
	SubscribeLiteral(ctx context.Context, channel string) error
	SubscribePattern(ctx context.Context, pattern string) error
	UnsubscribeLiteral(channel string)
	UnsubscribePattern(pattern string)

	// SetHandler installs the inbound message handler. Must be called before
	// the first subscribe; replacing the handler while subscriptions are
	// active is not supported.
	SetHandler(h Handler)

	// Close releases the connection. Safe to call more than once.
	Close(ctx context.Context) error
}
