// Package membroker implements the submux transport interfaces on an
// in-process broker.
//
// It exists for two reasons: tests exercise the full literal/pattern
// subscription semantics without a running broker, and single-process hosts
// can use submux as a plain in-memory event bus by pointing both connection
// sides at one Broker:
//
//	broker := membroker.New()
//	ps, err := pubsub.New(
//	    pubsub.WithPublisher(broker.Publisher()),
//	    pubsub.WithSubscriber(broker.Subscriber()),
//	)
//
// Pattern subscriptions use Redis-style globs ('*', '?', '[...]', '\'
// escape), matched by this package's Match function, so pattern behavior is
// interchangeable with the redisclient transport.
//
// Delivery is synchronous: Publish invokes every matching handler before it
// returns, in subscription-connection order, literals before patterns and
// patterns in lexical order. A channel that is subscribed both literally and
// through a matching pattern on the same connection receives the message
// twice, once per subscription kind, exactly as Redis delivers it.
package membroker
