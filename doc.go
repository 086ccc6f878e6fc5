// Package submux multiplexes many logical pub/sub subscriptions over a
// small number of physical broker subscriptions.
//
// # Problem
//
// Application code wants to publish named events and consume them as
// independent, cancellable streams. Channel-based brokers (Redis pub/sub,
// NATS) want few long-lived subscriptions on few connections. submux sits
// between the two: it reference-counts physical channels so any number of
// logical subscribers share one wire subscription, issues the broker
// subscribe/unsubscribe exactly when the count crosses zero, and fans each
// inbound message out to exactly the listeners registered for its channel.
//
// # Architecture
//
//	┌──────────────────────────────────────────┐
//	│              Application                 │   Publish / Subscribe /
//	│        (listeners and streams)           │   Stream / Unsubscribe
//	└───────────────────┬──────────────────────┘
//	                    ↓
//	┌──────────────────────────────────────────┐
//	│           pubsub (registry)              │   id allocation, refsets,
//	│   trigger transform · codec · fan-out    │   decode, dispatch
//	└───────────────────┬──────────────────────┘
//	                    ↓
//	┌──────────────────────────────────────────┐
//	│          transport (port)                │   Publisher + Subscriber
//	│   redisclient │ natsclient │ membroker   │   connection pair
//	└──────────────────────────────────────────┘
//
// The packages:
//
//   - pubsub: the subscription registry, dispatch engine, and Stream
//     adapter. This is the core.
//   - transport: the broker-facing interfaces.
//   - redisclient, natsclient, membroker: transport implementations on
//     Redis pub/sub, core NATS, and an in-process broker.
//   - codec: payload encode/decode (JSON default, reviver hook, custom
//     functions).
//   - config: file/env configuration and one-call construction.
//   - errors: classified error handling shared by every package.
//   - metric: Prometheus instrumentation.
//   - pkg/buffer: the generic bounded queue behind capped streams.
//   - testutil: an instrumented transport double for tests.
//
// # Usage
//
//	pub, sub, err := redisclient.NewPair("localhost:6379")
//	if err != nil { ... }
//	ps, err := pubsub.New(
//	    pubsub.WithPublisher(pub),
//	    pubsub.WithSubscriber(sub),
//	)
//	if err != nil { ... }
//
//	id, err := ps.Subscribe(ctx, "chat.room1", func(v any) {
//	    fmt.Println("got", v)
//	})
//	...
//	_ = ps.Publish(ctx, "chat.room1", map[string]any{"text": "hi"})
//	_ = ps.Unsubscribe(id)
//
// Or as a pull-based stream:
//
//	stream := ps.Stream([]string{"ticks"})
//	defer stream.Close()
//	for {
//	    v, err := stream.Next(ctx)
//	    if errors.Is(err, suberrors.ErrStreamClosed) {
//	        break
//	    }
//	    ...
//	}
//
// # Guarantees and Non-Guarantees
//
// submux adds multiplexing, not reliability: delivery is whatever the
// broker provides (at-most-once, no persistence), reconnection belongs to
// the broker clients, and slow consumers are not back-pressured beyond the
// optional capped stream queue. Within those limits, dispatch preserves
// broker delivery order per channel and notifies listeners in subscription
// order, decode failures degrade to raw-payload delivery instead of losing
// the message, and a panicking listener never stops fan-out to the rest.
package submux
