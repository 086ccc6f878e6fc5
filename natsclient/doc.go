// Package natsclient implements the submux transport interfaces on core
// NATS subjects.
//
// # Mapping
//
// Channels map to subjects. NATS has a single subscribe primitive, so a
// "pattern" subscription is just a subject containing wildcards: '*'
// matches one token, '>' matches the rest of the subject. The subscriber
// tracks literal and pattern subscriptions for the same subject string
// separately, because the registry tears a channel down by issuing both
// unsubscribes and each must only affect its own kind.
//
// Pattern deliveries report the wildcard subject in Message.Pattern; the
// concrete subject that matched rides in Message.Channel.
//
// # Scope
//
// Core NATS only: at-most-once delivery, no persistence. JetStream is out
// of scope because submux promises nothing beyond what a plain pub/sub
// channel provides. Reconnection belongs to nats.go, which also replays
// active subscriptions onto the new connection.
//
// # Usage
//
//	pub, sub, err := natsclient.NewPair(nats.DefaultURL)
//	if err != nil { ... }
//	ps, err := pubsub.New(
//	    pubsub.WithPublisher(pub),
//	    pubsub.WithSubscriber(sub),
//	)
package natsclient
