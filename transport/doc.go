// Package transport defines the interfaces between the submux subscription
// registry and a channel-based pub/sub broker.
//
// # Overview
//
// A transport is a pair of connections: a Publisher that sends payloads on
// named channels, and a Subscriber that maintains literal-channel and
// pattern-channel subscriptions and delivers inbound messages to a Handler.
// The pair mirrors how Redis pub/sub works (a connection in subscribe mode
// cannot issue regular commands, so publishing needs its own connection);
// the other transports keep the same shape for uniformity.
//
// # Delivery Contract
//
// Brokers behind this interface provide at-most-once delivery with no
// persistence. A message published while nobody is subscribed is gone.
// Messages that arrive through a pattern subscription carry the matching
// pattern in Message.Pattern; literal deliveries leave it empty.
//
// # Blocking Contract
//
// SubscribeLiteral and SubscribePattern block until the broker confirms.
// UnsubscribeLiteral and UnsubscribePattern are fire-and-forget and
// idempotent. The registry relies on both halves of this contract: subscribe
// confirmation gates when a logical subscription becomes valid, and
// non-blocking unsubscribe lets teardown run while the registry lock is held.
//
// # Implementations
//
//   - redisclient: Redis pub/sub (SUBSCRIBE/PSUBSCRIBE), the default.
//   - natsclient: core NATS subjects, wildcard subjects as patterns.
//   - membroker: in-process broker for tests and single-process hosts.
package transport
