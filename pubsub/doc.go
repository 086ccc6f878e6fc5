// Package pubsub is the core of submux: a subscription registry that lets
// many logical subscriptions share a small number of physical broker
// subscriptions, plus a pull-based stream adapter over it.
//
// # Registry
//
// Subscribe maps a trigger through the trigger transform to a physical
// channel, allocates a monotonically increasing SubscriptionID, and adds it
// to the channel's refset. The refset doubles as the reference count: the
// first subscription for a channel issues the transport subscribe (literal
// or pattern, per the WithPattern option) and blocks until the broker
// confirms; later subscriptions reuse the live physical subscription and
// return immediately. Subscribes that arrive while the first is still
// pending wait on the same confirmation, so an id never resolves before its
// physical subscription is active.
//
// Unsubscribe removes the id and, when the refset empties, issues both the
// literal and pattern transport unsubscribes (idempotent on the broker side)
// without waiting for confirmation. Unknown ids fail with
// errors.ErrUnknownSubscription and cause no transport call.
//
// Publish encodes through the codec and sends on the trigger's literal
// name; the trigger transform applies only to subscriptions.
//
// # Dispatch
//
// Inbound messages are keyed by the pattern that matched when one is
// reported, else by the channel name. The decoded value goes to every
// listener in the refset, in subscription order, with per-listener panic
// isolation. Decode failures fall back to delivering the raw payload bytes;
// messages with no registered listener are dropped.
//
// # Streams
//
// Stream adapts the callback registry into a cancellable pull sequence:
// Next suspends until a value is queued, Close unsubscribes everything and
// resolves suspended pulls with errors.ErrStreamClosed. Subscriptions are
// established lazily on the first Next. The delivery queue is unbounded by
// default; WithStreamQueue caps it with a drop policy.
//
// # Concurrency
//
// The id counter, the record table, and the refset table are mutated
// together under one mutex and never observed partially updated. Subscribe
// blocks only while establishing a new physical subscription; Unsubscribe
// never blocks; a hung broker confirmation hangs the corresponding
// Subscribe call (bound it with the caller's context).
package pubsub
