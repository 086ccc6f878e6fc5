// Package redisclient implements the submux transport interfaces on Redis
// pub/sub using go-redis.
//
// # Connection Pair
//
// Redis dedicates a connection to subscribe mode: once SUBSCRIBE is issued,
// that connection can only run subscription commands. Publishing therefore
// needs its own connection, which is why the transport is a pair:
//
//	pub, sub, err := redisclient.NewPair("localhost:6379")
//	if err != nil { ... }
//	ps, err := pubsub.New(
//	    pubsub.WithPublisher(pub),
//	    pubsub.WithSubscriber(sub),
//	)
//
// # Semantics
//
// SubscribeLiteral maps to SUBSCRIBE, SubscribePattern to PSUBSCRIBE with
// Redis glob patterns, and the unsubscribes to UNSUBSCRIBE/PUNSUBSCRIBE,
// which Redis treats as no-ops for unknown channels. Pattern deliveries
// (pmessage) carry the matching pattern in Message.Pattern.
//
// # Reconnection
//
// Reconnection belongs to go-redis, which retries with backoff and
// re-issues the active SUBSCRIBE/PSUBSCRIBE set on a fresh connection.
// Messages published while the subscriber was down are lost; Redis pub/sub
// has no persistence and submux adds none.
package redisclient
