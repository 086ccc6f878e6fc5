// Package errors provides standardized error handling patterns for submux components.
//
// # Overview
//
// The errors package implements a three-class error classification system:
// Transient (temporary, may succeed if the caller tries again), Invalid (bad
// input or configuration, trying again will not help), and Fatal
// (unrecoverable, stop processing).
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if id not found {
//	    return errors.ErrUnknownSubscription
//	}
//
// Wrap errors with context for debugging:
//
//	if err := conn.SubscribeLiteral(ctx, channel); err != nil {
//	    return errors.WrapTransient(err, "PubSub", "Subscribe", "transport subscribe")
//	}
//
// Check classification at the call site:
//
//	if err := ps.Publish(ctx, trigger, value); err != nil {
//	    if errors.IsTransient(err) {
//	        // transport hiccup - the caller may try again
//	    } else if errors.IsInvalid(err) {
//	        // caller bug - do not retry
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")
//	errors.WrapInvalid(err, "Component", "Method", "action")
//	errors.WrapFatal(err, "Component", "Method", "action")
//
// The generic Wrap() function adds context without assigning a class.
//
// # Standard Error Variables
//
// The core operation errors mirror the pubsub surface: ErrSubscribeFailed and
// ErrPublishFailed report transport rejections, ErrUnknownSubscription reports
// an unsubscribe for an id that was never issued or was already released, and
// ErrInvalidConfig reports a construction-time configuration conflict. Callers
// test for them with errors.Is; the wrapping chain preserves them.
//
// # Retries
//
// This package classifies; it does not retry. Reconnection and retry belong to
// the transport clients (go-redis and nats.go both reconnect on their own).
// Classification exists so hosts can make their own retry decisions.
package errors
