// Package testutil provides an instrumented transport double for testing
// submux components.
//
// FakeConn implements both sides of the transport pair on one object, so a
// registry test wires it in twice:
//
//	conn := testutil.NewFakeConn()
//	ps, err := pubsub.New(
//	    pubsub.WithPublisher(conn),
//	    pubsub.WithSubscriber(conn),
//	)
//
// Every transport operation is recorded in order and queryable through
// Calls and CallsFor, which is how tests assert the registry's refcounting:
// that a shared channel produced exactly one subscribe, that the last
// unsubscribe produced exactly one unsubscribe/punsubscribe pair, and that
// a non-last unsubscribe produced none.
//
// FailSubscribes and FailPublishes inject transport rejections; Inject
// delivers arbitrary messages (including pattern-tagged ones) to the
// handler; EmitEvent simulates connection-level events.
package testutil
