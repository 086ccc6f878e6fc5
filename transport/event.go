package transport

// Side identifies which half of the connection pair an event came from.
type Side int

// Connection pair sides.
const (
	SidePublisher Side = iota
	SideSubscriber
)

// String returns the string representation of Side.
func (s Side) String() string {
	switch s {
	case SidePublisher:
		return "publisher"
	case SideSubscriber:
		return "subscriber"
	default:
		return "unknown"
	}
}

// EventKind classifies a connection-level event.
type EventKind int

// Connection event kinds.
const (
	EventConnected EventKind = iota
	EventDisconnected
	EventError
)

// String returns the string representation of EventKind.
func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a connection-level notification from a transport connection.
// Err is set for EventError and EventDisconnected (when the broker reported
// a cause), nil otherwise.
type Event struct {
	Side Side
	Kind EventKind
	Err  error
}

// EventFunc observes connection-level events. Implementations must not block;
// transports invoke it from their connection-management goroutines.
type EventFunc func(Event)

// EventNotifier is implemented by transport connections that surface
// connection-level events. The registry type-asserts for it when a
// connection observer is configured.
type EventNotifier interface {
	NotifyEvents(fn EventFunc)
}
