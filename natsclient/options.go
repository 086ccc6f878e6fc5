package natsclient

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/c360/submux/errors"
	"github.com/c360/submux/transport"
)

// Option is a functional option for configuring a NATS connection.
type Option func(*options) error

type options struct {
	url           string
	name          string
	username      string
	password      string
	token         string
	timeout       time.Duration
	maxReconnects int
	reconnectWait time.Duration
	logger        *slog.Logger
}

// WithName sets the base connection name reported to the server. A side tag
// and a random suffix are appended per connection.
func WithName(name string) Option {
	return func(o *options) error {
		o.name = name
		return nil
	}
}

// WithCredentials sets username/password authentication.
func WithCredentials(username, password string) Option {
	return func(o *options) error {
		o.username = username
		o.password = password
		return nil
	}
}

// WithToken sets token authentication.
func WithToken(token string) Option {
	return func(o *options) error {
		o.token = token
		return nil
	}
}

// WithTimeout bounds the initial connection attempt.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "natsclient", "WithTimeout", "non-positive timeout")
		}
		o.timeout = d
		return nil
	}
}

// WithMaxReconnects caps reconnection attempts. The default is infinite;
// reconnection belongs to nats.go, submux never retries on its own.
func WithMaxReconnects(n int) Option {
	return func(o *options) error {
		o.maxReconnects = n
		return nil
	}
}

// WithReconnectWait sets the wait between reconnection attempts.
func WithReconnectWait(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "natsclient", "WithReconnectWait", "non-positive wait")
		}
		o.reconnectWait = d
		return nil
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}

func applyOptions(url string, opts []Option) (*options, error) {
	if url == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "natsclient", "applyOptions", "empty NATS url")
	}

	o := &options{
		url:           url,
		timeout:       5 * time.Second,
		maxReconnects: -1,
		reconnectWait: 2 * time.Second,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// natsOptions builds the nats.go connection options for one side of the
// pair, routing the client's connection callbacks into transport events.
func (o *options) natsOptions(tag string, side transport.Side, emit transport.EventFunc) []nats.Option {
	base := o.name
	if base == "" {
		base = "submux"
	}

	opts := []nats.Option{
		nats.Name(fmt.Sprintf("%s-%s-%s", base, tag, uuid.NewString()[:8])),
		nats.Timeout(o.timeout),
		nats.MaxReconnects(o.maxReconnects),
		nats.ReconnectWait(o.reconnectWait),
		nats.ConnectHandler(func(_ *nats.Conn) {
			emit(transport.Event{Side: side, Kind: transport.EventConnected})
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			emit(transport.Event{Side: side, Kind: transport.EventConnected})
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			emit(transport.Event{Side: side, Kind: transport.EventDisconnected, Err: err})
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			emit(transport.Event{Side: side, Kind: transport.EventError, Err: err})
		}),
	}

	if o.username != "" {
		opts = append(opts, nats.UserInfo(o.username, o.password))
	}
	if o.token != "" {
		opts = append(opts, nats.Token(o.token))
	}
	return opts
}
