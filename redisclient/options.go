package redisclient

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/c360/submux/errors"
)

// Option is a functional option for configuring a Redis connection.
type Option func(*options) error

type options struct {
	addr        string
	username    string
	password    string
	db          int
	name        string
	dialTimeout time.Duration
	logger      *slog.Logger
}

// WithCredentials sets the Redis username and password.
func WithCredentials(username, password string) Option {
	return func(o *options) error {
		o.username = username
		o.password = password
		return nil
	}
}

// WithDB selects a Redis logical database. Pub/sub traffic is global across
// databases, but keyspace notifications are not, so hosts that mix both may
// care.
func WithDB(db int) Option {
	return func(o *options) error {
		if db < 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "redisclient", "WithDB", "negative database index")
		}
		o.db = db
		return nil
	}
}

// WithName sets the base client name reported to Redis. A side tag and a
// random suffix are appended per connection.
func WithName(name string) Option {
	return func(o *options) error {
		o.name = name
		return nil
	}
}

// WithDialTimeout bounds the initial connection attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.dialTimeout = d
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

func applyOptions(addr string, opts []Option) (*options, error) {
	if addr == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "redisclient", "applyOptions", "empty redis address")
	}

	o := &options{
		addr:        addr,
		dialTimeout: 5 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// redisOptions builds the go-redis client options for one side of the pair.
// Reconnection stays with go-redis (infinite retries with backoff); submux
// never retries on its own.
func (o *options) redisOptions(side string, onConnect func()) *redis.Options {
	return &redis.Options{
		Addr:            o.addr,
		Username:        o.username,
		Password:        o.password,
		DB:              o.db,
		ClientName:      connName(o.name, side),
		DialTimeout:     o.dialTimeout,
		MaxRetries:      -1,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		OnConnect: func(_ context.Context, _ *redis.Conn) error {
			if onConnect != nil {
				onConnect()
			}
			return nil
		},
	}
}
