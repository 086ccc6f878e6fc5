package config

import (
	"github.com/c360/submux/membroker"
	"github.com/c360/submux/natsclient"
	"github.com/c360/submux/pkg/buffer"
	"github.com/c360/submux/pubsub"
	"github.com/c360/submux/redisclient"
)

// Build constructs a ready *pubsub.PubSub from the configuration. Extra
// options are applied after the config-derived ones, so programmatic
// settings (codec hooks, logger, metrics, observers) win over the file.
func Build(cfg *Config, extra ...pubsub.Option) (*pubsub.PubSub, error) {
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts, err := cfg.transportOptions()
	if err != nil {
		return nil, err
	}

	if cfg.Stream.Capacity > 0 {
		policy := buffer.DropOldest
		if cfg.Stream.OverflowPolicy == PolicyDropNewest {
			policy = buffer.DropNewest
		}
		opts = append(opts, pubsub.WithStreamQueue(cfg.Stream.Capacity, policy))
	}

	return pubsub.New(append(opts, extra...)...)
}

func (c *Config) transportOptions() ([]pubsub.Option, error) {
	switch c.Transport {
	case TransportRedis:
		var redisOpts []redisclient.Option
		if c.Redis.Username != "" || c.Redis.Password != "" {
			redisOpts = append(redisOpts, redisclient.WithCredentials(c.Redis.Username, c.Redis.Password))
		}
		if c.Redis.DB != 0 {
			redisOpts = append(redisOpts, redisclient.WithDB(c.Redis.DB))
		}
		if c.Redis.ClientName != "" {
			redisOpts = append(redisOpts, redisclient.WithName(c.Redis.ClientName))
		}
		if c.Redis.DialTimeout > 0 {
			redisOpts = append(redisOpts, redisclient.WithDialTimeout(c.Redis.DialTimeout))
		}
		pub, sub, err := redisclient.NewPair(c.Redis.Addr, redisOpts...)
		if err != nil {
			return nil, err
		}
		return []pubsub.Option{pubsub.WithPublisher(pub), pubsub.WithSubscriber(sub)}, nil

	case TransportNATS:
		var natsOpts []natsclient.Option
		if c.NATS.Name != "" {
			natsOpts = append(natsOpts, natsclient.WithName(c.NATS.Name))
		}
		if c.NATS.Username != "" || c.NATS.Password != "" {
			natsOpts = append(natsOpts, natsclient.WithCredentials(c.NATS.Username, c.NATS.Password))
		}
		if c.NATS.Token != "" {
			natsOpts = append(natsOpts, natsclient.WithToken(c.NATS.Token))
		}
		if c.NATS.Timeout > 0 {
			natsOpts = append(natsOpts, natsclient.WithTimeout(c.NATS.Timeout))
		}
		if c.NATS.MaxReconnects != 0 {
			natsOpts = append(natsOpts, natsclient.WithMaxReconnects(c.NATS.MaxReconnects))
		}
		if c.NATS.ReconnectWait > 0 {
			natsOpts = append(natsOpts, natsclient.WithReconnectWait(c.NATS.ReconnectWait))
		}
		pub, sub, err := natsclient.NewPair(c.NATS.URL, natsOpts...)
		if err != nil {
			return nil, err
		}
		return []pubsub.Option{pubsub.WithPublisher(pub), pubsub.WithSubscriber(sub)}, nil

	default: // TransportMemory, validated upstream
		broker := membroker.New()
		return []pubsub.Option{
			pubsub.WithPublisher(broker.Publisher()),
			pubsub.WithSubscriber(broker.Subscriber()),
		}, nil
	}
}
