// Package config loads and validates submux configuration and builds a
// ready PubSub from it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/submux/errors"
)

// Transport selection values.
const (
	TransportRedis  = "redis"
	TransportNATS   = "nats"
	TransportMemory = "memory"
)

// Stream overflow policy values.
const (
	PolicyDropOldest = "drop_oldest"
	PolicyDropNewest = "drop_newest"
)

// Config is the file-level configuration for a submux instance.
type Config struct {
	// Transport selects the broker client: redis, nats, or memory.
	Transport string `json:"transport" yaml:"transport"`

	Redis  RedisConfig  `json:"redis,omitempty" yaml:"redis,omitempty"`
	NATS   NATSConfig   `json:"nats,omitempty" yaml:"nats,omitempty"`
	Stream StreamConfig `json:"stream,omitempty" yaml:"stream,omitempty"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr        string        `json:"addr" yaml:"addr"`
	Username    string        `json:"username,omitempty" yaml:"username,omitempty"`
	Password    string        `json:"password,omitempty" yaml:"password,omitempty"`
	DB          int           `json:"db,omitempty" yaml:"db,omitempty"`
	ClientName  string        `json:"client_name,omitempty" yaml:"client_name,omitempty"`
	DialTimeout time.Duration `json:"dial_timeout,omitempty" yaml:"dial_timeout,omitempty"`
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string        `json:"url" yaml:"url"`
	Name          string        `json:"name,omitempty" yaml:"name,omitempty"`
	Username      string        `json:"username,omitempty" yaml:"username,omitempty"`
	Password      string        `json:"password,omitempty" yaml:"password,omitempty"`
	Token         string        `json:"token,omitempty" yaml:"token,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty" yaml:"reconnect_wait,omitempty"`
}

// StreamConfig caps the per-stream delivery queue. A zero capacity means
// unbounded, the default.
type StreamConfig struct {
	Capacity       int    `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	OverflowPolicy string `json:"overflow_policy,omitempty" yaml:"overflow_policy,omitempty"`
}

// Default returns a config for the in-process transport, which needs no
// broker and no further settings.
func Default() *Config {
	return &Config{Transport: TransportMemory}
}

// Load reads a config file, JSON or YAML by extension, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "config", "Load", "read config file")
	}

	cfg := Default()
	switch ext := filepath.Ext(path); ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "parse JSON config")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "parse YAML config")
		}
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Load",
			fmt.Sprintf("unsupported config extension %q", ext))
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays SUBMUX_* environment variables on the loaded values, so
// deployments can point one config file at different brokers.
func (c *Config) applyEnv() {
	if v := os.Getenv("SUBMUX_TRANSPORT"); v != "" {
		c.Transport = v
	}
	if v := os.Getenv("SUBMUX_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("SUBMUX_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("SUBMUX_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("SUBMUX_NATS_URL"); v != "" {
		c.NATS.URL = v
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportRedis:
		if c.Redis.Addr == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
				"redis transport needs redis.addr")
		}
	case TransportNATS:
		if c.NATS.URL == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
				"nats transport needs nats.url")
		}
	case TransportMemory:
		// Nothing to check.
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("unknown transport %q", c.Transport))
	}

	if c.Stream.Capacity < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"stream capacity cannot be negative")
	}
	if c.Stream.Capacity > 0 {
		switch c.Stream.OverflowPolicy {
		case "", PolicyDropOldest, PolicyDropNewest:
		default:
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("unknown stream overflow policy %q", c.Stream.OverflowPolicy))
		}
	}

	return nil
}
