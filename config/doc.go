// Package config is the file-and-environment front door for hosts that
// construct submux from deployment configuration rather than code.
//
// A config file is JSON or YAML, selected by extension:
//
//	transport: redis
//	redis:
//	  addr: localhost:6379
//	stream:
//	  capacity: 1024
//	  overflow_policy: drop_oldest
//
// Environment variables override the file (SUBMUX_TRANSPORT,
// SUBMUX_REDIS_ADDR, SUBMUX_REDIS_PASSWORD, SUBMUX_REDIS_DB,
// SUBMUX_NATS_URL), so one file serves several environments.
//
// Build turns a validated Config into a connected *pubsub.PubSub:
//
//	cfg, err := config.Load("submux.yaml")
//	if err != nil { ... }
//	ps, err := config.Build(cfg, pubsub.WithLogger(logger))
//
// Anything that is code rather than deployment — codec hooks, trigger
// transforms, observers, metrics — stays out of the file and is passed to
// Build as pubsub options.
package config
