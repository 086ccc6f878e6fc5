package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/submux/errors"
	"github.com/c360/submux/pkg/buffer"
	"github.com/c360/submux/pubsub"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, TransportMemory, cfg.Transport)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "submux.yaml", `
transport: redis
redis:
  addr: localhost:6379
  db: 2
  client_name: app
stream:
  capacity: 1024
  overflow_policy: drop_oldest
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportRedis, cfg.Transport)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "app", cfg.Redis.ClientName)
	assert.Equal(t, 1024, cfg.Stream.Capacity)
	assert.Equal(t, PolicyDropOldest, cfg.Stream.OverflowPolicy)
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "submux.json", `{
  "transport": "nats",
  "nats": {"url": "nats://localhost:4222", "name": "app"}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportNATS, cfg.Transport)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "app", cfg.NATS.Name)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unsupported extension", "submux.toml", "transport = 'memory'"},
		{"bad yaml", "submux.yaml", "transport: [unclosed"},
		{"bad json", "submux.json", "{not json"},
		{"invalid result", "submux.yaml", "transport: redis"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeConfig(t, test.file, test.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SUBMUX_TRANSPORT", TransportRedis)
	t.Setenv("SUBMUX_REDIS_ADDR", "override:6379")
	t.Setenv("SUBMUX_REDIS_PASSWORD", "secret")
	t.Setenv("SUBMUX_REDIS_DB", "5")

	path := writeConfig(t, "submux.yaml", "transport: memory\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportRedis, cfg.Transport)
	assert.Equal(t, "override:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 5, cfg.Redis.DB)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Transport: TransportMemory}, false},
		{"redis with addr", Config{Transport: TransportRedis, Redis: RedisConfig{Addr: "x:1"}}, false},
		{"redis without addr", Config{Transport: TransportRedis}, true},
		{"nats with url", Config{Transport: TransportNATS, NATS: NATSConfig{URL: "nats://x"}}, false},
		{"nats without url", Config{Transport: TransportNATS}, true},
		{"unknown transport", Config{Transport: "carrier-pigeon"}, true},
		{"negative stream capacity", Config{Transport: TransportMemory, Stream: StreamConfig{Capacity: -1}}, true},
		{"unknown overflow policy", Config{Transport: TransportMemory,
			Stream: StreamConfig{Capacity: 8, OverflowPolicy: "explode"}}, true},
		{"drop_newest policy", Config{Transport: TransportMemory,
			Stream: StreamConfig{Capacity: 8, OverflowPolicy: PolicyDropNewest}}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.Validate()
			if test.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBuild_MemoryTransport(t *testing.T) {
	ctx := context.Background()

	ps, err := Build(&Config{
		Transport: TransportMemory,
		Stream:    StreamConfig{Capacity: 16, OverflowPolicy: PolicyDropNewest},
	})
	require.NoError(t, err)
	defer ps.Close(ctx)

	delivered := make(chan any, 1)
	_, err = ps.Subscribe(ctx, "t", func(v any) { delivered <- v })
	require.NoError(t, err)

	require.NoError(t, ps.Publish(ctx, "t", "hello"))
	assert.Equal(t, "hello", <-delivered)
}

func TestBuild_NilConfigUsesDefault(t *testing.T) {
	ctx := context.Background()

	ps, err := Build(nil)
	require.NoError(t, err)
	require.NoError(t, ps.Close(ctx))
}

func TestBuild_ExtraOptionsApply(t *testing.T) {
	// A conflicting extra option proves the extras reach pubsub.New.
	_, err := Build(Default(),
		pubsub.WithStreamQueue(4, buffer.Block),
	)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestBuild_InvalidConfig(t *testing.T) {
	_, err := Build(&Config{Transport: "carrier-pigeon"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}
