package natsclient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/c360/submux/pubsub"
	"github.com/c360/submux/transport"
)

// startNATSContainer starts a disposable NATS server for the test.
func startNATSContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "nats:latest",
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForListeningPort("4222/tcp"),
	}

	natsContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := natsContainer.Host(ctx)
	require.NoError(t, err)

	port, err := natsContainer.MappedPort(ctx, "4222")
	require.NoError(t, err)

	return natsContainer, fmt.Sprintf("nats://%s:%s", host, port.Port())
}

func TestIntegration_PublishSubscribe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	natsContainer, url := startNATSContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	pub, sub, err := NewPair(url, WithName("integration"))
	require.NoError(t, err)
	defer pub.Close(ctx)
	defer sub.Close(ctx)

	delivered := make(chan transport.Message, 8)
	sub.SetHandler(func(msg transport.Message) {
		delivered <- msg
	})

	require.NoError(t, sub.SubscribeLiteral(ctx, "chat.room1"))
	require.NoError(t, pub.Publish(ctx, "chat.room1", []byte(`"hello"`)))

	select {
	case msg := <-delivered:
		assert.Equal(t, "chat.room1", msg.Channel)
		assert.Empty(t, msg.Pattern)
		assert.Equal(t, []byte(`"hello"`), msg.Payload)
	case <-time.After(5 * time.Second):
		t.Fatal("no delivery within deadline")
	}
}

func TestIntegration_WildcardSubjects(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	natsContainer, url := startNATSContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	pub, sub, err := NewPair(url)
	require.NoError(t, err)
	defer pub.Close(ctx)
	defer sub.Close(ctx)

	delivered := make(chan transport.Message, 8)
	sub.SetHandler(func(msg transport.Message) {
		delivered <- msg
	})

	// NATS wildcards are per token: "news.*" matches "news.sports".
	require.NoError(t, sub.SubscribePattern(ctx, "news.*"))
	require.NoError(t, pub.Publish(ctx, "news.sports", []byte(`"score"`)))

	select {
	case msg := <-delivered:
		assert.Equal(t, "news.*", msg.Pattern)
		assert.Equal(t, "news.sports", msg.Channel)
	case <-time.After(5 * time.Second):
		t.Fatal("no wildcard delivery within deadline")
	}
}

func TestIntegration_UnsubscribeStopsDelivery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	natsContainer, url := startNATSContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	pub, sub, err := NewPair(url)
	require.NoError(t, err)
	defer pub.Close(ctx)
	defer sub.Close(ctx)

	delivered := make(chan transport.Message, 8)
	sub.SetHandler(func(msg transport.Message) {
		delivered <- msg
	})

	require.NoError(t, sub.SubscribeLiteral(ctx, "t"))
	sub.UnsubscribeLiteral("t")
	sub.UnsubscribeLiteral("t")

	require.NoError(t, pub.Publish(ctx, "t", []byte(`"late"`)))

	select {
	case msg := <-delivered:
		t.Fatalf("unexpected delivery after unsubscribe: %+v", msg)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestIntegration_FullStack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	natsContainer, url := startNATSContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	pub, sub, err := NewPair(url)
	require.NoError(t, err)

	ps, err := pubsub.New(
		pubsub.WithPublisher(pub),
		pubsub.WithSubscriber(sub),
	)
	require.NoError(t, err)
	defer ps.Close(ctx)

	delivered := make(chan any, 8)
	_, err = ps.Subscribe(ctx, "orders.created", func(v any) {
		delivered <- v
	})
	require.NoError(t, err)

	require.NoError(t, ps.Publish(ctx, "orders.created", map[string]any{"id": "o-1"}))

	select {
	case v := <-delivered:
		decoded, ok := v.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "o-1", decoded["id"])
	case <-time.After(5 * time.Second):
		t.Fatal("no delivery through the full stack within deadline")
	}
}
