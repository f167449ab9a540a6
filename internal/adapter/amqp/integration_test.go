//go:build integration

package amqp_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	catalogamqp "moviecatalog/internal/adapter/amqp"
	"moviecatalog/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

func setupRabbitMQ(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	amqpURL, err := container.AmqpURL(ctx)
	require.NoError(t, err)
	return amqpURL
}

func TestIntegration_PublishReachesBoundQueue(t *testing.T) {
	amqpURL := setupRabbitMQ(t)

	pub, err := catalogamqp.Dial(amqpURL, slog.Default())
	require.NoError(t, err)
	defer pub.Close()

	conn, err := amqp.Dial(amqpURL)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "", catalogamqp.ExchangeName, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	ev := domain.MovieEvent{Type: domain.MovieCreated, MovieID: "m1", At: time.Now().UTC()}
	require.NoError(t, pub.Publish(context.Background(), ev))

	select {
	case d := <-deliveries:
		var got domain.MovieEvent
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, domain.MovieCreated, got.Type)
		assert.Equal(t, "m1", got.MovieID)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestIntegration_PublishAfterClose(t *testing.T) {
	amqpURL := setupRabbitMQ(t)

	pub, err := catalogamqp.Dial(amqpURL, slog.Default())
	require.NoError(t, err)
	require.NoError(t, pub.Close())

	err = pub.Publish(context.Background(), domain.MovieEvent{Type: domain.MovieDeleted, MovieID: "m1"})
	assert.Error(t, err)
}
