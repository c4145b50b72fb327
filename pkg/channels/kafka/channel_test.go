package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaTc "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/tirs/Automotive-database-demo/pkg/eventbus"
	"github.com/tirs/Automotive-database-demo/pkg/events"
	"github.com/tirs/Automotive-database-demo/pkg/models"
)

func TestBrokersFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{name: "unset", value: "", want: nil},
		{name: "single", value: "localhost:9092", want: []string{"localhost:9092"}},
		{name: "list with blanks", value: "a:9092, b:9092 ,,", want: []string{"a:9092", "b:9092"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KAFKA_BROKERS", tt.value)

			assert.Equal(t, tt.want, BrokersFromEnv())
		})
	}
}

func TestCreateChannel_RequiresBrokers(t *testing.T) {
	_, _, err := CreateChannel(watermill.NopLogger{}, "automotive-api", nil)

	assert.ErrorIs(t, err, ErrNoBrokers)
}

func kafkaBrokers(t *testing.T) []string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Kafka container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	container, err := kafkaTc.Run(ctx, "confluentinc/confluent-local:7.7.0", testcontainers.WithEnv(map[string]string{
		"KAFKA_CREATE_TOPICS": "true",
	}))
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, testcontainers.TerminateContainer(container))
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	createTopic(t, brokers, events.Topic)

	return brokers
}

func createTopic(t *testing.T, brokers []string, topic string) {
	t.Helper()

	admin, err := sarama.NewClusterAdmin(brokers, sarama.NewConfig())
	require.NoError(t, err)

	defer func() {
		assert.NoError(t, admin.Close())
	}()

	err = admin.CreateTopic(topic, &sarama.TopicDetail{NumPartitions: 1, ReplicationFactor: 1}, false)

	var topicErr *sarama.TopicError
	if errors.As(err, &topicErr) && errors.Is(topicErr.Err, sarama.ErrTopicAlreadyExists) {
		return
	}

	require.NoError(t, err)
}

func TestCreateChannel_DeliversThroughEventBus(t *testing.T) {
	brokers := kafkaBrokers(t)

	pub, sub, err := CreateChannel(watermill.NopLogger{}, "automotive-test-"+uuid.NewString()[:8], brokers)
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	t.Cleanup(func() {
		assert.NoError(t, bus.Close())
	})

	received := make(chan *events.MessageDispatchRequested, 1)

	require.NoError(t, bus.Handle(events.MessageDispatchRequestedEvent, func(_ context.Context, event any) error {
		dispatch, ok := event.(*events.MessageDispatchRequested)
		if !ok {
			return errors.New("unexpected event type")
		}

		received <- dispatch

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	err = bus.Publish(ctx, "inst-5678abcd", events.MessageDispatchRequested{
		BaseEvent: events.NewBaseEvent(events.MessageDispatchRequestedEvent, "inst-5678abcd", "wf-003"),
		MessageID: "msg-kafka-1",
		Channel:   models.MessageChannelSMS,
		Template:  "service_reminder",
		Address:   "+15550100",
	})
	require.NoError(t, err)

	select {
	case dispatch := <-received:
		assert.Equal(t, "msg-kafka-1", dispatch.MessageID)
		assert.Equal(t, models.MessageChannelSMS, dispatch.Channel)
		assert.Equal(t, "inst-5678abcd", dispatch.InstanceID)
		assert.Equal(t, "wf-003", dispatch.TemplateID)
	case <-time.After(60 * time.Second):
		t.Fatal("event was not delivered over Kafka")
	}
}
