package rabbitmq

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	wmamqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwire/gateway/bus"
)

func TestRegistered(t *testing.T) {
	assert.True(t, bus.DefaultRegistry.Has(BusName))
}

func TestDialPublisherUsesDurablePubSubTopology(t *testing.T) {
	original := PublisherFactory
	defer func() { PublisherFactory = original }()

	var captured wmamqp.Config
	PublisherFactory = func(cfg wmamqp.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
		captured = cfg
		return nil, nil
	}

	_, err := builder{}.DialPublisher(
		bus.Settings{URL: "amqp://localhost:5672", ConsumerGroup: "gateway-01ABC"},
		watermill.NopLogger{},
	)

	require.NoError(t, err)
	assert.Equal(t, "amqp://localhost:5672", captured.Connection.AmqpURI)
}

func TestDialSubscriberQueuePerInstance(t *testing.T) {
	original := SubscriberFactory
	defer func() { SubscriberFactory = original }()

	var captured wmamqp.Config
	SubscriberFactory = func(cfg wmamqp.Config, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		captured = cfg
		return nil, nil
	}

	_, err := builder{}.DialSubscriber(
		bus.Settings{URL: "amqp://localhost:5672", ConsumerGroup: "gateway-01ABC"},
		watermill.NopLogger{},
	)

	require.NoError(t, err)
	queueName := captured.Queue.GenerateName("room.general")
	assert.Contains(t, queueName, "gateway-01ABC")
}
