package kafka

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	wmkafka "github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwire/gateway/bus"
)

func TestRegistered(t *testing.T) {
	assert.True(t, bus.DefaultRegistry.Has(BusName))
}

func TestDialPublisherSplitsBrokerList(t *testing.T) {
	original := PublisherFactory
	defer func() { PublisherFactory = original }()

	var captured wmkafka.PublisherConfig
	PublisherFactory = func(cfg wmkafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		captured = cfg
		return nil, nil
	}

	_, err := builder{}.DialPublisher(
		bus.Settings{URL: "broker-1:9092, broker-2:9092"},
		watermill.NopLogger{},
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, captured.Brokers)
}

func TestDialSubscriberUsesConsumerGroup(t *testing.T) {
	original := SubscriberFactory
	defer func() { SubscriberFactory = original }()

	var captured wmkafka.SubscriberConfig
	SubscriberFactory = func(cfg wmkafka.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		captured = cfg
		return nil, nil
	}

	_, err := builder{}.DialSubscriber(
		bus.Settings{URL: "broker-1:9092", ConsumerGroup: "gateway-01ABC"},
		watermill.NopLogger{},
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"broker-1:9092"}, captured.Brokers)
	assert.Equal(t, "gateway-01ABC", captured.ConsumerGroup)
}
