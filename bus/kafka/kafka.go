// Package kafka provides the Kafka bus backend for the gateway. The bus URL
// carries the broker list (comma separated); the per-instance consumer group
// ensures every gateway instance observes every broadcast.
package kafka

import (
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	wmkafka "github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/chatwire/gateway/bus"
)

// BusName is the name used to register this backend.
const BusName = "kafka"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg wmkafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return wmkafka.NewPublisher(cfg, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg wmkafka.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return wmkafka.NewSubscriber(cfg, logger)
}

func init() {
	bus.Register(BusName, builder{})
}

type builder struct{}

func (builder) DialPublisher(cfg bus.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return PublisherFactory(
		wmkafka.PublisherConfig{
			Brokers:   brokers(cfg),
			Marshaler: wmkafka.DefaultMarshaler{},
		},
		logger,
	)
}

func (builder) DialSubscriber(cfg bus.Config, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return SubscriberFactory(
		wmkafka.SubscriberConfig{
			Brokers:       brokers(cfg),
			Unmarshaler:   wmkafka.DefaultMarshaler{},
			ConsumerGroup: cfg.GetConsumerGroup(),
		},
		logger,
	)
}

func brokers(cfg bus.Config) []string {
	parts := strings.Split(cfg.GetBusURL(), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
