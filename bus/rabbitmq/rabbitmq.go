// Package rabbitmq provides the RabbitMQ/AMQP bus backend for the gateway.
// It uses the durable pub/sub topology with a per-instance queue suffix so
// every instance receives every broadcast.
package rabbitmq

import (
	"github.com/ThreeDotsLabs/watermill"
	wmamqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/chatwire/gateway/bus"
)

// BusName is the name used to register this backend.
const BusName = "rabbitmq"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg wmamqp.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return wmamqp.NewPublisher(cfg, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg wmamqp.Config, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return wmamqp.NewSubscriber(cfg, logger)
}

func init() {
	bus.Register(BusName, builder{})
}

type builder struct{}

// Publisher and subscriber each open their own AMQP connection, keeping the
// two directions independent.
func (builder) DialPublisher(cfg bus.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return PublisherFactory(amqpConfig(cfg), logger)
}

func (builder) DialSubscriber(cfg bus.Config, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return SubscriberFactory(amqpConfig(cfg), logger)
}

func amqpConfig(cfg bus.Config) wmamqp.Config {
	return wmamqp.NewDurablePubSubConfig(
		cfg.GetBusURL(),
		wmamqp.GenerateQueueNameTopicNameWithSuffix(cfg.GetConsumerGroup()),
	)
}
