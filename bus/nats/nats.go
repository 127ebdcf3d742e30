// Package nats provides the NATS Core bus backend for the gateway.
package nats

import (
	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/chatwire/gateway/bus"
)

// BusName is the name used to register this backend.
const BusName = "nats"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg wmnats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return wmnats.NewPublisher(cfg, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg wmnats.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return wmnats.NewSubscriber(cfg, logger)
}

func init() {
	bus.Register(BusName, builder{})
}

type builder struct{}

// Each dial opens its own NATS connection; the client reconnects on its own
// after broker outages.
func (builder) DialPublisher(cfg bus.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return PublisherFactory(
		wmnats.PublisherConfig{
			URL:         cfg.GetBusURL(),
			Marshaler:   &wmnats.NATSMarshaler{},
			NatsOptions: natsOptions("chatwire-gateway-pub"),
		},
		logger,
	)
}

func (builder) DialSubscriber(cfg bus.Config, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return SubscriberFactory(
		wmnats.SubscriberConfig{
			URL:         cfg.GetBusURL(),
			Unmarshaler: &wmnats.NATSMarshaler{},
			NatsOptions: natsOptions("chatwire-gateway-sub"),
		},
		logger,
	)
}

func natsOptions(name string) []nc.Option {
	return []nc.Option{
		nc.Name(name),
		nc.RetryOnFailedConnect(true),
		nc.MaxReconnects(-1),
	}
}
