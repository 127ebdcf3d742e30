// Package channel provides an in-memory bus backend for the gateway.
// Connection pairs dialled against the same bus URL share one underlying
// pub/sub, so several gateway instances inside one test process behave as if
// they were attached to a real broker.
package channel

import (
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/chatwire/gateway/bus"
)

// BusName is the name used to register this backend.
const BusName = "channel"

// Factory allows overriding the pub/sub creation for testing.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(cfg, logger)
}

var (
	sharedMu sync.Mutex
	shared   = make(map[string]*gochannel.GoChannel)
)

func init() {
	bus.Register(BusName, builder{})
}

type builder struct{}

// The in-memory backend is the one sanctioned exception to the independent
// connection rule: messages only flow inside a single gochannel instance, so
// both roles resolve to the shared pub/sub for the configured URL.
func (builder) DialPublisher(cfg bus.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return pubsubFor(cfg, logger), nil
}

func (builder) DialSubscriber(cfg bus.Config, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return pubsubFor(cfg, logger), nil
}

func pubsubFor(cfg bus.Config, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	key := cfg.GetBusURL()
	if ps, ok := shared[key]; ok {
		return ps
	}
	ps := Factory(gochannel.Config{OutputChannelBuffer: 64}, logger)
	shared[key] = ps
	return ps
}

// Reset drops every shared pub/sub. Tests call it to isolate bus state.
func Reset() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	shared = make(map[string]*gochannel.GoChannel)
}
