// Package broadcast binds the realtime hub to the shared message bus so N
// gateway instances behave as one logical hub. Every locally emitted event is
// published to the bus; every bus message originated by another instance is
// replayed to the local sockets for its room.
package broadcast

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/chatwire/gateway/bus"
	"github.com/chatwire/gateway/internal/gateway/ids"
	"github.com/chatwire/gateway/internal/gateway/logging"
)

// Topic is the single bus topic carrying all room broadcasts. The room is a
// metadata key rather than a topic suffix because bus subscriptions are
// per-topic and rooms come and go with traffic.
const Topic = "chatwire.broadcast"

const (
	metaOrigin = "origin"
	metaRoom   = "room"
)

// LocalHub is the slice of the realtime hub the adapter needs: the relay
// extension point and local-only delivery.
type LocalHub interface {
	SetRelay(fn func(room string, payload []byte))
	DeliverLocal(room string, payload []byte)
}

// Adapter owns the bus connection pair for one gateway instance. The
// publisher side is write-only and the subscriber side read-only; no other
// component holds references to either.
type Adapter struct {
	instanceID string
	pair       bus.Pair
	hub        LocalHub
	log        logging.ServiceLogger
}

// Attach dials the bus connection pair (publisher and subscriber
// concurrently, both-or-fail), binds the hub's relay to the publisher side,
// and starts replaying foreign messages from the subscriber side. A partial
// connection is an error, never a degraded mode.
func Attach(ctx context.Context, settings bus.Settings, h LocalHub, log logging.ServiceLogger) (*Adapter, error) {
	instanceID := ids.NewInstanceID()
	if settings.ConsumerGroup == "" {
		settings.ConsumerGroup = "gateway-" + instanceID
	}

	pair, err := bus.Connect(ctx, settings, logging.NewWatermillAdapter(log))
	if err != nil {
		return nil, fmt.Errorf("connect bus pair: %w", err)
	}

	messages, err := pair.Subscriber.Subscribe(ctx, Topic)
	if err != nil {
		pair.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", Topic, err)
	}

	a := &Adapter{
		instanceID: instanceID,
		pair:       pair,
		hub:        h,
		log:        log.With(logging.LogFields{"instance": instanceID}),
	}

	h.SetRelay(a.publish)
	go a.consume(messages)

	a.log.Info("broadcast adapter attached", logging.LogFields{
		"bus_system": settings.System,
		"topic":      Topic,
	})
	return a, nil
}

// InstanceID returns the identity stamped on this instance's broadcasts.
func (a *Adapter) InstanceID() string { return a.instanceID }

// Close releases both bus connections.
func (a *Adapter) Close() error { return a.pair.Close() }

// publish runs for every local hub emission. A publish failure degrades
// cross-instance delivery only: it is logged and dropped, local sockets have
// already been served by the hub.
func (a *Adapter) publish(room string, payload []byte) {
	msg := message.NewMessage(ids.NewULID(), payload)
	msg.Metadata.Set(metaOrigin, a.instanceID)
	msg.Metadata.Set(metaRoom, room)

	if err := a.pair.Publisher.Publish(Topic, msg); err != nil {
		a.log.Error("bus publish failed, event delivered locally only", err, logging.LogFields{
			"room": room,
		})
	}
}

// consume replays foreign bus messages to local sockets. Messages stamped
// with this instance's own origin are dropped so the originator never
// double-delivers.
func (a *Adapter) consume(messages <-chan *message.Message) {
	for msg := range messages {
		origin := msg.Metadata.Get(metaOrigin)
		room := msg.Metadata.Get(metaRoom)
		msg.Ack()

		if origin == a.instanceID || room == "" {
			continue
		}
		a.hub.DeliverLocal(room, msg.Payload)
	}
	a.log.Info("bus subscription closed", nil)
}
