// Package bus defines the connection pair and registry for the shared
// message bus that replicates realtime events across gateway instances.
// Each backend (nats, kafka, rabbitmq, channel) lives in its own sub-package
// and registers itself with the registry.
package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/errgroup"
)

// Pair holds the two long-lived bus connections. The publisher side is
// write-only, the subscriber side read-only; they are never the same
// connection so the two directions cannot block each other.
type Pair struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Close releases both connections.
func (p Pair) Close() error {
	var errs []error
	if p.Publisher != nil {
		errs = append(errs, p.Publisher.Close())
	}
	if p.Subscriber != nil {
		errs = append(errs, p.Subscriber.Close())
	}
	return errors.Join(errs...)
}

// Config provides the settings a backend needs to dial the bus.
type Config interface {
	// GetBusSystem returns the backend name ("nats", "kafka", ...).
	GetBusSystem() string
	// GetBusURL returns the broker address. Kafka backends split it on
	// commas.
	GetBusURL() string
	// GetConsumerGroup returns the per-instance group identity for
	// backends that route deliveries by group. Every instance must use a
	// distinct group so each one observes every message.
	GetConsumerGroup() string
}

// Settings is the plain-struct Config used by the gateway.
type Settings struct {
	System        string
	URL           string
	ConsumerGroup string
}

func (s Settings) GetBusSystem() string     { return s.System }
func (s Settings) GetBusURL() string        { return s.URL }
func (s Settings) GetConsumerGroup() string { return s.ConsumerGroup }

// Builder dials the two sides of a bus connection pair. Implementations must
// return independent connections; sharing one connection between the two
// roles is not allowed.
type Builder interface {
	DialPublisher(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, error)
	DialSubscriber(cfg Config, logger watermill.LoggerAdapter) (message.Subscriber, error)
}

// Registry maintains a mapping of backend names to their builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// DefaultRegistry is the global bus registry.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new bus registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds a backend builder to the registry. The name should match the
// BusSystem config value.
func (r *Registry) Register(name string, builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = builder
}

// Names returns the list of registered backend names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}

// Has returns true if a backend is registered with the given name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builders[name]
	return ok
}

// Connect dials the publisher and subscriber connections concurrently and
// returns the pair only once both are up. A failure on either side closes
// the other and reports an error: a half-connected pair never escapes.
func (r *Registry) Connect(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Pair, error) {
	if cfg == nil {
		return Pair{}, errors.New("gateway: bus config is required")
	}

	name := cfg.GetBusSystem()

	r.mu.RLock()
	builder, ok := r.builders[name]
	r.mu.RUnlock()

	if !ok {
		return Pair{}, fmt.Errorf("gateway: unknown bus system %q (registered: %v)", name, r.Names())
	}

	var (
		publisher  message.Publisher
		subscriber message.Subscriber
	)

	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		pub, err := builder.DialPublisher(cfg, logger)
		if err != nil {
			return fmt.Errorf("dial bus publisher: %w", err)
		}
		publisher = pub
		return nil
	})
	group.Go(func() error {
		sub, err := builder.DialSubscriber(cfg, logger)
		if err != nil {
			return fmt.Errorf("dial bus subscriber: %w", err)
		}
		subscriber = sub
		return nil
	})

	if err := group.Wait(); err != nil {
		// Tear down whichever side made it up.
		Pair{Publisher: publisher, Subscriber: subscriber}.Close()
		return Pair{}, err
	}

	return Pair{Publisher: publisher, Subscriber: subscriber}, nil
}

// Register adds a backend builder to the default registry.
func Register(name string, builder Builder) {
	DefaultRegistry.Register(name, builder)
}

// Connect dials a connection pair using the default registry.
func Connect(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Pair, error) {
	return DefaultRegistry.Connect(ctx, cfg, logger)
}
