package channel

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwire/gateway/bus"
)

func TestRegistered(t *testing.T) {
	assert.True(t, bus.DefaultRegistry.Has(BusName))
}

func TestPairsOnSameURLShareTheBus(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := bus.Settings{System: BusName, URL: "mem://test"}
	a, err := bus.Connect(ctx, cfg, watermill.NopLogger{})
	require.NoError(t, err)
	b, err := bus.Connect(ctx, cfg, watermill.NopLogger{})
	require.NoError(t, err)

	received, err := b.Subscriber.Subscribe(ctx, "room.general")
	require.NoError(t, err)

	msg := message.NewMessage("1", []byte("hello"))
	require.NoError(t, a.Publisher.Publish("room.general", msg))

	select {
	case got := <-received:
		assert.Equal(t, []byte("hello"), []byte(got.Payload))
		got.Ack()
	case <-time.After(time.Second):
		t.Fatal("message published on pair A never reached pair B")
	}
}

func TestDistinctURLsAreIsolated(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := bus.Connect(ctx, bus.Settings{System: BusName, URL: "mem://a"}, watermill.NopLogger{})
	require.NoError(t, err)
	b, err := bus.Connect(ctx, bus.Settings{System: BusName, URL: "mem://b"}, watermill.NopLogger{})
	require.NoError(t, err)

	received, err := b.Subscriber.Subscribe(ctx, "room.general")
	require.NoError(t, err)

	require.NoError(t, a.Publisher.Publish("room.general", message.NewMessage("1", []byte("x"))))

	select {
	case <-received:
		t.Fatal("message crossed between distinct bus URLs")
	case <-time.After(100 * time.Millisecond):
	}
}
