// Package hub implements the realtime WebSocket hub: it tracks live client
// sessions per room and fans emitted events out to every session attached to
// that room. Cross-instance replication is not handled here; the hub only
// exposes the relay extension point the broadcast adapter binds to.
package hub

import (
	"context"

	"github.com/chatwire/gateway/internal/gateway/logging"
)

type emission struct {
	room    string
	payload []byte
	// remote marks events replayed from the bus; they are delivered to
	// local sessions but never relayed back out.
	remote bool
}

// Hub owns all live sessions. All session and room state is confined to the
// Run loop goroutine; other goroutines talk to it through channels only.
type Hub struct {
	log logging.ServiceLogger

	rooms      map[string]map[*session]bool
	register   chan *session
	unregister chan *session
	emissions  chan emission

	// done is closed when Run returns; senders select on it so nothing
	// blocks on a hub that has stopped draining.
	done chan struct{}

	relay func(room string, payload []byte)
}

// New creates a hub. Call Run before attaching sessions or emitting.
func New(log logging.ServiceLogger) *Hub {
	return &Hub{
		log:        log,
		rooms:      make(map[string]map[*session]bool),
		register:   make(chan *session),
		unregister: make(chan *session),
		emissions:  make(chan emission, 64),
		done:       make(chan struct{}),
	}
}

// SetRelay binds the cross-instance replication hook. Must be called before
// Run; the hub itself never changes it afterwards.
func (h *Hub) SetRelay(fn func(room string, payload []byte)) {
	h.relay = fn
}

// Emit delivers an event to every local session in the room and hands it to
// the relay for cross-instance replication. Events emitted after the hub has
// stopped are dropped.
func (h *Hub) Emit(room string, payload []byte) {
	select {
	case h.emissions <- emission{room: room, payload: payload}:
	case <-h.done:
	}
}

// DeliverLocal delivers an event observed on the bus to local sessions only.
// It never re-triggers the relay, so an event cannot loop between instances.
func (h *Hub) DeliverLocal(room string, payload []byte) {
	select {
	case h.emissions <- emission{room: room, payload: payload, remote: true}:
	case <-h.done:
	}
}

// Run owns all hub state until ctx is cancelled. Events for a given session
// are delivered in emission order because a single goroutine drains the
// emission channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case s := <-h.register:
			h.addSession(s)
		case s := <-h.unregister:
			h.removeSession(s)
		case e := <-h.emissions:
			h.dispatch(e)
		}
	}
}

func (h *Hub) dispatch(e emission) {
	for s := range h.rooms[e.room] {
		select {
		case s.send <- e.payload:
		default:
			// Slow consumer; drop the session rather than the room.
			h.removeSession(s)
		}
	}
	if !e.remote && h.relay != nil {
		h.relay(e.room, e.payload)
	}
}

func (h *Hub) addSession(s *session) {
	if _, ok := h.rooms[s.room]; !ok {
		h.rooms[s.room] = make(map[*session]bool)
	}
	h.rooms[s.room][s] = true
	h.log.Debug("session joined", logging.LogFields{"room": s.room})
}

func (h *Hub) removeSession(s *session) {
	if _, ok := h.rooms[s.room][s]; !ok {
		return
	}
	delete(h.rooms[s.room], s)
	if len(h.rooms[s.room]) == 0 {
		delete(h.rooms, s.room)
	}
	close(s.send)
	h.log.Debug("session left", logging.LogFields{"room": s.room})
}

func (h *Hub) closeAll() {
	for room, sessions := range h.rooms {
		for s := range sessions {
			close(s.send)
		}
		delete(h.rooms, room)
	}
}
