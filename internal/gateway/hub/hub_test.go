package hub

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/chatwire/gateway/internal/gateway/logging"
)

type relayCall struct {
	room    string
	payload string
}

func newTestHub(t *testing.T) (*Hub, chan relayCall, *httptest.Server) {
	t.Helper()

	log := logging.NewSlogServiceLogger(slog.New(slog.DiscardHandler))
	h := New(log)

	relayed := make(chan relayCall, 16)
	h.SetRelay(func(room string, payload []byte) {
		relayed <- relayCall{room: room, payload: string(payload)}
	})

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	router := mux.NewRouter()
	router.Handle("/socket/{room}", NewHandler(h, log, "http://client.example"))
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return h, relayed, srv
}

func dial(t *testing.T, srv *httptest.Server, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/socket/" + room
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readWithDeadline(t *testing.T, ws *websocket.Conn) string {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(payload)
}

func TestEmitReachesRoomMembers(t *testing.T) {
	_, _, srv := newTestHub(t)

	a := dial(t, srv, "general")
	b := dial(t, srv, "general")
	time.Sleep(50 * time.Millisecond) // let registrations land

	if err := a.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got := readWithDeadline(t, b); got != "hello" {
		t.Fatalf("b received %q, want %q", got, "hello")
	}
}

func TestEmitDoesNotCrossRooms(t *testing.T) {
	_, _, srv := newTestHub(t)

	a := dial(t, srv, "general")
	c := dial(t, srv, "random")
	time.Sleep(50 * time.Millisecond)

	if err := a.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	c.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := c.ReadMessage(); err == nil {
		t.Fatal("message leaked into another room")
	}
}

func TestLocalEmissionTriggersRelay(t *testing.T) {
	h, relayed, _ := newTestHub(t)

	h.Emit("general", []byte("ping"))

	select {
	case call := <-relayed:
		if call.room != "general" || call.payload != "ping" {
			t.Fatalf("relay got %+v", call)
		}
	case <-time.After(time.Second):
		t.Fatal("relay was never invoked for a local emission")
	}
}

func TestDeliverLocalSkipsRelay(t *testing.T) {
	h, relayed, srv := newTestHub(t)

	ws := dial(t, srv, "general")
	time.Sleep(50 * time.Millisecond)

	h.DeliverLocal("general", []byte("from-another-instance"))

	if got := readWithDeadline(t, ws); got != "from-another-instance" {
		t.Fatalf("session received %q", got)
	}

	select {
	case call := <-relayed:
		t.Fatalf("remote delivery must not re-relay, got %+v", call)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestShutdownReleasesConnectedSessions(t *testing.T) {
	log := logging.NewSlogServiceLogger(slog.New(slog.DiscardHandler))
	h := New(log)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	served := make(chan struct{})
	socket := NewHandler(h, log, "http://client.example")
	router := mux.NewRouter()
	router.Handle("/socket/{room}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket.ServeHTTP(w, r)
		close(served)
	}))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	ws := dial(t, srv, "general")
	time.Sleep(50 * time.Millisecond) // let the registration land

	cancel()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Fatal("expected the socket to close on shutdown")
	}

	// The session goroutine must finish unregistering even though the hub
	// loop already exited.
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("session goroutine still blocked after shutdown")
	}
}

func TestDisallowedOriginRejected(t *testing.T) {
	_, _, srv := newTestHub(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/socket/general"
	header := map[string][]string{"Origin": {"http://evil.example"}}
	_, _, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected handshake failure for disallowed origin")
	}
}
