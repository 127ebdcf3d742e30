package hub

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/chatwire/gateway/internal/gateway/logging"
)

const sendBufferSize = 256

// session represents one client's live connection. Created on upgrade,
// destroyed on disconnect; it has no identity beyond the events it carries.
type session struct {
	ws   *websocket.Conn
	send chan []byte
	hub  *Hub
	room string
}

func (s *session) reader() {
	for {
		_, payload, err := s.ws.ReadMessage()
		if err != nil {
			break
		}
		s.hub.Emit(s.room, payload)
	}
	s.ws.Close()
}

func (s *session) writer() {
	for payload := range s.send {
		if err := s.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			break
		}
	}
	s.ws.Close()
}

// Handler upgrades HTTP requests to WebSocket sessions on the hub. The route
// must carry a {room} variable.
type Handler struct {
	hub           *Hub
	log           logging.ServiceLogger
	allowedOrigin string
	upgrader      websocket.Upgrader
}

// NewHandler builds the upgrade handler. Only the configured client origin
// may open sockets; requests without an Origin header (non-browser clients)
// are allowed.
func NewHandler(h *Hub, log logging.ServiceLogger, allowedOrigin string) *Handler {
	handler := &Handler{hub: h, log: log, allowedOrigin: allowedOrigin}
	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowedOrigin
		},
	}
	return handler
}

func (handler *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	if room == "" {
		http.Error(w, "room is required", http.StatusBadRequest)
		return
	}

	ws, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handler.log.Error("websocket upgrade failed", err, logging.LogFields{"room": room})
		return
	}

	s := &session{
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
		hub:  handler.hub,
		room: room,
	}
	select {
	case s.hub.register <- s:
	case <-handler.hub.done:
		ws.Close()
		return
	}
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
	}()
	go s.writer()
	s.reader()
}
