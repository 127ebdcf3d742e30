// Package server composes the gateway: middleware chain, route table,
// realtime hub, broadcast adapter, and the global failure handler, driven
// through a one-way lifecycle that ends in a listening socket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chatwire/gateway/bus"
	"github.com/chatwire/gateway/internal/gateway/broadcast"
	"github.com/chatwire/gateway/internal/gateway/config"
	"github.com/chatwire/gateway/internal/gateway/hub"
	"github.com/chatwire/gateway/internal/gateway/logging"
	"github.com/chatwire/gateway/internal/gateway/middleware"

	// Bus backends self-register with the registry.
	_ "github.com/chatwire/gateway/bus/channel"
	_ "github.com/chatwire/gateway/bus/kafka"
	_ "github.com/chatwire/gateway/bus/nats"
	_ "github.com/chatwire/gateway/bus/rabbitmq"
)

// ListenPort is fixed at build time; it is deliberately not an environment
// setting.
const ListenPort = 3001

// State tracks the lifecycle. Transitions are one-way and strictly ordered;
// Listening is terminal for the happy path.
type State int

const (
	StateCreated State = iota
	StateSecurityConfigured
	StateMiddlewareConfigured
	StateRoutesBound
	StateErrorHandlingBound
	StateListening
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSecurityConfigured:
		return "security_configured"
	case StateMiddlewareConfigured:
		return "middleware_configured"
	case StateRoutesBound:
		return "routes_bound"
	case StateErrorHandlingBound:
		return "error_handling_bound"
	case StateListening:
		return "listening"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// HandlerFunc is the route handler contract: raise a failure by returning
// it. Taxonomy failures propagate unmodified to the global failure handler;
// no intermediate layer rewrites them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// RouteBinder registers the domain-specific route table. It is an external
// collaborator; the gateway only provides the registration surface.
type RouteBinder func(s *Server)

// Server is the gateway process composition root.
type Server struct {
	cfg      *config.Config
	log      logging.ServiceLogger
	sessions *middleware.Sessions
	router   *mux.Router
	hub      *hub.Hub
	binder   RouteBinder

	// chain wraps the whole router, so unmatched routes and preflights
	// pass through it too; handler is the composed result.
	chain   []middleware.Middleware
	handler http.Handler

	state   State
	adapter *broadcast.Adapter
}

// New creates a server in the Created state. Call Start to bring it up.
func New(cfg *config.Config, log logging.ServiceLogger, binder RouteBinder) *Server {
	return &Server{
		cfg:    cfg,
		log:    log,
		router: mux.NewRouter(),
		hub:    hub.New(log),
		binder: binder,
		state:  StateCreated,
	}
}

// Hub exposes the realtime hub so domain handlers can emit events.
func (s *Server) Hub() *hub.Hub { return s.hub }

// State reports the current lifecycle state.
func (s *Server) State() State { return s.state }

// HandleFunc registers a route, wiring its failures into the global failure
// handler. Only valid between New and Start's route binding.
func (s *Server) HandleFunc(method, path string, h HandlerFunc) {
	s.router.Handle(path, s.failureHandler(h)).Methods(method)
}

// Start drives the lifecycle to Listening and serves until ctx is
// cancelled. Any failure before the listening socket is bound is logged and
// returned; the process never reaches Listening.
func (s *Server) Start(ctx context.Context) error {
	if err := s.prepare(ctx); err != nil {
		s.log.Error("gateway failed to start", err, logging.LogFields{"state": s.state.String()})
		return err
	}
	return s.serve(ctx)
}

// prepare walks the one-way transitions up to the point where only the
// listening socket is missing.
func (s *Server) prepare(ctx context.Context) error {
	if err := s.configureSecurity(); err != nil {
		return err
	}
	if err := s.configureStandard(); err != nil {
		return err
	}
	if err := s.bindRoutes(); err != nil {
		return err
	}
	if err := s.bindFailureHandling(); err != nil {
		return err
	}
	return s.attachBroadcast(ctx)
}

func (s *Server) advance(to State) error {
	if to != s.state+1 {
		return fmt.Errorf("gateway: invalid lifecycle transition %s -> %s", s.state, to)
	}
	s.state = to
	return nil
}

func (s *Server) configureSecurity() error {
	s.sessions = middleware.NewSessions(s.cfg)
	s.chain = append(s.chain, middleware.Security(s.cfg, s.sessions)...)
	return s.advance(StateSecurityConfigured)
}

func (s *Server) configureStandard() error {
	s.chain = append(s.chain, middleware.Standard()...)
	s.chain = append(s.chain, middleware.Metrics)
	return s.advance(StateMiddlewareConfigured)
}

func (s *Server) bindRoutes() error {
	s.router.Handle("/socket/{room}", hub.NewHandler(s.hub, s.log, s.cfg.ClientURL))
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.HandleFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("ok"))
		return err
	})
	if s.binder != nil {
		s.binder(s)
	}
	return s.advance(StateRoutesBound)
}

func (s *Server) bindFailureHandling() error {
	s.router.NotFoundHandler = http.HandlerFunc(s.notFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.notFound)

	s.handler = http.Handler(s.router)
	for i := len(s.chain) - 1; i >= 0; i-- {
		s.handler = s.chain[i](s.handler)
	}
	return s.advance(StateErrorHandlingBound)
}

// attachBroadcast dials the bus connection pair and binds it to the hub.
// Both connections must be up before the gateway may accept realtime
// traffic; a partial pair aborts startup.
func (s *Server) attachBroadcast(ctx context.Context) error {
	adapter, err := broadcast.Attach(ctx, bus.Settings{
		System: s.cfg.BusSystem,
		URL:    s.cfg.BusURL,
	}, s.hub, s.log)
	if err != nil {
		return err
	}
	s.adapter = adapter
	go s.hub.Run(ctx)
	return nil
}

func (s *Server) serve(ctx context.Context) error {
	if err := s.advance(StateListening); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", ListenPort),
		Handler: s.handler,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
		if s.adapter != nil {
			s.adapter.Close()
		}
	}()

	s.log.Info("gateway listening", logging.LogFields{
		"port":       ListenPort,
		"bus_system": s.cfg.BusSystem,
		"instance":   s.adapter.InstanceID(),
	})

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
