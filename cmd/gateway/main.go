package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"

	"github.com/chatwire/gateway/internal/gateway/apierror"
	"github.com/chatwire/gateway/internal/gateway/config"
	"github.com/chatwire/gateway/internal/gateway/jsoncodec"
	"github.com/chatwire/gateway/internal/gateway/logging"
	"github.com/chatwire/gateway/internal/gateway/middleware"
	"github.com/chatwire/gateway/internal/gateway/server"
)

func main() {
	logger := logging.NewSlogServiceLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", err, nil)
		os.Exit(1)
	}

	logger.Info("starting gateway", logging.LogFields{
		"pid":    os.Getpid(),
		"config": cfg,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger, bindRoutes)
	if err := srv.Start(ctx); err != nil {
		logger.Error("gateway stopped", err, nil)
		os.Exit(1)
	}
}

type emitRequest struct {
	Message string `json:"message"`
}

// bindRoutes registers the HTTP ingress for realtime events. The chat
// feature routes live in their own services and are mounted the same way.
func bindRoutes(s *server.Server) {
	s.HandleFunc(http.MethodPost, "/rooms/{room}/events", func(w http.ResponseWriter, r *http.Request) error {
		room := mux.Vars(r)["room"]

		var req emitRequest
		if err := middleware.DecodeJSON(r, &req); err != nil {
			return err
		}
		if req.Message == "" {
			return apierror.BadRequest("message is required")
		}

		s.Hub().Emit(room, []byte(req.Message))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return jsoncodec.Encode(w, map[string]string{"status": "queued"})
	})
}
