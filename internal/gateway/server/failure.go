package server

import (
	"errors"
	"net/http"

	"github.com/chatwire/gateway/internal/gateway/apierror"
	"github.com/chatwire/gateway/internal/gateway/jsoncodec"
	"github.com/chatwire/gateway/internal/gateway/logging"
)

// internalError is the only body an unclassified failure may produce.
// Internals never reach the client.
var internalError = apierror.Serialized{
	Message:    "internal server error",
	Status:     "error",
	StatusCode: http.StatusInternalServerError,
}

type notFoundBody struct {
	Message string `json:"message"`
}

// notFound answers every unmatched route with the requested path and nothing
// else.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, notFoundBody{Message: r.URL.RequestURI() + " not found"})
}

// failureHandler is the terminal stage for every route: it logs each raised
// failure, serializes taxonomy failures with their fixed status code, and
// collapses anything else (including panics) to the opaque internal error.
func (s *Server) failureHandler(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("panic in handler", nil, logging.LogFields{
					"panic":  rec,
					"path":   r.URL.Path,
					"method": r.Method,
				})
				writeJSON(w, http.StatusInternalServerError, internalError)
			}
		}()

		err := h(w, r)
		if err == nil {
			return
		}

		s.log.Error("request failed", err, logging.LogFields{
			"path":   r.URL.Path,
			"method": r.Method,
		})

		var apiErr *apierror.Error
		if errors.As(err, &apiErr) {
			writeJSON(w, apiErr.StatusCode(), apiErr.Serialize())
			return
		}
		writeJSON(w, http.StatusInternalServerError, internalError)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	jsoncodec.Encode(w, body)
}
