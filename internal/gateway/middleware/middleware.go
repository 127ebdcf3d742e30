// Package middleware implements the gateway's fixed request pipeline:
// session handling, parameter-pollution hardening, security headers,
// cross-origin policy, compression, and body-size limits. The ordering is
// load-bearing and encoded once in Chain.
package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/cors"

	"github.com/chatwire/gateway/internal/gateway/apierror"
	"github.com/chatwire/gateway/internal/gateway/config"
	"github.com/chatwire/gateway/internal/gateway/jsoncodec"
)

// MaxBodyBytes caps JSON and urlencoded payloads. Anything larger surfaces
// as a PayloadTooLarge failure before route logic runs.
const MaxBodyBytes = 50 << 20 // 50 MB

// Middleware is one stage of the request pipeline.
type Middleware func(http.Handler) http.Handler

// Security returns the hardening stages in their fixed order: session
// handling first (everything downstream may read identity), then parameter
// pollution, protective headers, and the origin policy.
func Security(cfg *config.Config, sessions *Sessions) []Middleware {
	return []Middleware{
		sessions.Middleware,
		ParameterPollution,
		SecureHeaders,
		CrossOrigin(cfg.ClientURL),
	}
}

// Standard returns the payload stages. They run after Security so oversized
// or malicious payloads are rejected before any expensive parsing.
func Standard() []Middleware {
	return []Middleware{
		Compression,
		BodyLimit,
	}
}

// Chain composes the full pipeline in its fixed order. The ordering is
// load-bearing; see Security and Standard.
func Chain(cfg *config.Config, sessions *Sessions) Middleware {
	stages := append(Security(cfg, sessions), Standard()...)
	return func(next http.Handler) http.Handler {
		h := next
		for i := len(stages) - 1; i >= 0; i-- {
			h = stages[i](h)
		}
		return h
	}
}

// ParameterPollution collapses duplicate query keys to their last value, so
// handlers never observe conflicting values for one parameter.
func ParameterPollution(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		polluted := false
		for key, values := range query {
			if len(values) > 1 {
				query[key] = values[len(values)-1:]
				polluted = true
			}
		}
		if polluted {
			r.URL.RawQuery = query.Encode()
		}
		next.ServeHTTP(w, r)
	})
}

// SecureHeaders applies the standard protective response header set.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("X-Download-Options", "noopen")
		h.Set("X-Permitted-Cross-Domain-Policies", "none")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// CrossOrigin allows only the configured client origin, with credentials,
// the explicit method allow-list, and a 200 for successful preflights.
func CrossOrigin(clientURL string) Middleware {
	policy := cors.New(cors.Options{
		AllowedOrigins:       []string{clientURL},
		AllowCredentials:     true,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:       []string{"*"},
		OptionsSuccessStatus: http.StatusOK,
	})
	return policy.Handler
}

// Compression gzips responses for clients that accept it.
func Compression(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// BodyLimit caps the request body at MaxBodyBytes. A request declaring an
// oversized body is answered with the PayloadTooLarge failure here, before
// any route logic runs; requests with an unknown length (chunked) still get
// the cap enforced by MaxBytesReader, which the decode helpers map to the
// same failure.
func BodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > MaxBodyBytes {
			failure := apierror.PayloadTooLarge(oversizedBodyMessage)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(failure.StatusCode())
			jsoncodec.Encode(w, failure.Serialize())
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "chatwire",
		Subsystem: "gateway",
		Name:      "http_requests_total",
		Help:      "HTTP requests handled, by method.",
	},
	[]string{"method"},
)

// Metrics counts handled requests for the Prometheus endpoint.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestsTotal.WithLabelValues(r.Method).Inc()
		next.ServeHTTP(w, r)
	})
}
