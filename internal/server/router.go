package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridpulse-systems/gridpulse-relay/internal/handlers"
	"github.com/gridpulse-systems/gridpulse-relay/internal/middleware"
)

// NewRouter constructs a ServeMux with relay routes registered. The
// whole mux sits behind the request-ID and CORS middleware, so every
// response (preflight included) carries the policy headers.
func NewRouter(h *handlers.ProxyHandler, cors middleware.CORSConfig) http.Handler {
	mux := http.NewServeMux()

	// Forwarding endpoint; the suffix names the downstream function for
	// log readability, routing is decided by the envelope's target_url.
	mux.HandleFunc("/proxy/", h.HandleProxy)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(middleware.CORS(cors)(mux))
}
