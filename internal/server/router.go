package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hookpipe/hookpipe/internal/handlers"
	"github.com/hookpipe/hookpipe/internal/middleware"
)

// NewRouter constructs a ServeMux with the ingestion API routes registered.
func NewRouter(h *handlers.IngestHandler) http.Handler {
	mux := http.NewServeMux()

	// Webhook ingestion
	mux.HandleFunc("/server/incoming_data", h.HandleIncomingData)

	// Delivery records
	mux.HandleFunc("/logs", h.HandleListLogs)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
