package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		RequestID(h.logger),
		Recovery(),
		Logging(),
		Metrics(),
	)

	// Workflows
	mux.Handle("POST /api/v1/workflows", chain(http.HandlerFunc(h.SubmitWorkflow)))
	mux.Handle("POST /api/v1/workflows/{id}/trigger", chain(http.HandlerFunc(h.TriggerWorkflow)))
	mux.Handle("GET /api/v1/workflows/{id}", chain(http.HandlerFunc(h.GetWorkflowStatus)))
	mux.Handle("GET /api/v1/workflows/{id}/results", chain(http.HandlerFunc(h.GetWorkflowResults)))

	// Service
	mux.HandleFunc("GET /healthz", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
}
