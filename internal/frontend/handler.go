// Package frontend implements the HTTP front-end (C7): translates
// inbound HTTP requests into calls against the request router and maps
// its tagged RequestResult back into an HTTP response. Grounded on the
// teacher's proxy/server.go http.Server construction (explicit
// timeouts/MaxHeaderBytes from config) and reverse_proxy.go's
// errorHandler JSON-envelope style, adapted from httputil.ReverseProxy's
// streaming/panic-based error flow to explicit materialized-body
// request/response handling on top of C5's tagged results.
package frontend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/ferrylb/ferry/internal/types"
)

// Router is the subset of the request router the front-end depends on.
type Router interface {
	Handle(ctx context.Context, path, method string, headers http.Header, body []byte) types.RequestResult
}

// AdminHandler is the subset of the admin surface mounted under
// /admin/nodes.
type AdminHandler interface {
	ListNodes(w http.ResponseWriter, r *http.Request)
	AddNode(w http.ResponseWriter, r *http.Request)
	DeleteNode(w http.ResponseWriter, r *http.Request)
}

// MetricsSnapshotter renders a JSON metrics snapshot for GET /metrics.
type MetricsSnapshotter interface {
	Snapshot() any
}

// Handler serves both the proxying and admin surfaces.
type Handler struct {
	router      Router
	admin       AdminHandler
	metrics     MetricsSnapshotter
	promHandler http.Handler
}

// New builds the front-end Handler. metrics may be nil, in which case
// GET /metrics reports an empty snapshot.
func New(router Router, admin AdminHandler, metrics MetricsSnapshotter) *Handler {
	return &Handler{router: router, admin: admin, metrics: metrics}
}

// SetPrometheusHandler mounts h at GET /metrics/prom. Called by main when
// cfg.Metrics.Enabled, with promhttp.HandlerFor(reg, ...) as h; left unset,
// /metrics/prom is not registered.
func (h *Handler) SetPrometheusHandler(handler http.Handler) {
	h.promHandler = handler
}

// Mux builds the http.ServeMux ferry serves, wiring every route from the
// external interface.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/metrics", h.Metrics)
	if h.promHandler != nil {
		mux.Handle("/metrics/prom", h.promHandler)
	}
	mux.HandleFunc("/admin/nodes", h.adminNodesRoot)
	mux.HandleFunc("/admin/nodes/", h.admin.DeleteNode)
	mux.HandleFunc("/", h.Forward)
	return mux
}

func (h *Handler) adminNodesRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.admin.ListNodes(w, r)
	case http.MethodPost:
		h.admin.AddNode(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Health handles GET /health: ferry's own liveness, always 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Metrics handles GET /metrics.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.metrics == nil {
		json.NewEncoder(w).Encode(map[string]any{})
		return
	}
	json.NewEncoder(w).Encode(h.metrics.Snapshot())
}

// Forward handles POST /{path...}: forwards the request through the
// router and maps the RequestResult to an HTTP response per the
// Success→200 / RequestFailed→502 / NoAvailableNodes→503 /
// SelectionFailed→500 table.
func (h *Handler) Forward(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	result := h.router.Handle(r.Context(), r.URL.Path, r.Method, r.Header, body)

	switch result.Kind {
	case types.ResultSuccess:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(result.Body)
	case types.ResultRequestFailed:
		writeErrorResponse(w, http.StatusBadGateway, result.Error)
	case types.ResultNoAvailableNodes:
		writeErrorResponse(w, http.StatusServiceUnavailable, "No available nodes")
	case types.ResultSelectionFailed:
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to select node")
	default:
		writeErrorResponse(w, http.StatusInternalServerError, "unknown result")
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
