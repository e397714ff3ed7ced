// Package admin implements the admin surface (C6): plain net/http
// handlers to list, add, and remove nodes, and to snapshot node health.
// Grounded on the teacher's UpstreamHandler (internal/controller/api/
// upstreams.go) for the JSON-envelope/writeErrorResponse handler shape,
// adapted from gin routing to bare net/http and from the teacher's etcd
// store to the in-process node registry.
package admin

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ferrylb/ferry/internal/types"
)

// Registry is the subset of the node registry the admin surface depends
// on.
type Registry interface {
	Save(node types.Node)
	FindAll() []types.Node
	FindById(id types.NodeId) (types.Node, bool)
	Delete(id types.NodeId) bool
}

// Handler serves the admin endpoints.
type Handler struct {
	registry Registry
}

// New builds an admin Handler.
func New(registry Registry) *Handler {
	return &Handler{registry: registry}
}

// endpointView is the wire shape of an Endpoint in admin responses.
type endpointView struct {
	Scheme string `json:"scheme"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

// nodeView is the wire shape of a node in admin responses, matching the
// external interface's `{id, endpoint, health}` shape.
type nodeView struct {
	ID       string       `json:"id"`
	Endpoint endpointView `json:"endpoint"`
	Health   string       `json:"health"`
}

func toView(n types.Node) nodeView {
	return nodeView{
		ID: string(n.ID),
		Endpoint: endpointView{
			Scheme: string(n.Endpoint.Scheme),
			Host:   n.Endpoint.Host,
			Port:   n.Endpoint.Port,
		},
		Health: n.Status.String(),
	}
}

// ListNodes handles GET /admin/nodes.
func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	nodes := h.registry.FindAll()
	views := make([]nodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, toView(n))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

// addNodeRequest is the wire shape of POST /admin/nodes.
type addNodeRequest struct {
	ID     string `json:"id"`
	Scheme string `json:"scheme"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

// AddNode handles POST /admin/nodes.
func (h *Handler) AddNode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req addNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	if req.ID == "" || req.Host == "" || req.Port <= 0 {
		writeErrorResponse(w, http.StatusBadRequest, "id, host, and a positive port are required", nil)
		return
	}

	scheme := types.Scheme(req.Scheme)
	if scheme != types.SchemeHTTPS {
		scheme = types.SchemeHTTP
	}

	node := types.Node{
		ID:       types.NodeId(req.ID),
		Endpoint: types.Endpoint{Scheme: scheme, Host: req.Host, Port: req.Port},
		Status:   types.HealthHealthy,
	}
	h.registry.Save(node)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toView(node))
}

// DeleteNode handles DELETE /admin/nodes/{id}.
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := extractNodeID(r.URL.Path)
	if id == "" {
		writeErrorResponse(w, http.StatusBadRequest, "node id is required", nil)
		return
	}

	if !h.registry.Delete(types.NodeId(id)) {
		writeErrorResponse(w, http.StatusNotFound, "node not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": id})
}

// perNodeView is one entry of a metrics Snapshot's perNode list.
type perNodeView struct {
	ID        string       `json:"id"`
	Endpoint  endpointView `json:"endpoint"`
	Health    string       `json:"health"`
	Available bool         `json:"available"`
}

// metricsSnapshot is the wire shape of GET /metrics, matching spec.md
// §4.6: `{total, available, unavailable, perNode}`.
type metricsSnapshot struct {
	Total       int           `json:"total"`
	Available   int           `json:"available"`
	Unavailable int           `json:"unavailable"`
	PerNode     []perNodeView `json:"perNode"`
}

// Snapshot computes the current metrics snapshot over the registry.
func (h *Handler) Snapshot() any {
	nodes := h.registry.FindAll()
	snap := metricsSnapshot{
		Total:   len(nodes),
		PerNode: make([]perNodeView, 0, len(nodes)),
	}
	for _, n := range nodes {
		available := n.Status.IsUsable()
		if available {
			snap.Available++
		} else {
			snap.Unavailable++
		}
		snap.PerNode = append(snap.PerNode, perNodeView{
			ID: string(n.ID),
			Endpoint: endpointView{
				Scheme: string(n.Endpoint.Scheme),
				Host:   n.Endpoint.Host,
				Port:   n.Endpoint.Port,
			},
			Health:    n.Status.String(),
			Available: available,
		})
	}
	return snap
}

func extractNodeID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 3 && parts[len(parts)-2] == "nodes" {
		return parts[len(parts)-1]
	}
	return ""
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":  message,
		"status": statusCode,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	json.NewEncoder(w).Encode(response)
}
