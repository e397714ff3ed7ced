// Package registry implements the concurrent node registry (C1): an
// id-keyed map of backend nodes with atomic per-node replacement, snapshot
// reads, and single-writer updates.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/ferrylb/ferry/internal/types"
)

// Registry is a concurrent mapping from NodeId to Node. Reads proceed
// without blocking each other; writes (Save/Delete/UpdateHealthStatus)
// serialize against themselves and against readers just long enough to
// swap the map entry, never leaving a partially updated Node visible.
type Registry struct {
	mu    sync.RWMutex
	nodes map[types.NodeId]types.Node
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		nodes: make(map[types.NodeId]types.Node),
	}
}

// Save upserts a node by id. Re-saving an existing id replaces the record
// atomically.
func (r *Registry) Save(node types.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[node.ID] = node
}

// FindById returns the current snapshot of a node, if present.
func (r *Registry) FindById(id types.NodeId) (types.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[id]
	return n, ok
}

// FindAll returns an immutable snapshot of every registered node, sorted by
// NodeId. Selection strategies (e.g. round robin) depend on this ordering
// being stable across calls, which Go's randomized map iteration is not.
func (r *Registry) FindAll() []types.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindAvailable returns FindAll filtered to usable nodes, observed
// atomically enough that no node is duplicated or lost relative to a
// single snapshot. Order is sorted by NodeId for the same reason as
// FindAll.
func (r *Registry) FindAvailable() []types.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		if n.Status.IsUsable() {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Delete removes a node by id, reporting whether it was present.
func (r *Registry) Delete(id types.NodeId) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[id]; !ok {
		return false
	}
	delete(r.nodes, id)
	return true
}

// Exists reports whether a node with the given id is registered.
func (r *Registry) Exists(id types.NodeId) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.nodes[id]
	return ok
}

// UpdateHealthStatus sets a node's health status and returns the change
// event iff the status actually transitioned. Reports false as the second
// return when the node is not registered (e.g. deleted mid-probe-batch).
func (r *Registry) UpdateHealthStatus(id types.NodeId, status types.HealthStatus, reason string) (types.NodeHealthChangedEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok {
		return types.NodeHealthChangedEvent{}, false
	}

	previous := node.Status
	if previous == status {
		return types.NodeHealthChangedEvent{}, false
	}

	node.Status = status
	r.nodes[id] = node

	return types.NodeHealthChangedEvent{
		NodeID:     id,
		Previous:   previous,
		New:        status,
		Reason:     reason,
		OccurredAt: time.Now(),
	}, true
}

// Count returns the number of registered nodes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}
