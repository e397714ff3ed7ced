// Package loadbalancer implements the selection strategy (C2): given an
// ordered snapshot of candidate nodes, pick the next one to try.
package loadbalancer

import (
	"sync/atomic"

	"github.com/ferrylb/ferry/internal/types"
)

// Strategy picks the next node to try from an ordered candidate list.
// Implementations must not re-sort candidates; the caller-provided order
// combined with the strategy's own internal counter is what produces a
// fair long-run distribution.
type Strategy interface {
	// Select returns the next candidate, or false if candidates is empty.
	Select(candidates []types.Node) (types.Node, bool)
	// Name identifies the strategy, e.g. "round-robin".
	Name() string
	// Reset clears any internal counters. Test-only.
	Reset()
}

// RoundRobin selects candidates in rotation using a single process-wide
// monotonic counter, independent of registry contents. Wrap-around uses
// unsigned modular arithmetic so overflow still rotates fairly.
//
// Grounded on the teacher's atomic.AddUint64 counter in
// RoundRobinBalancer.Select, simplified to one counter for the whole node
// pool rather than one per upstream/target-group, per spec.md §9's note
// that the counter belongs to the strategy value, not to shared state.
type RoundRobin struct {
	counter atomic.Uint64
}

// NewRoundRobin returns a RoundRobin strategy with its counter at zero.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Select implements Strategy.
func (rr *RoundRobin) Select(candidates []types.Node) (types.Node, bool) {
	if len(candidates) == 0 {
		return types.Node{}, false
	}
	n := rr.counter.Add(1) - 1
	index := n % uint64(len(candidates))
	return candidates[index], true
}

// Name implements Strategy.
func (rr *RoundRobin) Name() string {
	return "round-robin"
}

// Reset implements Strategy. Used only by tests.
func (rr *RoundRobin) Reset() {
	rr.counter.Store(0)
}
