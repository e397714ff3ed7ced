package loadbalancer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ferrylb/ferry/internal/types"
)

func nodes(ids ...string) []types.Node {
	out := make([]types.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.Node{ID: types.NodeId(id), Status: types.HealthHealthy})
	}
	return out
}

func TestRoundRobinCyclesInOrder(t *testing.T) {
	rr := NewRoundRobin()
	candidates := nodes("n1", "n2", "n3")

	var got []string
	for i := 0; i < 9; i++ {
		pick, ok := rr.Select(candidates)
		assert.True(t, ok)
		got = append(got, string(pick.ID))
	}

	assert.Equal(t, []string{"n1", "n2", "n3", "n1", "n2", "n3", "n1", "n2", "n3"}, got)
}

func TestRoundRobinEmptyCandidates(t *testing.T) {
	rr := NewRoundRobin()
	_, ok := rr.Select(nil)
	assert.False(t, ok)
}

func TestRoundRobinReset(t *testing.T) {
	rr := NewRoundRobin()
	candidates := nodes("n1", "n2")

	rr.Select(candidates)
	rr.Select(candidates)
	rr.Reset()

	pick, ok := rr.Select(candidates)
	assert.True(t, ok)
	assert.Equal(t, types.NodeId("n1"), pick.ID)
}

// TestRoundRobinFairness covers spec property 5: with N nodes held
// constant and K*N picks, each node receives K forwards.
func TestRoundRobinFairness(t *testing.T) {
	rr := NewRoundRobin()
	candidates := nodes("n1", "n2", "n3", "n4")
	const k = 25

	counts := make(map[types.NodeId]int)
	for i := 0; i < k*len(candidates); i++ {
		pick, _ := rr.Select(candidates)
		counts[pick.ID]++
	}

	for _, n := range candidates {
		assert.Equal(t, k, counts[n.ID])
	}
}

// TestRoundRobinConcurrentSelect exercises concurrency safety: the counter
// must not be corrupted by simultaneous callers (run with -race).
func TestRoundRobinConcurrentSelect(t *testing.T) {
	rr := NewRoundRobin()
	candidates := nodes("n1", "n2", "n3")

	var wg sync.WaitGroup
	picks := make(chan types.NodeId, 300)
	for i := 0; i < 300; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pick, ok := rr.Select(candidates)
			if ok {
				picks <- pick.ID
			}
		}()
	}
	wg.Wait()
	close(picks)

	counts := make(map[types.NodeId]int)
	for id := range picks {
		counts[id]++
	}
	assert.Len(t, counts, 3)
}
