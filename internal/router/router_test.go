package router

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrylb/ferry/internal/backend"
	"github.com/ferrylb/ferry/internal/loadbalancer"
	"github.com/ferrylb/ferry/internal/registry"
	"github.com/ferrylb/ferry/internal/types"
)

func serverNode(t *testing.T, srv *httptest.Server, id types.NodeId) types.Node {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return types.Node{
		ID:       id,
		Endpoint: types.Endpoint{Scheme: types.SchemeHTTP, Host: host, Port: port},
		Status:   types.HealthHealthy,
	}
}

// S1 — Round-robin with three healthy nodes.
func TestHandleRoundRobinsAcrossThreeHealthyNodes(t *testing.T) {
	var counts [3]int64
	var servers [3]*httptest.Server
	for i := 0; i < 3; i++ {
		idx := i
		servers[i] = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&counts[idx], 1)
			w.WriteHeader(http.StatusOK)
		}))
		defer servers[i].Close()
	}

	reg := registry.New()
	for i, s := range servers {
		reg.Save(serverNode(t, s, types.NodeId("n"+strconv.Itoa(i+1))))
	}

	rt := New(reg, loadbalancer.NewRoundRobin(), backend.New(backend.Config{RequestTimeout: time.Second, ConnectTimeout: time.Second}), 3, nil, nil)

	for i := 0; i < 6; i++ {
		result := rt.Handle(context.Background(), "/test", http.MethodPost, http.Header{}, []byte(`{}`))
		require.Equal(t, types.ResultSuccess, result.Kind)
	}

	for i, c := range counts {
		assert.Equal(t, int64(2), c, "node %d forward count", i+1)
	}
}

// S2 — Retry on slow backend.
func TestHandleRetriesPastSlowNode(t *testing.T) {
	var n1Count, otherCount int64
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&n1Count, 1)
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer slow.Close()

	fastHandler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&otherCount, 1)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
	fast1 := httptest.NewServer(http.HandlerFunc(fastHandler))
	defer fast1.Close()
	fast2 := httptest.NewServer(http.HandlerFunc(fastHandler))
	defer fast2.Close()

	reg := registry.New()
	reg.Save(serverNode(t, slow, "n1"))
	reg.Save(serverNode(t, fast1, "n2"))
	reg.Save(serverNode(t, fast2, "n3"))

	strategy := &fixedOrderStrategy{order: []types.NodeId{"n1", "n2", "n3"}}
	client := backend.New(backend.Config{RequestTimeout: 300 * time.Millisecond, ConnectTimeout: 300 * time.Millisecond})
	rt := New(reg, strategy, client, 3, nil, nil)

	result := rt.Handle(context.Background(), "/test", http.MethodPost, http.Header{}, []byte(`{}`))

	require.Equal(t, types.ResultSuccess, result.Kind)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.NotEqual(t, types.NodeId("n1"), result.NodeID)
	assert.EqualValues(t, 1, n1Count)
	assert.EqualValues(t, 1, otherCount)
}

// S3 — All backends slow.
func TestHandleFailsWhenAllNodesTimeOut(t *testing.T) {
	var forwardCount int64
	var mu sync.Mutex
	seen := make(map[string]struct{})

	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&forwardCount, 1)
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}
	srvs := make([]*httptest.Server, 3)
	for i := range srvs {
		srvs[i] = httptest.NewServer(http.HandlerFunc(handler))
		defer srvs[i].Close()
	}

	reg := registry.New()
	for i, s := range srvs {
		reg.Save(serverNode(t, s, types.NodeId("n"+strconv.Itoa(i+1))))
	}

	client := &trackingClient{
		inner: backend.New(backend.Config{RequestTimeout: 300 * time.Millisecond, ConnectTimeout: 300 * time.Millisecond}),
		onForward: func(node types.Node) {
			mu.Lock()
			seen[string(node.ID)] = struct{}{}
			mu.Unlock()
		},
	}
	rt := New(reg, loadbalancer.NewRoundRobin(), client, 3, nil, nil)

	result := rt.Handle(context.Background(), "/test", http.MethodPost, http.Header{}, []byte(`{}`))

	require.Equal(t, types.ResultRequestFailed, result.Kind)
	assert.True(t, strings.Contains(strings.ToLower(result.Error), "timeout") ||
		strings.Contains(strings.ToLower(result.Error), "exhausted"))
	assert.EqualValues(t, 3, forwardCount)
	assert.Len(t, seen, 3)
}

// S4 — One backend hard-down.
func TestHandleRecoversFromConnectionRefused(t *testing.T) {
	okHandler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	fast1 := httptest.NewServer(http.HandlerFunc(okHandler))
	defer fast1.Close()
	fast2 := httptest.NewServer(http.HandlerFunc(okHandler))
	defer fast2.Close()

	reg := registry.New()
	reg.Save(types.Node{ID: "n1", Endpoint: types.Endpoint{Scheme: types.SchemeHTTP, Host: "127.0.0.1", Port: 1}, Status: types.HealthHealthy})
	reg.Save(serverNode(t, fast1, "n2"))
	reg.Save(serverNode(t, fast2, "n3"))

	client := backend.New(backend.Config{RequestTimeout: time.Second, ConnectTimeout: 200 * time.Millisecond})
	rt := New(reg, loadbalancer.NewRoundRobin(), client, 3, nil, nil)

	successes := 0
	for i := 0; i < 6; i++ {
		result := rt.Handle(context.Background(), "/test", http.MethodPost, http.Header{}, []byte(`{}`))
		if result.Kind == types.ResultSuccess {
			successes++
		}
	}
	assert.GreaterOrEqual(t, successes, 5)
}

// S6 — Non-retryable HTTP response flows through.
func TestHandleReturnsNonRetryableHTTPStatusAsSuccess(t *testing.T) {
	var count int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&count, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"x":1}`))
	}))
	defer srv.Close()

	reg := registry.New()
	reg.Save(serverNode(t, srv, "n1"))

	client := backend.New(backend.Config{RequestTimeout: time.Second, ConnectTimeout: time.Second})
	rt := New(reg, loadbalancer.NewRoundRobin(), client, 3, nil, nil)

	result := rt.Handle(context.Background(), "/test", http.MethodPost, http.Header{}, []byte(`{}`))

	require.Equal(t, types.ResultSuccess, result.Kind)
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	assert.Equal(t, `{"x":1}`, string(result.Body))
	assert.EqualValues(t, 1, count)
}

func TestHandleReturnsNoAvailableNodesWhenRegistryEmpty(t *testing.T) {
	rt := New(registry.New(), loadbalancer.NewRoundRobin(), backend.New(backend.Config{RequestTimeout: time.Second, ConnectTimeout: time.Second}), 3, nil, nil)
	result := rt.Handle(context.Background(), "/test", http.MethodGet, http.Header{}, nil)
	assert.Equal(t, types.ResultNoAvailableNodes, result.Kind)
}

func TestHandlePropagatesCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := registry.New()
	reg.Save(serverNode(t, srv, "n1"))

	client := backend.New(backend.Config{RequestTimeout: time.Second, ConnectTimeout: time.Second})
	rt := New(reg, loadbalancer.NewRoundRobin(), client, 3, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result := rt.Handle(ctx, "/test", http.MethodGet, http.Header{}, nil)
	assert.Equal(t, types.ResultRequestFailed, result.Kind)
}

func TestIsRetryableMatchesKeywordSet(t *testing.T) {
	assert.True(t, isRetryable("dial tcp: connection refused"))
	assert.True(t, isRetryable("context deadline exceeded (Client.Timeout exceeded while awaiting headers): timeout"))
	assert.True(t, isRetryable("read: connection reset by peer"))
	assert.False(t, isRetryable("unexpected EOF"))
}

// fixedOrderStrategy always returns candidates in the given preferred
// order, picking the first preferred id still present in candidates.
type fixedOrderStrategy struct {
	order []types.NodeId
}

func (f *fixedOrderStrategy) Select(candidates []types.Node) (types.Node, bool) {
	for _, id := range f.order {
		for _, n := range candidates {
			if n.ID == id {
				return n, true
			}
		}
	}
	if len(candidates) == 0 {
		return types.Node{}, false
	}
	return candidates[0], true
}

func (f *fixedOrderStrategy) Name() string { return "fixed-order" }
func (f *fixedOrderStrategy) Reset()       {}

// trackingClient wraps a backend.Client-shaped dependency to observe which
// nodes were actually forwarded to.
type trackingClient struct {
	inner     *backend.Client
	onForward func(types.Node)
}

func (c *trackingClient) Forward(ctx context.Context, node types.Node, path, method string, headers http.Header, body []byte) types.ForwardResult {
	if c.onForward != nil {
		c.onForward(node)
	}
	return c.inner.Forward(ctx, node, path, method, headers, body)
}
