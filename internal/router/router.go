// Package router implements the request router (C5): the per-request
// bounded-retry loop that ties the registry, selection strategy, and
// backend client together into a single RequestResult. Grounded on the
// teacher's ReverseProxy.ServeHTTP/director error-classification shape
// (internal/proxy/reverse_proxy.go), generalized from the teacher's
// single-attempt httputil.ReverseProxy delegation to an explicit
// multi-attempt, multi-node retry loop.
package router

import (
	"context"
	"net/http"
	"strings"

	"github.com/ferrylb/ferry/internal/loadbalancer"
	"github.com/ferrylb/ferry/internal/metrics"
	"github.com/ferrylb/ferry/internal/types"
	"github.com/ferrylb/ferry/pkg/log"
)

// retryableKeywords is the fixed, case-insensitive substring set that
// classifies a transport error as worth retrying against a different
// node.
var retryableKeywords = []string{
	"timeout",
	"timed out",
	"connection refused",
	"connection reset",
	"connect exception",
	"socket timeout",
	"no route to host",
	"connection closed",
}

// Registry is the subset of the node registry the router depends on.
type Registry interface {
	FindAvailable() []types.Node
}

// Client forwards one request to one node.
type Client interface {
	Forward(ctx context.Context, node types.Node, path, method string, headers http.Header, body []byte) types.ForwardResult
}

// Router drives the retry loop for inbound requests.
type Router struct {
	registry    Registry
	strategy    loadbalancer.Strategy
	client      Client
	maxAttempts int
	logger      log.Logger
	metrics     metrics.Registry
}

// New builds a Router. logger and metricsReg may be nil.
func New(registry Registry, strategy loadbalancer.Strategy, client Client, maxAttempts int, logger log.Logger, metricsReg metrics.Registry) *Router {
	return &Router{
		registry:    registry,
		strategy:    strategy,
		client:      client,
		maxAttempts: maxAttempts,
		logger:      logger,
		metrics:     metricsReg,
	}
}

// Handle runs the bounded-retry loop described in spec.md §4 for one
// inbound request and returns a tagged RequestResult. ctx cancellation
// (e.g. the inbound client disconnecting) aborts the loop before the
// next attempt starts, and propagates into the in-flight forward call.
func (rt *Router) Handle(ctx context.Context, path, method string, headers http.Header, body []byte) types.RequestResult {
	excluded := make(map[types.NodeId]struct{})

	for attempt := 1; attempt <= rt.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return types.RequestResult{Kind: types.ResultRequestFailed, Error: ctx.Err().Error()}
		default:
		}

		candidates := excludeNodes(rt.registry.FindAvailable(), excluded)
		if len(candidates) == 0 {
			return types.RequestResult{Kind: types.ResultNoAvailableNodes, Error: "no available nodes"}
		}

		pick, ok := rt.strategy.Select(candidates)
		if !ok {
			return types.RequestResult{Kind: types.ResultSelectionFailed, Error: "selection strategy returned no node"}
		}

		result := rt.client.Forward(ctx, pick, path, method, headers, body)

		if rt.logger != nil {
			rt.logger.Debug("forward attempt", append(log.ForwardFields(string(pick.ID), attempt, result.StatusCode, result.Latency),
				log.String(log.FieldMethod, method), log.String(log.FieldPath, path))...)
		}
		if rt.metrics != nil {
			rt.metrics.ForwardLatencySeconds(string(pick.ID)).Observe(result.Latency.Seconds())
		}

		if result.Success {
			if rt.metrics != nil {
				rt.metrics.ForwardsTotal(string(pick.ID), "success").Inc()
			}
			return types.RequestResult{
				Kind:       types.ResultSuccess,
				NodeID:     pick.ID,
				StatusCode: result.StatusCode,
				Latency:    result.Latency,
				Body:       result.Body,
			}
		}

		if rt.metrics != nil {
			rt.metrics.ForwardsTotal(string(pick.ID), "failure").Inc()
		}

		if isRetryable(result.ErrorMessage) && attempt < rt.maxAttempts {
			excluded[pick.ID] = struct{}{}
			continue
		}

		return types.RequestResult{Kind: types.ResultRequestFailed, NodeID: pick.ID, Error: result.ErrorMessage}
	}

	return types.RequestResult{Kind: types.ResultRequestFailed, Error: "All retry attempts exhausted"}
}

// isRetryable reports whether err's message matches the fixed
// transport-failure keyword set.
func isRetryable(err string) bool {
	lower := strings.ToLower(err)
	for _, kw := range retryableKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func excludeNodes(nodes []types.Node, excluded map[types.NodeId]struct{}) []types.Node {
	out := make([]types.Node, 0, len(nodes))
	for _, n := range nodes {
		if _, skip := excluded[n.ID]; !skip {
			out = append(out, n)
		}
	}
	return out
}
