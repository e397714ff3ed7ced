// Package backend implements the backend client (C3): a single outbound
// HTTP call to a specified node, reported as a tagged ForwardResult.
// Grounded on the teacher's ActiveHealthChecker.checkTarget
// (internal/health/active_checker.go) for the "timeout-bounded request,
// measure latency, classify transport error vs status code" shape,
// generalized from a fixed health GET to an arbitrary method/path/body.
package backend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/propagation"

	"github.com/ferrylb/ferry/internal/tracing"
	"github.com/ferrylb/ferry/internal/types"
)

// Client issues forward calls to backend nodes.
type Client struct {
	httpClient     *http.Client
	requestTimeout time.Duration
	tracingEnabled bool
}

// Config tunes the client's transport.
type Config struct {
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	TracingEnabled bool
}

// New builds a Client whose transport applies cfg.ConnectTimeout to the
// TCP handshake and whose Forward calls apply cfg.RequestTimeout to the
// whole exchange.
func New(cfg Config) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
	}
	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		requestTimeout: cfg.RequestTimeout,
		tracingEnabled: cfg.TracingEnabled,
	}
}

// Forward builds the target URL as node.Endpoint + path and issues one
// HTTP call, returning a tagged ForwardResult. It never retries and never
// touches node health; that is the router's and prober's job
// respectively.
func (c *Client) Forward(ctx context.Context, node types.Node, path, method string, headers http.Header, body []byte) types.ForwardResult {
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	ctx, span := tracing.Tracer("ferry/backend").Start(ctx, "backend.forward")
	defer span.End()

	start := time.Now()

	var reqBody io.Reader
	if body != nil && methodPermitsBody(method) {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, node.Endpoint.String()+path, reqBody)
	if err != nil {
		return types.ForwardResult{Success: false, ErrorMessage: err.Error(), Latency: time.Since(start)}
	}

	copyHeaders(req.Header, headers)
	if body != nil && methodPermitsBody(method) {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tracingEnabled {
		tracing.Inject(ctx, propagation.HeaderCarrier(req.Header))
	}

	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		msg := err.Error()
		// Hitting this client's own request timeout surfaces as "context
		// deadline exceeded"; label it as a timeout so the failure reads as
		// one. A deadline or cancellation of the caller's ctx is left as is.
		if parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			msg = "request timeout: " + msg
		}
		return types.ForwardResult{Success: false, ErrorMessage: msg, Latency: latency}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.ForwardResult{Success: false, ErrorMessage: err.Error(), Latency: time.Since(start)}
	}

	return types.ForwardResult{
		Success:    true,
		StatusCode: resp.StatusCode,
		Latency:    latency,
		Body:       respBody,
	}
}

func methodPermitsBody(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return false
	default:
		return true
	}
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
