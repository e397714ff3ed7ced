// Package health implements the health prober (C4): a periodic,
// parallel-fanout probe loop that classifies nodes as HEALTHY, DEGRADED,
// or UNHEALTHY and writes the result back into the registry. Grounded on
// the teacher's ActiveHealthChecker.checkUpstream/checkAllTargets
// ticker+fan-out loop (internal/health/active_checker.go), generalized
// from per-upstream target maps to the flat node registry and from a
// threshold-counted state machine to spec.md's direct per-probe
// derivation.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ferrylb/ferry/internal/metrics"
	"github.com/ferrylb/ferry/internal/types"
	"github.com/ferrylb/ferry/pkg/log"
)

// Registry is the subset of the node registry the prober depends on.
type Registry interface {
	FindAll() []types.Node
	UpdateHealthStatus(id types.NodeId, status types.HealthStatus, reason string) (types.NodeHealthChangedEvent, bool)
}

// EventHandler is notified of health transitions for logging/metrics.
type EventHandler func(types.NodeHealthChangedEvent)

// Config tunes the prober's loop and probe client.
type Config struct {
	Interval            time.Duration
	Timeout             time.Duration
	Path                string
	DegradedThresholdMs int
}

// Prober runs the background health-probing loop.
type Prober struct {
	cfg      Config
	registry Registry
	client   *http.Client
	handler  EventHandler
	logger   log.Logger
	metrics  metrics.Registry

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a Prober. handler and logger/metricsReg may be nil; a nil
// handler means health transitions are silently discarded, a nil logger
// or metricsReg disables the corresponding side-effect.
func New(cfg Config, registry Registry, handler EventHandler, logger log.Logger, metricsReg metrics.Registry) *Prober {
	return &Prober{
		cfg:      cfg,
		registry: registry,
		client:   &http.Client{Timeout: cfg.Timeout},
		handler:  handler,
		logger:   logger,
		metrics:  metricsReg,
		stopCh:   make(chan struct{}),
	}
}

// Probe issues one GET to node.Endpoint + cfg.Path and classifies the
// outcome.
func (p *Prober) Probe(ctx context.Context, node types.Node) types.HealthProbeResult {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, node.Endpoint.String()+p.cfg.Path, nil)
	if err != nil {
		return types.HealthProbeResult{Success: false, Error: err.Error()}
	}

	resp, err := p.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return types.HealthProbeResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.HealthProbeResult{Success: false, Latency: latency, Error: httpStatusError(resp.StatusCode)}
	}

	return types.HealthProbeResult{Success: true, Latency: latency}
}

func httpStatusError(code int) string {
	return "HTTP " + http.StatusText(code)
}

// DetermineStatus derives a HealthStatus from a probe result per spec.md
// §3: Success & latency below the degraded threshold is HEALTHY, Success
// at or above it is DEGRADED, any Failure is UNHEALTHY.
func (p *Prober) DetermineStatus(result types.HealthProbeResult) types.HealthStatus {
	if !result.Success {
		return types.HealthUnhealthy
	}
	threshold := time.Duration(p.cfg.DegradedThresholdMs) * time.Millisecond
	if result.Latency < threshold {
		return types.HealthHealthy
	}
	return types.HealthDegraded
}

// Start spawns the long-lived background loop.
func (p *Prober) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
}

// Stop cancels the loop and waits for the in-flight batch, if any, to
// return.
func (p *Prober) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

func (p *Prober) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ticker.C:
			p.tick(ctx)
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick snapshots the registry, fans out one probe goroutine per node, and
// writes results back once the whole batch completes. A failure isolated
// to one probe never blocks or cancels another.
func (p *Prober) tick(ctx context.Context) {
	nodes := p.registry.FindAll()

	type outcome struct {
		id     types.NodeId
		status types.HealthStatus
	}
	results := make(chan outcome, len(nodes))

	var wg sync.WaitGroup
	for _, n := range nodes {
		wg.Add(1)
		go func(n types.Node) {
			defer wg.Done()
			probeResult := p.Probe(ctx, n)
			status := p.DetermineStatus(probeResult)
			if p.metrics != nil {
				p.metrics.ProbeDurationSeconds(string(n.ID)).Observe(probeResult.Latency.Seconds())
			}
			results <- outcome{id: n.ID, status: status}
		}(n)
	}

	wg.Wait()
	close(results)

	for o := range results {
		event, changed := p.registry.UpdateHealthStatus(o.id, o.status, "Health check result")
		if p.metrics != nil {
			p.metrics.NodeHealth(string(o.id)).Set(float64(o.status))
		}
		if !changed {
			continue
		}
		if p.logger != nil {
			p.logger.Info("node health changed", log.HealthChangeFields(
				string(event.NodeID), event.Previous.String(), event.New.String(), event.Reason)...)
		}
		if p.handler != nil {
			p.handler(event)
		}
	}
}
