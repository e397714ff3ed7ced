// Command ferry-node runs the load balancer's routing and health
// subsystem as a standalone HTTP process. Grounded on the teacher's
// cmd/stargate-node/main.go flag parsing, config load, server
// start-in-goroutine, and SIGINT/SIGTERM → context.WithTimeout →
// server.Shutdown(ctx) sequence.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/ferrylb/ferry/internal/admin"
	"github.com/ferrylb/ferry/internal/backend"
	"github.com/ferrylb/ferry/internal/config"
	"github.com/ferrylb/ferry/internal/frontend"
	"github.com/ferrylb/ferry/internal/health"
	"github.com/ferrylb/ferry/internal/loadbalancer"
	logdriver "github.com/ferrylb/ferry/internal/log/driver/stdout"
	"github.com/ferrylb/ferry/internal/metrics"
	"github.com/ferrylb/ferry/internal/registry"
	"github.com/ferrylb/ferry/internal/router"
	"github.com/ferrylb/ferry/internal/tracing"
	"github.com/ferrylb/ferry/pkg/log"
)

var (
	configFile = flag.String("config", "", "Configuration file path (optional)")
	version    = flag.Bool("version", false, "Show version information")
)

const (
	Version   = "v0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func parseLogLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("Ferry Node %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logdriver.New(logdriver.Config{Level: parseLogLevel(cfg.Logging.Level), Development: cfg.Logging.Development})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	tracerProvider, err := tracing.NewProvider(tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		ServiceName:    "ferry-node",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", log.Error(err))
		os.Exit(1)
	}

	var metricsReg metrics.Registry
	if cfg.Metrics.Enabled {
		metricsReg = metrics.NewPrometheusRegistry(prometheus.DefaultRegisterer)
	}

	reg := registry.New()
	nodes, err := config.BootstrapNodes(cfg)
	if err != nil {
		logger.Error("failed to bootstrap nodes", log.Error(err))
		os.Exit(1)
	}
	for _, n := range nodes {
		reg.Save(n)
	}
	logger.Info("bootstrapped nodes", log.Int("count", len(nodes)))

	strategy := loadbalancer.NewRoundRobin()

	client := backend.New(backend.Config{
		RequestTimeout: cfg.Request.Timeout,
		ConnectTimeout: cfg.Request.ConnectTimeout,
		TracingEnabled: cfg.Tracing.Enabled,
	})

	rt := router.New(reg, strategy, client, cfg.Request.MaxAttempts, logger, metricsReg)

	var prober *health.Prober
	if cfg.HealthCheck.Enabled {
		prober = health.New(health.Config{
			Interval:            cfg.HealthCheck.Interval,
			Timeout:             cfg.HealthCheck.Timeout,
			Path:                cfg.HealthCheck.Path,
			DegradedThresholdMs: cfg.HealthCheck.DegradedThresholdMs,
		}, reg, nil, logger, metricsReg)
	}

	adminHandler := admin.New(reg)
	fe := frontend.New(rt, adminHandler, adminHandler)
	if cfg.Metrics.Enabled {
		fe.SetPrometheusHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
	}

	// h2c serves HTTP/2 in cleartext since this spec excludes TLS
	// termination (§1 Non-goals) but inbound clients may still speak h2.
	h2Handler := h2c.NewHandler(fe.Mux(), &http2.Server{})

	httpServer := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        h2Handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	if prober != nil {
		prober.Start(context.Background())
	}

	go func() {
		logger.Info("starting ferry node", log.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", log.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down ferry node")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", log.Error(err))
	}
	if prober != nil {
		prober.Stop()
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		logger.Error("tracer shutdown failed", log.Error(err))
	}
}
