// Package observability builds the logger, tracer and Prometheus registry that
// every module receives at construction time.
package observability

import (
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config selects how observability components are built.
type Config struct {
	ServiceName string
	Environment string
	LogLevel    string
}

// Observability bundles the cross-cutting components handed to modules.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry *prometheus.Registry
	Metrics  ServiceMetrics
}

// New builds a JSON logger on stdout, a tracer from the global OTel provider
// and a fresh Prometheus registry with Go and process collectors.
func New(cfg Config) Observability {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})
	logger := slog.New(handler).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return Observability{
		Logger:   logger,
		Tracer:   otel.Tracer(cfg.ServiceName),
		Registry: registry,
		Metrics:  NewPrometheusMetrics(registry, strings.ReplaceAll(cfg.ServiceName, "-", "_")),
	}
}

// NewNoop returns components that discard everything. Used by tests and CLI commands.
func NewNoop() Observability {
	return Observability{
		Logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
		Tracer:   noop.NewTracerProvider().Tracer("noop"),
		Registry: nil,
		Metrics:  NewNoopMetrics(),
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
