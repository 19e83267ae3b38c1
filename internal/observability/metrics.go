package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IshaanNene/RepoMiner/internal/types"
)

// Outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeUnreachable = "unreachable"
)

// Metrics tracks operational metrics for mining runs. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	fetches       *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	runs          *prometheus.CounterVec

	server *http.Server
	logger *slog.Logger
}

// NewMetrics creates a Metrics instance with its own registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repominer_fetches_total",
			Help: "Page fetches by page kind and outcome.",
		}, []string{"page", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "repominer_stage_duration_seconds",
			Help:    "Duration of each extraction stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repominer_stage_failures_total",
			Help: "Failed extraction stages by error kind.",
		}, []string{"stage", "kind"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repominer_fallback_total",
			Help: "Contributor fallback invocations by outcome.",
		}, []string{"outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repominer_runs_total",
			Help: "Completed mining runs by outcome.",
		}, []string{"outcome"}),
		logger: logger.With("component", "metrics"),
	}

	m.registry.MustRegister(m.fetches, m.stageDuration, m.stageFailures, m.fallbacks, m.runs)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordFetch counts one page fetch.
func (m *Metrics) RecordFetch(page string, err error) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(page, outcome(err)).Inc()
}

// ObserveStage records a stage duration and, on failure, its error kind.
func (m *Metrics) ObserveStage(stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(stage, ErrorKind(err)).Inc()
	}
}

// RecordFallback counts one contributor fallback invocation.
func (m *Metrics) RecordFallback(outcome string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(outcome).Inc()
}

// RecordRun counts one finished mining run.
func (m *Metrics) RecordRun(err error) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Shutdown stops the metrics server if it was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}

// ErrorKind classifies an error for the failure counter label.
func ErrorKind(err error) string {
	switch {
	case types.IsFetchError(err):
		return "fetch"
	case types.IsStructuralError(err):
		return "structural"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "other"
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
