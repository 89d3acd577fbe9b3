package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"secscan/internal/model"
)

// Registry holds every secscan collector. It is separate from the global
// default registry so tests can gather it in isolation.
var Registry = prometheus.NewRegistry()

var (
	scansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "secscan_scans_total",
		Help: "Total number of completed scans",
	})

	findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secscan_findings_total",
			Help: "Findings reported, by kind and severity",
		},
		[]string{"kind", "severity"},
	)

	collaboratorSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secscan_collaborator_skips_total",
			Help: "Collaborators that degraded to no findings, by source",
		},
		[]string{"source"},
	)

	lookupDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "secscan_lookup_duration_seconds",
		Help:    "Duration of single vulnerability lookups in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	Registry.MustRegister(scansTotal, findingsTotal, collaboratorSkips, lookupDuration)
}

// TrackScan records one completed scan and its findings.
func TrackScan(res model.ScanResult) {
	scansTotal.Inc()
	for _, v := range res.Vulnerabilities {
		findingsTotal.WithLabelValues("vulnerability", v.EffectiveSeverity().String()).Inc()
	}
	for _, i := range res.CodeIssues {
		findingsTotal.WithLabelValues("code_issue", i.Severity.String()).Inc()
	}
	if n := len(res.Suggestions); n > 0 {
		findingsTotal.WithLabelValues("suggestion", model.SuggestionSeverity.String()).Add(float64(n))
	}
}

// TrackSkip records a collaborator that degraded to no findings.
func TrackSkip(source string) {
	collaboratorSkips.WithLabelValues(source).Inc()
}

// ObserveLookup records the latency of one vulnerability lookup.
func ObserveLookup(d time.Duration) {
	lookupDuration.Observe(d.Seconds())
}

// Handler serves the secscan registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// StartMetricsServer serves /metrics on addr until ctx is cancelled.
func StartMetricsServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Starting metrics server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
