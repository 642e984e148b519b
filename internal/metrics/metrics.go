// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes an optional Prometheus registry for a
// cairolens run: counters for each pipeline phase's throughput and
// histograms for their durations. It is served over HTTP for the duration
// of a run when --metrics-addr is set.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every counter and histogram cairolens reports.
type Registry struct {
	registry *prometheus.Registry

	FilesDiscovered   prometheus.Counter
	FilesSkipped      *prometheus.CounterVec
	SymbolsRegistered prometheus.Counter
	ImportsResolved   prometheus.Counter
	ImportsStubbed    prometheus.Counter
	FunctionsAnalyzed prometheus.Counter
	WarningsEmitted   *prometheus.CounterVec
	ErrorsEmitted     prometheus.Counter
	PhaseDuration     *prometheus.HistogramVec
}

// New builds a Registry with every metric registered under the
// "cairolens" namespace.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := prometheus.WrapRegistererWithPrefix("cairolens_", reg)

	r := &Registry{
		registry: reg,
		FilesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "files_discovered_total",
			Help: "Total .cairo files discovered across all input roots.",
		}),
		FilesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "files_skipped_total",
			Help: "Files skipped during discovery or extraction, by reason.",
		}, []string{"reason"}),
		SymbolsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "symbols_registered_total",
			Help: "Total symbols registered in the linker's symbol table.",
		}),
		ImportsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imports_resolved_total",
			Help: "Total imports resolved against an in-set module.",
		}),
		ImportsStubbed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imports_stubbed_total",
			Help: "Total unresolved imports covered by a synthesized stub module.",
		}),
		FunctionsAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "functions_analyzed_total",
			Help: "Total functions that completed the statement/CFG/dataflow pipeline.",
		}),
		WarningsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warnings_emitted_total",
			Help: "Analysis warnings emitted, by warning type.",
		}, []string{"type"}),
		ErrorsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "errors_emitted_total",
			Help: "Per-function analysis errors recovered from a panic.",
		}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "phase_duration_seconds",
			Help:    "Wall-clock duration of each pipeline phase.",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
	}

	factory.MustRegister(
		r.FilesDiscovered,
		r.FilesSkipped,
		r.SymbolsRegistered,
		r.ImportsResolved,
		r.ImportsStubbed,
		r.FunctionsAnalyzed,
		r.WarningsEmitted,
		r.ErrorsEmitted,
		r.PhaseDuration,
	)

	return r
}

// ObservePhase records dur as a sample of the named phase's duration.
func (r *Registry) ObservePhase(phase string, dur time.Duration) {
	r.PhaseDuration.WithLabelValues(phase).Observe(dur.Seconds())
}

// Serve starts an HTTP server exposing the registry at /metrics on addr,
// returning once the server is listening. The server is shut down when
// ctx is canceled; shutdown errors are logged, not returned, since the
// metrics endpoint is fire-and-forget alongside the main run.
func Serve(ctx context.Context, addr string, r *Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
	return nil
}
