// Package metrics exposes catalog counters and latencies in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector of this package. A dedicated registry keeps
// tests free of duplicate-registration panics.
var Registry = prometheus.NewRegistry()

var (
	profileMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_profile_mutations_total",
		Help: "Committed profile mutations by operation.",
	}, []string{"op"})

	indexDesyncs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_index_desync_total",
		Help: "Mutations rolled back because the search index could not be updated.",
	})

	indexRebuilds = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_index_rebuilds_total",
		Help: "Full search index rebuilds.",
	})

	importRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_import_rows_total",
		Help: "Imported rows by source and outcome.",
	}, []string{"source", "outcome"})

	backups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_backups_total",
		Help: "Backup archives by result.",
	}, []string{"result"})

	queryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_query_duration_seconds",
		Help:    "Duration of catalog read queries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	httpRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		profileMutations, indexDesyncs, indexRebuilds, importRows, backups, queryDuration, httpRequests,
	)
}

// Handler serves the registry for GET /metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ProfileMutation(op string, n int) {
	profileMutations.WithLabelValues(op).Add(float64(n))
}

func IndexDesync() { indexDesyncs.Inc() }

func IndexRebuild() { indexRebuilds.Inc() }

// ImportRow counts one row outcome: "upserted", "skipped" or "failed".
func ImportRow(source, outcome string) {
	importRows.WithLabelValues(source, outcome).Inc()
}

func Backup(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	backups.WithLabelValues(result).Inc()
}

// ObserveQuery records the time since start for the named query.
func ObserveQuery(query string, start time.Time) {
	queryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}

// Middleware records request durations labelled by the chi route pattern,
// so path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
