// Package metrics exposes Prometheus instrumentation for status checks and
// syncs.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/docctx/internal/cache"
)

// Metrics holds the registered collectors. A nil *Metrics is a no-op.
type Metrics struct {
	reg            *prom.Registry
	documents      *prom.GaugeVec
	statusChecks   prom.Counter
	statusDuration prom.Histogram
	syncWrites     prom.Counter
	syncFailures   prom.Counter
	loadWarnings   prom.Counter
}

// New constructs and registers the collectors on reg, or on a fresh
// registry when reg is nil.
func New(reg *prom.Registry) *Metrics {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	m := &Metrics{
		reg: reg,
		documents: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "docctx",
			Name:      "documents",
			Help:      "Documents by effective status at the last status check",
		}, []string{"status"}),
		statusChecks: prom.NewCounter(prom.CounterOpts{
			Namespace: "docctx",
			Name:      "status_checks_total",
			Help:      "Completed tree-wide status checks",
		}),
		statusDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docctx",
			Name:      "status_duration_seconds",
			Help:      "Duration of tree-wide status checks",
			Buckets:   prom.DefBuckets,
		}),
		syncWrites: prom.NewCounter(prom.CounterOpts{
			Namespace: "docctx",
			Name:      "sync_writes_total",
			Help:      "Documents rewritten by sync",
		}),
		syncFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: "docctx",
			Name:      "sync_failures_total",
			Help:      "Documents whose sync failed",
		}),
		loadWarnings: prom.NewCounter(prom.CounterOpts{
			Namespace: "docctx",
			Name:      "load_warnings_total",
			Help:      "Documents skipped during load",
		}),
	}
	reg.MustRegister(m.documents, m.statusChecks, m.statusDuration, m.syncWrites, m.syncFailures, m.loadWarnings)
	return m
}

// ObserveReport records the outcome of a status check.
func (m *Metrics) ObserveReport(r *cache.Report, d time.Duration) {
	if m == nil || r == nil {
		return
	}
	n := r.Counts()
	m.documents.WithLabelValues("valid").Set(float64(n.Valid))
	m.documents.WithLabelValues("stale").Set(float64(n.Stale))
	m.documents.WithLabelValues("orphaned").Set(float64(n.Orphaned))
	m.statusChecks.Inc()
	m.statusDuration.Observe(d.Seconds())
	m.loadWarnings.Add(float64(len(r.Warnings)))
}

// ObserveSync records the outcome of a sync.
func (m *Metrics) ObserveSync(r *cache.SyncReport) {
	if m == nil || r == nil {
		return
	}
	m.syncWrites.Add(float64(len(r.Updated)))
	m.syncFailures.Add(float64(len(r.Failed)))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
