// Package metrics exports log engine activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mash-protocol/devlog/pkg/log"
)

// Observer bundles prometheus collectors fed by a log.Engine.
type Observer struct {
	Appends       *prometheus.CounterVec
	Filtered      *prometheus.CounterVec
	HandlerErrors *prometheus.CounterVec
	Flushes       *prometheus.CounterVec
	AppendBytes   prometheus.Histogram
	Index         prometheus.Gauge
}

// New creates an Observer and registers its collectors with registry.
func New(registry prometheus.Registerer) *Observer {
	o := &Observer{
		Appends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devlog_appends_total",
			Help: "Total number of entries committed to a log backend.",
		}, []string{"log"}),
		Filtered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devlog_filtered_total",
			Help: "Total number of entries dropped by the instance level.",
		}, []string{"log", "level"}),
		HandlerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devlog_handler_errors_total",
			Help: "Total number of backend failures.",
		}, []string{"log", "op"}),
		Flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devlog_flushes_total",
			Help: "Total number of successful flushes.",
		}, []string{"log"}),
		AppendBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "devlog_append_bytes",
			Help:    "Size of committed entries including the header.",
			Buckets: prometheus.ExponentialBuckets(16, 2, 8),
		}),
		Index: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "devlog_index",
			Help: "Global index of the most recent entry.",
		}),
	}

	registry.MustRegister(
		o.Appends,
		o.Filtered,
		o.HandlerErrors,
		o.Flushes,
		o.AppendBytes,
		o.Index,
	)

	return o
}

func (o *Observer) ObserveAppend(name string, index uint32, bytes int) {
	o.Appends.WithLabelValues(name).Inc()
	o.AppendBytes.Observe(float64(bytes))
	o.Index.Set(float64(index))
}

func (o *Observer) ObserveFiltered(name string, level log.Level) {
	o.Filtered.WithLabelValues(name, level.String()).Inc()
}

func (o *Observer) ObserveHandlerError(name string, op string) {
	o.HandlerErrors.WithLabelValues(name, op).Inc()
}

// ObserveFlush counts the flush and reflects the global index reset.
func (o *Observer) ObserveFlush(name string) {
	o.Flushes.WithLabelValues(name).Inc()
	o.Index.Set(0)
}

// Handler serves the metrics of gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Compile-time interface satisfaction check.
var _ log.Observer = (*Observer)(nil)
