// Package metrics exports shard status fetch metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ryzom/shardstatus/internal/shard"
)

const namespace = "shardstatus"

const (
	resultSuccess = "success"
	resultError   = "error"
)

var states = []shard.State{shard.StateOpen, shard.StateLocked, shard.StateClosed}

// Exporter holds the collectors on a private registry.
type Exporter struct {
	registry *prometheus.Registry

	fetchTotal    *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	skippedLines  prometheus.Counter
	serverState   *prometheus.GaugeVec
	lastSuccess   prometheus.Gauge
}

func New() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),

		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_total",
				Help:      "Status feed fetches by result",
			}, []string{"result"}),

		fetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Status feed fetch latency",
				Buckets:   prometheus.DefBuckets,
			}),

		skippedLines: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_lines_total",
				Help:      "Malformed status feed lines that were ignored",
			}),

		serverState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "server_state",
				Help:      "1 for the current state of each shard, 0 otherwise",
			}, []string{"server", "state"}),

		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful fetch",
			}),
	}

	e.registry.MustRegister(
		e.fetchTotal,
		e.fetchDuration,
		e.skippedLines,
		e.serverState,
		e.lastSuccess,
	)

	return e
}

// ObserveFetch implements shard.Observer.
func (e *Exporter) ObserveFetch(elapsed time.Duration, skipped int, err error) {
	e.fetchDuration.Observe(elapsed.Seconds())

	if err != nil {
		e.fetchTotal.WithLabelValues(resultError).Inc()
		return
	}

	e.fetchTotal.WithLabelValues(resultSuccess).Inc()
	e.skippedLines.Add(float64(skipped))
	e.lastSuccess.Set(float64(time.Now().Unix()))
}

// SetReport publishes the state of every shard in report.
func (e *Exporter) SetReport(report shard.Report) {
	e.serverState.Reset()
	for _, rec := range report.Servers() {
		for _, s := range states {
			v := 0.0
			if rec.State == s {
				v = 1
			}
			e.serverState.WithLabelValues(rec.Name, string(s)).Set(v)
		}
	}
}

func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
