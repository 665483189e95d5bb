// Package metrics exposes dashboard counters on a private Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cpitracker"

// Metrics groups the application collectors.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	clusterRuns  *prometheus.CounterVec
	chartRenders *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	datasetRows  prometheus.Gauge
	latestYear   prometheus.Gauge
	skippedRows  prometheus.Gauge
}

// New registers every collector plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Cache hits by cache name.",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache misses by cache name.",
		}, []string{"cache"}),
		clusterRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cluster_runs_total",
			Help:      "Clustering runs by k and outcome (computed, skipped, error).",
		}, []string{"k", "outcome"}),
		chartRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_renders_total",
			Help:      "PNG charts rendered by kind.",
		}, []string{"chart"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rejected_total",
			Help:      "Requests refused before reaching a handler, by reason.",
		}, []string{"reason"}),
		datasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Observations in the loaded dataset.",
		}),
		latestYear: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_latest_year",
			Help:      "Most recent year present in the dataset.",
		}),
		skippedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_skipped_rows",
			Help:      "Rows dropped while loading the dataset.",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.duration, m.cacheHits, m.cacheMisses, m.clusterRuns,
		m.chartRenders, m.rejected, m.datasetRows, m.latestYear, m.skippedRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) CacheHit(name string)  { m.cacheHits.WithLabelValues(name).Inc() }
func (m *Metrics) CacheMiss(name string) { m.cacheMisses.WithLabelValues(name).Inc() }

func (m *Metrics) ClusterRun(k int, outcome string) {
	m.clusterRuns.WithLabelValues(strconv.Itoa(k), outcome).Inc()
}

func (m *Metrics) ChartRendered(kind string) { m.chartRenders.WithLabelValues(kind).Inc() }

// Rejected counts requests refused by the probe filter or the rate limiter.
func (m *Metrics) Rejected(reason string) { m.rejected.WithLabelValues(reason).Inc() }

// DatasetLoaded records the shape of the loaded dataset.
func (m *Metrics) DatasetLoaded(rows, skipped, latestYear int) {
	m.datasetRows.Set(float64(rows))
	m.skippedRows.Set(float64(skipped))
	m.latestYear.Set(float64(latestYear))
}
