package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moat"

// Metrics holds the service collectors on a private registry.
// A nil *Metrics is valid and records nothing.
// ⭐ SSOT: 메트릭 정의는 여기서만
type Metrics struct {
	registry *prometheus.Registry

	valuations     *prometheus.CounterVec
	valuationTime  prometheus.Histogram
	sectorRuns     prometheus.Counter
	overrideWrites *prometheus.CounterVec
	overrideLoads  *prometheus.CounterVec
	marketFetches  *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	wsClients      prometheus.Gauge
	jobRuns        *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		valuations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "valuations_total",
			Help:      "Ticker valuations computed, by tier and caller.",
		}, []string{"tier", "source"}),
		valuationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "valuation_duration_seconds",
			Help:      "Time to value one ticker including market data resolution.",
			Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		sectorRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sector_composites_total",
			Help:      "Sector composite table computations.",
		}),
		overrideWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "override_writes_total",
			Help:      "Override store mutations, by operation and result.",
		}, []string{"op", "result"}),
		overrideLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "override_loads_total",
			Help:      "Override store loads, by outcome (ok, missing, fallback).",
		}, []string{"outcome"}),
		marketFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_fetches_total",
			Help:      "Market data fetches, by source and result.",
		}, []string{"source", "result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected override WebSocket clients.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduler job runs, by job and result.",
		}, []string{"job", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.valuations,
		m.valuationTime,
		m.sectorRuns,
		m.overrideWrites,
		m.overrideLoads,
		m.marketFetches,
		m.httpDuration,
		m.wsClients,
		m.jobRuns,
	)

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for additional collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveValuation records one ticker valuation
func (m *Metrics) ObserveValuation(tier, source string, d time.Duration) {
	if m == nil {
		return
	}
	m.valuations.WithLabelValues(tier, source).Inc()
	m.valuationTime.Observe(d.Seconds())
}

// IncSectorRun records one sector composite computation
func (m *Metrics) IncSectorRun() {
	if m == nil {
		return
	}
	m.sectorRuns.Inc()
}

// IncOverrideWrite records an override mutation
func (m *Metrics) IncOverrideWrite(op string, err error) {
	if m == nil {
		return
	}
	m.overrideWrites.WithLabelValues(op, result(err)).Inc()
}

// IncOverrideLoad records an override load outcome
func (m *Metrics) IncOverrideLoad(outcome string) {
	if m == nil {
		return
	}
	m.overrideLoads.WithLabelValues(outcome).Inc()
}

// IncMarketFetch records a market data fetch
func (m *Metrics) IncMarketFetch(source string, err error) {
	if m == nil {
		return
	}
	m.marketFetches.WithLabelValues(source, result(err)).Inc()
}

// ObserveHTTP records one API request
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// SetWSClients sets the number of connected WebSocket clients
func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.wsClients.Set(float64(n))
}

// IncJobRun records a scheduler job run
func (m *Metrics) IncJobRun(job string, err error) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
