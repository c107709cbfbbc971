// Package metrics registers the Prometheus collectors the pool,
// pipeline, and listener update as they serve traffic.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the collectors one simulator instance updates. Tests
// and multi-simulator setups construct their own via New rather than
// sharing package-level globals, so several independent simulators can
// register against different registries.
type Metrics struct {
	DevicesActive  prometheus.Gauge
	DevicesPeak    prometheus.Gauge
	DevicesCreated prometheus.Counter
	DevicesEvicted prometheus.Counter

	RequestsTotal    *prometheus.CounterVec // labels: pdu_kind
	RequestErrors    *prometheus.CounterVec // labels: error_status
	BulkTruncations  prometheus.Counter
	RequestLatency   *prometheus.HistogramVec // labels: pdu_kind
}

// New builds and registers a Metrics bundle against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DevicesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snmpsim_pool_devices_active",
			Help: "Number of currently instantiated simulated devices.",
		}),
		DevicesPeak: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snmpsim_pool_devices_peak",
			Help: "High-water mark of simultaneously instantiated devices.",
		}),
		DevicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snmpsim_pool_devices_created_total",
			Help: "Total devices created on demand.",
		}),
		DevicesEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snmpsim_pool_devices_evicted_total",
			Help: "Total devices evicted for idleness or capacity.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snmpsim_requests_total",
			Help: "SNMP requests handled, by PDU kind.",
		}, []string{"pdu_kind"}),
		RequestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snmpsim_request_errors_total",
			Help: "Responses carrying a non-zero error-status, by error-status.",
		}, []string{"error_status"}),
		BulkTruncations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snmpsim_getbulk_truncations_total",
			Help: "GETBULK responses truncated to stay under the response size cap.",
		}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "snmpsim_request_duration_seconds",
			Help:    "Time spent in the request pipeline, by PDU kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"pdu_kind"}),
	}
	reg.MustRegister(
		m.DevicesActive, m.DevicesPeak, m.DevicesCreated, m.DevicesEvicted,
		m.RequestsTotal, m.RequestErrors, m.BulkTruncations, m.RequestLatency,
	)
	return m
}
