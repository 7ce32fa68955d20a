package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Workflow metrics
	Actions *prometheus.CounterVec
	SMS     *prometheus.CounterVec
	Resyncs prometheus.Counter

	// Snapshot metrics
	Refreshes      *prometheus.CounterVec
	PendingGauge   prometheus.Gauge
	EnrichFailures prometheus.Counter

	// Remote backend metrics
	RemoteRequests *prometheus.CounterVec
	RemoteLatency  *prometheus.HistogramVec
	CacheLookups   *prometheus.CounterVec
}

// NewMetrics creates all application metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointment_actions_total",
			Help:      "Accept/cancel actions by outcome and result",
		}, []string{"outcome", "result"}),
		SMS: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sms_dispatch_total",
			Help:      "SMS dispatch attempts by result",
		}, []string{"result"}),
		Resyncs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "resyncs_total",
			Help:      "Snapshot resyncs triggered by a failed action",
		}),

		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "snapshot_refreshes_total",
			Help:      "Snapshot refreshes by resource and status",
		}, []string{"resource", "status"}),
		PendingGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pending_appointments",
			Help:      "Pending appointments currently listed",
		}),
		EnrichFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "enrichment_failures_total",
			Help:      "Pending rows listed without doctor/patient details",
		}),

		RemoteRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "remote_requests_total",
			Help:      "Requests to the clinic backend by operation and status",
		}, []string{"operation", "status"}),
		RemoteLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "remote_request_duration_seconds",
			Help:      "Duration of requests to the clinic backend",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "enrichment_cache_lookups_total",
			Help:      "Doctor/patient cache lookups by kind and result",
		}, []string{"kind", "result"}),
	}
}

// NewNop returns metrics registered with a throwaway registry.
func NewNop() *Metrics {
	return NewMetrics(prometheus.NewRegistry(), "", "")
}
