package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitaup_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitaup_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SessionOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitaup_session_operations_total",
			Help: "Session manager operations by outcome",
		},
		[]string{"op", "outcome"},
	)

	ProvisionInserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitaup_provision_inserts_total",
			Help: "Best-effort sign-up row inserts by table and outcome",
		},
		[]string{"table", "outcome"},
	)

	ActiveClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vitaup_active_clients",
			Help: "Browser clients with a live session manager",
		},
	)

	StateStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vitaup_state_streams",
			Help: "Open websocket state streams",
		},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCount, RequestDuration, SessionOperations, ProvisionInserts, ActiveClients, StateStreams)
	})
}
