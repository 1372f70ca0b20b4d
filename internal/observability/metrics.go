package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SideClient = "client"
	SideServer = "server"

	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirecall",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wirecall",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	rpcCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirecall",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Completed call cycles by side, function and outcome.",
		},
		[]string{"side", "function", "outcome"},
	)
	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wirecall",
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Call cycle duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"side", "function", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, rpcCalls, rpcDuration)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordCall counts one client or server call cycle. function is the
// registry key, or "unknown" when the cycle failed before resolution.
func RecordCall(side, function string, err error, duration time.Duration) {
	RegisterMetrics()
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	if function == "" {
		function = "unknown"
	}
	rpcCalls.WithLabelValues(side, function, outcome).Inc()
	rpcDuration.WithLabelValues(side, function, outcome).Observe(duration.Seconds())
}
