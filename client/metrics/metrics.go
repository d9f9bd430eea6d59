// Package metrics records outbound call counts and latencies with the
// Prometheus client library. A *Collector satisfies client.CallRecorder:
//
//	m, err := metrics.New("myapp", prometheus.DefaultRegisterer)
//	c, err := client.Build(client.WithMetrics(m))
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FaultCode labels calls that ended without an HTTP status.
const FaultCode = "fault"

// Collector holds the call metrics:
//   - {namespace}_http_client_requests_total, by method and code
//   - {namespace}_http_client_request_duration_seconds, by method
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg, or the default
// registerer when reg is nil.
func New(namespace string, reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Collector{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http_client",
				Name:      "requests_total",
				Help:      "Outbound HTTP calls by method and status code.",
			},
			[]string{"method", "code"},
		),
		durationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http_client",
				Name:      "request_duration_seconds",
				Help:      "Outbound HTTP call latency, decoding included.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	for _, c := range []prometheus.Collector{m.requestsTotal, m.durationSeconds} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics for %q: %w", namespace, err)
		}
	}

	return m, nil
}

// ObserveCall records one finished call. A negative code is recorded as
// FaultCode. A nil Collector records nothing.
func (m *Collector) ObserveCall(method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}

	label := FaultCode
	if code >= 0 {
		label = strconv.Itoa(code)
	}

	m.requestsTotal.WithLabelValues(method, label).Inc()
	m.durationSeconds.WithLabelValues(method).Observe(elapsed.Seconds())
}
