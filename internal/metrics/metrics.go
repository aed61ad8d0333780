package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "library"
	subsystem = "circulation"
)

// Recorder records circulation outcomes. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Observe(operation, outcome string, took time.Duration)
}

// Prometheus is a Recorder backed by a counter and a latency histogram.
type Prometheus struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheus registers the circulation collectors on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operations_total",
			Help:      "Circulation operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operation_duration_seconds",
			Help:      "Latency of circulation operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	for _, c := range []prometheus.Collector{p.requests, p.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) Observe(operation, outcome string, took time.Duration) {
	p.requests.WithLabelValues(operation, outcome).Inc()
	p.duration.WithLabelValues(operation).Observe(took.Seconds())
}

// Nop discards everything.
type Nop struct{}

func (Nop) Observe(string, string, time.Duration) {}
