package prometheus

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slok/packrun/internal/metrics"
)

const namespace = "packrun"

// Recorder is a Prometheus metrics recorder.
type Recorder struct {
	provisionTotal    *prometheus.CounterVec
	provisionDuration *prometheus.HistogramVec
	executionTotal    *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
}

var _ metrics.Recorder = &Recorder{}

// NewRecorder creates and registers the packrun metrics.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		provisionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "environment",
			Name:      "provision_total",
			Help:      "Total pack environment builds.",
		}, []string{"pack", "success"}),
		provisionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "environment",
			Name:      "provision_duration_seconds",
			Help:      "Duration of the pack environment builds.",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"pack", "success"}),
		executionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "action",
			Name:      "execution_total",
			Help:      "Total action executions.",
		}, []string{"pack", "sandbox", "status"}),
		executionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "action",
			Name:      "execution_duration_seconds",
			Help:      "Duration of the action executions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pack", "sandbox", "status"}),
	}

	reg.MustRegister(
		r.provisionTotal,
		r.provisionDuration,
		r.executionTotal,
		r.executionDuration,
	)

	return r
}

func (r *Recorder) ObserveProvision(_ context.Context, pack string, success bool, duration time.Duration) {
	s := strconv.FormatBool(success)
	r.provisionTotal.WithLabelValues(pack, s).Inc()
	r.provisionDuration.WithLabelValues(pack, s).Observe(duration.Seconds())
}

func (r *Recorder) ObserveExecution(_ context.Context, pack string, sandbox bool, status string, duration time.Duration) {
	sb := strconv.FormatBool(sandbox)
	r.executionTotal.WithLabelValues(pack, sb, status).Inc()
	r.executionDuration.WithLabelValues(pack, sb, status).Observe(duration.Seconds())
}
