package queue

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report engine activity.
type Metrics struct {
	submitted prometheus.Counter
	finished  *prometheus.CounterVec
	running   prometheus.Gauge
	evicted   prometheus.Counter
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// defaultMetrics returns the package-level metrics instance registered with
// the global Prometheus registry. The collectors are created only once to
// avoid duplicate registration panics when multiple engines are constructed
// in the same process.
func defaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics constructs a Metrics instance using the provided registerer.
// Supply a fresh registry when unique metric names are required (for example
// in tests). Registration errors panic, mirroring promauto semantics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	submitted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ocrflow",
		Subsystem: "queue",
		Name:      "tasks_submitted_total",
		Help:      "Total number of tasks accepted by Submit.",
	})
	finished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ocrflow",
		Subsystem: "queue",
		Name:      "tasks_finished_total",
		Help:      "Total number of tasks that reached a terminal state.",
	}, []string{"status"})
	running := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ocrflow",
		Subsystem: "queue",
		Name:      "tasks_running",
		Help:      "Number of tasks currently executing.",
	})
	evicted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ocrflow",
		Subsystem: "queue",
		Name:      "results_evicted_total",
		Help:      "Total number of expired task results removed by the janitor.",
	})

	for _, c := range []prometheus.Collector{submitted, finished, running, evicted} {
		if err := reg.Register(c); err != nil {
			panic(err)
		}
	}

	return &Metrics{
		submitted: submitted,
		finished:  finished,
		running:   running,
		evicted:   evicted,
	}
}
