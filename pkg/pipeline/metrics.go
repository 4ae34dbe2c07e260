package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const pushJobName = "health_pipeline"

var (
	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "health_pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"stage"},
	)

	stageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "health_pipeline",
			Name:      "stage_failures_total",
			Help:      "Number of pipeline stage runs that exited unsuccessfully.",
		},
		[]string{"stage"},
	)

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "health_pipeline",
			Name:      "runs_total",
			Help:      "Number of pipeline runs by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(stageDurationSeconds)
	prometheus.MustRegister(stageFailuresTotal)
	prometheus.MustRegister(runsTotal)
}

// pushMetrics sends the run's metrics to a Prometheus Pushgateway.
func pushMetrics(url string) error {
	return push.New(url, pushJobName).
		Collector(stageDurationSeconds).
		Collector(stageFailuresTotal).
		Collector(runsTotal).
		Push()
}
