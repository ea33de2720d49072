package pipeline

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "offloadd",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline passes by result.",
		},
		[]string{"result"},
	)
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "offloadd",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage including placement.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
	decodeRegions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "offloadd",
			Subsystem: "pipeline",
			Name:      "decode_regions",
			Help:      "Sub-regions used by the most recent decode.",
		},
	)
)

func init() {
	prometheus.MustRegister(runsTotal, stageDuration, decodeRegions)
}
