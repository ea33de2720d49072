package transfer

import "github.com/prometheus/client_golang/prometheus"

var (
	transfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "offloadd",
			Subsystem: "transfer",
			Name:      "moves_total",
			Help:      "Total tier moves by direction and result",
		},
		[]string{"direction", "result"},
	)

	transferDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "offloadd",
			Subsystem: "transfer",
			Name:      "move_duration_seconds",
			Help:      "Duration of tier moves in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"direction"},
	)

	transferBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "offloadd",
			Subsystem: "transfer",
			Name:      "bytes_total",
			Help:      "Bytes copied between tiers",
		},
		[]string{"direction"},
	)
)

func init() {
	prometheus.MustRegister(transfersTotal, transferDuration, transferBytes)
}
