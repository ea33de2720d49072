package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"

	"offloadd/internal/memtier"
)

var (
	ensureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "offloadd",
			Subsystem: "scheduler",
			Name:      "ensure_total",
			Help:      "EnsureResident calls by outcome (hit, moved, error)",
		},
		[]string{"result"},
	)

	evictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "offloadd",
			Subsystem: "scheduler",
			Name:      "evictions_total",
			Help:      "Accelerator evictions by reason (group, budget)",
		},
		[]string{"reason"},
	)

	tierUsedBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "offloadd",
			Subsystem: "tier",
			Name:      "used_bytes",
			Help:      "Bytes charged to each memory tier",
		},
		[]string{"tier"},
	)

	tierCapacityBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "offloadd",
			Subsystem: "tier",
			Name:      "capacity_bytes",
			Help:      "Configured capacity of each memory tier (0 = unbounded)",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(ensureTotal, evictionsTotal, tierUsedBytes, tierCapacityBytes)
}

func (s *Scheduler) observeTiers() {
	for _, t := range memtier.Tiers {
		tierUsedBytes.WithLabelValues(string(t)).Set(float64(s.reg.UsedBytes(t)))
		tierCapacityBytes.WithLabelValues(string(t)).Set(float64(max(s.reg.Capacity(t), 0)))
	}
}
