package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bursary_transitions_total",
			Help: "Total number of successful application status transitions",
		},
		[]string{"action", "from", "to"},
	)

	TransitionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bursary_transitions_rejected_total",
			Help: "Total number of lifecycle operations rejected by the engine",
		},
		[]string{"action", "reason"},
	)

	TransitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bursary_transition_duration_seconds",
			Help:    "Duration of lifecycle operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	FundRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bursary_fund_remaining_amount",
			Help: "Unallocated balance per fund",
		},
		[]string{"fund_id"},
	)

	PendingApplications = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bursary_pending_applications",
			Help: "Applications awaiting action per role",
		},
		[]string{"role"},
	)

	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bursary_event_publish_failures_total",
			Help: "Lifecycle events an observer failed to handle",
		},
		[]string{"observer"},
	)
)
