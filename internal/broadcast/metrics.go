package broadcast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incident_broadcast_events_total",
			Help: "Events queued to observers by event type.",
		},
		[]string{"event"},
	)
	droppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incident_broadcast_dropped_total",
			Help: "Events not delivered to an observer by reason.",
		},
		[]string{"reason"},
	)
)
