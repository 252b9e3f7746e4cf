package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shenikar/incident_dispatch/internal/channel"
)

var (
	sendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incident_dispatch_send_total",
			Help: "Total notification send calls by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)
	sendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "incident_dispatch_send_duration_seconds",
			Help:    "Duration of a single notification send call.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"channel"},
	)
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incident_dispatch_total",
			Help: "Total dispatches by result: reported, failed, duplicate, empty.",
		},
		[]string{"result"},
	)
	skippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incident_dispatch_skipped_channels_total",
			Help: "Channels skipped because of a configuration error.",
		},
		[]string{"channel"},
	)
)

// sendOutcome - метка исхода одного вызова
func sendOutcome(err error) string {
	switch {
	case err == nil:
		return "sent"
	case channel.IsTransient(err):
		return "transient"
	default:
		return "permanent"
	}
}
