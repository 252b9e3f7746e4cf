package broadcast

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shenikar/incident_dispatch/internal/models"
	"github.com/shenikar/incident_dispatch/internal/subscription"
	"github.com/sirupsen/logrus"
)

// Broadcaster рассылает событие всем наблюдателям маршрута, никогда не блокируясь на медленном
type Broadcaster struct {
	registry *subscription.Registry
	logger   *logrus.Logger
}

func NewBroadcaster(registry *subscription.Registry, logger *logrus.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, logger: logger}
}

// Broadcast возвращает число наблюдателей, которым событие поставлено в очередь
func (b *Broadcaster) Broadcast(event Event) int {
	log := b.logger.WithFields(logrus.Fields{
		"service": "broadcaster",
		"method":  "Broadcast",
		"event":   event.Type,
		"feed_id": event.FeedID,
	})

	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("Failed to marshal event")
		return 0
	}

	delivered := 0
	for _, o := range b.registry.Targets(event.routes()...) {
		err := o.Send(payload)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, subscription.ErrBufferFull):
			droppedTotal.WithLabelValues("buffer_full").Inc()
			log.WithField("conn_id", o.ID()).Warn("Observer buffer full, event dropped")
		default:
			droppedTotal.WithLabelValues("closed").Inc()
			log.WithError(err).WithField("conn_id", o.ID()).Info("Observer gone, dropping connection")
			b.registry.DropConnection(o.ID())
		}
	}
	eventsTotal.WithLabelValues(event.Type).Add(float64(delivered))
	log.WithField("delivered", delivered).Debug("Event broadcast")
	return delivered
}

// DispatchFailed рассылает глобальным наблюдателям отчет о проваленной доставке
func (b *Broadcaster) DispatchFailed(_ context.Context, report *models.DispatchReport) {
	b.Broadcast(NewDispatchFailed(report))
}
