// Package broadcast рассылает живые события подписанным наблюдателям.
package broadcast

import (
	"github.com/shenikar/incident_dispatch/internal/models"
	"github.com/shenikar/incident_dispatch/internal/subscription"
)

const (
	EventIncidentDetected = "incident_detected"
	EventFeedStatus       = "feed_status_update"
	EventDispatchFailed   = "dispatch_failed"
	EventSubscribed       = "subscribed"
	EventUnsubscribed     = "unsubscribed"
	EventError            = "error"
)

// Event - событие для рассылки. FeedID определяет маршрут и в кадр не попадает.
type Event struct {
	Type   string `json:"event"`
	FeedID string `json:"-"`
	Data   any    `json:"data"`
}

// FeedStatusData - полезная нагрузка feed_status_update
type FeedStatusData struct {
	FeedID int64             `json:"feed_id"`
	Status models.FeedStatus `json:"status"`
}

// ControlAck - ответ на управляющее сообщение
type ControlAck struct {
	FeedID        string   `json:"feed_id"`
	Subscriptions []string `json:"subscriptions"`
}

// ControlError - ошибка управляющего сообщения, отправляется только автору
type ControlError struct {
	FeedID  string `json:"feed_id,omitempty"`
	Message string `json:"message"`
}

func NewIncidentDetected(incident models.Incident) Event {
	return Event{Type: EventIncidentDetected, FeedID: subscription.FeedKey(incident.FeedID), Data: incident}
}

func NewFeedStatusChanged(feedID int64, status models.FeedStatus) Event {
	return Event{
		Type:   EventFeedStatus,
		FeedID: subscription.FeedKey(feedID),
		Data:   FeedStatusData{FeedID: feedID, Status: status},
	}
}

func NewDispatchFailed(report *models.DispatchReport) Event {
	return Event{Type: EventDispatchFailed, FeedID: subscription.Global, Data: report}
}

// routes возвращает камеры, подписчики которых получают событие
func (e Event) routes() []string {
	switch e.Type {
	case EventIncidentDetected:
		return []string{e.FeedID, subscription.Global}
	case EventDispatchFailed:
		return []string{subscription.Global}
	default:
		return []string{e.FeedID}
	}
}
