// Package evaluator решает, нужно ли уведомлять об инциденте и по каким каналам.
// Функции пакета чистые: без ввода-вывода и побочных эффектов.
package evaluator

import (
	"math"

	"github.com/shenikar/incident_dispatch/internal/models"
)

// Decision - результат оценки инцидента
type Decision struct {
	Qualifies bool             `json:"qualifies"`
	Threshold float64          `json:"threshold"`
	Channels  []models.Channel `json:"channels"`
}

// ShouldNotify сравнивает уверенность с порогом категории и выбирает включенные каналы,
// у которых есть хотя бы один получатель. Неизвестная категория не уведомляется.
func ShouldNotify(incident models.Incident, settings models.Settings) Decision {
	threshold, ok := settings.Threshold(incident.Category)
	if !ok || !incident.Category.Valid() {
		return Decision{}
	}

	decision := Decision{Threshold: threshold}
	if !validConfidence(incident.Confidence) || incident.Confidence < threshold {
		return decision
	}
	decision.Qualifies = true
	decision.Channels = EnabledChannels(incident.Category, settings)
	return decision
}

// EnabledChannels возвращает каналы, включенные в настройках и имеющие получателя для категории
func EnabledChannels(category models.Category, settings models.Settings) []models.Channel {
	channels := make([]models.Channel, 0, 3)
	for _, ch := range models.Channels() {
		if !settings.Notifications.Enabled(ch) {
			continue
		}
		if len(settings.RecipientsFor(ch, category)) == 0 {
			continue
		}
		channels = append(channels, ch)
	}
	return channels
}

func validConfidence(c float64) bool {
	return !math.IsNaN(c) && c >= 0 && c <= 1
}
