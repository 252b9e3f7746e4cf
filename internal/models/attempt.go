package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadySent - для пары (инцидент, канал, получатель) уже есть успешная попытка
var ErrAlreadySent = errors.New("notification already sent")

// Channel - транспорт исходящих уведомлений
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelWebhook Channel = "webhook"
	ChannelSMS     Channel = "sms"
)

// Channels возвращает все каналы в порядке оценки
func Channels() []Channel {
	return []Channel{ChannelEmail, ChannelWebhook, ChannelSMS}
}

// ParseChannel разбирает имя канала
func ParseChannel(s string) (Channel, bool) {
	switch Channel(s) {
	case ChannelEmail, ChannelWebhook, ChannelSMS:
		return Channel(s), true
	}
	return "", false
}

type AttemptStatus string

const (
	AttemptPending AttemptStatus = "pending"
	AttemptSent    AttemptStatus = "sent"
	AttemptFailed  AttemptStatus = "failed"
)

// Terminal сообщает, что статус больше не изменится
func (s AttemptStatus) Terminal() bool {
	return s == AttemptSent || s == AttemptFailed
}

// NotificationAttempt - запись аудита доставки для пары (инцидент, канал, получатель).
// Повторы увеличивают AttemptCount одной и той же записи.
type NotificationAttempt struct {
	ID           uuid.UUID     `json:"id"`
	IncidentID   int64         `json:"incident_id"`
	Channel      Channel       `json:"channel"`
	Recipient    string        `json:"recipient"`
	Status       AttemptStatus `json:"status"`
	AttemptCount int           `json:"attempt_count"`
	LastError    string        `json:"last_error,omitempty"`
	SentAt       *time.Time    `json:"sent_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// SkippedChannel - канал, пропущенный из-за ошибки конфигурации
type SkippedChannel struct {
	Channel Channel `json:"channel"`
	Reason  string  `json:"reason"`
}

// DispatchReport - итог доставки одного инцидента по всем каналам
type DispatchReport struct {
	IncidentID int64                 `json:"incident_id"`
	Duplicate  bool                  `json:"duplicate,omitempty"`
	Attempts   []NotificationAttempt `json:"attempts"`
	Skipped    []SkippedChannel      `json:"skipped,omitempty"`
	Reported   bool                  `json:"reported"`
	ReportedAt *time.Time            `json:"reported_at,omitempty"`
}

// SentCount возвращает число попыток в статусе sent
func (r *DispatchReport) SentCount() int {
	n := 0
	for _, a := range r.Attempts {
		if a.Status == AttemptSent {
			n++
		}
	}
	return n
}

// FullyFailed - доставка запрашивалась, но ни одна попытка не прошла
func (r *DispatchReport) FullyFailed() bool {
	if r.Duplicate {
		return false
	}
	return (len(r.Attempts) > 0 || len(r.Skipped) > 0) && r.SentCount() == 0
}
