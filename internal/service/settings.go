package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shenikar/incident_dispatch/internal/models"
	"github.com/sirupsen/logrus"
)

// ObserverCounter - число живых наблюдателей
type ObserverCounter interface {
	Len() int
}

// Health - состояние зависимостей и готовность каналов
type Health struct {
	Status        string                  `json:"status"`
	Components    map[string]string       `json:"components"`
	Notifications map[models.Channel]bool `json:"notifications"`
	Observers     int                     `json:"observers"`
}

// GetSettings возвращает текущий снимок настроек
func (s *incidentService) GetSettings(ctx context.Context) (models.Settings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"service": "settings", "method": "GetSettings"}).
			WithError(err).Error("Failed to read settings")
		return models.Settings{}, fmt.Errorf("service: could not read settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings сохраняет снимок целиком. Пустые секреты означают "не менять".
func (s *incidentService) UpdateSettings(ctx context.Context, settings models.Settings) (models.Settings, error) {
	log := s.logger.WithFields(logrus.Fields{"service": "settings", "method": "UpdateSettings"})
	if err := validateSettings(settings); err != nil {
		return models.Settings{}, err
	}

	current, err := s.settings.Get(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to read settings")
		return models.Settings{}, fmt.Errorf("service: could not read settings: %w", err)
	}
	updated := settings.KeepSecrets(current).WithDefaults()
	if err := s.settings.Update(ctx, updated); err != nil {
		log.WithError(err).Error("Failed to update settings")
		return models.Settings{}, fmt.Errorf("service: could not update settings: %w", err)
	}
	log.Info("Settings updated")
	return updated, nil
}

func validateSettings(settings models.Settings) error {
	for c, t := range settings.Detection {
		if !c.Valid() {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidSettings, c)
		}
		if math.IsNaN(t) || t < 0 || t > 1 {
			return fmt.Errorf("%w: threshold for %s must be within [0, 1]", ErrInvalidSettings, c)
		}
	}
	if p := settings.Email.Port; p < 0 || p > 65535 {
		return fmt.Errorf("%w: smtp port %d", ErrInvalidSettings, p)
	}
	return nil
}

// TestChannel отправляет тестовое уведомление синхронно, без записей в журнал.
// Пустой target означает первого настроенного получателя канала. Возвращает фактический адрес.
func (s *incidentService) TestChannel(ctx context.Context, ch models.Channel, target string) (string, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "settings",
		"method":  "TestChannel",
		"channel": ch,
	})
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("service: could not read settings: %w", err)
	}

	if target == "" {
		recipients := settings.RecipientsFor(ch, models.CategoryEmergency)
		if len(recipients) == 0 {
			return "", fmt.Errorf("%w for %s", ErrNoTestTarget, ch)
		}
		target = recipients[0]
	}

	sender, err := s.senders.Build(ch, settings)
	if err != nil {
		log.WithError(err).Warn("Test notification rejected: channel not configured")
		return target, err
	}
	if err := sender.Test(ctx, target); err != nil {
		log.WithError(err).WithField("target", target).Warn("Test notification failed")
		return target, err
	}
	log.WithField("target", target).Info("Test notification sent")
	return target, nil
}

// Health проверяет зависимости и готовность каналов
func (s *incidentService) Health(ctx context.Context) Health {
	h := Health{
		Status:        "healthy",
		Components:    make(map[string]string, len(s.checks)),
		Notifications: make(map[models.Channel]bool, 3),
	}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			h.Components[name] = "unavailable: " + err.Error()
			h.Status = "degraded"
			continue
		}
		h.Components[name] = "ok"
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		h.Components["settings"] = "unavailable: " + err.Error()
		h.Status = "degraded"
	}
	for _, ch := range models.Channels() {
		ready := false
		if err == nil && settings.Notifications.Enabled(ch) && hasRecipients(settings, ch) {
			_, buildErr := s.senders.Build(ch, settings)
			ready = buildErr == nil
		}
		h.Notifications[ch] = ready
	}
	if s.observers != nil {
		h.Observers = s.observers.Len()
	}
	return h
}

func hasRecipients(settings models.Settings, ch models.Channel) bool {
	for _, c := range models.Categories() {
		if len(settings.RecipientsFor(ch, c)) > 0 {
			return true
		}
	}
	return false
}

// IsClientError - ошибка вызвана запросом, а не состоянием сервиса
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidSettings) || errors.Is(err, ErrNoTestTarget)
}
