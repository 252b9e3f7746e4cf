package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shenikar/incident_dispatch/internal/broadcast"
	"github.com/shenikar/incident_dispatch/internal/channel"
	"github.com/shenikar/incident_dispatch/internal/evaluator"
	"github.com/shenikar/incident_dispatch/internal/models"
	"github.com/shenikar/incident_dispatch/internal/repository"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=incident.go -destination=mocks/mock_service.go -package=mocks

var (
	ErrNotFound        = repository.ErrNotFound
	ErrInvalidSettings = errors.New("invalid settings")
	ErrNoTestTarget    = errors.New("no test target configured")
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Incident, error)
	Acknowledge(ctx context.Context, id int64, at time.Time) (*models.Incident, error)
	GetIncidentFromCache(ctx context.Context, id int64) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
}

// AttemptRepository - чтение журнала доставки
type AttemptRepository interface {
	ListByIncident(ctx context.Context, incidentID int64) ([]models.NotificationAttempt, error)
}

// SettingsRepository - хранилище снимка настроек
type SettingsRepository interface {
	Get(ctx context.Context) (models.Settings, error)
	Update(ctx context.Context, settings models.Settings) error
}

type FeedRepository interface {
	UpdateStatus(ctx context.Context, feedID int64, status models.FeedStatus) error
}

// Dispatcher доставляет уведомления по каналам
type Dispatcher interface {
	Dispatch(ctx context.Context, incident models.Incident, channels []models.Channel, settings models.Settings) (*models.DispatchReport, error)
}

// Broadcaster рассылает живые события наблюдателям
type Broadcaster interface {
	Broadcast(event broadcast.Event) int
}

// SenderFactory строит адаптер канала для тестовой отправки
type SenderFactory interface {
	Build(ch models.Channel, settings models.Settings) (channel.Sender, error)
}

// Publisher кладет инцидент в очередь обработки
type Publisher interface {
	Publish(ctx context.Context, incident models.Incident) error
}

// IncidentService определяет контракт бизнес-логики обработки инцидентов
type IncidentService interface {
	SubmitIncident(ctx context.Context, incident models.Incident) error
	OnIncidentCreated(ctx context.Context, incident models.Incident) (*Outcome, error)
	GetIncident(ctx context.Context, id int64) (*models.Incident, error)
	AcknowledgeIncident(ctx context.Context, id int64) (*models.Incident, error)
	ListAttempts(ctx context.Context, incidentID int64) ([]models.NotificationAttempt, error)
	UpdateFeedStatus(ctx context.Context, feedID int64, status models.FeedStatus) error
	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, settings models.Settings) (models.Settings, error)
	TestChannel(ctx context.Context, ch models.Channel, target string) (string, error)
	Health(ctx context.Context) Health
}

// Outcome - итог обработки нового инцидента
type Outcome struct {
	Decision  evaluator.Decision     `json:"decision"`
	Report    *models.DispatchReport `json:"report,omitempty"`
	Delivered int                    `json:"delivered"`
}

// Deps - зависимости сервиса
type Deps struct {
	Incidents   IncidentRepository
	Attempts    AttemptRepository
	Settings    SettingsRepository
	Feeds       FeedRepository
	Dispatcher  Dispatcher
	Broadcaster Broadcaster
	Senders     SenderFactory
	Publisher   Publisher
	Observers   ObserverCounter
	Checks      map[string]func(ctx context.Context) error
	Logger      *logrus.Logger
}

type incidentService struct {
	incidents   IncidentRepository
	attempts    AttemptRepository
	settings    SettingsRepository
	feeds       FeedRepository
	dispatcher  Dispatcher
	broadcaster Broadcaster
	senders     SenderFactory
	publisher   Publisher
	observers   ObserverCounter
	checks      map[string]func(ctx context.Context) error
	logger      *logrus.Logger
	now         func() time.Time
}

func NewIncidentService(deps Deps) IncidentService {
	return &incidentService{
		incidents:   deps.Incidents,
		attempts:    deps.Attempts,
		settings:    deps.Settings,
		feeds:       deps.Feeds,
		dispatcher:  deps.Dispatcher,
		broadcaster: deps.Broadcaster,
		senders:     deps.Senders,
		publisher:   deps.Publisher,
		observers:   deps.Observers,
		checks:      deps.Checks,
		logger:      deps.Logger,
		now:         time.Now,
	}
}

// SubmitIncident ставит созданный пайплайном инцидент в очередь обработки
func (s *incidentService) SubmitIncident(ctx context.Context, incident models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "SubmitIncident",
		"incident_id": incident.ID,
	})
	if err := s.publisher.Publish(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to enqueue incident")
		return fmt.Errorf("service: could not enqueue incident: %w", err)
	}
	log.Info("Incident enqueued")
	return nil
}

// OnIncidentCreated рассылает инцидент наблюдателям и параллельно решает, уведомлять ли ведомства.
// Рассылка не ждет доставки.
func (s *incidentService) OnIncidentCreated(ctx context.Context, incident models.Incident) (*Outcome, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "OnIncidentCreated",
		"incident_id": incident.ID,
		"category":    incident.Category,
		"feed_id":     incident.FeedID,
	})
	outcome := &Outcome{}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		outcome.Delivered = s.broadcaster.Broadcast(broadcast.NewIncidentDetected(incident))
	}()

	// один снимок настроек на всю доставку
	settings, err := s.settings.Get(ctx)
	if err != nil {
		wg.Wait()
		log.WithError(err).Error("Failed to read settings, notification skipped")
		return outcome, fmt.Errorf("service: could not read settings: %w", err)
	}

	outcome.Decision = evaluator.ShouldNotify(incident, settings)
	if !outcome.Decision.Qualifies {
		wg.Wait()
		log.WithFields(logrus.Fields{
			"confidence": incident.Confidence,
			"threshold":  outcome.Decision.Threshold,
		}).Info("Incident below notification threshold")
		return outcome, nil
	}

	report, err := s.dispatcher.Dispatch(ctx, incident, outcome.Decision.Channels, settings)
	wg.Wait()
	if err != nil {
		log.WithError(err).Error("Failed to dispatch notifications")
		return outcome, fmt.Errorf("service: could not dispatch incident: %w", err)
	}
	outcome.Report = report
	return outcome, nil
}

// GetIncident получает инцидент по ID, сначала из кеша
func (s *incidentService) GetIncident(ctx context.Context, id int64) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})

	cached, err := s.incidents.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read incident cache")
	}
	if cached != nil {
		log.Debug("Incident served from cache")
		return cached, nil
	}

	incident, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to get incident in repository")
		return nil, fmt.Errorf("service: not get incident: %w", err)
	}
	if err := s.incidents.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to cache incident")
	}
	return incident, nil
}

// AcknowledgeIncident отмечает инцидент как просмотренный оператором
func (s *incidentService) AcknowledgeIncident(ctx context.Context, id int64) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "AcknowledgeIncident",
		"incident_id": id,
	})
	incident, err := s.incidents.Acknowledge(ctx, id, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.WithError(err).Warn("Attempted to acknowledge a non-existent incident")
		} else {
			log.WithError(err).Error("Failed to acknowledge incident")
		}
		return incident, fmt.Errorf("service: could not acknowledge incident: %w", err)
	}
	log.Info("Incident acknowledged")
	return incident, nil
}

// ListAttempts возвращает журнал доставки инцидента
func (s *incidentService) ListAttempts(ctx context.Context, incidentID int64) ([]models.NotificationAttempt, error) {
	attempts, err := s.attempts.ListByIncident(ctx, incidentID)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service":     "incident",
			"method":      "ListAttempts",
			"incident_id": incidentID,
		}).WithError(err).Error("Failed to list notification attempts")
		return nil, fmt.Errorf("service: could not list attempts: %w", err)
	}
	return attempts, nil
}

// UpdateFeedStatus сохраняет состояние камеры и рассылает его подписчикам камеры
func (s *incidentService) UpdateFeedStatus(ctx context.Context, feedID int64, status models.FeedStatus) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "UpdateFeedStatus",
		"feed_id": feedID,
		"status":  status,
	})
	if err := s.feeds.UpdateStatus(ctx, feedID, status); err != nil {
		log.WithError(err).Error("Failed to update feed status")
		return fmt.Errorf("service: could not update feed status: %w", err)
	}
	n := s.broadcaster.Broadcast(broadcast.NewFeedStatusChanged(feedID, status))
	log.WithField("delivered", n).Info("Feed status updated")
	return nil
}
