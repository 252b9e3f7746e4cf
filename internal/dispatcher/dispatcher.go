// Package dispatcher доставляет уведомление об инциденте по всем разрешенным каналам:
// параллельные попытки, повторы с экспоненциальной задержкой, аудит и отметка "reported".
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_dispatch/internal/channel"
	"github.com/shenikar/incident_dispatch/internal/models"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=dispatcher.go -destination=mocks/mock_dispatcher.go -package=mocks

// AttemptStore - журнал попыток доставки (только добавление и обновление).
// Create возвращает models.ErrAlreadySent, если пара уже доставлена.
type AttemptStore interface {
	Create(ctx context.Context, attempt *models.NotificationAttempt) error
	Update(ctx context.Context, attempt *models.NotificationAttempt) error
}

// Reporter записывает признак передачи инцидента ведомствам
type Reporter interface {
	MarkReported(ctx context.Context, incidentID int64, reportedAt time.Time) error
}

// SenderFactory строит адаптер канала из снимка настроек
type SenderFactory interface {
	Build(ch models.Channel, settings models.Settings) (channel.Sender, error)
}

// Alerter получает сигнал о полностью проваленной доставке
type Alerter interface {
	DispatchFailed(ctx context.Context, report *models.DispatchReport)
}

// Options - параметры повторов и таймаутов
type Options struct {
	CallTimeout time.Duration
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxRetries  int
}

// DefaultOptions: таймаут 10s, задержка 2s..60s, до 3 повторов
func DefaultOptions() Options {
	return Options{
		CallTimeout: 10 * time.Second,
		BaseDelay:   2 * time.Second,
		MaxDelay:    60 * time.Second,
		MaxRetries:  3,
	}
}

// Deps - зависимости диспетчера
type Deps struct {
	Senders  SenderFactory
	Attempts AttemptStore
	Reporter Reporter
	Claims   ClaimStore
	Alerter  Alerter
	Logger   *logrus.Logger
}

// Dispatcher - оркестратор доставки. Общего блокирования между инцидентами нет.
type Dispatcher struct {
	senders  SenderFactory
	attempts AttemptStore
	reporter Reporter
	claims   ClaimStore
	alerter  Alerter
	logger   *logrus.Logger
	opts     Options
	now      func() time.Time

	configWarned sync.Map
}

// New создает диспетчер
func New(deps Deps, opts Options) *Dispatcher {
	defaults := DefaultOptions()
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaults.CallTimeout
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaults.BaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = defaults.MaxDelay
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	claims := deps.Claims
	if claims == nil {
		claims = NewMemoryClaims()
	}
	return &Dispatcher{
		senders:  deps.Senders,
		attempts: deps.Attempts,
		reporter: deps.Reporter,
		claims:   claims,
		alerter:  deps.Alerter,
		logger:   deps.Logger,
		opts:     opts,
		now:      time.Now,
	}
}

type job struct {
	sender  channel.Sender
	attempt *models.NotificationAttempt
}

// Dispatch доставляет инцидент по каналам channels, используя один снимок settings.
// Повторный вызов для инцидента, доставка которого идет или уже удалась, ничего не делает.
func (d *Dispatcher) Dispatch(ctx context.Context, incident models.Incident, channels []models.Channel, settings models.Settings) (*models.DispatchReport, error) {
	log := d.logger.WithFields(logrus.Fields{
		"service":     "dispatcher",
		"method":      "Dispatch",
		"incident_id": incident.ID,
	})
	report := &models.DispatchReport{IncidentID: incident.ID, Attempts: []models.NotificationAttempt{}}

	claimed, err := d.claims.Claim(ctx, incident.ID)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: could not claim incident %d: %w", incident.ID, err)
	}
	if !claimed {
		log.Info("Dispatch already in flight or delivered, skipping duplicate")
		report.Duplicate = true
		dispatchTotal.WithLabelValues("duplicate").Inc()
		return report, nil
	}

	msg := channel.Render(incident, d.now())
	jobs := d.plan(incident, uniqueChannels(channels), settings, report)

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			d.deliver(ctx, j.sender, j.attempt, msg)
		}(j)
	}
	wg.Wait()

	for _, j := range jobs {
		report.Attempts = append(report.Attempts, *j.attempt)
	}

	// итог фиксируется и после отмены ctx: отправленное уже ушло ведомствам
	settleCtx := context.WithoutCancel(ctx)
	if report.SentCount() > 0 {
		reportedAt := d.now()
		if err := d.reporter.MarkReported(settleCtx, incident.ID, reportedAt); err != nil {
			log.WithError(err).Error("Failed to mark incident as reported")
		} else {
			report.Reported = true
			report.ReportedAt = &reportedAt
		}
		log.WithFields(logrus.Fields{
			"sent":     report.SentCount(),
			"attempts": len(report.Attempts),
		}).Info("Incident dispatched")
		dispatchTotal.WithLabelValues("reported").Inc()
		return report, nil
	}

	if err := d.claims.Release(settleCtx, incident.ID); err != nil {
		log.WithError(err).Warn("Failed to release dispatch claim")
	}
	if !report.FullyFailed() {
		dispatchTotal.WithLabelValues("empty").Inc()
		return report, nil
	}
	dispatchTotal.WithLabelValues("failed").Inc()
	log.WithFields(logrus.Fields{
		"alert":    "dispatch_failed",
		"attempts": len(report.Attempts),
		"skipped":  len(report.Skipped),
	}).Error("Notification dispatch failed on every channel")
	if d.alerter != nil {
		d.alerter.DispatchFailed(settleCtx, report)
	}
	return report, nil
}

// plan создает по одной попытке на каждого получателя каждого канала
func (d *Dispatcher) plan(incident models.Incident, channels []models.Channel, settings models.Settings, report *models.DispatchReport) []job {
	now := d.now()
	jobs := make([]job, 0, len(channels))
	for _, ch := range channels {
		sender, err := d.senders.Build(ch, settings)
		if err != nil {
			d.warnConfiguration(ch, err)
			skippedTotal.WithLabelValues(string(ch)).Inc()
			report.Skipped = append(report.Skipped, models.SkippedChannel{Channel: ch, Reason: err.Error()})
			continue
		}
		for _, recipient := range settings.RecipientsFor(ch, incident.Category) {
			jobs = append(jobs, job{
				sender: sender,
				attempt: &models.NotificationAttempt{
					ID:         uuid.New(),
					IncidentID: incident.ID,
					Channel:    ch,
					Recipient:  recipient,
					Status:     models.AttemptPending,
					CreatedAt:  now,
					UpdatedAt:  now,
				},
			})
		}
	}
	return jobs
}

// deliver ведет одну попытку до финального статуса
func (d *Dispatcher) deliver(ctx context.Context, sender channel.Sender, attempt *models.NotificationAttempt, msg channel.Message) {
	log := d.logger.WithFields(logrus.Fields{
		"service":     "dispatcher",
		"incident_id": attempt.IncidentID,
		"channel":     attempt.Channel,
		"recipient":   attempt.Recipient,
	})
	if err := d.attempts.Create(ctx, attempt); err != nil {
		if errors.Is(err, models.ErrAlreadySent) {
			// пара уже доставлена прежней диспетчеризацией, повторно не шлем
			attempt.Status = models.AttemptSent
			log.Info("Recipient already notified, skipping")
			return
		}
		log.WithError(err).Warn("Failed to record notification attempt")
	}

	for {
		attempt.AttemptCount++
		err := d.send(ctx, sender, attempt.Recipient, msg)
		if err == nil {
			sentAt := d.now()
			attempt.Status = models.AttemptSent
			attempt.SentAt = &sentAt
			attempt.LastError = ""
			d.save(ctx, log, attempt)
			log.WithField("attempt_count", attempt.AttemptCount).Info("Notification sent")
			return
		}

		attempt.LastError = err.Error()
		if !channel.IsTransient(err) {
			attempt.Status = models.AttemptFailed
			d.save(ctx, log, attempt)
			log.WithError(err).Warn("Notification failed permanently")
			return
		}
		if attempt.AttemptCount > d.opts.MaxRetries {
			attempt.Status = models.AttemptFailed
			d.save(ctx, log, attempt)
			log.WithError(err).WithField("attempt_count", attempt.AttemptCount).Warn("Notification retries exhausted")
			return
		}

		delay := Backoff(attempt.AttemptCount, d.opts.BaseDelay, d.opts.MaxDelay)
		d.save(ctx, log, attempt)
		log.WithError(err).Warnf("Transient delivery error. Retrying in %v. Retries left: %d", delay, d.opts.MaxRetries-attempt.AttemptCount+1)
		if err := sleep(ctx, delay); err != nil {
			attempt.Status = models.AttemptFailed
			attempt.LastError = fmt.Sprintf("retry aborted: %v", err)
			d.save(context.WithoutCancel(ctx), log, attempt)
			log.WithError(err).Warn("Notification retry aborted")
			return
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, sender channel.Sender, recipient string, msg channel.Message) error {
	callCtx, cancel := context.WithTimeout(ctx, d.opts.CallTimeout)
	defer cancel()

	start := time.Now()
	err := sender.Send(callCtx, recipient, msg)
	if err != nil {
		err = channel.Classify(sender.Channel(), err)
	}
	label := string(sender.Channel())
	sendDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	sendTotal.WithLabelValues(label, sendOutcome(err)).Inc()
	return err
}

func (d *Dispatcher) save(ctx context.Context, log *logrus.Entry, attempt *models.NotificationAttempt) {
	attempt.UpdatedAt = d.now()
	if err := d.attempts.Update(ctx, attempt); err != nil {
		log.WithError(err).Warn("Failed to update notification attempt")
	}
}

// warnConfiguration пишет ошибку конфигурации один раз на канал и причину
func (d *Dispatcher) warnConfiguration(ch models.Channel, err error) {
	key := string(ch) + "|" + err.Error()
	log := d.logger.WithFields(logrus.Fields{"service": "dispatcher", "channel": ch})
	if _, seen := d.configWarned.LoadOrStore(key, struct{}{}); seen {
		log.WithError(err).Debug("Channel skipped: configuration error")
		return
	}
	log.WithError(err).Warn("Channel skipped: configuration error")
}

func uniqueChannels(channels []models.Channel) []models.Channel {
	seen := make(map[models.Channel]struct{}, len(channels))
	out := make([]models.Channel, 0, len(channels))
	for _, ch := range channels {
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out
}
