package service_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shenikar/incident_dispatch/internal/broadcast"
	"github.com/shenikar/incident_dispatch/internal/channel"
	"github.com/shenikar/incident_dispatch/internal/dispatcher"
	"github.com/shenikar/incident_dispatch/internal/models"
	"github.com/shenikar/incident_dispatch/internal/service"
	"github.com/shenikar/incident_dispatch/internal/service/mocks"
	"github.com/shenikar/incident_dispatch/internal/subscription"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type memoryAttempts struct {
	mu   sync.Mutex
	rows map[string]models.NotificationAttempt
}

func (m *memoryAttempts) Create(_ context.Context, a *models.NotificationAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[a.ID.String()] = *a
	return nil
}

func (m *memoryAttempts) Update(_ context.Context, a *models.NotificationAttempt) error {
	return m.Create(context.Background(), a)
}

type memoryReporter struct {
	mu    sync.Mutex
	calls []int64
}

func (m *memoryReporter) MarkReported(_ context.Context, id int64, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id)
	return nil
}

type inboxObserver struct {
	id string
	mu sync.Mutex
	in []string
}

func (o *inboxObserver) ID() string { return o.id }
func (o *inboxObserver) Close()     {}
func (o *inboxObserver) Send(p []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.in = append(o.in, string(p))
	return nil
}

func (o *inboxObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.in)
}

// Инцидент категории emergency с уверенностью 0.95 уходит в пожарную службу,
// а наблюдатели камеры и глобальные получают его в реальном времени.
func TestPipeline_EmergencyIncident(t *testing.T) {
	var (
		mu       sync.Mutex
		payloads []channel.WebhookPayload
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p channel.WebhookPayload
		_ = json.Unmarshal(body, &p)
		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	registry := subscription.NewRegistry()
	feedObserver := &inboxObserver{id: "feed-3"}
	globalObserver := &inboxObserver{id: "global"}
	otherObserver := &inboxObserver{id: "feed-7"}
	for o, feed := range map[*inboxObserver]string{feedObserver: "3", globalObserver: subscription.Global, otherObserver: "7"} {
		registry.Connect(o)
		require.NoError(t, registry.Subscribe(o.ID(), feed))
	}
	broadcaster := broadcast.NewBroadcaster(registry, logger)

	attempts := &memoryAttempts{rows: map[string]models.NotificationAttempt{}}
	reporter := &memoryReporter{}
	factory := channel.NewFactory(channel.FactoryOptions{Timeout: time.Second})
	disp := dispatcher.New(dispatcher.Deps{
		Senders:  factory,
		Attempts: attempts,
		Reporter: reporter,
		Alerter:  broadcaster,
		Logger:   logger,
	}, dispatcher.Options{CallTimeout: time.Second, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxRetries: 3})

	settings := models.Settings{
		Notifications: models.NotificationToggles{Webhook: true},
		Webhooks:      models.WebhookSettings{FireDepartmentURL: server.URL, PoliceURL: "http://unused.invalid"},
	}.WithDefaults()

	ctrl := gomock.NewController(t)
	settingsRepo := mocks.NewMockSettingsRepository(ctrl)
	settingsRepo.EXPECT().Get(gomock.Any()).Return(settings, nil).Times(1)

	svc := service.NewIncidentService(service.Deps{
		Settings:    settingsRepo,
		Dispatcher:  disp,
		Broadcaster: broadcaster,
		Senders:     factory,
		Logger:      logger,
	})

	incident := models.Incident{
		ID:                 101,
		Category:           models.CategoryEmergency,
		SubType:            "fire",
		Confidence:         0.95,
		Severity:           models.SeverityCritical,
		Location:           "Main St & 5th Ave",
		DetectionTimestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		FeedID:             3,
	}

	outcome, err := svc.OnIncidentCreated(context.Background(), incident)
	require.NoError(t, err)

	assert.True(t, outcome.Decision.Qualifies)
	assert.Equal(t, []models.Channel{models.ChannelWebhook}, outcome.Decision.Channels)
	require.NotNil(t, outcome.Report)
	assert.True(t, outcome.Report.Reported)
	require.Len(t, outcome.Report.Attempts, 1)
	assert.Equal(t, models.AttemptSent, outcome.Report.Attempts[0].Status)
	assert.Equal(t, server.URL, outcome.Report.Attempts[0].Recipient)

	require.Len(t, payloads, 1)
	assert.Equal(t, int64(101), payloads[0].Incident.ID)
	assert.Equal(t, []int64{101}, reporter.calls)
	assert.Len(t, attempts.rows, 1)

	assert.Equal(t, 2, outcome.Delivered)
	assert.Equal(t, 1, feedObserver.count())
	assert.Equal(t, 1, globalObserver.count())
	assert.Zero(t, otherObserver.count())
}
