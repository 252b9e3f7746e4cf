package v1

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/incident_dispatch/internal/channel"
	"github.com/shenikar/incident_dispatch/internal/config"
	"github.com/shenikar/incident_dispatch/internal/models"
	"github.com/shenikar/incident_dispatch/internal/service"
	"github.com/shenikar/incident_dispatch/internal/service/mocks"
	"github.com/shenikar/incident_dispatch/internal/subscription"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var authHeader = map[string]string{"X-API-Key": "test-api-key"}

// newTestHandler создает новый экземпляр Handler с мокированным сервисом
func newTestHandler(t *testing.T) (*Handler, *mocks.MockIncidentService, *gin.Engine) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockIncidentService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		APIKeys:        []string{"test-api-key"},
		ObserverBuffer: 16,
	}

	handler := NewHandler(mockService, subscription.NewRegistry(), logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	handler.RegisterWebsocket(router)

	return handler, mockService, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) io.Reader {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func floatPtr(f float64) *float64 { return &f }

func TestSubmitIncident_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	reqBody := CreateIncidentRequest{
		ID:         77,
		Category:   "emergency",
		SubType:    "fire",
		Confidence: floatPtr(0.95),
		Severity:   "critical",
		Location:   "Main St",
		FeedID:     3,
	}

	mockService.EXPECT().
		SubmitIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, inc models.Incident) error {
			assert.Equal(t, int64(77), inc.ID)
			assert.Equal(t, models.CategoryEmergency, inc.Category)
			assert.Equal(t, 0.95, inc.Confidence)
			assert.False(t, inc.DetectionTimestamp.IsZero())
			return nil
		}).Times(1)

	w := makeRequest(router, "POST", "/api/v1/incidents", jsonBody(t, reqBody), authHeader)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"incident_id":77`)
}

func TestSubmitIncident_ZeroConfidenceIsValid(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	mockService.EXPECT().SubmitIncident(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	body := `{"id":1,"category":"crime","confidence":0,"feed_id":2}`
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(body), authHeader)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestSubmitIncident_InvalidJSON(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().SubmitIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(`{"id": 1`), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestSubmitIncident_ValidationError(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	mockService.EXPECT().SubmitIncident(gomock.Any(), gomock.Any()).Times(0)

	cases := map[string]string{
		"unknown category":   `{"id":1,"category":"weather","confidence":0.9,"feed_id":2}`,
		"confidence range":   `{"id":1,"category":"crime","confidence":1.2,"feed_id":2}`,
		"missing feed":       `{"id":1,"category":"crime","confidence":0.9}`,
		"missing confidence": `{"id":1,"category":"crime","feed_id":2}`,
	}
	for name, body := range cases {
		w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(body), authHeader)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestSubmitIncident_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	mockService.EXPECT().SubmitIncident(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	body := `{"id":1,"category":"crime","confidence":0.9,"feed_id":2}`
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(body), authHeader)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetIncident(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	mockService.EXPECT().GetIncident(gomock.Any(), int64(5)).Return(&models.Incident{ID: 5, Category: models.CategoryCrime}, nil)
	mockService.EXPECT().GetIncident(gomock.Any(), int64(6)).Return(nil, fmt.Errorf("service: %w", service.ErrNotFound))
	mockService.EXPECT().GetIncident(gomock.Any(), int64(7)).Return(nil, errors.New("db down"))

	w := makeRequest(router, "GET", "/api/v1/incidents/5", nil, authHeader)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Incident
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(5), got.ID)

	assert.Equal(t, http.StatusNotFound, makeRequest(router, "GET", "/api/v1/incidents/6", nil, authHeader).Code)
	assert.Equal(t, http.StatusInternalServerError, makeRequest(router, "GET", "/api/v1/incidents/7", nil, authHeader).Code)
	assert.Equal(t, http.StatusBadRequest, makeRequest(router, "GET", "/api/v1/incidents/abc", nil, authHeader).Code)
}

func TestAcknowledgeIncident(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	mockService.EXPECT().AcknowledgeIncident(gomock.Any(), int64(5)).Return(&models.Incident{ID: 5, Acknowledged: true}, nil)

	w := makeRequest(router, "POST", "/api/v1/incidents/5/acknowledge", nil, authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"acknowledged":true`)
}

func TestListAttempts(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	mockService.EXPECT().ListAttempts(gomock.Any(), int64(5)).Return([]models.NotificationAttempt{
		{IncidentID: 5, Channel: models.ChannelWebhook, Status: models.AttemptSent, AttemptCount: 1},
	}, nil)

	w := makeRequest(router, "GET", "/api/v1/incidents/5/attempts", nil, authHeader)

	require.Equal(t, http.StatusOK, w.Code)
	var got []models.NotificationAttempt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}

func TestUpdateFeedStatus(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	mockService.EXPECT().UpdateFeedStatus(gomock.Any(), int64(42), models.FeedStatusOffline).Return(nil)
	mockService.EXPECT().UpdateFeedStatus(gomock.Any(), int64(43), models.FeedStatusOnline).Return(service.ErrNotFound)

	w := makeRequest(router, "POST", "/api/v1/feeds/42/status", bytes.NewBufferString(`{"status":"offline"}`), authHeader)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = makeRequest(router, "POST", "/api/v1/feeds/43/status", bytes.NewBufferString(`{"status":"online"}`), authHeader)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = makeRequest(router, "POST", "/api/v1/feeds/42/status", bytes.NewBufferString(`{"status":"rebooting"}`), authHeader)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSettings_Redacted(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	mockService.EXPECT().GetSettings(gomock.Any()).Return(models.Settings{
		Email: models.EmailSettings{Host: "smtp.city.gov", Password: "smtp-pass"},
		SMS:   models.SMSSettings{APIKey: "sms-key"},
	}, nil)

	w := makeRequest(router, "GET", "/api/v1/settings", nil, authHeader)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "smtp.city.gov")
	assert.NotContains(t, w.Body.String(), "smtp-pass")
	assert.NotContains(t, w.Body.String(), "sms-key")
}

func TestUpdateSettings(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	body := `{
		"notifications": {"webhook": true},
		"detection": {"emergency": 0.85},
		"webhooks": {"fire_department_url": "https://fire.example/hook"}
	}`
	mockService.EXPECT().UpdateSettings(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, s models.Settings) (models.Settings, error) {
		assert.Equal(t, 0.85, s.Detection[models.CategoryEmergency])
		assert.Equal(t, "https://fire.example/hook", s.Webhooks.FireDepartmentURL)
		return s, nil
	})

	w := makeRequest(router, "PUT", "/api/v1/settings", bytes.NewBufferString(body), authHeader)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateSettings_ValidationError(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	mockService.EXPECT().UpdateSettings(gomock.Any(), gomock.Any()).Times(0)

	for _, body := range []string{
		`{"detection": {"emergency": 1.5}}`,
		`{"detection": {"weather": 0.5}}`,
		`{"email": {"recipients": ["not-an-email"]}}`,
		`{"webhooks": {"police_url": "ftp://police"}}`,
	} {
		w := makeRequest(router, "PUT", "/api/v1/settings", bytes.NewBufferString(body), authHeader)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestTestChannel(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	mockService.EXPECT().TestChannel(gomock.Any(), models.ChannelSMS, "").Return("+15550001", nil)
	mockService.EXPECT().TestChannel(gomock.Any(), models.ChannelEmail, "qa@city.gov").
		Return("qa@city.gov", &channel.ConfigurationError{Channel: models.ChannelEmail, Reason: "smtp server is missing"})
	mockService.EXPECT().TestChannel(gomock.Any(), models.ChannelWebhook, "https://x.example").
		Return("https://x.example", channel.Transient(models.ChannelWebhook, "status 503", nil))

	w := makeRequest(router, "POST", "/api/v1/settings/test/sms", nil, authHeader)
	require.Equal(t, http.StatusOK, w.Code)
	var resp TestChannelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "+15550001", resp.Target)
	assert.Equal(t, "sent", resp.Status)

	w = makeRequest(router, "POST", "/api/v1/settings/test/email", bytes.NewBufferString(`{"target":"qa@city.gov"}`), authHeader)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = makeRequest(router, "POST", "/api/v1/settings/test/webhook", bytes.NewBufferString(`{"target":"https://x.example"}`), authHeader)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = makeRequest(router, "POST", "/api/v1/settings/test/pager", nil, authHeader)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	mockService.EXPECT().Health(gomock.Any()).Return(service.Health{Status: "healthy"})
	mockService.EXPECT().Health(gomock.Any()).Return(service.Health{Status: "degraded"})

	// без ключа
	assert.Equal(t, http.StatusOK, makeRequest(router, "GET", "/api/v1/system/health", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, makeRequest(router, "GET", "/api/v1/system/health", nil).Code)
}

func TestAPIKeyAuthMiddleware_Success(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	router := gin.New()
	router.Use(APIKeyAuthMiddleware([]string{"test-api-key"}, logger))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, makeRequest(router, "GET", "/test", nil, authHeader).Code)
	assert.Equal(t, http.StatusOK, makeRequest(router, "GET", "/test", nil, map[string]string{"Authorization": "Bearer test-api-key"}).Code)
	assert.Equal(t, http.StatusOK, makeRequest(router, "GET", "/test?api_key=test-api-key", nil).Code)
}

func TestAPIKeyAuthMiddleware_MissingKey(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	router := gin.New()
	router.Use(APIKeyAuthMiddleware([]string{"test-api-key"}, logger))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := makeRequest(router, "GET", "/test", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "API key required")
}

func TestAPIKeyAuthMiddleware_InvalidKey(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	router := gin.New()
	router.Use(APIKeyAuthMiddleware([]string{"test-api-key"}, logger))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := makeRequest(router, "GET", "/test", nil, map[string]string{"X-API-Key": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}

func TestProtectedRoutesRequireKey(t *testing.T) {
	_, _, router := newTestHandler(t)

	assert.Equal(t, http.StatusUnauthorized, makeRequest(router, "GET", "/api/v1/settings", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, makeRequest(router, "GET", "/ws", nil).Code)
}
