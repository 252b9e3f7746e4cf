package channel

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shenikar/incident_dispatch/internal/models"
)

const (
	webhookSource      = "cctv-ai-monitor"
	webhookVersion     = "1.0.0"
	signatureHeader    = "X-Webhook-Signature"
	maxErrorBodyLength = 512
)

// WebhookPayload - тело POST-запроса к ведомству
type WebhookPayload struct {
	Incident WebhookIncident `json:"incident"`
	Metadata WebhookMetadata `json:"metadata"`
}

type WebhookIncident struct {
	ID          int64            `json:"id"`
	Type        models.Category  `json:"type"`
	SubType     string           `json:"sub_type"`
	Severity    models.Severity  `json:"severity"`
	Confidence  float64          `json:"confidence"`
	Description string           `json:"description,omitempty"`
	Location    string           `json:"location"`
	Latitude    *float64         `json:"latitude,omitempty"`
	Longitude   *float64         `json:"longitude,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
	FeedID      int64            `json:"feed_id"`
	Authority   models.Authority `json:"authority,omitempty"`
	Message     string           `json:"message"`
}

type WebhookMetadata struct {
	Source  string    `json:"source"`
	Version string    `json:"version"`
	SentAt  time.Time `json:"sent_at"`
}

// WebhookSender отправляет инциденты на адрес ведомства
type WebhookSender struct {
	httpClient *http.Client
	secret     string
}

// NewWebhookSender создает отправителя вебхуков
func NewWebhookSender(client *http.Client, cfg models.WebhookSettings) *WebhookSender {
	return &WebhookSender{
		httpClient: client,
		secret:     cfg.Secret,
	}
}

func (s *WebhookSender) Channel() models.Channel { return models.ChannelWebhook }

// Send отправляет POST на recipient (адрес ведомства)
func (s *WebhookSender) Send(ctx context.Context, recipient string, msg Message) error {
	target, err := validateWebhookURL(recipient)
	if err != nil {
		return Permanent(models.ChannelWebhook, "invalid webhook url", err)
	}

	authority, _ := models.AuthorityFor(msg.Incident.Category)
	payload := WebhookPayload{
		Incident: WebhookIncident{
			ID:          msg.Incident.ID,
			Type:        msg.Incident.Category,
			SubType:     msg.Incident.SubType,
			Severity:    msg.Incident.Severity,
			Confidence:  msg.Incident.Confidence,
			Description: msg.Incident.Description,
			Location:    msg.Incident.Location,
			Latitude:    msg.Incident.Latitude,
			Longitude:   msg.Incident.Longitude,
			Timestamp:   msg.Incident.DetectionTimestamp,
			FeedID:      msg.Incident.FeedID,
			Authority:   authority,
			Message:     msg.Body,
		},
		Metadata: WebhookMetadata{
			Source:  webhookSource,
			Version: webhookVersion,
			SentAt:  time.Now().UTC(),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Permanent(models.ChannelWebhook, "marshal payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return Permanent(models.ChannelWebhook, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.secret != "" {
		req.Header.Set(signatureHeader, generateHMACSHA256(body, s.secret))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Transient(models.ChannelWebhook, "request failed", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return Transient(models.ChannelWebhook, statusDetail(resp, respBody), nil)
	default:
		return Permanent(models.ChannelWebhook, statusDetail(resp, respBody), nil)
	}
}

// Test отправляет проверочный инцидент на target
func (s *WebhookSender) Test(ctx context.Context, target string) error {
	now := time.Now()
	return s.Send(ctx, target, Render(TestIncident(now), now))
}

func validateWebhookURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("webhook url must use http or https scheme, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("webhook url must include a host")
	}
	return raw, nil
}

func statusDetail(resp *http.Response, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		trimmed = resp.Status
	}
	return fmt.Sprintf("status %d (%s)", resp.StatusCode, trimmed)
}

// generateHMACSHA256 генерирует HMAC-SHA256 подпись для данных
func generateHMACSHA256(data []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
