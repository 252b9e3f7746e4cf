package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shenikar/incident_dispatch/internal/models"
	"golang.org/x/time/rate"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{6,14}$`)

type smsRequest struct {
	APIKey   string   `json:"api_key"`
	To       []string `json:"to"`
	Message  string   `json:"message"`
	Priority string   `json:"priority"`
}

type smsErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SMSSender отправляет SMS через HTTP API провайдера
type SMSSender struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	limiter    *rate.Limiter
}

// NewSMSSender создает отправителя SMS; limiter может быть nil
func NewSMSSender(client *http.Client, cfg models.SMSSettings, limiter *rate.Limiter) (*SMSSender, error) {
	apiURL := strings.TrimSpace(cfg.APIURL)
	if apiURL == "" || cfg.APIKey == "" {
		return nil, &ConfigurationError{Channel: models.ChannelSMS, Reason: "api url and api key are required"}
	}
	if _, err := validateWebhookURL(apiURL); err != nil {
		return nil, &ConfigurationError{Channel: models.ChannelSMS, Reason: err.Error()}
	}
	return &SMSSender{
		httpClient: client,
		apiURL:     apiURL,
		apiKey:     cfg.APIKey,
		limiter:    limiter,
	}, nil
}

func (s *SMSSender) Channel() models.Channel { return models.ChannelSMS }

// Send отправляет короткое сообщение на номер recipient
func (s *SMSSender) Send(ctx context.Context, recipient string, msg Message) error {
	number := normalizeNumber(recipient)
	if !phonePattern.MatchString(number) {
		return Permanent(models.ChannelSMS, fmt.Sprintf("invalid number %q", recipient), nil)
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return Transient(models.ChannelSMS, "rate limiter wait", err)
		}
	}

	text := msg.Short
	if text == "" {
		text = truncate(msg.Body, smsMaxLength)
	}
	body, err := json.Marshal(smsRequest{
		APIKey:   s.apiKey,
		To:       []string{number},
		Message:  text,
		Priority: "high",
	})
	if err != nil {
		return Permanent(models.ChannelSMS, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return Permanent(models.ChannelSMS, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Transient(models.ChannelSMS, "provider request failed", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return Transient(models.ChannelSMS, "provider rate limit", nil)
	case resp.StatusCode >= 500:
		return Transient(models.ChannelSMS, statusDetail(resp, respBody), nil)
	}

	var providerErr smsErrorResponse
	if json.Unmarshal(respBody, &providerErr) == nil && isInvalidNumber(providerErr) {
		return Permanent(models.ChannelSMS, fmt.Sprintf("provider rejected number %q", number), nil)
	}
	return Permanent(models.ChannelSMS, statusDetail(resp, respBody), nil)
}

// Test отправляет проверочное SMS на target
func (s *SMSSender) Test(ctx context.Context, target string) error {
	now := time.Now()
	return s.Send(ctx, target, Render(TestIncident(now), now))
}

func normalizeNumber(n string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(n))
}

func isInvalidNumber(e smsErrorResponse) bool {
	text := strings.ToLower(e.Error + " " + e.Code + " " + e.Message)
	return strings.Contains(text, "invalid") && strings.Contains(text, "number")
}
