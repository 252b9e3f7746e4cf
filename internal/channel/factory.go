package channel

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shenikar/incident_dispatch/internal/models"
	"golang.org/x/time/rate"
)

// FactoryOptions - параметры транспорта для адаптеров
type FactoryOptions struct {
	Timeout          time.Duration
	SMSRatePerSecond float64
}

// Factory строит адаптеры из одного снимка настроек.
// HTTP-клиент и лимитер SMS общие для всех доставок.
type Factory struct {
	timeout    time.Duration
	httpClient *http.Client
	smsLimiter *rate.Limiter
}

// NewFactory создает фабрику адаптеров
func NewFactory(opts FactoryOptions) *Factory {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var limiter *rate.Limiter
	if opts.SMSRatePerSecond > 0 {
		burst := int(opts.SMSRatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.SMSRatePerSecond), burst)
	}
	return &Factory{
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		smsLimiter: limiter,
	}
}

// Build возвращает адаптер канала или *ConfigurationError
func (f *Factory) Build(ch models.Channel, settings models.Settings) (Sender, error) {
	switch ch {
	case models.ChannelEmail:
		sender, err := NewEmailSender(settings.Email, f.timeout)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case models.ChannelWebhook:
		return NewWebhookSender(f.httpClient, settings.Webhooks), nil
	case models.ChannelSMS:
		sender, err := NewSMSSender(f.httpClient, settings.SMS, f.smsLimiter)
		if err != nil {
			return nil, err
		}
		return sender, nil
	}
	return nil, &ConfigurationError{Channel: ch, Reason: fmt.Sprintf("unknown channel %q", ch)}
}
