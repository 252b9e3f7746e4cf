package models

import (
	"strings"
)

// Authority - ведомство, которому уходит вебхук
type Authority string

const (
	AuthorityPolice           Authority = "police"
	AuthorityFireDepartment   Authority = "fire_department"
	AuthorityTrafficAuthority Authority = "traffic_authority"
	AuthorityMunicipal        Authority = "municipal"
)

// AuthorityFor возвращает ведомство, отвечающее за категорию
func AuthorityFor(c Category) (Authority, bool) {
	switch c {
	case CategoryTrafficViolation:
		return AuthorityTrafficAuthority, true
	case CategoryCrime:
		return AuthorityPolice, true
	case CategoryCivicIssue:
		return AuthorityMunicipal, true
	case CategoryEmergency:
		return AuthorityFireDepartment, true
	}
	return "", false
}

// DefaultThresholds - пороги уверенности по умолчанию
func DefaultThresholds() map[Category]float64 {
	return map[Category]float64{
		CategoryTrafficViolation: 0.7,
		CategoryCrime:            0.8,
		CategoryCivicIssue:       0.6,
		CategoryEmergency:        0.9,
	}
}

// NotificationToggles - флаги включения каналов
type NotificationToggles struct {
	Email   bool `json:"email"`
	Webhook bool `json:"webhook"`
	SMS     bool `json:"sms"`
}

// Enabled возвращает флаг для канала
func (t NotificationToggles) Enabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return t.Email
	case ChannelWebhook:
		return t.Webhook
	case ChannelSMS:
		return t.SMS
	}
	return false
}

// EmailSettings - параметры SMTP и получатели писем
type EmailSettings struct {
	Host     string `json:"smtp_server"`
	Port     int    `json:"smtp_port"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	From     string `json:"from_email"`
	// Security: none, starttls (по умолчанию) или tls
	Security string `json:"security,omitempty"`
	// Recipients получают письма по всем категориям
	Recipients []string `json:"recipients"`
	// CategoryRecipients дополняют Recipients для конкретной категории
	CategoryRecipients map[Category][]string `json:"category_recipients,omitempty"`
}

// WebhookSettings - адреса ведомств и секрет для подписи
type WebhookSettings struct {
	PoliceURL           string `json:"police_url"`
	FireDepartmentURL   string `json:"fire_department_url"`
	TrafficAuthorityURL string `json:"traffic_authority_url"`
	MunicipalURL        string `json:"municipal_url"`
	Secret              string `json:"secret,omitempty"`
}

// URLFor возвращает адрес вебхука ведомства
func (w WebhookSettings) URLFor(a Authority) string {
	switch a {
	case AuthorityPolice:
		return strings.TrimSpace(w.PoliceURL)
	case AuthorityFireDepartment:
		return strings.TrimSpace(w.FireDepartmentURL)
	case AuthorityTrafficAuthority:
		return strings.TrimSpace(w.TrafficAuthorityURL)
	case AuthorityMunicipal:
		return strings.TrimSpace(w.MunicipalURL)
	}
	return ""
}

// SMSSettings - параметры SMS-провайдера
type SMSSettings struct {
	APIURL     string   `json:"api_url"`
	APIKey     string   `json:"api_key,omitempty"`
	Recipients []string `json:"recipients"`
}

// Settings - снимок настроек, читаемый один раз на всю доставку.
// Отсутствующее поле означает "канал или получатель недоступен", а не ошибку.
type Settings struct {
	Notifications NotificationToggles  `json:"notifications"`
	Detection     map[Category]float64 `json:"detection"`
	Email         EmailSettings        `json:"email"`
	Webhooks      WebhookSettings      `json:"webhooks"`
	SMS           SMSSettings          `json:"sms"`
}

// Threshold возвращает порог категории; false, если порог не задан
func (s Settings) Threshold(c Category) (float64, bool) {
	t, ok := s.Detection[c]
	return t, ok
}

// RecipientsFor возвращает получателей канала для категории без дубликатов и пустых значений
func (s Settings) RecipientsFor(ch Channel, c Category) []string {
	switch ch {
	case ChannelEmail:
		all := append([]string{}, s.Email.Recipients...)
		all = append(all, s.Email.CategoryRecipients[c]...)
		return uniqueRecipients(all)
	case ChannelWebhook:
		authority, ok := AuthorityFor(c)
		if !ok {
			return nil
		}
		if url := s.Webhooks.URLFor(authority); url != "" {
			return []string{url}
		}
		return nil
	case ChannelSMS:
		return uniqueRecipients(s.SMS.Recipients)
	}
	return nil
}

// WithDefaults заполняет пропущенные пороги значениями по умолчанию
func (s Settings) WithDefaults() Settings {
	detection := DefaultThresholds()
	for c, t := range s.Detection {
		detection[c] = t
	}
	s.Detection = detection
	return s
}

// Redacted возвращает копию без секретов для отдачи наружу
func (s Settings) Redacted() Settings {
	s.Email.Password = ""
	s.Webhooks.Secret = ""
	s.SMS.APIKey = ""
	return s
}

// KeepSecrets переносит секреты из prev, если в s они не заданы
func (s Settings) KeepSecrets(prev Settings) Settings {
	if s.Email.Password == "" {
		s.Email.Password = prev.Email.Password
	}
	if s.Webhooks.Secret == "" {
		s.Webhooks.Secret = prev.Webhooks.Secret
	}
	if s.SMS.APIKey == "" {
		s.SMS.APIKey = prev.SMS.APIKey
	}
	return s
}

func uniqueRecipients(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
