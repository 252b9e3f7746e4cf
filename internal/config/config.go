package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shenikar/incident_dispatch/internal/models"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// API Keys for authentication
	APIKeys []string `env:"API_KEYS"`

	// Ingest Config
	IngestWorkers     int           `env:"INGEST_WORKERS" envDefault:"4"`
	IngestPollTimeout time.Duration `env:"INGEST_POLL_TIMEOUT" envDefault:"5s"`

	// Dispatch Config
	DispatchTimeout  time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"10s"`
	RetryBaseDelay   time.Duration `env:"RETRY_BASE_DELAY" envDefault:"2s"`
	RetryMaxDelay    time.Duration `env:"RETRY_MAX_DELAY" envDefault:"60s"`
	RetryMaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	DispatchClaimTTL time.Duration `env:"DISPATCH_CLAIM_TTL" envDefault:"24h"`

	// Observer Config
	ObserverBuffer int `env:"OBSERVER_BUFFER" envDefault:"64"`

	// Webhook Config
	WebhookSecret           string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout          time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`
	PoliceWebhookURL        string        `env:"POLICE_WEBHOOK_URL"`
	FireDepartmentWebhook   string        `env:"FIRE_DEPARTMENT_WEBHOOK_URL"`
	TrafficAuthorityWebhook string        `env:"TRAFFIC_AUTHORITY_WEBHOOK_URL"`
	MunicipalWebhookURL     string        `env:"MUNICIPAL_WEBHOOK_URL"`

	// Email Config
	SMTPServer      string   `env:"SMTP_SERVER"`
	SMTPPort        int      `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername    string   `env:"SMTP_USERNAME"`
	SMTPPassword    string   `env:"SMTP_PASSWORD"`
	SMTPSecurity    string   `env:"SMTP_SECURITY" envDefault:"starttls"`
	FromEmail       string   `env:"FROM_EMAIL"`
	EmailRecipients []string `env:"EMAIL_RECIPIENTS"`

	// SMS Config
	SMSAPIURL        string   `env:"SMS_API_URL"`
	SMSAPIKey        string   `env:"SMS_API_KEY"`
	SMSContacts      []string `env:"EMERGENCY_SMS_CONTACTS"`
	SMSRatePerSecond float64  `env:"SMS_RATE_PER_SECOND" envDefault:"1"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		HTTPPort:                getEnv("HTTP_PORT", "8080"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "json"),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:               os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 getEnvAsInt("REDIS_DB", 0),
		APIKeys:                 getEnvAsList("API_KEYS"),
		IngestWorkers:           getEnvAsInt("INGEST_WORKERS", 4),
		IngestPollTimeout:       getEnvAsDuration("INGEST_POLL_TIMEOUT", 5*time.Second),
		DispatchTimeout:         getEnvAsDuration("DISPATCH_TIMEOUT", 10*time.Second),
		RetryBaseDelay:          getEnvAsDuration("RETRY_BASE_DELAY", 2*time.Second),
		RetryMaxDelay:           getEnvAsDuration("RETRY_MAX_DELAY", 60*time.Second),
		RetryMaxAttempts:        getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		DispatchClaimTTL:        getEnvAsDuration("DISPATCH_CLAIM_TTL", 24*time.Hour),
		ObserverBuffer:          getEnvAsInt("OBSERVER_BUFFER", 64),
		WebhookSecret:           os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:          getEnvAsDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		PoliceWebhookURL:        os.Getenv("POLICE_WEBHOOK_URL"),
		FireDepartmentWebhook:   os.Getenv("FIRE_DEPARTMENT_WEBHOOK_URL"),
		TrafficAuthorityWebhook: os.Getenv("TRAFFIC_AUTHORITY_WEBHOOK_URL"),
		MunicipalWebhookURL:     os.Getenv("MUNICIPAL_WEBHOOK_URL"),
		SMTPServer:              os.Getenv("SMTP_SERVER"),
		SMTPPort:                getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:            os.Getenv("SMTP_USERNAME"),
		SMTPPassword:            os.Getenv("SMTP_PASSWORD"),
		SMTPSecurity:            getEnv("SMTP_SECURITY", "starttls"),
		FromEmail:               os.Getenv("FROM_EMAIL"),
		EmailRecipients:         getEnvAsList("EMAIL_RECIPIENTS"),
		SMSAPIURL:               os.Getenv("SMS_API_URL"),
		SMSAPIKey:               os.Getenv("SMS_API_KEY"),
		SMSContacts:             getEnvAsList("EMERGENCY_SMS_CONTACTS"),
		SMSRatePerSecond:        getEnvAsFloat("SMS_RATE_PER_SECOND", 1),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.RetryMaxAttempts < 0 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must not be negative")
	}

	return cfg, nil
}

// DefaultSettings - снимок настроек из окружения, действует пока настройки не сохранены в бд
func (c *Config) DefaultSettings() models.Settings {
	return models.Settings{
		Notifications: models.NotificationToggles{
			Email:   c.SMTPServer != "" && len(c.EmailRecipients) > 0,
			Webhook: c.PoliceWebhookURL != "" || c.FireDepartmentWebhook != "" || c.TrafficAuthorityWebhook != "" || c.MunicipalWebhookURL != "",
			SMS:     c.SMSAPIURL != "" && len(c.SMSContacts) > 0,
		},
		Detection: models.DefaultThresholds(),
		Email: models.EmailSettings{
			Host:       c.SMTPServer,
			Port:       c.SMTPPort,
			Username:   c.SMTPUsername,
			Password:   c.SMTPPassword,
			From:       c.FromEmail,
			Security:   c.SMTPSecurity,
			Recipients: c.EmailRecipients,
		},
		Webhooks: models.WebhookSettings{
			PoliceURL:           c.PoliceWebhookURL,
			FireDepartmentURL:   c.FireDepartmentWebhook,
			TrafficAuthorityURL: c.TrafficAuthorityWebhook,
			MunicipalURL:        c.MunicipalWebhookURL,
			Secret:              c.WebhookSecret,
		},
		SMS: models.SMSSettings{
			APIURL:     c.SMSAPIURL,
			APIKey:     c.SMSAPIKey,
			Recipients: c.SMSContacts,
		},
	}
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// getEnvAsList разбирает список через запятую, пустые элементы отбрасываются
func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
