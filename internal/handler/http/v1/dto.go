package v1

import (
	"time"

	"github.com/shenikar/incident_dispatch/internal/models"
)

// CreateIncidentRequest DTO инцидента, созданного пайплайном детекции
// @Description DTO инцидента, созданного пайплайном детекции
type CreateIncidentRequest struct {
	ID                 int64     `json:"id" validate:"required,gt=0"`
	Category           string    `json:"category" validate:"required,oneof=traffic_violation crime civic_issue emergency"`
	SubType            string    `json:"sub_type" validate:"max=100"`
	Confidence         *float64  `json:"confidence" validate:"required,gte=0,lte=1"`
	Severity           string    `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Description        string    `json:"description,omitempty"`
	Location           string    `json:"location" validate:"max=200"`
	Latitude           *float64  `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude          *float64  `json:"longitude,omitempty" validate:"omitempty,longitude"`
	VideoSnapshotPath  string    `json:"video_snapshot_path,omitempty"`
	ThumbnailPath      string    `json:"thumbnail_path,omitempty"`
	DetectionTimestamp time.Time `json:"detection_timestamp"`
	FeedID             int64     `json:"feed_id" validate:"required,gt=0"`
}

// FeedStatusRequest DTO смены состояния камеры
// @Description DTO смены состояния камеры
type FeedStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=online offline error"`
}

// TestChannelRequest DTO тестовой отправки; пустой target - первый настроенный получатель
type TestChannelRequest struct {
	Target string `json:"target" validate:"max=500"`
}

// TestChannelResponse DTO результата тестовой отправки
type TestChannelResponse struct {
	Channel models.Channel `json:"channel"`
	Target  string         `json:"target"`
	Status  string         `json:"status"`
	Error   string         `json:"error,omitempty"`
}

// SettingsRequest DTO полного снимка настроек
// @Description DTO полного снимка настроек. Пустые секреты не меняют сохраненные.
type SettingsRequest struct {
	Notifications models.NotificationToggles `json:"notifications"`
	Detection     map[string]float64         `json:"detection" validate:"omitempty,dive,keys,oneof=traffic_violation crime civic_issue emergency,endkeys,gte=0,lte=1"`
	Email         EmailSettingsRequest       `json:"email"`
	Webhooks      WebhookSettingsRequest     `json:"webhooks"`
	SMS           SMSSettingsRequest         `json:"sms"`
}

type EmailSettingsRequest struct {
	Host               string              `json:"smtp_server" validate:"omitempty,hostname|ip"`
	Port               int                 `json:"smtp_port" validate:"omitempty,min=1,max=65535"`
	Username           string              `json:"username"`
	Password           string              `json:"password"`
	From               string              `json:"from_email" validate:"omitempty,email"`
	Security           string              `json:"security" validate:"omitempty,oneof=none starttls tls"`
	Recipients         []string            `json:"recipients" validate:"omitempty,dive,email"`
	CategoryRecipients map[string][]string `json:"category_recipients" validate:"omitempty,dive,keys,oneof=traffic_violation crime civic_issue emergency,endkeys,dive,email"`
}

type WebhookSettingsRequest struct {
	PoliceURL           string `json:"police_url" validate:"omitempty,http_url"`
	FireDepartmentURL   string `json:"fire_department_url" validate:"omitempty,http_url"`
	TrafficAuthorityURL string `json:"traffic_authority_url" validate:"omitempty,http_url"`
	MunicipalURL        string `json:"municipal_url" validate:"omitempty,http_url"`
	Secret              string `json:"secret"`
}

type SMSSettingsRequest struct {
	APIURL     string   `json:"api_url" validate:"omitempty,http_url"`
	APIKey     string   `json:"api_key"`
	Recipients []string `json:"recipients" validate:"omitempty,dive,min=7,max=16"`
}
