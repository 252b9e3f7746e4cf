package models

import (
	"time"
)

// Category - закрытый набор категорий инцидентов
type Category string

const (
	CategoryTrafficViolation Category = "traffic_violation"
	CategoryCrime            Category = "crime"
	CategoryCivicIssue       Category = "civic_issue"
	CategoryEmergency        Category = "emergency"
)

// Categories возвращает все известные категории в фиксированном порядке
func Categories() []Category {
	return []Category{CategoryTrafficViolation, CategoryCrime, CategoryCivicIssue, CategoryEmergency}
}

// Valid сообщает, входит ли категория в закрытый набор
func (c Category) Valid() bool {
	switch c {
	case CategoryTrafficViolation, CategoryCrime, CategoryCivicIssue, CategoryEmergency:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Incident - запись об инциденте, созданная пайплайном детекции.
// Поля до Acknowledged неизменяемы после создания.
type Incident struct {
	ID                 int64     `json:"id"`
	Category           Category  `json:"category"`
	SubType            string    `json:"sub_type"`
	Confidence         float64   `json:"confidence"`
	Severity           Severity  `json:"severity"`
	Description        string    `json:"description,omitempty"`
	Location           string    `json:"location"`
	Latitude           *float64  `json:"latitude,omitempty"`
	Longitude          *float64  `json:"longitude,omitempty"`
	VideoSnapshotPath  string    `json:"video_snapshot_path,omitempty"`
	ThumbnailPath      string    `json:"thumbnail_path,omitempty"`
	DetectionTimestamp time.Time `json:"detection_timestamp"`
	FeedID             int64     `json:"feed_id"`

	Acknowledged          bool       `json:"acknowledged"`
	AcknowledgedAt        *time.Time `json:"acknowledged_at,omitempty"`
	ReportedToAuthorities bool       `json:"reported_to_authorities"`
	ReportedAt            *time.Time `json:"reported_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

// FeedStatus - состояние камеры, транслируемое наблюдателям
type FeedStatus string

const (
	FeedStatusOnline  FeedStatus = "online"
	FeedStatusOffline FeedStatus = "offline"
	FeedStatusError   FeedStatus = "error"
)
