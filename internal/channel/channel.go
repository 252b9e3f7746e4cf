// Package channel содержит адаптеры исходящих каналов (email, webhook, SMS)
// и общий контракт отправки.
package channel

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shenikar/incident_dispatch/internal/models"
)

const smsMaxLength = 160

// Sender - единый контракт адаптера канала
type Sender interface {
	Channel() models.Channel
	// Send доставляет сообщение одному получателю. Ошибки имеют тип *DeliveryError.
	Send(ctx context.Context, recipient string, msg Message) error
	// Test отправляет проверочное сообщение вне аудита реальных инцидентов
	Test(ctx context.Context, target string) error
}

// Message - сообщение об инциденте, подготовленное один раз на доставку
type Message struct {
	Subject     string
	Body        string
	Short       string
	Incident    models.Incident
	GeneratedAt time.Time
}

// Render формирует текст уведомления об инциденте
func Render(incident models.Incident, now time.Time) Message {
	category := titleize(string(incident.Category))
	severity := strings.ToUpper(string(incident.Severity))
	if severity == "" {
		severity = strings.ToUpper(string(models.SeverityMedium))
	}
	location := incident.Location
	if location == "" {
		location = "Unknown location"
	}

	lines := []string{
		"CCTV INCIDENT ALERT",
		"",
		fmt.Sprintf("Incident Type: %s", category),
		fmt.Sprintf("Sub Type: %s", titleize(incident.SubType)),
		fmt.Sprintf("Severity: %s", severity),
		fmt.Sprintf("Confidence: %.2f%%", incident.Confidence*100),
		fmt.Sprintf("Location: %s", location),
	}
	if incident.Latitude != nil && incident.Longitude != nil {
		lines = append(lines, fmt.Sprintf("Coordinates: %.6f, %.6f", *incident.Latitude, *incident.Longitude))
	}
	lines = append(lines, fmt.Sprintf("Time: %s", incident.DetectionTimestamp.UTC().Format("2006-01-02 15:04:05")))
	if incident.Description != "" {
		lines = append(lines, "", fmt.Sprintf("Description: %s", incident.Description))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Feed ID: %d", incident.FeedID),
		fmt.Sprintf("Incident ID: %d", incident.ID),
	)
	if incident.VideoSnapshotPath != "" {
		lines = append(lines, fmt.Sprintf("Snapshot: %s", incident.VideoSnapshotPath))
	}
	lines = append(lines,
		"",
		"Please investigate this incident immediately.",
		"",
		"---",
		"CCTV AI Monitor System",
		fmt.Sprintf("Generated at: %s", now.UTC().Format("2006-01-02 15:04:05")),
	)

	short := fmt.Sprintf("[%s] %s/%s at %s (%.0f%%), feed %d, incident #%d",
		severity, category, titleize(incident.SubType), location, incident.Confidence*100, incident.FeedID, incident.ID)

	return Message{
		Subject:     fmt.Sprintf("CCTV Alert: %s - %s", category, severity),
		Body:        strings.Join(lines, "\n"),
		Short:       truncate(short, smsMaxLength),
		Incident:    incident,
		GeneratedAt: now,
	}
}

// TestIncident - синтетический инцидент для проверки настроек канала
func TestIncident(now time.Time) models.Incident {
	return models.Incident{
		ID:                 0,
		Category:           models.CategoryEmergency,
		SubType:            "test",
		Confidence:         0.95,
		Severity:           models.SeverityMedium,
		Description:        "This is a test notification from CCTV AI Monitor",
		Location:           "Test Location",
		DetectionTimestamp: now,
	}
}

func titleize(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(string(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
