package v1

import (
	"time"

	"github.com/shenikar/incident_dispatch/internal/models"
)

// DTOToIncidentModel преобразует DTO в доменную модель
func DTOToIncidentModel(dto CreateIncidentRequest, now time.Time) models.Incident {
	incident := models.Incident{
		ID:                 dto.ID,
		Category:           models.Category(dto.Category),
		SubType:            dto.SubType,
		Severity:           models.Severity(dto.Severity),
		Description:        dto.Description,
		Location:           dto.Location,
		Latitude:           dto.Latitude,
		Longitude:          dto.Longitude,
		VideoSnapshotPath:  dto.VideoSnapshotPath,
		ThumbnailPath:      dto.ThumbnailPath,
		DetectionTimestamp: dto.DetectionTimestamp,
		FeedID:             dto.FeedID,
		CreatedAt:          now,
	}
	if dto.Confidence != nil {
		incident.Confidence = *dto.Confidence
	}
	if incident.Severity == "" {
		incident.Severity = models.SeverityMedium
	}
	if incident.DetectionTimestamp.IsZero() {
		incident.DetectionTimestamp = now
	}
	return incident
}

// DTOToSettingsModel преобразует DTO настроек в снимок
func DTOToSettingsModel(dto SettingsRequest) models.Settings {
	detection := make(map[models.Category]float64, len(dto.Detection))
	for c, t := range dto.Detection {
		detection[models.Category(c)] = t
	}
	var byCategory map[models.Category][]string
	if len(dto.Email.CategoryRecipients) > 0 {
		byCategory = make(map[models.Category][]string, len(dto.Email.CategoryRecipients))
		for c, r := range dto.Email.CategoryRecipients {
			byCategory[models.Category(c)] = r
		}
	}
	return models.Settings{
		Notifications: dto.Notifications,
		Detection:     detection,
		Email: models.EmailSettings{
			Host:               dto.Email.Host,
			Port:               dto.Email.Port,
			Username:           dto.Email.Username,
			Password:           dto.Email.Password,
			From:               dto.Email.From,
			Security:           dto.Email.Security,
			Recipients:         dto.Email.Recipients,
			CategoryRecipients: byCategory,
		},
		Webhooks: models.WebhookSettings{
			PoliceURL:           dto.Webhooks.PoliceURL,
			FireDepartmentURL:   dto.Webhooks.FireDepartmentURL,
			TrafficAuthorityURL: dto.Webhooks.TrafficAuthorityURL,
			MunicipalURL:        dto.Webhooks.MunicipalURL,
			Secret:              dto.Webhooks.Secret,
		},
		SMS: models.SMSSettings{
			APIURL:     dto.SMS.APIURL,
			APIKey:     dto.SMS.APIKey,
			Recipients: dto.SMS.Recipients,
		},
	}
}
