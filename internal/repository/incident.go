package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_dispatch/internal/models"
)

// ErrNotFound - запись отсутствует
var ErrNotFound = errors.New("not found")

const incidentCacheTTL = 5 * time.Minute

const incidentColumns = `
	id,
	category,
	sub_type,
	confidence,
	severity,
	description,
	location,
	latitude,
	longitude,
	video_snapshot_path,
	thumbnail_path,
	detection_timestamp,
	feed_id,
	acknowledged,
	acknowledged_at,
	reported_to_authorities,
	reported_at,
	created_at`

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient redis.Cmdable
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient redis.Cmdable) *IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
	}
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	var description, snapshot, thumbnail *string
	err := row.Scan(
		&incident.ID,
		&incident.Category,
		&incident.SubType,
		&incident.Confidence,
		&incident.Severity,
		&description,
		&incident.Location,
		&incident.Latitude,
		&incident.Longitude,
		&snapshot,
		&thumbnail,
		&incident.DetectionTimestamp,
		&incident.FeedID,
		&incident.Acknowledged,
		&incident.AcknowledgedAt,
		&incident.ReportedToAuthorities,
		&incident.ReportedAt,
		&incident.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	incident.Description = deref(description)
	incident.VideoSnapshotPath = deref(snapshot)
	incident.ThumbnailPath = deref(thumbnail)
	return incident, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetByID возвращает инцидент по id
func (r *IncidentRepository) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1;`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// Acknowledge отмечает инцидент как просмотренный оператором.
// Повторное подтверждение сохраняет первое время.
func (r *IncidentRepository) Acknowledge(ctx context.Context, id int64, at time.Time) (*models.Incident, error) {
	query := `
		UPDATE incidents SET
			acknowledged = TRUE,
			acknowledged_at = COALESCE(acknowledged_at, $2)
		WHERE id = $1
		RETURNING ` + incidentColumns + `;
	`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %d not found for acknowledge: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to acknowledge incident: %w", err)
	}
	if err := r.InvalidateIncidentCache(ctx, id); err != nil {
		return incident, err
	}
	return incident, nil
}

// MarkReported записывает признак передачи ведомствам, первое время сохраняется
func (r *IncidentRepository) MarkReported(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE incidents SET
			reported_to_authorities = TRUE,
			reported_at = COALESCE(reported_at, $2)
		WHERE id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark incident as reported: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %d not found for report: %w", id, ErrNotFound)
	}
	return r.InvalidateIncidentCache(ctx, id)
}

func incidentCacheKey(id int64) string {
	return fmt.Sprintf("incident:%d", id)
}

// GetIncidentFromCache пытается получить инцидент из Redis; nil, nil при промахе
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id int64) (*models.Incident, error) {
	val, err := r.redisClient.Get(ctx, incidentCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, incidentCacheKey(incident.ID), val, incidentCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id int64) error {
	if err := r.redisClient.Del(ctx, incidentCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}
