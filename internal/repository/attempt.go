package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/incident_dispatch/internal/models"
)

// AttemptRepository - журнал notification_logs
type AttemptRepository struct {
	db *pgxpool.Pool
}

func NewAttemptRepository(db *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// createAttemptQuery переиспользует строку неудачной попытки; строку со статусом sent не трогает
const createAttemptQuery = `
		INSERT INTO notification_logs (
			id, incident_id, channel, recipient, status, attempt_count, last_error, sent_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (incident_id, channel, recipient) DO UPDATE SET
			status = EXCLUDED.status,
			attempt_count = EXCLUDED.attempt_count,
			last_error = EXCLUDED.last_error,
			sent_at = EXCLUDED.sent_at,
			updated_at = EXCLUDED.updated_at
		WHERE notification_logs.status <> 'sent'
		RETURNING id;
	`

// Create добавляет попытку. Повторная доставка того же инцидента тому же получателю
// переиспользует строку, attempt.ID принимает ее id.
// Если получатель уже уведомлен, возвращает models.ErrAlreadySent.
func (r *AttemptRepository) Create(ctx context.Context, attempt *models.NotificationAttempt) error {
	err := r.db.QueryRow(ctx, createAttemptQuery,
		attempt.ID,
		attempt.IncidentID,
		attempt.Channel,
		attempt.Recipient,
		attempt.Status,
		attempt.AttemptCount,
		attempt.LastError,
		attempt.SentAt,
		attempt.CreatedAt,
		attempt.UpdatedAt,
	).Scan(&attempt.ID)
	return createError(err)
}

// createError: пустой RETURNING означает, что условие WHERE отсекло строку sent
func createError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return models.ErrAlreadySent
	default:
		return fmt.Errorf("failed to create notification attempt: %w", err)
	}
}

// Update сохраняет текущее состояние попытки
func (r *AttemptRepository) Update(ctx context.Context, attempt *models.NotificationAttempt) error {
	query := `
		UPDATE notification_logs SET
			status = $1,
			attempt_count = $2,
			last_error = $3,
			sent_at = $4,
			updated_at = $5
		WHERE id = $6;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		attempt.Status,
		attempt.AttemptCount,
		attempt.LastError,
		attempt.SentAt,
		attempt.UpdatedAt,
		attempt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification attempt: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("notification attempt %s: %w", attempt.ID, ErrNotFound)
	}
	return nil
}

// ListByIncident возвращает все попытки по инциденту
func (r *AttemptRepository) ListByIncident(ctx context.Context, incidentID int64) ([]models.NotificationAttempt, error) {
	query := `
		SELECT id, incident_id, channel, recipient, status, attempt_count, last_error, sent_at, created_at, updated_at
		FROM notification_logs
		WHERE incident_id = $1
		ORDER BY created_at, channel, recipient;
	`
	rows, err := r.db.Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]models.NotificationAttempt, 0)
	for rows.Next() {
		var a models.NotificationAttempt
		if err := rows.Scan(
			&a.ID,
			&a.IncidentID,
			&a.Channel,
			&a.Recipient,
			&a.Status,
			&a.AttemptCount,
			&a.LastError,
			&a.SentAt,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification attempt row: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return attempts, nil
}
