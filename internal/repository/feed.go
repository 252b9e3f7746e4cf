package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/incident_dispatch/internal/models"
)

type FeedRepository struct {
	db *pgxpool.Pool
}

func NewFeedRepository(db *pgxpool.Pool) *FeedRepository {
	return &FeedRepository{db: db}
}

// UpdateStatus сохраняет состояние камеры
func (r *FeedRepository) UpdateStatus(ctx context.Context, feedID int64, status models.FeedStatus) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE cctv_feeds SET status = $1, updated_at = NOW() WHERE id = $2;`, status, feedID)
	if err != nil {
		return fmt.Errorf("failed to update feed status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("feed with id %d: %w", feedID, ErrNotFound)
	}
	return nil
}
