package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/incident_dispatch/internal/models"
)

const settingsKey = "notification_settings"

// SettingsRepository хранит снимок настроек в system_config (JSONB).
// Пока запись не создана, возвращаются значения из окружения.
type SettingsRepository struct {
	db       *pgxpool.Pool
	defaults models.Settings
}

func NewSettingsRepository(db *pgxpool.Pool, defaults models.Settings) *SettingsRepository {
	return &SettingsRepository{db: db, defaults: defaults.WithDefaults()}
}

// Get возвращает сохраненные настройки поверх значений по умолчанию
func (r *SettingsRepository) Get(ctx context.Context) (models.Settings, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT value FROM system_config WHERE key = $1;`, settingsKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.defaults, nil
		}
		return models.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return decodeSettings(raw, r.defaults)
}

// Update сохраняет снимок целиком
func (r *SettingsRepository) Update(ctx context.Context, settings models.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	query := `
		INSERT INTO system_config (key, value, description, updated_at)
		VALUES ($1, $2, 'notification and detection settings', NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW();
	`
	if _, err := r.db.Exec(ctx, query, settingsKey, raw); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}

// decodeSettings накладывает сохраненный JSON на значения по умолчанию
func decodeSettings(raw []byte, defaults models.Settings) (models.Settings, error) {
	base, err := json.Marshal(defaults)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to marshal default settings: %w", err)
	}
	// свежая копия, чтобы не делить срезы и карты со значениями по умолчанию
	var settings models.Settings
	if err := json.Unmarshal(base, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("failed to copy default settings: %w", err)
	}
	settings.Detection = nil
	if err := json.Unmarshal(raw, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return settings.WithDefaults(), nil
}
