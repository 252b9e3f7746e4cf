package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_dispatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRedis переопределяет только команды, используемые репозиториями
type memoryRedis struct {
	redis.Cmdable

	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(value.([]byte))
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return redis.NewBoolResult(false, m.err)
	}
	if _, ok := m.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = value.(string)
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *memoryRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(int64(n), nil)
}

func TestRedisClaimStore(t *testing.T) {
	rdb := newMemoryRedis()
	claims := NewRedisClaimStore(rdb, 24*time.Hour)
	ctx := context.Background()

	ok, err := claims.Claim(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 24*time.Hour, rdb.ttls["dispatch:incident:42"])

	ok, err = claims.Claim(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, claims.Release(ctx, 42))
	ok, err = claims.Claim(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisClaimStore_Error(t *testing.T) {
	rdb := newMemoryRedis()
	rdb.err = errors.New("connection refused")

	_, err := NewRedisClaimStore(rdb, time.Hour).Claim(context.Background(), 1)

	assert.ErrorContains(t, err, "failed to claim incident dispatch")
}

func TestIncidentCache(t *testing.T) {
	rdb := newMemoryRedis()
	repo := NewIncidentRepository(nil, rdb)
	ctx := context.Background()

	got, err := repo.GetIncidentFromCache(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got, "miss returns nil without error")

	incident := &models.Incident{ID: 7, Category: models.CategoryCrime, Confidence: 0.91, FeedID: 2}
	require.NoError(t, repo.SetIncidentCache(ctx, incident))
	assert.Equal(t, incidentCacheTTL, rdb.ttls["incident:7"])

	got, err = repo.GetIncidentFromCache(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, incident, got)

	require.NoError(t, repo.InvalidateIncidentCache(ctx, 7))
	got, err = repo.GetIncidentFromCache(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecodeSettings(t *testing.T) {
	defaults := models.Settings{
		Notifications: models.NotificationToggles{Email: true},
		Email:         models.EmailSettings{Host: "smtp.city.gov", Port: 587, Recipients: []string{"ops@city.gov"}},
	}.WithDefaults()

	settings, err := decodeSettings([]byte(`{"notifications":{"sms":true},"detection":{"crime":0.5},"email":{"recipients":["a@b.c"]}}`), defaults)

	require.NoError(t, err)
	assert.True(t, settings.Notifications.SMS)
	assert.True(t, settings.Notifications.Email, "omitted toggles keep their previous value")
	assert.Equal(t, 0.5, settings.Detection[models.CategoryCrime])
	assert.Equal(t, 0.9, settings.Detection[models.CategoryEmergency], "missing thresholds fall back to defaults")
	assert.Equal(t, "smtp.city.gov", settings.Email.Host, "missing fields keep env defaults")
	assert.Equal(t, []string{"a@b.c"}, settings.Email.Recipients)
	assert.Equal(t, []string{"ops@city.gov"}, defaults.Email.Recipients, "defaults are not mutated")

	_, err = decodeSettings([]byte(`{broken`), defaults)
	assert.Error(t, err)
}

func TestCreateAttempt_SentRowIsNotOverwritten(t *testing.T) {
	assert.Contains(t, createAttemptQuery, "WHERE notification_logs.status <> 'sent'")

	assert.NoError(t, createError(nil))
	assert.ErrorIs(t, createError(pgx.ErrNoRows), models.ErrAlreadySent)

	err := createError(errors.New("connection reset"))
	assert.ErrorContains(t, err, "failed to create notification attempt")
	assert.NotErrorIs(t, err, models.ErrAlreadySent)
}
