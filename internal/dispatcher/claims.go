package dispatcher

import (
	"context"
	"sync"
)

// ClaimStore - ключ идемпотентности доставки (id инцидента).
// Claim возвращает false, если инцидент уже захвачен.
type ClaimStore interface {
	Claim(ctx context.Context, incidentID int64) (bool, error)
	Release(ctx context.Context, incidentID int64) error
}

// MemoryClaims - ClaimStore в памяти процесса
type MemoryClaims struct {
	mu      sync.Mutex
	claimed map[int64]struct{}
}

func NewMemoryClaims() *MemoryClaims {
	return &MemoryClaims{claimed: make(map[int64]struct{})}
}

func (m *MemoryClaims) Claim(_ context.Context, incidentID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.claimed[incidentID]; ok {
		return false, nil
	}
	m.claimed[incidentID] = struct{}{}
	return true, nil
}

func (m *MemoryClaims) Release(_ context.Context, incidentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claimed, incidentID)
	return nil
}
