package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/server/models"
)

type MemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]models.RefreshToken)}
}

func (m *MemoryRepository) Create(_ context.Context, username string, token string, validity time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.tokens[token] = models.RefreshToken{Token: token, Username: username, Expires: now.Add(validity), CreatedAt: now}
	return nil
}

func (m *MemoryRepository) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (m *MemoryRepository) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

func (m *MemoryRepository) DeleteExpired(_ context.Context, username string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, t := range m.tokens {
		if t.Username == username && t.Expires.Before(now) {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}
