package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/server/models"
)

// MemoryRepository keeps accounts in a map.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]models.User)}
}

func (m *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Username]; ok {
		return nil, common.ErrDuplicateUsername
	}
	user.CreatedAt = time.Now().UTC()
	m.users[user.Username] = *user
	return user, nil
}

func (m *MemoryRepository) Get(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (m *MemoryRepository) List(context.Context) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *MemoryRepository) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

func (m *MemoryRepository) SetRole(_ context.Context, username string, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return common.ErrorNotFound
	}
	u.Role = role
	m.users[username] = u
	return nil
}
