package invites

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/server/models"
)

type MemoryRepository struct {
	mu      sync.Mutex
	invites map[string]models.Invite
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{invites: make(map[string]models.Invite)}
}

func (m *MemoryRepository) Create(_ context.Context, inv *models.Invite) (*models.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invites[inv.Code]; ok {
		return nil, common.ErrorAlreadyExists
	}
	inv.CreatedAt = time.Now().UTC()
	m.invites[inv.Code] = *inv
	return inv, nil
}

func (m *MemoryRepository) Get(_ context.Context, code string) (*models.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[code]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &inv, nil
}

func (m *MemoryRepository) MarkUsed(_ context.Context, code, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[code]
	if !ok || inv.Used {
		return false, nil
	}
	now := time.Now().UTC()
	inv.Used, inv.UsedBy, inv.UsedAt = true, username, &now
	m.invites[code] = inv
	return true, nil
}

func (m *MemoryRepository) List(_ context.Context, onlyActive bool) ([]*models.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Invite{}
	for _, inv := range m.invites {
		if onlyActive && inv.Used {
			continue
		}
		inv := inv
		out = append(out, &inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (m *MemoryRepository) Delete(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invites[code]; !ok {
		return false, nil
	}
	delete(m.invites, code)
	return true, nil
}
