package relationships

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/server/models"
)

type request struct{ from, to string }

// MemoryRepository mirrors the two tables with maps.
type MemoryRepository struct {
	mu       sync.RWMutex
	requests map[request]struct{}
	bindings map[models.Binding]struct{}
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		requests: make(map[request]struct{}),
		bindings: make(map[models.Binding]struct{}),
	}
}

func (m *MemoryRepository) InsertRequest(_ context.Context, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := request{from, to}
	if _, ok := m.requests[k]; ok {
		return common.ErrAlreadyRequested
	}
	m.requests[k] = struct{}{}
	return nil
}

func (m *MemoryRepository) DeleteRequest(_ context.Context, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := request{from, to}
	_, ok := m.requests[k]
	delete(m.requests, k)
	return ok, nil
}

func (m *MemoryRepository) RequestExists(_ context.Context, from, to string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.requests[request{from, to}]
	return ok, nil
}

func (m *MemoryRepository) InsertBinding(_ context.Context, a, b string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := models.NewBinding(a, b)
	if _, ok := m.bindings[k]; ok {
		return common.ErrAlreadyBound
	}
	m.bindings[k] = struct{}{}
	return nil
}

func (m *MemoryRepository) DeleteBinding(_ context.Context, a, b string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := models.NewBinding(a, b)
	_, ok := m.bindings[k]
	delete(m.bindings, k)
	return ok, nil
}

func (m *MemoryRepository) BindingExists(_ context.Context, a, b string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.bindings[models.NewBinding(a, b)]
	return ok, nil
}

func (m *MemoryRepository) Sent(_ context.Context, username string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []string{}
	for k := range m.requests {
		if k.from == username {
			out = append(out, k.to)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryRepository) Received(_ context.Context, username string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []string{}
	for k := range m.requests {
		if k.to == username {
			out = append(out, k.from)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryRepository) Bound(_ context.Context, username string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []string{}
	for k := range m.bindings {
		if k.Low == username || k.High == username {
			out = append(out, k.Other(username))
		}
	}
	sort.Strings(out)
	return out, nil
}
