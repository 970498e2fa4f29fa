package content

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/studymate/internal/common"
)

// MemoryRepository is an in-process Repository used by the memory storage
// backend and by tests. Records are copied on the way in and out.
type MemoryRepository[P any] struct {
	mu      sync.RWMutex
	records map[string]Record[P]
	byFP    map[string]string
}

func NewMemoryRepository[P any]() *MemoryRepository[P] {
	return &MemoryRepository[P]{
		records: make(map[string]Record[P]),
		byFP:    make(map[string]string),
	}
}

func (m *MemoryRepository[P]) Insert(_ context.Context, rec *Record[P]) (*Record[P], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if rec.Fingerprint != "" {
		if _, ok := m.byFP[rec.Fingerprint]; ok {
			return nil, common.ErrDuplicateContent
		}
		m.byFP[rec.Fingerprint] = rec.ID
	}
	m.records[rec.ID] = *rec
	out := *rec
	return &out, nil
}

func (m *MemoryRepository[P]) Get(_ context.Context, id string) (*Record[P], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &r, nil
}

func (m *MemoryRepository[P]) FindByFingerprint(ctx context.Context, fingerprint string) (*Record[P], error) {
	m.mu.RLock()
	id, ok := m.byFP[fingerprint]
	m.mu.RUnlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	return m.Get(ctx, id)
}

func (m *MemoryRepository[P]) List(_ context.Context, authors []string) ([]*Record[P], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var allowed map[string]struct{}
	if authors != nil {
		allowed = make(map[string]struct{}, len(authors))
		for _, a := range authors {
			allowed[a] = struct{}{}
		}
	}

	out := make([]*Record[P], 0, len(m.records))
	for _, r := range m.records {
		if allowed != nil {
			if _, ok := allowed[r.Author]; !ok {
				continue
			}
		}
		r := r
		out = append(out, &r)
	}
	return out, nil
}

func (m *MemoryRepository[P]) Update(_ context.Context, rec *Record[P]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.records[rec.ID]
	if !ok {
		return common.ErrorNotFound
	}
	rec.Fingerprint = old.Fingerprint
	m.records[rec.ID] = *rec
	return nil
}

func (m *MemoryRepository[P]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(m.records, id)
	if r.Fingerprint != "" {
		delete(m.byFP, r.Fingerprint)
	}
	return nil
}

func (m *MemoryRepository[P]) DeleteAll(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.records))
	m.records = make(map[string]Record[P])
	m.byFP = make(map[string]string)
	return n, nil
}
