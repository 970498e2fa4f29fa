package notes

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/dmitrijs2005/studymate/internal/server/content"
	"github.com/dmitrijs2005/studymate/internal/server/models"
)

// MemoryRepository is the in-process store with its own id counter.
type MemoryRepository struct {
	*content.MemoryRepository[models.Note]
	seq atomic.Int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{MemoryRepository: content.NewMemoryRepository[models.Note]()}
}

func (m *MemoryRepository) NextID(context.Context) (string, error) {
	return strconv.FormatInt(m.seq.Add(1), 10), nil
}

var _ Repository = (*MemoryRepository)(nil)
