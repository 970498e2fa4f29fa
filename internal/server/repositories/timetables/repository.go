// Package timetables stores uploaded timetables. The decoded spreadsheet is
// kept as JSONB; the original bytes live in blob storage.
package timetables

import (
	"github.com/dmitrijs2005/studymate/internal/server/content"
	"github.com/dmitrijs2005/studymate/internal/server/models"
)

type Repository = content.Repository[models.Timetable]

type Record = content.Record[models.Timetable]

// NewMemoryRepository returns the in-process implementation.
func NewMemoryRepository() *content.MemoryRepository[models.Timetable] {
	return content.NewMemoryRepository[models.Timetable]()
}
