// Package notes stores free-text schedule notes. IDs are decimal strings
// drawn from the notes id sequence.
package notes

import (
	"context"

	"github.com/dmitrijs2005/studymate/internal/server/content"
	"github.com/dmitrijs2005/studymate/internal/server/models"
)

type Record = content.Record[models.Note]

type Repository interface {
	content.Repository[models.Note]
	// NextID reserves the next identifier.
	NextID(ctx context.Context) (string, error)
}
