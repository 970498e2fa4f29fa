// Package content implements the visibility-scoped store shared by every
// kind of user content (timetables and notes).
package content

import (
	"context"
	"time"
)

// Record is one stored item. Author is a username or common.AnonymousAuthor.
type Record[P any] struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Payload     P         `json:"payload"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repository persists records of one kind.
//
// Insert returns common.ErrorAlreadyExists when the ID is taken and
// common.ErrDuplicateContent when the fingerprint is. FindByFingerprint,
// Get, Update and Delete return common.ErrorNotFound for missing records.
// List with a nil authors slice returns every record.
type Repository[P any] interface {
	Insert(ctx context.Context, rec *Record[P]) (*Record[P], error)
	Get(ctx context.Context, id string) (*Record[P], error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*Record[P], error)
	List(ctx context.Context, authors []string) ([]*Record[P], error)
	Update(ctx context.Context, rec *Record[P]) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}
