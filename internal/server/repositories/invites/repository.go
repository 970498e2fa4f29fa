// Package invites stores single-use registration codes.
package invites

import (
	"context"

	"github.com/dmitrijs2005/studymate/internal/server/models"
)

type Repository interface {
	// Create stores inv; a taken code yields common.ErrorAlreadyExists.
	Create(ctx context.Context, inv *models.Invite) (*models.Invite, error)
	Get(ctx context.Context, code string) (*models.Invite, error)
	// MarkUsed consumes an unused code and reports whether it did so.
	MarkUsed(ctx context.Context, code, username string) (bool, error)
	List(ctx context.Context, onlyActive bool) ([]*models.Invite, error)
	// Delete revokes code and reports whether it existed.
	Delete(ctx context.Context, code string) (bool, error)
}
