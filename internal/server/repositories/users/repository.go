// Package users stores accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/studymate/internal/server/models"
)

type Repository interface {
	// Create inserts user; a taken username yields common.ErrDuplicateUsername.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Get(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
	SetRole(ctx context.Context, username string, role models.Role) error
}
