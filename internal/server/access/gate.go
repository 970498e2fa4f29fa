package access

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/server/auth"
	"github.com/dmitrijs2005/studymate/internal/server/models"
)

// Accounts is the lookup the gate needs from the identity store.
type Accounts interface {
	Get(ctx context.Context, username string) (*models.User, error)
}

// Gate turns bearer tokens into actors.
type Gate struct {
	accounts  Accounts
	secretKey []byte
}

func NewGate(accounts Accounts, secretKey []byte) *Gate {
	return &Gate{accounts: accounts, secretKey: secretKey}
}

// Resolve verifies token and reloads the account, so the actor carries the
// stored role rather than the one in the claims. Tokens naming an unknown
// user resolve to ErrNotAuthenticated.
// A "Bearer " prefix is accepted.
func (g *Gate) Resolve(ctx context.Context, token string) (Actor, error) {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return Anonymous(), common.ErrNotAuthenticated
	}

	claims, err := auth.ParseToken(token, g.secretKey)
	if err != nil {
		return Anonymous(), err
	}

	u, err := g.accounts.Get(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return Anonymous(), common.ErrNotAuthenticated
		}
		return Anonymous(), common.Storage(err)
	}

	return User(u.Username, u.Role), nil
}
