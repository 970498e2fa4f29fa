package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/logging"
	"github.com/dmitrijs2005/studymate/internal/server/access"
	"github.com/dmitrijs2005/studymate/internal/server/models"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/repomanager"
)

const (
	DefaultInviteLength = 8
	maxInviteLength     = 32
	maxInvitePrefix     = 10
	maxInviteAttempts   = 5
)

// InviteService issues single-use registration codes. Codes are consumed by
// UserService.Register.
type InviteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewInviteService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *InviteService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &InviteService{db: db, repomanager: m, logger: logger.With("module", "invites")}
}

// Create issues a code of prefix followed by length random uppercase letters
// and digits. An empty role means admin.
func (s *InviteService) Create(ctx context.Context, actor access.Actor, role, prefix string, length int) (*models.Invite, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}

	r := models.RoleAdmin
	if strings.TrimSpace(role) != "" {
		var err error
		if r, err = models.ParseRole(role); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
		}
	}
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if len(prefix) > maxInvitePrefix {
		return nil, fmt.Errorf("%w: prefix longer than %d", common.ErrorValidation, maxInvitePrefix)
	}
	if length <= 0 {
		length = DefaultInviteLength
	}
	if length > maxInviteLength {
		return nil, fmt.Errorf("%w: length above %d", common.ErrorValidation, maxInviteLength)
	}

	repo := s.repomanager.Invites(s.db)
	for attempt := 0; attempt < maxInviteAttempts; attempt++ {
		random, err := common.MakeRandCode(common.CodeAlphabet, length)
		if err != nil {
			return nil, common.ErrorInternal
		}
		inv, err := repo.Create(ctx, &models.Invite{Code: prefix + random, Role: r, CreatedBy: actor.Name()})
		if err == nil {
			s.logger.Info(ctx, "invite created", "code", inv.Code, "role", inv.Role, "by", actor.Name())
			return inv, nil
		}
		if !errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Storage(err)
		}
	}
	return nil, common.Storage(common.ErrorAlreadyExists)
}

// List returns invites, newest first; admin only.
func (s *InviteService) List(ctx context.Context, actor access.Actor, onlyActive bool) ([]*models.Invite, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	list, err := s.repomanager.Invites(s.db).List(ctx, onlyActive)
	if err != nil {
		return nil, common.Storage(err)
	}
	return list, nil
}

// Delete revokes an invite code; admin only.
func (s *InviteService) Delete(ctx context.Context, actor access.Actor, code string) error {
	if !actor.IsAdmin() {
		return common.ErrForbidden
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return common.ErrEmptyField
	}
	ok, err := s.repomanager.Invites(s.db).Delete(ctx, code)
	if err != nil {
		return common.Storage(err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	s.logger.Info(ctx, "invite revoked", "code", code, "by", actor.Name())
	return nil
}
