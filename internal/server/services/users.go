// Package services contains server-side business logic. This file implements
// UserService, the identity store: registration, credential checks and
// issuing/refreshing JWTs plus server-stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/dbx"
	"github.com/dmitrijs2005/studymate/internal/logging"
	"github.com/dmitrijs2005/studymate/internal/server/access"
	"github.com/dmitrijs2005/studymate/internal/server/auth"
	"github.com/dmitrijs2005/studymate/internal/server/config"
	"github.com/dmitrijs2005/studymate/internal/server/models"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/repomanager"
)

// hashPassword is a seam for tests that want a cheap or failing hash.
var hashPassword = auth.HashPassword

// UserService provides account operations:
// - Register: create users, the first one as admin
// - Authenticate / Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	logger                       logging.Logger
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		logger:                       logger.With("module", "users"),
	}
}

// Register creates an account. The first account ever created is an admin;
// otherwise a valid unused invite code decides the role. Unknown or spent
// codes are ignored and the account is a plain user.
func (s *UserService) Register(ctx context.Context, username, password, inviteCode string) (*models.User, error) {
	username = strings.TrimSpace(username)
	inviteCode = strings.TrimSpace(inviteCode)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, common.ErrEmptyField
	}
	if isReservedName(username) {
		return nil, fmt.Errorf("%w: username %q is reserved", common.ErrorValidation, username)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, dbx.Serializable, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if _, err := repo.Get(ctx, username); err == nil {
			return common.ErrDuplicateUsername
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		n, err := repo.Count(ctx)
		if err != nil {
			return err
		}

		user := &models.User{Username: username, PasswordHash: hash, Role: models.RoleUser}
		if n == 0 {
			user.Role = models.RoleAdmin
		}

		if inviteCode != "" {
			role, ok, err := s.consumeInvite(ctx, tx, inviteCode, username)
			if err != nil {
				return err
			}
			if ok {
				user.InviteUsed = inviteCode
				if n > 0 {
					user.Role = role
				}
			}
		}

		created, err = repo.Create(ctx, user)
		return err
	})
	if err != nil {
		return nil, common.Storage(err)
	}

	s.logger.Info(ctx, "account registered", "username", created.Username, "role", created.Role)
	return created, nil
}

func (s *UserService) consumeInvite(ctx context.Context, tx dbx.DBTX, code, username string) (models.Role, bool, error) {
	repo := s.repomanager.Invites(tx)
	inv, err := repo.Get(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	if inv.Used {
		return "", false, nil
	}
	ok, err := repo.MarkUsed(ctx, code, username)
	if err != nil || !ok {
		return "", false, err
	}
	return inv.Role, true, nil
}

// Authenticate reports whether password matches the stored hash. Unknown
// accounts and storage failures both yield false.
func (s *UserService) Authenticate(ctx context.Context, username, password string) bool {
	_, ok := s.authenticate(ctx, username, password)
	return ok
}

func (s *UserService) authenticate(ctx context.Context, username, password string) (*models.User, bool) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, false
	}
	user, err := s.repomanager.Users(s.db).Get(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "account lookup failed", "username", username, "error", err)
		}
		return nil, false
	}
	return user, auth.CheckPassword(user.PasswordHash, password)
}

// Login verifies credentials and, on success, returns a new TokenPair.
// The account's expired refresh tokens are pruned on the way.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	user, ok := s.authenticate(ctx, username, password)
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	if n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, user.Username, time.Now()); err != nil {
		s.logger.Warn(ctx, "expired refresh tokens not pruned", "username", user.Username, "error", err)
	} else if n > 0 {
		s.logger.Debug(ctx, "expired refresh tokens pruned", "username", user.Username, "count", n)
	}
	return s.generateTokenPair(ctx, user, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", common.Storage(err))
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *models.TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", common.Storage(err))
		}
		user, err := s.repomanager.Users(tx).Get(ctx, token.Username)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return common.Storage(err)
		}
		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).Get(ctx, username)
	if err != nil {
		return nil, common.Storage(err)
	}
	return u, nil
}

// List returns every account; admin only.
func (s *UserService) List(ctx context.Context, actor access.Actor) ([]*models.User, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, common.Storage(err)
	}
	return list, nil
}

// SetRole promotes or demotes an account; admin only. Admins cannot demote
// themselves.
func (s *UserService) SetRole(ctx context.Context, actor access.Actor, username, role string) error {
	if !actor.IsAdmin() {
		return common.ErrForbidden
	}
	r, err := models.ParseRole(role)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	if actor.Username == username && r != models.RoleAdmin {
		return common.ErrForbidden
	}
	if err := s.repomanager.Users(s.db).SetRole(ctx, username, r); err != nil {
		return common.Storage(err)
	}
	s.logger.Info(ctx, "role changed", "username", username, "role", r, "by", actor.Name())
	return nil
}

// --- helpers below ---

// isReservedName reports names that stand for non-account authors.
func isReservedName(username string) bool {
	switch strings.ToLower(username) {
	case common.AnonymousAuthor, access.SystemName:
		return true
	}
	return false
}

func (s *UserService) generateAccessToken(user *models.User) (string, error) {
	return auth.GenerateToken(user.Username, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*models.TokenPair, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.Username, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.Storage(err)
	}
	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refresh}, nil
}
