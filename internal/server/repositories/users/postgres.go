package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/dbx"
	"github.com/dmitrijs2005/studymate/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, password_hash, role, invite_used)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `

	var invite sql.NullString
	if user.InviteUsed != "" {
		invite = sql.NullString{String: user.InviteUsed, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, string(user.Role), invite).Scan(&user.CreatedAt)

	if err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return nil, common.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Get(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT username, password_hash, role, invite_used, created_at FROM users
		 WHERE username = $1
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query :=
		`SELECT username, password_hash, role, invite_used, created_at FROM users
		 ORDER BY username
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) SetRole(ctx context.Context, username string, role models.Role) error {
	query :=
		`UPDATE users SET role = $2
		 WHERE username = $1
		 `

	res, err := r.db.ExecContext(ctx, query, username, string(role))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var (
		u      models.User
		role   string
		invite sql.NullString
	)
	if err := s.Scan(&u.Username, &u.PasswordHash, &role, &invite, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.InviteUsed = invite.String
	return &u, nil
}
