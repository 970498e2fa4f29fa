package invites

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

const columns = `code, role, created_by, created_at, used, used_by, used_at`

func (r *PostgresRepository) Create(ctx context.Context, inv *models.Invite) (*models.Invite, error) {
	query := `
		INSERT INTO invite_codes (code, role, created_by)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	if err := r.db.QueryRowContext(ctx, query, inv.Code, string(inv.Role), inv.CreatedBy).Scan(&inv.CreatedAt); err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return inv, nil
}

func (r *PostgresRepository) Get(ctx context.Context, code string) (*models.Invite, error) {
	query := `SELECT ` + columns + ` FROM invite_codes WHERE code = $1`

	inv, err := scanInvite(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return inv, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, code, username string) (bool, error) {
	query := `
		UPDATE invite_codes SET used = TRUE, used_by = $2, used_at = now()
		WHERE code = $1 AND NOT used
	`
	res, err := r.db.ExecContext(ctx, query, code, username)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, code string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invite_codes WHERE code = $1`, code)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) List(ctx context.Context, onlyActive bool) ([]*models.Invite, error) {
	query := `SELECT ` + columns + ` FROM invite_codes`
	if onlyActive {
		query += ` WHERE NOT used`
	}
	query += ` ORDER BY created_at DESC, code`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []*models.Invite{}
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvite(s scanner) (*models.Invite, error) {
	var (
		inv    models.Invite
		role   string
		usedBy sql.NullString
		usedAt sql.NullTime
	)
	if err := s.Scan(&inv.Code, &role, &inv.CreatedBy, &inv.CreatedAt, &inv.Used, &usedBy, &usedAt); err != nil {
		return nil, err
	}
	inv.Role = models.Role(role)
	inv.UsedBy = usedBy.String
	if usedAt.Valid {
		t := usedAt.Time
		inv.UsedAt = &t
	}
	return &inv, nil
}
