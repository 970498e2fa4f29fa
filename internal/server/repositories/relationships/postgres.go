package relationships

import (
	"context"
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

func (r *PostgresRepository) InsertRequest(ctx context.Context, from, to string) error {
	query := `
		INSERT INTO binding_requests (from_user, to_user)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, from, to); err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return common.ErrAlreadyRequested
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteRequest(ctx context.Context, from, to string) (bool, error) {
	query := `
		DELETE FROM binding_requests
		WHERE from_user = $1 AND to_user = $2
	`
	return r.execAffected(ctx, query, from, to)
}

func (r *PostgresRepository) RequestExists(ctx context.Context, from, to string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM binding_requests WHERE from_user = $1 AND to_user = $2)
	`
	return r.exists(ctx, query, from, to)
}

func (r *PostgresRepository) InsertBinding(ctx context.Context, a, b string) error {
	pair := models.NewBinding(a, b)
	query := `
		INSERT INTO bindings (user_low, user_high)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, pair.Low, pair.High); err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return common.ErrAlreadyBound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteBinding(ctx context.Context, a, b string) (bool, error) {
	pair := models.NewBinding(a, b)
	query := `
		DELETE FROM bindings
		WHERE user_low = $1 AND user_high = $2
	`
	return r.execAffected(ctx, query, pair.Low, pair.High)
}

func (r *PostgresRepository) BindingExists(ctx context.Context, a, b string) (bool, error) {
	pair := models.NewBinding(a, b)
	query := `
		SELECT EXISTS (SELECT 1 FROM bindings WHERE user_low = $1 AND user_high = $2)
	`
	return r.exists(ctx, query, pair.Low, pair.High)
}

func (r *PostgresRepository) Sent(ctx context.Context, username string) ([]string, error) {
	query := `
		SELECT to_user FROM binding_requests
		WHERE from_user = $1
		ORDER BY to_user
	`
	return r.names(ctx, query, username)
}

func (r *PostgresRepository) Received(ctx context.Context, username string) ([]string, error) {
	query := `
		SELECT from_user FROM binding_requests
		WHERE to_user = $1
		ORDER BY from_user
	`
	return r.names(ctx, query, username)
}

func (r *PostgresRepository) Bound(ctx context.Context, username string) ([]string, error) {
	query := `
		SELECT user_high AS partner FROM bindings WHERE user_low = $1
		UNION
		SELECT user_low AS partner FROM bindings WHERE user_high = $1
		ORDER BY partner
	`
	return r.names(ctx, query, username)
}

func (r *PostgresRepository) execAffected(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) names(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
