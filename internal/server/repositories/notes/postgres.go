package notes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/dbx"
)

const columns = `id, author, title, content, tags, category, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) NextID(ctx context.Context) (string, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, `SELECT nextval(pg_get_serial_sequence('notes', 'id'))`).Scan(&id); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

func (r *PostgresRepository) Insert(ctx context.Context, rec *Record) (*Record, error) {
	id, err := strconv.ParseInt(rec.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: note id %q", common.ErrorValidation, rec.ID)
	}
	tags, err := encodeTags(rec.Payload.Tags)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO notes (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query, id, rec.Author, rec.Payload.Title, rec.Payload.Content,
		tags, rec.Payload.Category, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Record, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + columns + ` FROM notes WHERE id = $1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, n))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// FindByFingerprint always misses: notes are not deduplicated.
func (r *PostgresRepository) FindByFingerprint(context.Context, string) (*Record, error) {
	return nil, common.ErrorNotFound
}

func (r *PostgresRepository) List(ctx context.Context, authors []string) ([]*Record, error) {
	if authors != nil && len(authors) == 0 {
		return []*Record{}, nil
	}

	query := `SELECT ` + columns + ` FROM notes`
	if authors != nil {
		query += ` WHERE author IN (` + dbx.Placeholders(1, len(authors)) + `)`
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, dbx.Args(authors)...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, rec *Record) error {
	id, err := strconv.ParseInt(rec.ID, 10, 64)
	if err != nil {
		return common.ErrorNotFound
	}
	tags, err := encodeTags(rec.Payload.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE notes SET title = $2, content = $3, tags = $4, category = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, rec.Payload.Title, rec.Payload.Content, tags, rec.Payload.Category, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return notFoundIfNone(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return common.ErrorNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, n)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return notFoundIfNone(res)
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes`)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		rec  Record
		id   int64
		tags []byte
	)
	if err := s.Scan(&id, &rec.Author, &rec.Payload.Title, &rec.Payload.Content, &tags,
		&rec.Payload.Category, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.ID = strconv.FormatInt(id, 10)
	rec.Payload.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &rec.Payload.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return &rec, nil
}

func notFoundIfNone(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
