package timetables

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/dbx"
)

const fingerprintConstraint = "timetables_fingerprint_key"

const columns = `id, author, file_name, document, storage_key, fingerprint, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, rec *Record) (*Record, error) {
	doc, err := json.Marshal(rec.Payload.Document)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	query := `
		INSERT INTO timetables (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.Author, rec.Payload.FileName, string(doc), rec.Payload.StorageKey,
		rec.Fingerprint, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok {
			if constraint == fingerprintConstraint {
				return nil, common.ErrDuplicateContent
			}
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Record, error) {
	query := `SELECT ` + columns + ` FROM timetables WHERE id = $1`
	return r.one(ctx, query, id)
}

func (r *PostgresRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*Record, error) {
	query := `SELECT ` + columns + ` FROM timetables WHERE fingerprint = $1`
	return r.one(ctx, query, fingerprint)
}

func (r *PostgresRepository) List(ctx context.Context, authors []string) ([]*Record, error) {
	if authors != nil && len(authors) == 0 {
		return []*Record{}, nil
	}

	query := `SELECT ` + columns + ` FROM timetables`
	if authors != nil {
		query += ` WHERE author IN (` + dbx.Placeholders(1, len(authors)) + `)`
	}
	query += ` ORDER BY created_at DESC, id`

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
	doc, err := json.Marshal(rec.Payload.Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	query := `
		UPDATE timetables SET file_name = $2, document = $3, storage_key = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, rec.ID, rec.Payload.FileName, string(doc), rec.Payload.StorageKey, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return notFoundIfNone(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timetables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return notFoundIfNone(res)
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timetables`)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) one(ctx context.Context, query string, arg string) (*Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		rec Record
		doc []byte
	)
	if err := s.Scan(&rec.ID, &rec.Author, &rec.Payload.FileName, &doc, &rec.Payload.StorageKey,
		&rec.Fingerprint, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(doc, &rec.Payload.Document); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
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
