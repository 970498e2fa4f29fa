package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/studymate/internal/dbx"
	"github.com/dmitrijs2005/studymate/internal/server/migrations"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/invites"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/notes"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/relationships"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/timetables"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Relationships(db dbx.DBTX) relationships.Repository {
	return relationships.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Invites(db dbx.DBTX) invites.Repository {
	return invites.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Timetables(db dbx.DBTX) timetables.Repository {
	return timetables.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Notes(db dbx.DBTX) notes.Repository {
	return notes.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
