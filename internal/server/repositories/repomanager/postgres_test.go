package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/invites"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/notes"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/relationships"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/timetables"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestManagersSatisfyInterface(t *testing.T) {
	var _ RepositoryManager = NewPostgresRepositoryManager()
	var _ RepositoryManager = NewMemoryRepositoryManager()
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &PostgresRepositoryManager{}

	if _, ok := m.Users(db).(*users.PostgresRepository); !ok {
		t.Fatal("Users() is not postgres backed")
	}
	if _, ok := m.RefreshTokens(db).(*refreshtokens.PostgresRepository); !ok {
		t.Fatal("RefreshTokens() is not postgres backed")
	}
	if _, ok := m.Relationships(db).(*relationships.PostgresRepository); !ok {
		t.Fatal("Relationships() is not postgres backed")
	}
	if _, ok := m.Invites(db).(*invites.PostgresRepository); !ok {
		t.Fatal("Invites() is not postgres backed")
	}
	if _, ok := m.Timetables(db).(*timetables.PostgresRepository); !ok {
		t.Fatal("Timetables() is not postgres backed")
	}
	if _, ok := m.Notes(db).(*notes.PostgresRepository); !ok {
		t.Fatal("Notes() is not postgres backed")
	}
}

func TestMemoryManager_SharesState(t *testing.T) {
	m := NewMemoryRepositoryManager()
	if m.Users(nil) != m.Users(nil) {
		t.Fatal("memory manager must return the same users repository")
	}
	if m.Relationships(nil) != m.Relationships(nil) {
		t.Fatal("memory manager must return the same relationships repository")
	}
	if err := m.RunMigrations(context.Background(), nil); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}
