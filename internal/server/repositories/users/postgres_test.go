package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*password_hash,\s*role,\s*invite_used\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+created_at\s*$`
	selectQ = `(?s)^SELECT\s+username,\s*password_hash,\s*role,\s*invite_used,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`
	listQ   = `(?s)^SELECT\s+username,.*FROM\s+users\s+ORDER\s+BY\s+username\s*$`
	countQ  = `^SELECT count\(\*\) FROM users$`
	roleQ   = `(?s)^UPDATE\s+users\s+SET\s+role\s*=\s*\$2\s+WHERE\s+username\s*=\s*\$1\s*$`
)

var userCols = []string{"username", "password_hash", "role", "invite_used", "created_at"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(insertQ).
		WithArgs("alice", "hash", "admin", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	got, err := repo.Create(context.Background(), &models.User{Username: "alice", PasswordHash: "hash", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.Username != "alice" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_WithInvite(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("bob", "hash", "user", "CODE1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	if _, err := repo.Create(context.Background(), &models.User{Username: "bob", PasswordHash: "hash", Role: models.RoleUser, InviteUsed: "CODE1"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice", "hash", "user", nil).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"})

	_, err := repo.Create(context.Background(), &models.User{Username: "alice", PasswordHash: "hash", Role: models.RoleUser})
	if !errors.Is(err, common.ErrDuplicateUsername) {
		t.Fatalf("want ErrDuplicateUsername, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice", "hash", "user", nil).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Username: "alice", PasswordHash: "hash", Role: models.RoleUser})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("alice", "h", "admin", "INV", time.Now()))

	got, err := repo.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Username != "alice" || got.Role != models.RoleAdmin || got.InviteUsed != "INV" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGet_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs("alice").WillReturnError(errors.New("db err"))

	_, err := repo.Get(context.Background(), "alice")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQ).WillReturnRows(sqlmock.NewRows(userCols).
		AddRow("alice", "h", "admin", nil, time.Now()).
		AddRow("bob", "h", "user", nil, time.Now()))

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[1].Username != "bob" || got[1].Role != models.RoleUser {
		t.Fatalf("unexpected users: %+v", got)
	}
}

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(countQ).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.Count(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}

func TestSetRole(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(roleQ).WithArgs("bob", "admin").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.SetRole(context.Background(), "bob", models.RoleAdmin); err != nil {
		t.Fatalf("SetRole error: %v", err)
	}

	mock.ExpectExec(roleQ).WithArgs("ghost", "admin").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.SetRole(context.Background(), "ghost", models.RoleAdmin); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
