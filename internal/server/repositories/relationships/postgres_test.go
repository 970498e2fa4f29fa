package relationships

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
	insertReqQ  = `(?s)^INSERT\s+INTO\s+binding_requests\s*\(from_user,\s*to_user\)\s*VALUES\s*\(\$1,\s*\$2\)$`
	deleteReqQ  = `(?s)^DELETE\s+FROM\s+binding_requests\s+WHERE\s+from_user\s*=\s*\$1\s+AND\s+to_user\s*=\s*\$2$`
	existsReqQ  = `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+binding_requests\s+WHERE.*\)$`
	insertBindQ = `(?s)^INSERT\s+INTO\s+bindings\s*\(user_low,\s*user_high\)\s*VALUES\s*\(\$1,\s*\$2\)$`
	deleteBindQ = `(?s)^DELETE\s+FROM\s+bindings\s+WHERE\s+user_low\s*=\s*\$1\s+AND\s+user_high\s*=\s*\$2$`
	existsBindQ = `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+bindings\s+WHERE.*\)$`
	sentQ       = `(?s)^SELECT\s+to_user\s+FROM\s+binding_requests\s+WHERE\s+from_user\s*=\s*\$1\s+ORDER\s+BY\s+to_user$`
	receivedQ   = `(?s)^SELECT\s+from_user\s+FROM\s+binding_requests\s+WHERE\s+to_user\s*=\s*\$1\s+ORDER\s+BY\s+from_user$`
	boundQ      = `(?s)^SELECT\s+user_high\s+AS\s+partner.*UNION.*ORDER\s+BY\s+partner$`
)

func TestInsertRequest(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	ctx := context.Background()

	mock.ExpectExec(insertReqQ).WithArgs("alice", "bob").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.InsertRequest(ctx, "alice", "bob"))

	mock.ExpectExec(insertReqQ).WithArgs("alice", "bob").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "binding_requests_pkey"})
	assert.ErrorIs(t, repo.InsertRequest(ctx, "alice", "bob"), common.ErrAlreadyRequested)

	mock.ExpectExec(insertReqQ).WithArgs("alice", "bob").WillReturnError(errors.New("db down"))
	err := repo.InsertRequest(ctx, "alice", "bob")
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRequest(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	ctx := context.Background()

	mock.ExpectExec(deleteReqQ).WithArgs("bob", "alice").WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.DeleteRequest(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(deleteReqQ).WithArgs("bob", "alice").WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.DeleteRequest(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequestExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(existsReqQ).WithArgs("alice", "bob").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := repo.RequestExists(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBindingUsesCanonicalOrder(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	ctx := context.Background()

	mock.ExpectExec(insertBindQ).WithArgs("alice", "zed").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.InsertBinding(ctx, "zed", "alice"))

	mock.ExpectExec(insertBindQ).WithArgs("alice", "zed").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "bindings_pkey"})
	assert.ErrorIs(t, repo.InsertBinding(ctx, "alice", "zed"), common.ErrAlreadyBound)

	mock.ExpectQuery(existsBindQ).WithArgs("alice", "zed").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := repo.BindingExists(ctx, "zed", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(deleteBindQ).WithArgs("alice", "zed").WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err = repo.DeleteBinding(ctx, "zed", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	ctx := context.Background()

	mock.ExpectQuery(sentQ).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"to_user"}).AddRow("bob").AddRow("carol"))
	got, err := repo.Sent(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, got)

	mock.ExpectQuery(receivedQ).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"from_user"}))
	got, err = repo.Received(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)

	mock.ExpectQuery(boundQ).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"partner"}).AddRow("dave"))
	got, err = repo.Bound(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"dave"}, got)

	mock.ExpectQuery(boundQ).WithArgs("alice").WillReturnError(errors.New("db err"))
	_, err = repo.Bound(ctx, "alice")
	assert.Error(t, err)
}
