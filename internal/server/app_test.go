package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studymate/internal/server/blobstore"
	"github.com/dmitrijs2005/studymate/internal/server/config"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.Storage = config.StorageMemory
	c.BlobBackend = config.BlobNone
	c.HTTPAddr = "127.0.0.1:0"
	c.SecretKey = "secret"
	c.ShutdownTimeout = time.Second
	return c
}

func TestOpenStorage_Memory(t *testing.T) {
	db, m, err := OpenStorage(context.Background(), memoryConfig(t))
	require.NoError(t, err)
	assert.Nil(t, db)
	assert.IsType(t, &repomanager.MemoryRepositoryManager{}, m)
}

func TestOpenStorage_PingFails(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()

	orig := openDB
	openDB = func(string) (*sql.DB, error) { return db, nil }
	defer func() { openDB = orig }()

	c := memoryConfig(t)
	c.Storage = config.StoragePostgres
	c.DatabaseDSN = "postgres://x"

	_, _, err = OpenStorage(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db ping error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenStorage_OpenFails(t *testing.T) {
	orig := openDB
	openDB = func(string) (*sql.DB, error) { return nil, errors.New("bad dsn") }
	defer func() { openDB = orig }()

	c := memoryConfig(t)
	c.Storage = config.StoragePostgres
	_, _, err := OpenStorage(context.Background(), c)
	assert.ErrorContains(t, err, "db init error")
}

func TestOpenBlobStore(t *testing.T) {
	c := memoryConfig(t)

	s, err := OpenBlobStore(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, blobstore.NopStore{}, s)

	c.BlobBackend = config.BlobDir
	c.BlobDir = t.TempDir()
	s, err = OpenBlobStore(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.DirStore{}, s)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	app, err := NewApp(ctx, memoryConfig(t))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
