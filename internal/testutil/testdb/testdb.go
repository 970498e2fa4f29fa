//go:build integration

// Package testdb starts a throwaway PostgreSQL container with the studymate
// schema applied. Tests that use it need Docker and the integration tag.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/studymate/internal/server/repositories/repomanager"
	_ "github.com/jackc/pgx/v5/stdlib"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type DBHandle struct {
	DB     *sql.DB
	DSN    string
	cancel func()
	stop   func(context.Context) error
}

func (h *DBHandle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Start runs postgres, waits for it and applies the embedded migrations.
// The Debian image initialises with the en_US.utf8 locale, so collation
// sensitive constraints are exercised.
func Start(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17"),
		postgres.WithDatabase("studymate"),
		postgres.WithUsername("studymate"),
		postgres.WithPassword("studymate"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	fail := func(err error) (*DBHandle, error) {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fail(err)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fail(err)
	}
	if err := waitReady(ctx, db); err != nil {
		_ = db.Close()
		return fail(err)
	}
	if err := repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return fail(err)
	}

	return &DBHandle{DB: db, DSN: dsn, cancel: cancel, stop: pg.Terminate}, nil
}

func waitReady(ctx context.Context, db *sql.DB) error {
	dead := time.Now().Add(20 * time.Second)
	for time.Now().Before(dead) {
		if err := db.PingContext(ctx); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("db not ready")
}
