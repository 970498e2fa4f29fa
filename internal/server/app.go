// Package server wires configuration, storage, services and the HTTP API
// into a runnable application with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/studymate/internal/logging"
	"github.com/dmitrijs2005/studymate/internal/server/access"
	"github.com/dmitrijs2005/studymate/internal/server/blobstore"
	"github.com/dmitrijs2005/studymate/internal/server/config"
	"github.com/dmitrijs2005/studymate/internal/server/httpapi"
	"github.com/dmitrijs2005/studymate/internal/server/metrics"
	"github.com/dmitrijs2005/studymate/internal/server/observability"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studymate/internal/server/services"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"
)

// Version is reported to Sentry; set with -ldflags "-X ...server.Version=...".
var Version = "dev"

const pingTimeout = 5 * time.Second

// openDB is a seam so tests can substitute the driver.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// Services is the set of business services shared by the HTTP API and the CLI.
type Services struct {
	Users         *services.UserService
	Relationships *services.RelationshipService
	Notes         *services.NoteService
	Timetables    *services.TimetableService
	Invites       *services.InviteService
}

// NewServices builds every service over one repository manager. db is nil
// for the memory backend.
func NewServices(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, blobs blobstore.Store, logger logging.Logger) *Services {
	rels := services.NewRelationshipService(db, m, logger)
	return &Services{
		Users:         services.NewUserService(db, m, cfg, logger),
		Relationships: rels,
		Notes:         services.NewNoteService(db, m, rels, logger),
		Timetables:    services.NewTimetableService(db, m, rels, blobs, logger),
		Invites:       services.NewInviteService(db, m, logger),
	}
}

// OpenStorage connects to the configured backend and applies migrations.
// For the memory backend the returned *sql.DB is nil.
func OpenStorage(ctx context.Context, cfg *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	if cfg.Storage == config.StorageMemory {
		return nil, repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}
	return db, m, nil
}

// OpenBlobStore returns the configured store for original uploads.
func OpenBlobStore(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobS3:
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			Region:       cfg.S3Region,
			User:         cfg.S3RootUser,
			Password:     cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	case config.BlobDir:
		return blobstore.NewDirStore(cfg.BlobDir)
	default:
		return blobstore.NopStore{}, nil
	}
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	start := time.Now()
	err := db.PingContext(ctx)
	metrics.ObserveDBPing(time.Since(start))
	return err
}

type App struct {
	config      *config.Config
	logger      *logging.ZapLogger
	db          *sql.DB
	services    *Services
	router      *gin.Engine
	flushSentry func()
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.NewZapLogger(c.LogLevel, c.Env)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	flush, err := observability.InitSentry(c.SentryDSN, c.Env, Version)
	if err != nil {
		logger.Warn(ctx, "sentry disabled", "error", err)
	}

	db, m, err := OpenStorage(ctx, c)
	if err != nil {
		return nil, err
	}

	blobs, err := OpenBlobStore(ctx, c)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	svc := NewServices(db, m, c, blobs, logger)

	if c.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(
		httpapi.NewHandler(svc.Users, svc.Relationships, svc.Notes, svc.Timetables, svc.Invites),
		httpapi.Options{
			Gate:        access.NewGate(svc.Users, []byte(c.SecretKey)),
			Logger:      logger,
			CORSOrigins: c.CORSOrigins,
			Health: func(ctx context.Context) error {
				if db == nil {
					return nil
				}
				return ping(ctx, db)
			},
		},
	)

	return &App{config: c, logger: logger, db: db, services: svc, router: router, flushSentry: flush}, nil
}

// Run serves until SIGINT/SIGTERM/SIGQUIT or ctx cancellation.
func (app *App) Run(ctx context.Context) error {
	defer app.close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage, "blob", app.config.BlobBackend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s := httpapi.NewServer(app.config.HTTPAddr, app.router, app.config.ShutdownTimeout, app.logger)
		return s.Run(gctx)
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "app stopped with error", "error", err)
	} else {
		app.logger.Info(ctx, "app stopped")
	}
	return err
}

func (app *App) close() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "db close: %v\n", err)
		}
	}
	app.flushSentry()
	app.logger.Sync()
}
