package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"masterful/services/chat-api/internal/config"
	"masterful/services/chat-api/internal/domain/chat"
	"masterful/services/chat-api/internal/infrastructure/auth"
	"masterful/services/chat-api/internal/infrastructure/crontab"
	"masterful/services/chat-api/internal/infrastructure/database"
	"masterful/services/chat-api/internal/infrastructure/logger"
	"masterful/services/chat-api/internal/infrastructure/metrics"
	"masterful/services/chat-api/internal/infrastructure/observability"
	chatrepo "masterful/services/chat-api/internal/infrastructure/repository/chat"
	"masterful/services/chat-api/internal/infrastructure/store"
	"masterful/services/chat-api/internal/interfaces/httpserver"
	"masterful/services/chat-api/internal/realtime"
)

// Application bundles the long-running components of the service.
type Application struct {
	HTTPServer *httpserver.HTTPServer
	Hub        *realtime.Hub
}

func newApplication(httpServer *httpserver.HTTPServer, hub *realtime.Hub) *Application {
	return &Application{HTTPServer: httpServer, Hub: hub}
}

func main() {
	// Missing .env is fine in containerized deployments.
	_ = godotenv.Load()

	bootLog := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log, err := logger.New(cfg)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to initialize logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	repo, err := buildRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	hub := realtime.NewHub(cfg, log)
	service := chat.NewService(repo, hub, metrics.NewRecorder(), cfg.MaxMessageLength, cfg.HistoryPageLimit, log)
	validator := auth.NewValidator(cfg, log)

	app, err := BuildApplication(cfg, log, service, hub, validator)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build application")
	}

	maintenance := crontab.New(cfg, repo, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.HTTPServer.Run(gctx)
	})
	g.Go(func() error {
		return maintenance.Run(gctx)
	})

	log.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("storage", cfg.StorageBackend).
		Msg("chat service started")

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("service exited with error")
	}
	log.Info().Msg("chat service stopped")
}

// buildRepository selects the storage backend. Postgres is the default;
// memory serves local development and tests.
func buildRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (chat.Repository, error) {
	if cfg.IsMemoryStorage() {
		log.Warn().Msg("using in-memory storage, messages will not survive a restart")
		return store.NewMemoryStore(log), nil
	}

	db, err := database.Connect(database.Config{
		DSN:             cfg.GetDatabaseWriteDSN(),
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return chatrepo.NewRepository(db), nil
}
