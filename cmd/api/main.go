// Command api serves the MediTrack REST API.
//
// @title                       MediTrack API
// @version                     1.0
// @description                 Hospital management API: authentication, patients, inventory and system logs.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/meditrack/meditrack-api/internal/api"
	"github.com/meditrack/meditrack-api/internal/api/handler"
	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
	"github.com/meditrack/meditrack-api/internal/core/service"
	"github.com/meditrack/meditrack-api/internal/infrastructure/config"
	"github.com/meditrack/meditrack-api/internal/infrastructure/db/memory"
	mongodb "github.com/meditrack/meditrack-api/internal/infrastructure/db/mongo"
	"github.com/meditrack/meditrack-api/internal/infrastructure/db/postgres"
	redisdb "github.com/meditrack/meditrack-api/internal/infrastructure/db/redis"
	"github.com/meditrack/meditrack-api/internal/infrastructure/queue"
	"github.com/meditrack/meditrack-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "meditrack-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close(log)

	app.dispatcher.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	if err := app.dispatcher.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("audit queue did not drain")
	}
	return nil
}

type application struct {
	router     http.Handler
	dispatcher *queue.Dispatcher
	closers    []func(context.Context) error
}

func (a *application) close(log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Error().Err(err).Msg("close backend")
		}
	}
}

func build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *application, err error) {
	app := &application{}
	defer func() {
		if err != nil {
			app.close(log)
		}
	}()

	checks := make(map[string]handler.DependencyCheck)

	var (
		credRepo   ports.CredentialRepository
		recordRepo ports.RecordRepository
		auditRepo  ports.AuditRepository
		denylist   ports.TokenDenylist
	)

	// --- MongoDB ---
	if cfg.UsesMongo() {
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, client.Disconnect)
		checks["mongodb"] = func(ctx context.Context) error { return mongodb.Ping(ctx, db) }

		if cfg.Storage.Credentials == config.BackendMongo {
			repo := mongodb.NewCredentialRepository(db)
			if err := repo.EnsureIndexes(ctx); err != nil {
				return nil, err
			}
			credRepo = repo
		}
		if cfg.Storage.Data == config.BackendMongo {
			records := mongodb.NewRecordRepository(db)
			if err := records.EnsureIndexes(ctx,
				domain.ResourcePatients.Collection,
				domain.ResourcePatientMonitoring.Collection,
				domain.ResourceInventoryCategories.Collection,
				domain.ResourceInventoryItems.Collection,
				domain.ResourceInventoryTransactions.Collection,
			); err != nil {
				return nil, err
			}
			audit := mongodb.NewAuditRepository(db)
			if err := audit.EnsureIndexes(ctx); err != nil {
				return nil, err
			}
			recordRepo, auditRepo = records, audit
		}
	}

	// --- PostgreSQL ---
	if cfg.Storage.Credentials == config.BackendPostgres {
		db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN, MaxOpenConns: cfg.Postgres.MaxOpenConns})
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return db.Close() })
		repo := postgres.NewCredentialRepository(db)
		checks["postgres"] = repo.Ping
		credRepo = repo
	}

	// --- Redis ---
	if cfg.Redis.Addr != "" {
		client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		checks["redis"] = redisdb.Pinger(client)
		if cfg.Auth.RevokeOnLogout {
			denylist = redisdb.NewDenylist(client)
		}
	}

	// --- In-memory fallbacks ---
	if credRepo == nil {
		credRepo = memory.NewCredentialRepository()
		log.Warn().Msg("credential store is in-memory; accounts are lost on restart")
	}
	if recordRepo == nil {
		recordRepo = memory.NewRecordRepository()
	}
	if auditRepo == nil {
		auditRepo = memory.NewAuditRepository()
	}

	// --- Core services ---
	roles, err := cfg.RoleSet()
	if err != nil {
		return nil, err
	}
	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	store, err := service.NewCredentialStore(credRepo, hasher, roles, domain.Role(cfg.Auth.DefaultRole))
	if err != nil {
		return nil, err
	}
	tokens, err := service.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer)
	if err != nil {
		return nil, err
	}

	app.dispatcher = queue.NewDispatcher(cfg.Audit.Workers, auditRepo, log.With().Str("component", "audit").Logger())

	authOpts := []service.AuthOption{
		service.WithAuditRecorder(app.dispatcher),
		service.WithLogger(log.With().Str("component", "auth").Logger()),
	}
	if denylist != nil {
		authOpts = append(authOpts, service.WithDenylist(denylist))
	}
	auth, err := service.NewAuthService(store, hasher, tokens, cfg.TokenTTL(), authOpts...)
	if err != nil {
		return nil, err
	}

	if err := seedAdmin(ctx, cfg, store, log); err != nil {
		return nil, err
	}

	app.router = api.NewRouter(api.Dependencies{
		Auth:           auth,
		Tokens:         tokens,
		Denylist:       denylist,
		Records:        service.NewRecordService(recordRepo),
		AuditLog:       service.NewAuditLogService(auditRepo),
		Checks:         checks,
		AllowedOrigins: cfg.AllowedOrigins(),
		Logger:         log,
		Registerer:     prometheus.DefaultRegisterer,
		Gatherer:       prometheus.DefaultGatherer,
	})
	return app, nil
}

// seedAdmin creates the bootstrap admin account when configured. An existing
// account with that username is left untouched.
func seedAdmin(ctx context.Context, cfg *config.Config, store ports.CredentialStore, log zerolog.Logger) error {
	if cfg.Seed.AdminUsername == "" {
		return nil
	}

	_, err := store.Create(ctx, domain.NewCredential{
		Username: cfg.Seed.AdminUsername,
		Password: cfg.Seed.AdminPassword,
		FullName: "System Administrator",
		Role:     domain.RoleAdmin,
	})
	switch {
	case errors.Is(err, domain.ErrUserExists):
		log.Info().Str("username", cfg.Seed.AdminUsername).Msg("seed admin already present")
		return nil
	case err != nil:
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Info().Str("username", cfg.Seed.AdminUsername).Msg("seed admin created")
	return nil
}
