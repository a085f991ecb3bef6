// @title RoomzIO API
// @version 1.0
// @description Session authentication and user administration for the RoomzIO facility platform.
// @BasePath /
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name ROOMZIO-AUTH
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

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Elale1984/RoomzIO-API/internal/api"
	"github.com/Elale1984/RoomzIO-API/internal/api/handler"
	"github.com/Elale1984/RoomzIO-API/internal/core/ports"
	"github.com/Elale1984/RoomzIO-API/internal/core/service"
	"github.com/Elale1984/RoomzIO-API/internal/infrastructure/db/memory"
	"github.com/Elale1984/RoomzIO-API/internal/infrastructure/db/mongo"
	"github.com/Elale1984/RoomzIO-API/internal/infrastructure/db/redis"
	"github.com/Elale1984/RoomzIO-API/internal/infrastructure/queue"
	"github.com/Elale1984/RoomzIO-API/internal/pkg/config"
	"github.com/Elale1984/RoomzIO-API/pkg/credential"
	"github.com/Elale1984/RoomzIO-API/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Str("service", "roomzio-api").Logger()
		boot.Fatal().Err(err).Msg("service stopped")
	}
}

// run wires the service and serves until ctx is cancelled or the server fails.
func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "roomzio-api",
	})

	hasher, err := credential.NewHasher(cfg.Auth.Secret)
	if err != nil {
		return fmt.Errorf("credential hasher: %w", err)
	}

	checks := make(map[string]handler.Check)

	// --- Storage ---
	var (
		users  ports.UserRepository
		audits ports.AuditRepository
	)
	switch cfg.Storage {
	case config.StorageMongo:
		store, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "roomzio-api",
		})
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				log.Error().Err(err).Msg("failed to close mongodb client")
			}
		}()
		if err := store.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("mongo indexes: %w", err)
		}
		users = mongo.NewUserRepository(store.Database())
		audits = mongo.NewAuditRepository(store.Database())
		checks["mongodb"] = store.Ping
	default:
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		users = memory.NewUserRepository()
		audits = memory.NewAuditRepository()
	}

	// --- Login throttle ---
	var throttle ports.LoginThrottle
	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, login throttling disabled")
	} else {
		defer closeRedis(rdb, log)
		throttle = redis.NewLoginThrottle(rdb, cfg.Auth.MaxLoginFailures, cfg.Auth.LoginFailureWindow)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// --- Audit trail ---
	// Deferred after the store close, so pending events drain before the
	// client goes away.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	dispatcher := queue.NewAuditDispatcher(cfg.Audit.Workers, audits, log)
	dispatcher.Start(auditCtx)
	defer func() {
		stopAudit()
		dispatcher.Wait()
	}()

	// --- Services ---
	authService := service.NewAuthService(users, hasher, throttle, dispatcher, log)
	userService := service.NewUserService(users, dispatcher, log)

	if cfg.Bootstrap.Username != "" {
		email := cfg.Bootstrap.Email
		if email == "" {
			email = cfg.Bootstrap.Username + "@roomzio.local"
		}
		created, err := authService.EnsureAdmin(ctx, ports.RegisterInput{
			FirstName: "System",
			LastName:  "Administrator",
			Username:  cfg.Bootstrap.Username,
			Email:     email,
			Password:  cfg.Bootstrap.Password,
		})
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			log.Info().Str("username", cfg.Bootstrap.Username).Msg("bootstrap admin created")
		}
	}

	// --- HTTP server ---
	e := api.NewRouter(api.Deps{
		Auth:  authService,
		Users: userService,
		Log:   log,
		Cookie: handler.CookieConfig{
			Name:   cfg.Cookie.Name,
			Domain: cfg.Cookie.Domain,
			Secure: cfg.Cookie.Secure,
		},
		CORSOrigins:     cfg.CORS.Origins,
		AuthRateLimit:   cfg.Auth.RateLimit,
		ReadinessChecks: checks,
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}

	log.Info().Msg("shutdown complete")
	return runErr
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close redis client")
	}
}
