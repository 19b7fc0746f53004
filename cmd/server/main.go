package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iliyamo/user-auth-service/internal/auth"
	"github.com/iliyamo/user-auth-service/internal/config"
	"github.com/iliyamo/user-auth-service/internal/database"
	"github.com/iliyamo/user-auth-service/internal/handler"
	"github.com/iliyamo/user-auth-service/internal/logging"
	"github.com/iliyamo/user-auth-service/internal/middleware"
	"github.com/iliyamo/user-auth-service/internal/queue"
	"github.com/iliyamo/user-auth-service/internal/repository"
	"github.com/iliyamo/user-auth-service/internal/router"
)

func main() {
	cfg := config.Load() // Load environment config, exits on missing vars

	logger, closeLog, err := logging.New(cfg.Env, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closeLog.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		// os.Exit skips deferred calls, so release everything first.
		os.Exit(fail(logger, err, stop, func() { _ = closeLog.Close() }))
	}
}

// fail logs err, runs cleanup in order and returns the exit code.
func fail(logger logging.Logger, err error, cleanup ...func()) int {
	logger.Error(context.Background(), "server stopped", "error", err)
	for _, fn := range cleanup {
		fn()
	}
	return 1
}

func run(ctx context.Context, cfg config.Config, logger logging.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Redis is optional: nil disables the user cache and moves rate limiting
	// into process memory.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
		logger.Info(ctx, "redis connected")
	} else {
		logger.Warn(ctx, "redis unavailable, using in-memory rate limiting and no user cache")
	}
	users := repository.NewCachedUserRepo(store, rdb, config.LoadUserCacheConfig(), logger)

	hasher, err := auth.NewHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute, cfg.JWTIssuer)
	if err != nil {
		return err
	}

	events, closeEvents := newPublisher(cfg)
	defer closeEvents()

	svc, err := auth.NewService(users, auth.NewHashPool(hasher, cfg.HashWorkers), tokens, events, logger,
		auth.Options{AllowNameLogin: cfg.LoginAllowName})
	if err != nil {
		return err
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := svc.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			logger.Info(ctx, "admin account seeded", "email", cfg.AdminEmail)
		}
	}

	if cfg.AuditEnabled && cfg.AuditConsumer {
		stopConsumer, err := startAuditConsumer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stopConsumer()
	}

	e := router.New(router.Deps{
		Auth:              handler.NewAuthHandler(svc, logger),
		Resolver:          auth.NewResolver(tokens, users, nil),
		RateLimit:         middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb, logger),
		Log:               logger,
		CORSAllowOrigins:  cfg.CORSAllowOrigins,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore returns the configured UserStore and a function releasing it.
func openStore(ctx context.Context, cfg config.Config, logger logging.Logger) (repository.UserStore, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn(ctx, "using in-memory user store, data is lost on restart")
		return repository.NewMemoryUserRepo(), func() {}, nil
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	logger.Info(ctx, "database connected", "host", cfg.DBHost, "name", cfg.DBName)
	return repository.NewUserRepo(db), closeDB(db, logger), nil
}

func closeDB(db *sql.DB, logger logging.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Warn(context.Background(), "close database", "error", err)
		}
		logger.Info(context.Background(), "database disconnected")
	}
}

// newPublisher returns the audit publisher. With auditing off events are
// dropped.
func newPublisher(cfg config.Config) (queue.Publisher, func()) {
	if !cfg.AuditEnabled {
		return queue.NopPublisher{}, func() {}
	}
	p := queue.NewAMQPPublisher(cfg.AMQPURL)
	return p, func() { _ = p.Close() }
}

// startAuditConsumer runs the in-process consumer until ctx ends or the
// returned stop function is called. stop waits for the consumer to exit and
// closes the audit file.
func startAuditConsumer(ctx context.Context, cfg config.Config, logger logging.Logger) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.AuditLogFile), 0o755); err != nil {
		return nil, fmt.Errorf("audit log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.AuditLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	cctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := queue.StartAuditConsumer(cctx, cfg.AMQPURL, f, logger.With("component", "audit-consumer"))
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(context.Background(), "audit consumer stopped", "error", err)
		}
	}()
	return func() {
		cancel()
		<-done
		_ = f.Close()
	}, nil
}
