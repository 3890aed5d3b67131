package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/events"
	"backoffice/internal/logger"
	"backoffice/internal/mail"
	"backoffice/internal/server"

	"go.uber.org/zap"
)

// shutdownGrace bounds how long in-flight requests may run after a signal
const shutdownGrace = 30 * time.Second

func main() {
	cfg := config.Load()

	log, err := logger.NewWithRollbar(cfg.Server.Env, cfg.Rollbar.Token)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Back office stopped", zap.Error(err))
	}
	log.Info("Graceful shutdown complete")
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log.Info("Starting store back office", zap.String("env", cfg.Server.Env), zap.String("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cfg, log, deps)
	if err != nil {
		if closeErr := deps.Close(); closeErr != nil {
			log.Error("Failed to close connections", zap.Error(closeErr))
		}
		return fmt.Errorf("build server: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		srv.Close()
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	return srv.Close()
}

// connect opens postgres, applies migrations and dials redis, NATS and the mail provider
func connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (server.Deps, error) {
	db, err := database.New(cfg.Database)
	if err != nil {
		return server.Deps{}, fmt.Errorf("open database: %w", err)
	}
	log.Info("Database health check", zap.Any("health", db.Health()))

	// deps grows as connections open so a failed step closes only what exists
	deps := server.Deps{DB: db}
	fail := func(step string, err error) (server.Deps, error) {
		deps.Close()
		return server.Deps{}, fmt.Errorf("%s: %w", step, err)
	}

	if err := database.RunMigrations(db.DB(), cfg.Server.MigrationsDir, log); err != nil {
		return fail("migrate", err)
	}
	if deps.Redis, err = database.NewRedisClient(ctx, cfg.Redis); err != nil {
		return fail("connect to redis", err)
	}
	if deps.Publisher, err = events.New(cfg.NATS.URL, log); err != nil {
		return fail("connect to NATS", err)
	}
	if deps.Mailer, err = mail.New(cfg.Mail, log); err != nil {
		return fail("configure mail", err)
	}
	return deps, nil
}
