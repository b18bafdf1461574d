// Command identityd serves the account and session API over HTTP, backed by
// PostgreSQL for accounts and Redis for session liveness.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/meridianlegal/identity"
	"github.com/meridianlegal/identity/httpapi"
	"github.com/meridianlegal/identity/mail"
	"github.com/meridianlegal/identity/metrics"
	"github.com/meridianlegal/identity/store/postgres"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(ctx, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown", "error", err)
		}
	}()

	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	accounts, db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	collector := metrics.NewCollector()
	engine, err := identity.New(identity.Config{
		Token: identity.TokenConfig{
			AccessSecret:  []byte(cfg.AccessSecret),
			RefreshSecret: []byte(cfg.RefreshSecret),
			AccessTTL:     cfg.AccessTTL,
			RefreshTTL:    cfg.RefreshTTL,
			Issuer:        cfg.Issuer,
		},
		Reset:       identity.ResetConfig{TTL: cfg.ResetTTL},
		EmailChange: identity.EmailChangeConfig{TTL: cfg.EmailChangeTTL},
		LoginThrottle: identity.ThrottleConfig{
			Attempts: cfg.LoginAttempts,
			Window:   cfg.LoginWindow,
		},
	}, accounts, rdb,
		identity.WithLogger(log),
		identity.WithMetrics(collector),
		identity.WithMailer(mail.NewLogMailer(log)),
	)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	api := httpapi.NewServer(engine, httpapi.WithLogger(log))

	root := chi.NewRouter()
	root.Mount("/", api.Routes())
	root.Method(http.MethodGet, "/metrics", collector.Handler())
	root.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := engine.Ping(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
