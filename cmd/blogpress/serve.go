package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"blogpress/internal/database"
	"blogpress/internal/handlers"
	"blogpress/internal/middleware"
	"blogpress/internal/render"
	"blogpress/internal/router"
	"blogpress/internal/session"
	"blogpress/internal/store"
)

func serveCmd() *cobra.Command {
	var noMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), !noMigrate)
		},
	}
	cmd.Flags().BoolVar(&noMigrate, "no-migrate", false, "skip pending migrations on startup")
	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if migrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// No-op once any user exists.
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
	}

	valkeyClient, err := session.Connect(net.JoinHostPort(cfg.ValkeyHost, cfg.ValkeyPort), cfg.ValkeyPassword)
	if err != nil {
		return fmt.Errorf("connect valkey: %w", err)
	}
	defer valkeyClient.Close()

	// Outside development, cookies are HTTPS-only.
	secure := !cfg.IsDev()
	sessions := session.NewStore(valkeyClient, secure)

	renderer, err := render.New(cfg.IsDev(), cfg.SiteTitle, sessions)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	users := store.NewUserStore(db)
	cats := store.NewCategoryStore(db)

	limiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	defer limiter.Stop()

	r := router.New(router.Deps{
		Sessions:     sessions,
		Categories:   cats,
		CSRF:         middleware.NewCSRF(secure),
		LoginLimiter: limiter,
		Auth:         handlers.NewAuth(renderer, sessions, users, cfg.SiteTitle),
		Admin:        handlers.NewAdminCategory(renderer, cats, sessions),
		Public:       handlers.NewPublicCategory(renderer, cats, cfg.BaseURL, cfg.SiteTitle),
		HSTS:         secure,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
