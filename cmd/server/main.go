package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-manager/internal/config"
	"expense-manager/internal/handlers"
	applog "expense-manager/internal/log"
	"expense-manager/internal/storage"

	"golang.org/x/sync/errgroup"
)

func main() {
	configFile := flag.String("config", "", "Path to an optional YAML config file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := applog.New(applog.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stdout})
	if err != nil {
		return err
	}
	applog.SetDefault(logger)

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	storageLog := logger.WithComponent(applog.ComponentStorage)
	if removed, err := db.CleanExpiredSessions(); err != nil {
		storageLog.Warn("Failed to clean expired sessions", applog.FieldError, err)
	} else if removed > 0 {
		storageLog.Info("Removed expired sessions", "count", removed)
	}

	if err := bootstrapAdmin(db, cfg, logger.WithComponent(applog.ComponentAuth)); err != nil {
		return err
	}

	h := handlers.NewHandlers(db, logger, cfg.SecureCookie)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "addr", srv.Addr, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// bootstrapAdmin creates the configured admin account when the database has no users.
func bootstrapAdmin(db *storage.DB, cfg *config.Config, logger *applog.Logger) error {
	if cfg.AdminUser == "" {
		return nil
	}

	count, err := db.UserCount()
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	user, err := db.CreateUser(cfg.AdminUser, cfg.AdminEmailOrDefault(), cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	logger.Info("Created admin user", applog.FieldUserID, user.ID, "username", user.Username)
	return nil
}

func setupRouter(h *handlers.Handlers) http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /logout", h.Logout)

	// Protected routes
	protected := func(f http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(f)
	}
	mux.Handle("GET /api/me", protected(h.Me))
	mux.Handle("POST /api/password", protected(h.ChangePassword))
	mux.Handle("GET /api/dashboard", protected(h.Dashboard))
	mux.Handle("GET /api/categories", protected(h.Categories))
	mux.Handle("GET /api/expenses", protected(h.ListExpenses))
	mux.Handle("POST /api/expenses", protected(h.CreateExpense))
	mux.Handle("GET /api/expenses/summary", protected(h.ExpenseSummary))
	mux.Handle("GET /api/expenses/{id}", protected(h.GetExpense))
	mux.Handle("PATCH /api/expenses/{id}", protected(h.UpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", protected(h.DeleteExpense))
	mux.Handle("GET /api/statistics", protected(h.Statistics))
	mux.Handle("GET /api/statistics/month", protected(h.MonthStatistics))

	return h.RequestLogger(mux)
}
