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

	"github.com/spf13/cobra"

	"faves_sorter/internal/api"
	"faves_sorter/internal/config"
	"faves_sorter/internal/domain"
	"faves_sorter/internal/scheduler"
	"faves_sorter/internal/service"
	"faves_sorter/internal/telemetry"
	"faves_sorter/internal/twitter"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "faves",
	Short:        "Sort liked tweets into collections",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background refresher",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations or create indexes for the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the latest page of every signed-in user once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRefresh()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, refreshCmd)
}

// app holds everything built from the configuration.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	backend   *backend
	connector *twitter.Connector
	sync      *service.SyncService
	pub       service.Publisher
	shutdown  telemetry.ShutdownFunc
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, err
	}

	pub, err := openPublisher(cfg, logger)
	if err != nil {
		_ = b.Close()
		_ = shutdown(context.Background())
		return nil, err
	}

	connector := twitter.NewConnector(twitter.OAuthConfig{
		ConsumerKey:    cfg.Twitter.ConsumerKey,
		ConsumerSecret: cfg.Twitter.ConsumerSecret,
		CallbackURL:    cfg.Twitter.CallbackURL,
	}, twitter.Config{
		BaseURL:        cfg.Twitter.APIBaseURL,
		PageSize:       cfg.Twitter.PageSize,
		Timeout:        cfg.Twitter.Timeout,
		MaxAttempts:    cfg.Twitter.Retry.MaxAttempts,
		InitialBackoff: cfg.Twitter.Retry.InitialBackoff,
		MaxBackoff:     cfg.Twitter.Retry.MaxBackoff,
	}, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		backend:   b,
		connector: connector,
		sync:      service.NewSyncService(b.favorites, b.ranges, b.tx, pub, logger, cfg.Sync),
		pub:       pub,
		shutdown:  shutdown,
	}, nil
}

func (a *app) sources(user *domain.User) service.RemoteSource {
	return a.connector.Favorites(user)
}

func (a *app) Close() {
	if err := a.pub.Close(); err != nil {
		a.logger.Warn("close publisher", "error", err)
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Warn("close storage", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn("shutdown telemetry", "error", err)
	}
}

func (a *app) newScheduler() *scheduler.Scheduler {
	return scheduler.NewScheduler(a.sync, a.backend.users, a.sources,
		a.cfg.Sync.RefreshInterval, a.cfg.Sync.RefreshTimeout, a.logger)
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	handshakes, err := openHandshakes(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer handshakes.Close()

	router := api.NewRouter(api.Deps{
		Sync:        a.sync,
		Favorites:   service.NewFavoriteService(a.backend.favorites, a.backend.collections, a.pub, a.logger),
		Collections: service.NewCollectionService(a.backend.collections, a.backend.favorites, a.backend.tx, a.logger),
		Authorizer:  a.connector,
		Users:       a.backend.users,
		Sources:     a.sources,
		Handshakes:  handshakes,
		Tokens:      api.NewTokenIssuer(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL),
		Server:      a.cfg.Server,
		Auth:        a.cfg.Auth,
		SyncConfig:  a.cfg.Sync,
		Logger:      a.logger,
	})

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	if a.cfg.Sync.RefreshInterval > 0 {
		sched := a.newScheduler()
		go func() {
			if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("scheduler error", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening",
			"addr", a.cfg.Server.Addr,
			"storage", a.cfg.Storage.Driver,
			"refresh_interval", a.cfg.Sync.RefreshInterval,
		)
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
		a.logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func runMigrate() error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)

	if err := migrateStorage(ctx, cfg, logger); err != nil {
		logger.Error("migration failed", "driver", cfg.Storage.Driver, "error", err)
		return err
	}
	logger.Info("storage is up to date", "driver", cfg.Storage.Driver)
	return nil
}

func runRefresh() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Sync.RefreshTimeout)
	defer cancel()

	n, err := a.newScheduler().RefreshAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh users: %w", err)
	}
	a.logger.Info("refresh complete", "refreshed", n)
	return nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
