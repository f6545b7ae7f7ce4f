package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rajasatyajit/EmergencyTriage/config"
	"github.com/rajasatyajit/EmergencyTriage/internal/api"
	"github.com/rajasatyajit/EmergencyTriage/internal/classifier"
	"github.com/rajasatyajit/EmergencyTriage/internal/database"
	"github.com/rajasatyajit/EmergencyTriage/internal/directory"
	"github.com/rajasatyajit/EmergencyTriage/internal/guidance"
	"github.com/rajasatyajit/EmergencyTriage/internal/locate"
	"github.com/rajasatyajit/EmergencyTriage/internal/logger"
	"github.com/rajasatyajit/EmergencyTriage/internal/metrics"
	middlewares "github.com/rajasatyajit/EmergencyTriage/internal/middleware"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
	"github.com/rajasatyajit/EmergencyTriage/internal/notify"
	"github.com/rajasatyajit/EmergencyTriage/internal/ratelimit"
	"github.com/rajasatyajit/EmergencyTriage/internal/store"
	"github.com/rajasatyajit/EmergencyTriage/internal/triage"
)

func serve(ctx context.Context) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting EmergencyTriage",
		"version", Version,
		"build_time", BuildTime,
		"git_commit", GitCommit,
	)

	// Initialize metrics
	if cfg.Metrics.Enabled {
		metrics.Init()
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()

	facilityStore, err := openStore(ctx, cfg, db)
	if err != nil {
		return err
	}

	var rl *ratelimit.Manager
	if cfg.Redis.URL != "" {
		rl, err = ratelimit.NewManager(cfg.Redis.URL,
			ratelimit.WithPassword(cfg.Redis.Password),
			ratelimit.WithDB(cfg.Redis.DB),
		)
		if err != nil {
			// Redis is optional; fall back to in-process limiting and no cache
			logger.Warn("Redis unavailable; continuing without it", "error", err)
			rl = nil
		} else {
			defer rl.Close()
		}
	}

	dir := buildDirectory(cfg, facilityStore, rl)

	registry, err := guidance.LoadOrDefault(cfg.Guidance.Path)
	if err != nil {
		return fmt.Errorf("load guidance: %w", err)
	}

	model, err := classifier.LoadOrTrain(cfg.Classifier.ArtifactDir)
	if err != nil {
		return fmt.Errorf("load classifier: %w", err)
	}

	service := triage.New(triage.Options{
		Classifier: model,
		Guidance:   registry,
		Directory:  dir,
		Locator:    locate.New(cfg.Location),
		Dispatcher: notify.NewDispatcher(cfg.Notify.MaxConcurrency, cfg.Notify.SendTimeout),
		Channels:   func() []notify.Channel { return notify.Channels(cfg.Notify) },
		TopK:       cfg.Directory.TopK,
	})

	apiHandler := api.NewHandler(service, Version, BuildTime, GitCommit).
		WithHealthCheck("store", facilityStore)
	if rl != nil {
		apiHandler.WithHealthCheck("redis", redisHealth{rl}).
			WithRateLimit(middlewares.RedisRateLimit(rl, cfg.RateLimit.RequestsPerMinute))
	} else {
		apiHandler.WithRateLimit(middlewares.RateLimit(cfg.RateLimit.RequestsPerMinute))
	}

	r := newRouter(cfg)
	apiHandler.RegisterRoutes(r)

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			"address", addr,
			"directory", cfg.Directory.Mode,
			"location", cfg.Location.Mode,
			"channels", cfg.Notify.Channels,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
	return nil
}

// newRouter builds the router with the global middleware stack
func newRouter(cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.Logging)
	r.Use(middlewares.Metrics)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.ReadTimeout))
	r.Use(middlewares.Security)
	r.Use(middlewares.CORS(cfg.Server.AllowedOrigins))

	return r
}

// openStore picks the facility table backing the static and postgres modes.
// Postgres is migrated and seeded with the demo table when empty.
func openStore(ctx context.Context, cfg *config.Config, db *database.DB) (store.Store, error) {
	if cfg.Directory.Mode != config.DirectoryPostgres {
		return store.NewSeededStore(), nil
	}

	pg := store.NewPostgresStore(db)
	if err := pg.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate facilities: %w", err)
	}

	empty := true
	for _, t := range []models.FacilityType{models.FacilityHospital, models.FacilityPolice} {
		existing, err := pg.ListFacilities(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("inspect facilities: %w", err)
		}
		if len(existing) > 0 {
			empty = false
		}
	}
	if empty {
		if err := pg.UpsertFacilities(ctx, store.DemoFacilities()); err != nil {
			return nil, fmt.Errorf("seed facilities: %w", err)
		}
		logger.Info("Seeded facility table with demo data")
	}
	return pg, nil
}

// buildDirectory selects the facility provider; Redis, when present,
// caches lookups in front of it
func buildDirectory(cfg *config.Config, s store.Store, rl *ratelimit.Manager) directory.Directory {
	var dir directory.Directory
	switch cfg.Directory.Mode {
	case config.DirectoryLive:
		dir = directory.NewNominatim(directory.NominatimConfig{
			URL:       cfg.Directory.LiveURL,
			UserAgent: cfg.Directory.UserAgent,
			Timeout:   cfg.Directory.Timeout,
			RateLimit: cfg.Directory.RateLimit,
		})
	default:
		dir = directory.FromStore(s, cfg.Directory.Mode)
	}

	if rl != nil {
		dir = directory.NewCached(dir, rl.Client(), cfg.Redis.CacheTTL)
	}
	return dir
}

type redisHealth struct {
	m *ratelimit.Manager
}

func (h redisHealth) Health(ctx context.Context) error {
	return h.m.Client().Ping(ctx).Err()
}
