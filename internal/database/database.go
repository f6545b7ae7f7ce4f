package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajasatyajit/EmergencyTriage/config"
	apperrors "github.com/rajasatyajit/EmergencyTriage/internal/errors"
	"github.com/rajasatyajit/EmergencyTriage/internal/logger"
	"github.com/rajasatyajit/EmergencyTriage/internal/metrics"
)

// ErrNotConfigured is returned by read operations when no DATABASE_URL was given
var ErrNotConfigured = errors.New("database not configured")

const queryTimeout = 10 * time.Second

// DB wraps a pgx pool with logging and metrics. A DB without a pool is
// valid and reports IsConfigured() == false.
type DB struct {
	pool *pgxpool.Pool
	cfg  config.DatabaseConfig
	stop context.CancelFunc
}

// New creates a new database connection
func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	if cfg.URL == "" {
		logger.Info("DATABASE_URL not set; facility directory uses the static table")
		return &DB{cfg: cfg}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		logger.Debug("Database connection established")
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	metricsCtx, stop := context.WithCancel(context.Background())
	db := &DB{pool: pool, cfg: cfg, stop: stop}
	go db.collectMetrics(metricsCtx)

	logger.Info("Database connection established",
		"max_conns", cfg.MaxConns,
		"min_conns", cfg.MinConns,
	)

	return db, nil
}

// Close closes the database connection
func (d *DB) Close() {
	if d.stop != nil {
		d.stop()
	}
	if d.pool != nil {
		d.pool.Close()
		logger.Info("Database connection closed")
	}
}

// collectMetrics periodically publishes pool usage
func (d *DB) collectMetrics(ctx context.Context) {
	if d.pool == nil {
		return
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stat := d.pool.Stat()
			metrics.SetDBConnectionsActive(float64(stat.AcquiredConns()))
		}
	}
}

// Exec executes a statement
func (d *DB) Exec(ctx context.Context, op, sql string, args ...any) error {
	if d.pool == nil {
		return apperrors.DatabaseError{Operation: op, Err: ErrNotConfigured}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := d.pool.Exec(ctx, sql, args...)
	d.observe(op, start, err)
	if err != nil {
		return apperrors.DatabaseError{Operation: op, Err: err}
	}
	return nil
}

// Query executes a query and returns rows. The caller closes the rows;
// the query deadline is released when they are closed.
func (d *DB) Query(ctx context.Context, op, sql string, args ...any) (pgx.Rows, error) {
	if d.pool == nil {
		return nil, apperrors.DatabaseError{Operation: op, Err: ErrNotConfigured}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)

	rows, err := d.pool.Query(ctx, sql, args...)
	d.observe(op, start, err)
	if err != nil {
		cancel()
		return nil, apperrors.DatabaseError{Operation: op, Err: err}
	}
	return &cancelRows{Rows: rows, cancel: cancel}, nil
}

func (d *DB) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		logger.Error("Database operation failed", "op", op, "error", err)
	}
	metrics.RecordDBQuery(op, status)
	logger.Debug("Database operation", "op", op, "duration_ms", time.Since(start).Milliseconds())
}

// cancelRows releases the query context once the rows are closed
type cancelRows struct {
	pgx.Rows
	cancel context.CancelFunc
}

func (r *cancelRows) Close() {
	r.Rows.Close()
	r.cancel()
}

// Health checks database connectivity
func (d *DB) Health(ctx context.Context) error {
	if d.pool == nil {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return d.pool.Ping(ctx)
}

// IsConfigured returns true if database is configured
func (d *DB) IsConfigured() bool {
	return d.pool != nil
}
