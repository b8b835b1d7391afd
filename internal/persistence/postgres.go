package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/config"
)

// Postgres holds the pool serving the users table. A zero Postgres is
// valid and reports ErrNotConfigured.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres connects when POSTGRES_DSN is set. Without a DSN it returns an
// unconfigured Postgres so the portal can still serve token checks.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not set; user lookups will fail")
		return &Postgres{}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	applyPoolLimits(poolCfg, cfg)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("connected to postgres",
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Duration("conn_max_life", poolCfg.MaxConnLifetime))
	return &Postgres{Pool: pool}, nil
}

// applyPoolLimits overrides pgx defaults with the positive values of cfg.
func applyPoolLimits(poolCfg *pgxpool.Config, cfg config.PostgresConfig) {
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdle > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdle
	}
	if cfg.ConnMaxLife > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLife
	}
}

// Configured reports whether a pool is open.
func (p *Postgres) Configured() bool {
	return p != nil && p.Pool != nil
}

// Ping checks the pool; ErrNotConfigured without one.
func (p *Postgres) Ping(ctx context.Context) error {
	if !p.Configured() {
		return fmt.Errorf("postgres: %w", ErrNotConfigured)
	}
	return p.Pool.Ping(ctx)
}

// PoolHandle returns the pool, nil when unconfigured.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if !p.Configured() {
		return nil
	}
	return p.Pool
}

// Close releases the pool.
func (p *Postgres) Close() {
	if p.Configured() {
		p.Pool.Close()
	}
}
