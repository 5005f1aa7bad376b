// Package db owns the PostgreSQL connection pool and transaction helper used
// by the postgres repositories and the migrator.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/campushub/internal/config"
	"github.com/yigit/campushub/internal/pkg/helpers"
	"github.com/yigit/campushub/internal/pkg/logger"
)

const (
	connectTimeout  = 10 * time.Second
	txTimeout       = 30 * time.Second
	defaultLifetime = time.Hour
)

// PostgresDB wraps the pgx pool shared by every repository
type PostgresDB struct {
	Pool *pgxpool.Pool
}

// PoolOptions sizes the connection pool
type PoolOptions struct {
	MaxConns    int32
	MinConns    int32
	MaxLifetime time.Duration
}

// NewPostgresDB connects using the database section of the config
func NewPostgresDB(cfg *config.Config) (*PostgresDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	return Connect(ctx, cfg.GetPostgresConnectionString(), PoolOptions{
		MaxConns:    int32(cfg.Database.MaxOpenConns),
		MinConns:    int32(cfg.Database.MaxIdleConns),
		MaxLifetime: helpers.ParseDuration(cfg.Database.ConnMaxLifetime, defaultLifetime),
	})
}

// Connect opens a pool for connString and pings it. Zero options keep the
// pgxpool defaults.
func Connect(ctx context.Context, connString string, opts PoolOptions) (*PostgresDB, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = opts.MinConns
	}
	if opts.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxLifetime
	}
	poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		if err := conn.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("Dropping unhealthy connection")
			return false
		}
		return true
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresDB{Pool: pool}, nil
}

// Close releases every pooled connection
func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// TransactionFn is a function that executes within a transaction
type TransactionFn func(ctx context.Context, tx pgx.Tx) error

// WithTransaction runs fn in a transaction, committing only if fn succeeds.
// Errors returned by fn stay matchable with errors.Is even when the rollback
// fails too.
func (db *PostgresDB) WithTransaction(ctx context.Context, fn TransactionFn) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, txTimeout)
		defer cancel()
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	return runInTx(ctx, tx, fn)
}

func runInTx(ctx context.Context, tx pgx.Tx, fn TransactionFn) error {
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logger.Error().Err(rbErr).AnErr("cause", err).Msg("Transaction rollback failed")
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
