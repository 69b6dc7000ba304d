// Package repository provides the PostgreSQL record store.
package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store errors shared by every implementation.
var (
	ErrNotFound  = errors.New("link not found")
	ErrDuplicate = errors.New("short code or alias already exists")
)

//go:embed schema.sql
var schemaSQL string

// migrationLockID keeps replicas that start together from racing on DDL.
const migrationLockID int64 = 0x736e6970_6d6967 // "snipmig"

// PoolConfig sizes the connection pool. Zero values keep the defaults.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// Repository is the PostgreSQL-backed link store.
type Repository struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and pings it.
func New(ctx context.Context, databaseURL string, pc ...PoolConfig) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 2
	if len(pc) > 0 {
		if pc[0].MaxConns > 0 {
			cfg.MaxConns = pc[0].MaxConns
		}
		if pc[0].MinConns > 0 && pc[0].MinConns <= cfg.MaxConns {
			cfg.MinConns = pc[0].MinConns
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Migrate applies the embedded schema in one transaction under an advisory
// lock. The statements are idempotent, so running it on every start is safe.
func (r *Repository) Migrate(ctx context.Context) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
			return fmt.Errorf("migration lock: %w", err)
		}
		if _, err := tx.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		return nil
	})
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool exposes the pool to tests that need raw SQL.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}
