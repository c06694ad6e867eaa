// Package postgres provides the Postgres-backed result cache.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatlens/chatlens/internal/detect"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for cache rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// Cache implements detect.ResultCache over a Postgres table with one row
// per normalized URL.
type Cache struct {
	pool  pool
	table string
}

// NewCache creates a Postgres-backed Cache using the provided config.
func NewCache(ctx context.Context, cfg Config) (*Cache, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("cache.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "chat_analysis_cache"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Cache{pool: p, table: table}, nil
}

// NewCacheWithPool constructs a Cache from an existing pool (primarily for
// testing).
func NewCacheWithPool(p pool, table string) (*Cache, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "chat_analysis_cache"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Cache{pool: p, table: table}, nil
}

// Close releases the underlying pool resources.
func (c *Cache) Close() {
	if c == nil || c.pool == nil {
		return
	}
	c.pool.Close()
}

// Get loads the cached entry for the URL. A missing row is a plain miss; a
// row whose payload fails to decode returns an ErrAnalysisParse-wrapped
// error so callers re-analyze.
func (c *Cache) Get(ctx context.Context, url string) (detect.CacheEntry, bool, error) {
	key := detect.NormalizeURL(url)
	query := fmt.Sprintf(`SELECT result, created_at FROM %s WHERE url = $1`, c.table)

	var (
		payload   []byte
		createdAt time.Time
	)
	err := c.pool.QueryRow(ctx, query, key).Scan(&payload, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return detect.CacheEntry{}, false, nil
	}
	if err != nil {
		return detect.CacheEntry{}, false, fmt.Errorf("%w: %v", detect.ErrCacheUnavailable, err)
	}

	var result detect.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return detect.CacheEntry{}, false, fmt.Errorf("%w: %v", detect.ErrAnalysisParse, err)
	}
	return detect.CacheEntry{URL: key, Result: result, CreatedAt: createdAt.UTC()}, true, nil
}

// Put upserts the entry by normalized URL, last writer wins.
func (c *Cache) Put(ctx context.Context, entry detect.CacheEntry) error {
	key := detect.NormalizeURL(entry.URL)
	payload, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (url, result, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (url) DO UPDATE SET result = EXCLUDED.result, created_at = EXCLUDED.created_at`, c.table)

	if _, err := c.pool.Exec(ctx, query, key, payload, entry.CreatedAt); err != nil {
		return fmt.Errorf("%w: %v", detect.ErrCacheUnavailable, err)
	}
	return nil
}
