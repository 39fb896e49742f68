package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
)

// PostgresCacheStorage handles database operations for named caches in PostgreSQL.
type PostgresCacheStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresCacheStorage creates a new PostgresCacheStorage.
func NewPostgresCacheStorage(pool *pgxpool.Pool) *PostgresCacheStorage {
	return &PostgresCacheStorage{pool: pool}
}

// Open returns the named cache, creating it if needed.
func (s *PostgresCacheStorage) Open(ctx context.Context, name string) (domain.Cache, error) {
	query, args, err := psql.
		Insert("caches").
		Columns("name").
		Values(name).
		Suffix("ON CONFLICT (name) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Open query for cache %s: %w", name, err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("open cache %s: %w", name, err)
	}

	return &postgresCache{pool: s.pool, name: name}, nil
}

// Delete removes the named cache; entries go with it via ON DELETE CASCADE.
func (s *PostgresCacheStorage) Delete(ctx context.Context, name string) (bool, error) {
	query, args, err := psql.
		Delete("caches").
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build Delete query for cache %s: %w", name, err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete cache %s: %w", name, err)
	}

	deleted := tag.RowsAffected() > 0
	if deleted {
		slog.Debug("cache deleted", "cache", name)
	}
	return deleted, nil
}

// Has reports whether the named cache exists.
func (s *PostgresCacheStorage) Has(ctx context.Context, name string) (bool, error) {
	query, args, err := psql.
		Select("1").
		From("caches").
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build Has query for cache %s: %w", name, err)
	}

	var one int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query cache %s: %w", name, err)
	}
	return true, nil
}

// Names returns all cache names in creation order.
func (s *PostgresCacheStorage) Names(ctx context.Context) ([]string, error) {
	query, args, err := psql.
		Select("name").
		From("caches").
		OrderBy("created_at", "name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Names query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cache names: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan cache names: %w", err)
	}
	return names, nil
}

// postgresCache is a single named cache stored in cache_entries.
type postgresCache struct {
	pool *pgxpool.Pool
	name string
}

// Match returns the entry stored under key.
func (c *postgresCache) Match(ctx context.Context, key string) (*domain.Response, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	query, args, err := psql.
		Select(entryColumns...).
		From("cache_entries").
		Where(sq.Eq{"cache_name": c.name, "request_url": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Match query for %s: %w", key, err)
	}

	var resp domain.Response
	var headers []byte
	err = c.pool.QueryRow(ctx, query, args...).Scan(
		&resp.URL,
		&resp.Status,
		&headers,
		&resp.Body,
		&resp.StoredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("query cache entry %s: %w", key, err)
	}

	if resp.Header, err = decodeHeader(headers); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Put upserts the entry under key. The cache row is recreated if the cache
// was deleted concurrently, so a late write never fails on the foreign key.
func (c *postgresCache) Put(ctx context.Context, key string, resp *domain.Response) error {
	if err := checkKey(key); err != nil {
		return err
	}

	headers, err := encodeHeader(resp.Header)
	if err != nil {
		return err
	}
	body := resp.Body
	if body == nil {
		body = []byte{}
	}

	ensureQuery, ensureArgs, err := psql.
		Insert("caches").
		Columns("name").
		Values(c.name).
		Suffix("ON CONFLICT (name) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build ensure cache query: %w", err)
	}

	query, args, err := psql.
		Insert("cache_entries").
		Columns("cache_name", "request_url", "status", "headers", "body", "stored_at").
		Values(c.name, key, resp.Status, string(headers), body, time.Now().UTC()).
		Suffix(`ON CONFLICT (cache_name, request_url) DO UPDATE SET
			status = EXCLUDED.status,
			headers = EXCLUDED.headers,
			body = EXCLUDED.body,
			stored_at = EXCLUDED.stored_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Put query for %s: %w", key, err)
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	if _, err := tx.Exec(ctx, ensureQuery, ensureArgs...); err != nil {
		return fmt.Errorf("ensure cache %s: %w", c.name, err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("put cache entry %s: %w", key, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes the entry under key.
func (c *postgresCache) Delete(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	query, args, err := psql.
		Delete("cache_entries").
		Where(sq.Eq{"cache_name": c.name, "request_url": key}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build Delete query for %s: %w", key, err)
	}

	tag, err := c.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete cache entry %s: %w", key, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Keys returns every key, oldest write first.
func (c *postgresCache) Keys(ctx context.Context) ([]string, error) {
	query, args, err := psql.
		Select("request_url").
		From("cache_entries").
		Where(sq.Eq{"cache_name": c.name}).
		OrderBy("stored_at", "request_url").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Keys query: %w", err)
	}

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cache keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan cache keys: %w", err)
	}
	return keys, nil
}
