package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
)

// sqliteTimeLayout is fixed-width so stored timestamps sort as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteCacheStorage handles database operations for named caches in SQLite.
type SQLiteCacheStorage struct {
	db *sql.DB
}

// NewSQLiteCacheStorage creates a new SQLiteCacheStorage.
func NewSQLiteCacheStorage(db *sql.DB) *SQLiteCacheStorage {
	return &SQLiteCacheStorage{db: db}
}

func nowText() string {
	return time.Now().UTC().Format(sqliteTimeLayout)
}

// Open returns the named cache, creating it if needed.
func (s *SQLiteCacheStorage) Open(ctx context.Context, name string) (domain.Cache, error) {
	query, args, err := sqlite.
		Insert("caches").
		Columns("name", "created_at").
		Values(name, nowText()).
		Suffix("ON CONFLICT (name) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Open query for cache %s: %w", name, err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("open cache %s: %w", name, err)
	}

	return &sqliteCache{db: s.db, name: name}, nil
}

// Delete removes the named cache and its entries in one transaction.
func (s *SQLiteCacheStorage) Delete(ctx context.Context, name string) (bool, error) {
	entriesQuery, entriesArgs, err := sqlite.
		Delete("cache_entries").
		Where(sq.Eq{"cache_name": name}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build Delete entries query for cache %s: %w", name, err)
	}
	cacheQuery, cacheArgs, err := sqlite.
		Delete("caches").
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build Delete query for cache %s: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, entriesQuery, entriesArgs...); err != nil {
		return false, fmt.Errorf("delete entries of cache %s: %w", name, err)
	}
	res, err := tx.ExecContext(ctx, cacheQuery, cacheArgs...)
	if err != nil {
		return false, fmt.Errorf("delete cache %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	if n > 0 {
		slog.Debug("cache deleted", "cache", name)
	}
	return n > 0, nil
}

// Has reports whether the named cache exists.
func (s *SQLiteCacheStorage) Has(ctx context.Context, name string) (bool, error) {
	query, args, err := sqlite.
		Select("1").
		From("caches").
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build Has query for cache %s: %w", name, err)
	}

	var one int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query cache %s: %w", name, err)
	}
	return true, nil
}

// Names returns all cache names in creation order.
func (s *SQLiteCacheStorage) Names(ctx context.Context) ([]string, error) {
	query, args, err := sqlite.
		Select("name").
		From("caches").
		OrderBy("created_at", "name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Names query: %w", err)
	}
	return queryStrings(ctx, s.db, query, args)
}

// sqliteCache is a single named cache stored in cache_entries.
type sqliteCache struct {
	db   *sql.DB
	name string
}

// Match returns the entry stored under key.
func (c *sqliteCache) Match(ctx context.Context, key string) (*domain.Response, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	query, args, err := sqlite.
		Select(entryColumns...).
		From("cache_entries").
		Where(sq.Eq{"cache_name": c.name, "request_url": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Match query for %s: %w", key, err)
	}

	var resp domain.Response
	var headers, storedAt string
	err = c.db.QueryRowContext(ctx, query, args...).Scan(
		&resp.URL,
		&resp.Status,
		&headers,
		&resp.Body,
		&storedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("query cache entry %s: %w", key, err)
	}

	if resp.Header, err = decodeHeader([]byte(headers)); err != nil {
		return nil, err
	}
	if resp.StoredAt, err = time.Parse(sqliteTimeLayout, storedAt); err != nil {
		return nil, fmt.Errorf("parse stored_at of %s: %w", key, err)
	}
	return &resp, nil
}

// Put upserts the entry under key, recreating the cache row if needed.
func (c *sqliteCache) Put(ctx context.Context, key string, resp *domain.Response) error {
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
	now := nowText()

	ensureQuery, ensureArgs, err := sqlite.
		Insert("caches").
		Columns("name", "created_at").
		Values(c.name, now).
		Suffix("ON CONFLICT (name) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build ensure cache query: %w", err)
	}

	query, args, err := sqlite.
		Insert("cache_entries").
		Columns("cache_name", "request_url", "status", "headers", "body", "stored_at").
		Values(c.name, key, resp.Status, string(headers), body, now).
		Suffix(`ON CONFLICT (cache_name, request_url) DO UPDATE SET
			status = excluded.status,
			headers = excluded.headers,
			body = excluded.body,
			stored_at = excluded.stored_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Put query for %s: %w", key, err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, ensureQuery, ensureArgs...); err != nil {
		return fmt.Errorf("ensure cache %s: %w", c.name, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put cache entry %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes the entry under key.
func (c *sqliteCache) Delete(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	query, args, err := sqlite.
		Delete("cache_entries").
		Where(sq.Eq{"cache_name": c.name, "request_url": key}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build Delete query for %s: %w", key, err)
	}

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete cache entry %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Keys returns every key, oldest write first.
func (c *sqliteCache) Keys(ctx context.Context) ([]string, error) {
	query, args, err := sqlite.
		Select("request_url").
		From("cache_entries").
		Where(sq.Eq{"cache_name": c.name}).
		OrderBy("stored_at", "request_url").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Keys query: %w", err)
	}
	return queryStrings(ctx, c.db, query, args)
}

// queryStrings runs a single-column query and collects the values.
func queryStrings(ctx context.Context, db *sql.DB, query string, args []any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
