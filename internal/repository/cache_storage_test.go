package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/AmonBrollo/FlashLingo/internal/database"
	"github.com/AmonBrollo/FlashLingo/internal/domain"
	"github.com/AmonBrollo/FlashLingo/internal/repository"
)

// CacheStorageTestSuite runs the same contract against every store.
type CacheStorageTestSuite struct {
	suite.Suite
	newStorage func() domain.CacheStorage
	reset      func(s *CacheStorageTestSuite)
	storage    domain.CacheStorage
}

func (s *CacheStorageTestSuite) SetupTest() {
	if s.reset != nil {
		s.reset(s)
	}
	s.storage = s.newStorage()
}

func TestMemoryCacheStorage(t *testing.T) {
	suite.Run(t, &CacheStorageTestSuite{
		newStorage: func() domain.CacheStorage { return repository.NewMemoryCacheStorage() },
	})
}

func TestSQLiteCacheStorage(t *testing.T) {
	ctx := context.Background()
	var db *sql.DB
	dir := t.TempDir()
	n := 0

	suite.Run(t, &CacheStorageTestSuite{
		newStorage: func() domain.CacheStorage { return repository.NewSQLiteCacheStorage(db) },
		reset: func(s *CacheStorageTestSuite) {
			if db != nil {
				db.Close()
			}
			n++
			var err error
			db, err = database.OpenSQLite(ctx, filepath.Join(dir, fmt.Sprintf("cache-%d.db", n)))
			s.Require().NoError(err)
			s.Require().NoError(database.RunSQLiteMigrations(ctx, db))
		},
	})
	if db != nil {
		db.Close()
	}
}

func TestPostgresCacheStorage(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, databaseURL, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	suite.Run(t, &CacheStorageTestSuite{
		newStorage: func() domain.CacheStorage { return repository.NewPostgresCacheStorage(db.Pool()) },
		reset: func(s *CacheStorageTestSuite) {
			_, err := db.Pool().Exec(ctx, "TRUNCATE caches, cache_entries CASCADE")
			s.Require().NoError(err)
		},
	})
}

func response(body string) *domain.Response {
	h := http.Header{}
	h.Set("Content-Type", "application/javascript")
	return &domain.Response{
		URL:    "https://flashlingo.example/" + body,
		Status: http.StatusOK,
		Header: h,
		Body:   []byte(body),
	}
}

func (s *CacheStorageTestSuite) TestOpenCreatesCache() {
	ctx := context.Background()

	has, err := s.storage.Has(ctx, domain.ContentCacheName)
	s.Require().NoError(err)
	s.False(has)

	_, err = s.storage.Open(ctx, domain.ContentCacheName)
	s.Require().NoError(err)

	has, err = s.storage.Has(ctx, domain.ContentCacheName)
	s.Require().NoError(err)
	s.True(has)

	names, err := s.storage.Names(ctx)
	s.Require().NoError(err)
	s.Equal([]string{domain.ContentCacheName}, names)
}

func (s *CacheStorageTestSuite) TestPutMatchRoundTrip() {
	ctx := context.Background()
	cache, err := s.storage.Open(ctx, domain.ContentCacheName)
	s.Require().NoError(err)

	key := "https://flashlingo.example/main.dart.js"
	s.Require().NoError(cache.Put(ctx, key, response("main.dart.js")))

	got, err := cache.Match(ctx, key)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, got.Status)
	s.Equal("main.dart.js", string(got.Body))
	s.Equal("application/javascript", got.Header.Get("Content-Type"))
	s.False(got.StoredAt.IsZero())
}

func (s *CacheStorageTestSuite) TestPutOverwrites() {
	ctx := context.Background()
	cache, err := s.storage.Open(ctx, domain.ContentCacheName)
	s.Require().NoError(err)

	key := "https://flashlingo.example/a.js"
	s.Require().NoError(cache.Put(ctx, key, response("v1")))
	s.Require().NoError(cache.Put(ctx, key, response("v2")))

	got, err := cache.Match(ctx, key)
	s.Require().NoError(err)
	s.Equal("v2", string(got.Body))

	keys, err := cache.Keys(ctx)
	s.Require().NoError(err)
	s.Equal([]string{key}, keys)
}

func (s *CacheStorageTestSuite) TestMatchMissing() {
	ctx := context.Background()
	cache, err := s.storage.Open(ctx, domain.ContentCacheName)
	s.Require().NoError(err)

	_, err = cache.Match(ctx, "https://flashlingo.example/nope.js")
	s.ErrorIs(err, domain.ErrCacheMiss)
}

func (s *CacheStorageTestSuite) TestInvalidKey() {
	ctx := context.Background()
	cache, err := s.storage.Open(ctx, domain.ContentCacheName)
	s.Require().NoError(err)

	s.ErrorIs(cache.Put(ctx, " ", response("x")), domain.ErrInvalidCacheKey)
	_, err = cache.Match(ctx, "")
	s.ErrorIs(err, domain.ErrInvalidCacheKey)
}

func (s *CacheStorageTestSuite) TestDeleteEntry() {
	ctx := context.Background()
	cache, err := s.storage.Open(ctx, domain.ContentCacheName)
	s.Require().NoError(err)

	s.Require().NoError(cache.Put(ctx, "https://flashlingo.example/a.js", response("a")))
	s.Require().NoError(cache.Put(ctx, "https://flashlingo.example/b.js", response("b")))

	deleted, err := cache.Delete(ctx, "https://flashlingo.example/a.js")
	s.Require().NoError(err)
	s.True(deleted)

	deleted, err = cache.Delete(ctx, "https://flashlingo.example/a.js")
	s.Require().NoError(err)
	s.False(deleted)

	keys, err := cache.Keys(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"https://flashlingo.example/b.js"}, keys)
}

func (s *CacheStorageTestSuite) TestCachesAreDisjoint() {
	ctx := context.Background()
	content, err := s.storage.Open(ctx, domain.ContentCacheName)
	s.Require().NoError(err)
	temp, err := s.storage.Open(ctx, domain.TempCacheName)
	s.Require().NoError(err)

	key := "https://flashlingo.example/index.html"
	s.Require().NoError(temp.Put(ctx, key, response("temp")))

	_, err = content.Match(ctx, key)
	s.ErrorIs(err, domain.ErrCacheMiss)

	keys, err := content.Keys(ctx)
	s.Require().NoError(err)
	s.Empty(keys)
}

func (s *CacheStorageTestSuite) TestDeleteCacheDropsEntries() {
	ctx := context.Background()
	cache, err := s.storage.Open(ctx, domain.TempCacheName)
	s.Require().NoError(err)
	s.Require().NoError(cache.Put(ctx, "https://flashlingo.example/a.js", response("a")))

	deleted, err := s.storage.Delete(ctx, domain.TempCacheName)
	s.Require().NoError(err)
	s.True(deleted)

	deleted, err = s.storage.Delete(ctx, domain.TempCacheName)
	s.Require().NoError(err)
	s.False(deleted)

	reopened, err := s.storage.Open(ctx, domain.TempCacheName)
	s.Require().NoError(err)
	keys, err := reopened.Keys(ctx)
	s.Require().NoError(err)
	s.Empty(keys)
}
