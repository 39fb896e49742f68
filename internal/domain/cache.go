package domain

import (
	"context"
	"net/http"
	"time"
)

// Names of the persistent caches used by the worker.
const (
	TempCacheName     = "flashlingo-temp-cache"
	ContentCacheName  = "flashlingo-app-cache"
	ManifestCacheName = "flashlingo-app-manifest"

	// ManifestKey is the key of the singleton manifest record in the
	// manifest cache.
	ManifestKey = "manifest"
)

// CacheNames lists every cache the worker owns.
var CacheNames = []string{ContentCacheName, TempCacheName, ManifestCacheName}

// Response is a stored or fetched HTTP response.
type Response struct {
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status <= 299
}

// Clone returns a deep copy of the response.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := *r
	c.Header = r.Header.Clone()
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	return &c
}

// Cache is a single named key/value store of responses keyed by request URL.
// Every method is a single atomic operation.
type Cache interface {
	// Match returns the response stored under key or ErrCacheMiss.
	Match(ctx context.Context, key string) (*Response, error)

	// Put stores resp under key, replacing any existing entry.
	Put(ctx context.Context, key string, resp *Response) error

	// Delete removes the entry under key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Keys returns the keys of every stored entry.
	Keys(ctx context.Context) ([]string, error)
}

// CacheStorage manages the set of named caches for one origin.
type CacheStorage interface {
	// Open returns the named cache, creating it if needed.
	Open(ctx context.Context, name string) (Cache, error)

	// Delete removes the named cache and all of its entries. It reports
	// whether the cache existed.
	Delete(ctx context.Context, name string) (bool, error)

	// Has reports whether the named cache exists.
	Has(ctx context.Context, name string) (bool, error)

	// Names returns the names of all existing caches.
	Names(ctx context.Context) ([]string, error)
}

// CacheSummary reports the size of one named cache.
type CacheSummary struct {
	Name    string
	Entries int
}
