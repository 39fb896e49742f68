package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
	"github.com/AmonBrollo/FlashLingo/internal/network"
)

// Fetch answers an intercepted request. Requests the worker does not manage
// return ErrPassThrough and must go to the network untouched.
func (w *Worker) Fetch(ctx context.Context, req *http.Request) (*domain.Response, error) {
	if !isGet(req) || !w.State().CanServe() {
		return nil, domain.ErrPassThrough
	}

	req, err := absoluteRequest(ctx, w.origin, req)
	if err != nil {
		return nil, err
	}
	path, ok := LogicalPath(w.origin, req.URL.String())
	if !ok {
		return nil, domain.ErrPassThrough
	}
	if _, ok := w.manifest.Hash(path); !ok {
		return nil, domain.ErrPassThrough
	}

	key := CacheKey(w.origin, path)
	if path == domain.RootPath {
		return w.onlineFirst(ctx, req, key)
	}
	return w.cacheFirst(ctx, req, key)
}

// onlineFirst serves the app entry point from the network so users see
// the newest build, falling back to the cached copy when offline.
func (w *Worker) onlineFirst(ctx context.Context, req *http.Request, key string) (*domain.Response, error) {
	resp, err := w.fetcher.Fetch(ctx, req, network.ModeDefault)
	if err == nil {
		w.store(ctx, key, resp.Clone())
		return resp, nil
	}

	cached, merr := w.match(ctx, key)
	if merr == nil {
		w.log.Debug("served entry point from cache", "key", key, "error", err)
		return cached, nil
	}
	if !errIsMiss(merr) {
		w.log.Warn("content cache lookup failed", "key", key, "error", merr)
	}
	return nil, err
}

// cacheFirst returns the cached copy when present and otherwise fetches and
// stores a successful response for next time.
func (w *Worker) cacheFirst(ctx context.Context, req *http.Request, key string) (*domain.Response, error) {
	cached, err := w.match(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errIsMiss(err) {
		w.log.Warn("content cache lookup failed", "key", key, "error", err)
	}

	resp, err := w.fetcher.Fetch(ctx, req, network.ModeDefault)
	if err != nil {
		return nil, err
	}
	if resp.OK() {
		w.store(ctx, key, resp.Clone())
	}
	return resp, nil
}

func (w *Worker) match(ctx context.Context, key string) (*domain.Response, error) {
	content, err := w.storage.Open(ctx, domain.ContentCacheName)
	if err != nil {
		return nil, fmt.Errorf("open content cache: %w", err)
	}
	return content.Match(ctx, key)
}

// store writes resp under key in the background.
func (w *Worker) store(ctx context.Context, key string, resp *domain.Response) {
	w.background(ctx, func(ctx context.Context) {
		content, err := w.storage.Open(ctx, domain.ContentCacheName)
		if err == nil {
			err = content.Put(ctx, key, resp)
		}
		if err != nil {
			w.log.Warn("failed to cache response", "key", key, "error", err)
		}
	})
}

// absoluteRequest returns req with the absolute URL the client asked for as
// seen on origin. Server-side requests carry only a path, so the worker's
// origin is applied.
func absoluteRequest(ctx context.Context, origin string, req *http.Request) (*http.Request, error) {
	if req.URL.IsAbs() {
		return req, nil
	}
	u, err := url.Parse(origin + req.URL.RequestURI())
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", req.URL, err)
	}
	out := req.Clone(ctx)
	out.URL = u
	return out, nil
}
