package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
	"github.com/AmonBrollo/FlashLingo/internal/network"
)

// DownloadOffline fetches every manifest resource the content cache does
// not hold yet. Individual failures do not stop the others; all of them are
// returned joined.
func (w *Worker) DownloadOffline(ctx context.Context) error {
	content, err := w.storage.Open(ctx, domain.ContentCacheName)
	if err != nil {
		return fmt.Errorf("open content cache: %w", err)
	}

	missing, err := w.missingPaths(ctx, content)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	w.log.Info("downloading offline resources", "count", len(missing))

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.prefetchConcurrency)
	for _, path := range missing {
		g.Go(func() error {
			if err := w.prefetch(gctx, content, path); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		w.log.Warn("offline download finished with failures", "failed", len(errs), "total", len(missing))
	}
	return errors.Join(errs...)
}

// missingPaths lists manifest paths with no content entry, in manifest order.
func (w *Worker) missingPaths(ctx context.Context, content domain.Cache) ([]string, error) {
	keys, err := content.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list content cache: %w", err)
	}

	cached := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if path, ok := LogicalPath(w.origin, key); ok {
			cached[path] = struct{}{}
		}
	}

	var missing []string
	for _, path := range w.manifest.Paths() {
		if _, ok := cached[path]; !ok {
			missing = append(missing, path)
		}
	}
	return missing, nil
}

func (w *Worker) prefetch(ctx context.Context, content domain.Cache, path string) error {
	key := CacheKey(w.origin, path)
	req, err := network.NewRequest(ctx, key)
	if err != nil {
		return err
	}
	resp, err := w.fetcher.Fetch(ctx, req, network.ModeDefault)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("fetch %s: unexpected status %d", key, resp.Status)
	}
	if err := content.Put(ctx, key, resp); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}
