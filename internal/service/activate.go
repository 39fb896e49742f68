package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
)

// Activate reconciles the content cache with this worker's manifest and
// claims all clients. A failure at any step leaves the caches in an unknown
// state, so every cache is dropped and the failure is logged rather than
// returned; only a failure of that recovery itself is returned.
func (w *Worker) Activate(ctx context.Context) error {
	if err := w.transition(domain.WorkerStateInstalled, domain.WorkerStateActivating); err != nil {
		return err
	}

	err := w.reconcile(ctx)
	if err == nil {
		w.setState(domain.WorkerStateActivated)
		w.log.Info("worker activated", "manifest_entries", len(w.manifest))
		return nil
	}

	w.log.Error("failed to upgrade worker", "error", err)
	w.mu.Lock()
	w.corrupted = true
	w.mu.Unlock()

	rerr := w.dropAllCaches(context.WithoutCancel(ctx))
	w.setState(domain.WorkerStateActivated)
	if rerr != nil {
		return fmt.Errorf("recover from failed activation: %w", rerr)
	}
	return nil
}

// reconcile carries unchanged entries over from the previous manifest,
// evicts stale ones, and promotes the freshly installed shell.
func (w *Worker) reconcile(ctx context.Context) error {
	content, err := w.storage.Open(ctx, domain.ContentCacheName)
	if err != nil {
		return fmt.Errorf("open content cache: %w", err)
	}
	temp, err := w.storage.Open(ctx, domain.TempCacheName)
	if err != nil {
		return fmt.Errorf("open temp cache: %w", err)
	}
	manifests, err := w.storage.Open(ctx, domain.ManifestCacheName)
	if err != nil {
		return fmt.Errorf("open manifest cache: %w", err)
	}

	stored, err := manifests.Match(ctx, domain.ManifestKey)
	switch {
	case errIsMiss(err):
		// First activation: nothing in content can be trusted.
		if _, err := w.storage.Delete(ctx, domain.ContentCacheName); err != nil {
			return fmt.Errorf("clear content cache: %w", err)
		}
		if content, err = w.storage.Open(ctx, domain.ContentCacheName); err != nil {
			return fmt.Errorf("reopen content cache: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read stored manifest: %w", err)
	default:
		previous, err := domain.ParseManifest(stored.Body)
		if err != nil {
			return fmt.Errorf("parse stored manifest: %w", err)
		}
		if err := w.evictStale(ctx, content, previous); err != nil {
			return err
		}
	}

	if err := copyEntries(ctx, temp, content); err != nil {
		return err
	}
	if _, err := w.storage.Delete(ctx, domain.TempCacheName); err != nil {
		return fmt.Errorf("delete temp cache: %w", err)
	}
	if err := w.saveManifest(ctx, manifests); err != nil {
		return err
	}

	if err := w.getRuntime().Claim(ctx, w); err != nil {
		w.log.Warn("claim clients failed", "error", err)
	}
	return nil
}

// evictStale deletes every content entry whose path left the manifest or
// whose hash in this manifest differs from the hash in previous.
func (w *Worker) evictStale(ctx context.Context, content domain.Cache, previous domain.Manifest) error {
	keys, err := content.Keys(ctx)
	if err != nil {
		return fmt.Errorf("list content cache: %w", err)
	}

	evicted := 0
	for _, key := range keys {
		path, ok := LogicalPath(w.origin, key)
		current, inManifest := w.manifest.Hash(path)
		if ok && inManifest && current == previous[path] {
			continue
		}
		if _, err := content.Delete(ctx, key); err != nil {
			return fmt.Errorf("evict %s: %w", key, err)
		}
		evicted++
	}

	w.log.Info("content cache reconciled", "kept", len(keys)-evicted, "evicted", evicted)
	return nil
}

// copyEntries copies every entry of src into dst, overwriting.
func copyEntries(ctx context.Context, src, dst domain.Cache) error {
	keys, err := src.Keys(ctx)
	if err != nil {
		return fmt.Errorf("list temp cache: %w", err)
	}
	for _, key := range keys {
		resp, err := src.Match(ctx, key)
		if err != nil {
			return fmt.Errorf("read temp entry %s: %w", key, err)
		}
		if err := dst.Put(ctx, key, resp); err != nil {
			return fmt.Errorf("copy %s: %w", key, err)
		}
	}
	return nil
}

// saveManifest records this worker's manifest for the next upgrade.
func (w *Worker) saveManifest(ctx context.Context, manifests domain.Cache) error {
	data, err := w.manifest.Marshal()
	if err != nil {
		return err
	}
	resp := &domain.Response{
		URL:    domain.ManifestKey,
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   data,
	}
	if err := manifests.Put(ctx, domain.ManifestKey, resp); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}

// dropAllCaches deletes every cache the worker owns.
func (w *Worker) dropAllCaches(ctx context.Context) error {
	var errs []error
	for _, name := range domain.CacheNames {
		if _, err := w.storage.Delete(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
