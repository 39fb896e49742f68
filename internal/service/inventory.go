package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
)

// Inventory summarizes the worker caches present in storage. Caches that do
// not exist are omitted.
func Inventory(ctx context.Context, storage domain.CacheStorage) ([]domain.CacheSummary, error) {
	var out []domain.CacheSummary
	for _, name := range domain.CacheNames {
		has, err := storage.Has(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", name, err)
		}
		if !has {
			continue
		}
		cache, err := storage.Open(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		keys, err := cache.Keys(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", name, err)
		}
		out = append(out, domain.CacheSummary{Name: name, Entries: len(keys)})
	}
	return out, nil
}

// Purge deletes every worker cache, forcing the next install to start cold.
func Purge(ctx context.Context, storage domain.CacheStorage) error {
	var errs []error
	for _, name := range domain.CacheNames {
		if _, err := storage.Delete(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
