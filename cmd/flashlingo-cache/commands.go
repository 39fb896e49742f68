package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/AmonBrollo/FlashLingo/internal/service"
)

// runUpgrade installs and activates the configured build against the store
// without serving, so a deploy can warm caches ahead of traffic.
func runUpgrade(c *cli.Context) error {
	ctx := c.Context

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	storage, closeStore, err := openStore(ctx, cfg.StoreConfig)
	if err != nil {
		return err
	}
	defer closeStore()

	w, err := newWorker(cfg, storage)
	if err != nil {
		return err
	}

	lifecycle := service.NewLifecycle()
	defer lifecycle.Wait()
	if err := lifecycle.Register(ctx, w); err != nil {
		return fmt.Errorf("upgrade failed: %w", err)
	}

	status := w.Status()
	slog.Info("upgrade complete",
		"worker_id", status.ID,
		"state", status.State,
		"corrupted", status.Corrupted,
	)
	return nil
}

// runPrefetch downloads every manifest resource the content cache lacks.
func runPrefetch(c *cli.Context) error {
	ctx := c.Context

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	storage, closeStore, err := openStore(ctx, cfg.StoreConfig)
	if err != nil {
		return err
	}
	defer closeStore()

	w, err := newWorker(cfg, storage)
	if err != nil {
		return err
	}
	if err := w.DownloadOffline(ctx); err != nil {
		return fmt.Errorf("prefetch incomplete: %w", err)
	}

	slog.Info("prefetch complete", "manifest_entries", len(w.Manifest()))
	return nil
}

func runStatus(c *cli.Context) error {
	ctx := c.Context

	cfg, err := loadStoreConfig(c)
	if err != nil {
		return err
	}
	storage, closeStore, err := openStore(ctx, *cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	summaries, err := service.Inventory(ctx, storage)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(c.App.Writer, "no worker caches")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(c.App.Writer, "%-28s %d\n", s.Name, s.Entries)
	}
	return nil
}

// runPurge deletes every worker cache; the next upgrade starts cold.
func runPurge(c *cli.Context) error {
	ctx := c.Context

	cfg, err := loadStoreConfig(c)
	if err != nil {
		return err
	}
	storage, closeStore, err := openStore(ctx, *cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := service.Purge(ctx, storage); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	slog.Info("worker caches purged")
	return nil
}
