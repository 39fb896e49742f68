package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"

	"github.com/AmonBrollo/FlashLingo/internal/config"
	"github.com/AmonBrollo/FlashLingo/internal/domain"
	"github.com/AmonBrollo/FlashLingo/internal/network"
	"github.com/AmonBrollo/FlashLingo/internal/service"
	"github.com/AmonBrollo/FlashLingo/internal/static"
)

// loadBuild reads a manifest file. A file that is not a JSON object is
// treated as a generated worker script carrying its own manifest and core
// shell list.
func loadBuild(path string, coreOverride []string) (domain.Manifest, []string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrManifestNotFound, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}

	var (
		manifest domain.Manifest
		core     []string
	)
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		manifest, err = domain.ParseManifest(data)
	} else {
		manifest, core, err = domain.ParseWorkerScript(data)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}

	switch {
	case len(coreOverride) > 0:
		core = coreOverride
	case len(core) == 0:
		if core, err = static.CoreShell(); err != nil {
			return nil, nil, err
		}
	}
	return manifest, core, nil
}

// newWorker builds a worker for the configured build.
func newWorker(cfg *config.Config, storage domain.CacheStorage) (*service.Worker, error) {
	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	upstream, err := url.Parse(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream: %w", err)
	}

	manifest, core, err := loadBuild(cfg.Manifest, cfg.CoreShell)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.UpstreamTimeout}
	return service.NewWorker(service.WorkerConfig{
		Origin:              origin,
		Manifest:            manifest,
		CoreShell:           core,
		Storage:             storage,
		Fetcher:             network.NewHTTPFetcher(client, origin, upstream),
		PrefetchConcurrency: cfg.PrefetchConcurrency,
		HoldActivation:      cfg.HoldActivation,
	})
}
