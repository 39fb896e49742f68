package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
	"github.com/AmonBrollo/FlashLingo/internal/handler"
	"github.com/AmonBrollo/FlashLingo/internal/service"
)

func runServe(c *cli.Context) error {
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

	upstream, err := url.Parse(cfg.Upstream)
	if err != nil {
		return fmt.Errorf("parse upstream: %w", err)
	}

	lifecycle := service.NewLifecycle()
	deploy := func(ctx context.Context) error {
		w, err := newWorker(cfg, storage)
		if err != nil {
			return err
		}
		slog.Info("registering worker", "worker_id", w.ID(), "manifest_entries", len(w.Manifest()))
		return lifecycle.Register(ctx, w)
	}

	// A failed install leaves requests passing through to the upstream, so
	// the server still starts.
	if err := deploy(ctx); err != nil {
		if !errors.Is(err, domain.ErrInstallFailed) {
			return err
		}
		slog.Error("initial worker install failed; serving pass-through", "error", err)
	}

	h := handler.New(lifecycle, storage, upstream, cfg.ControlToken)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	signals := notifySignals()
	defer signals.stop()

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+cfg.Port, "origin", cfg.Origin, "upstream", cfg.Upstream)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

loop:
	for {
		select {
		case err := <-serverErr:
			return fmt.Errorf("server error: %w", err)
		case <-signals.reload:
			slog.Info("reloading manifest")
			if err := deploy(ctx); err != nil {
				slog.Error("worker upgrade failed; keeping current worker", "error", err)
			}
		case <-signals.done:
			slog.Info("shutting down server")
			break loop
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	lifecycle.Wait()

	slog.Info("server stopped")
	return nil
}

// serveSignals carries the signals serve reacts to: done stops the server,
// reload installs a new worker version.
type serveSignals struct {
	done   chan os.Signal
	reload chan os.Signal
}

func notifySignals() *serveSignals {
	s := &serveSignals{
		done:   make(chan os.Signal, 1),
		reload: make(chan os.Signal, 1),
	}
	signal.Notify(s.done, os.Interrupt, syscall.SIGTERM)
	signal.Notify(s.reload, syscall.SIGHUP)
	return s
}

// stop unsubscribes both channels.
func (s *serveSignals) stop() {
	signal.Stop(s.done)
	signal.Stop(s.reload)
}
