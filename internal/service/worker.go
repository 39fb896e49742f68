// Package service implements the offline asset cache worker and the
// lifecycle that hosts successive worker versions.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
	"github.com/AmonBrollo/FlashLingo/internal/network"
)

// DefaultPrefetchConcurrency bounds parallel fetches during downloadOffline.
const DefaultPrefetchConcurrency = 4

// Runtime is the hosting surface a worker reports to.
type Runtime interface {
	// SkipWaiting asks for w to supersede the active worker without waiting.
	SkipWaiting(ctx context.Context, w *Worker) error
	// Claim makes w the controller of all open clients.
	Claim(ctx context.Context, w *Worker) error
}

// standaloneRuntime is used when a worker runs outside a Lifecycle, as in
// one-shot CLI commands.
type standaloneRuntime struct{}

func (standaloneRuntime) SkipWaiting(context.Context, *Worker) error { return nil }
func (standaloneRuntime) Claim(context.Context, *Worker) error       { return nil }

// WorkerConfig holds the inputs of one worker version.
type WorkerConfig struct {
	Origin              *url.URL
	Manifest            domain.Manifest
	CoreShell           []string
	Storage             domain.CacheStorage
	Fetcher             network.Fetcher
	Runtime             Runtime
	PrefetchConcurrency int
	// HoldActivation keeps an installed worker waiting behind the current
	// controller until it receives a skipWaiting message.
	HoldActivation bool
}

// Worker keeps the content cache consistent with one manifest version and
// answers intercepted requests from it.
type Worker struct {
	id                  string
	origin              string
	manifest            domain.Manifest
	core                []string
	storage             domain.CacheStorage
	fetcher             network.Fetcher
	prefetchConcurrency int
	holdActivation      bool
	log                 *slog.Logger

	mu          sync.Mutex
	state       domain.WorkerState
	runtime     Runtime
	skipWaiting bool
	corrupted   bool

	// bg tracks cache writes and prefetches that outlive the request that
	// started them.
	bg sync.WaitGroup
}

// NewWorker validates cfg and creates a worker in the parsed state.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Origin == nil || cfg.Origin.Scheme == "" || cfg.Origin.Host == "" {
		return nil, fmt.Errorf("worker origin must be an absolute URL")
	}
	if cfg.Storage == nil || cfg.Fetcher == nil {
		return nil, fmt.Errorf("worker requires a cache storage and a fetcher")
	}
	if err := cfg.Manifest.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Manifest.CheckCore(cfg.CoreShell); err != nil {
		return nil, err
	}

	runtime := cfg.Runtime
	if runtime == nil {
		runtime = standaloneRuntime{}
	}
	concurrency := cfg.PrefetchConcurrency
	if concurrency <= 0 {
		concurrency = DefaultPrefetchConcurrency
	}

	id := newWorkerID()
	origin := cfg.Origin.Scheme + "://" + cfg.Origin.Host

	return &Worker{
		id:                  id,
		origin:              origin,
		manifest:            cfg.Manifest,
		core:                append([]string(nil), cfg.CoreShell...),
		storage:             cfg.Storage,
		fetcher:             cfg.Fetcher,
		prefetchConcurrency: concurrency,
		holdActivation:      cfg.HoldActivation,
		log:                 slog.With("worker_id", id),
		state:               domain.WorkerStateParsed,
		runtime:             runtime,
	}, nil
}

// newWorkerID generates a UUID v7 so worker versions sort by creation time.
func newWorkerID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// ID returns the worker's unique identifier.
func (w *Worker) ID() string { return w.id }

// Origin returns the origin the worker serves.
func (w *Worker) Origin() string { return w.origin }

// Manifest returns the manifest this worker installs.
func (w *Worker) Manifest() domain.Manifest { return w.manifest }

// State returns the current lifecycle state.
func (w *Worker) State() domain.WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Status returns a snapshot of the worker.
func (w *Worker) Status() domain.WorkerStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return domain.WorkerStatus{
		ID:            w.id,
		Origin:        w.origin,
		State:         w.state,
		ManifestSize:  len(w.manifest),
		CoreShellSize: len(w.core),
		Corrupted:     w.corrupted,
	}
}

// Wait blocks until all background cache writes and prefetches finish.
func (w *Worker) Wait() {
	w.bg.Wait()
}

func (w *Worker) bind(r Runtime) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.runtime = r
}

func (w *Worker) getRuntime() Runtime {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runtime
}

// transition moves from one state to another or fails with ErrWorkerState.
func (w *Worker) transition(from, to domain.WorkerState) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.IsTerminal() {
		return fmt.Errorf("%w: worker %s is %s", domain.ErrWorkerState, w.id, w.state)
	}
	if w.state != from {
		return fmt.Errorf("%w: %s, want %s", domain.ErrWorkerState, w.state, from)
	}
	w.state = to
	return nil
}

func (w *Worker) setState(s domain.WorkerState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
}

func (w *Worker) wantsSkipWaiting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.skipWaiting
}

// background runs fn detached from the caller's cancellation, tracked by Wait.
func (w *Worker) background(ctx context.Context, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	w.bg.Add(1)
	go func() {
		defer w.bg.Done()
		fn(ctx)
	}()
}

// Install fetches every core shell entry with cache-bypass semantics into
// the temp cache. Either every entry is stored or install fails and the
// worker becomes redundant. Unless activation is held, the worker asks to
// supersede the current controller as soon as it is installed.
func (w *Worker) Install(ctx context.Context) error {
	if err := w.transition(domain.WorkerStateParsed, domain.WorkerStateInstalling); err != nil {
		return err
	}

	if !w.holdActivation {
		w.mu.Lock()
		w.skipWaiting = true
		w.mu.Unlock()
		if err := w.getRuntime().SkipWaiting(ctx, w); err != nil {
			w.log.Warn("skip waiting request failed", "error", err)
		}
	}

	if err := w.install(ctx); err != nil {
		w.setState(domain.WorkerStateRedundant)
		w.log.Error("worker install failed", "error", err)
		return fmt.Errorf("%w: %w", domain.ErrInstallFailed, err)
	}

	w.setState(domain.WorkerStateInstalled)
	w.log.Info("worker installed", "core_entries", len(w.core))
	return nil
}

func (w *Worker) install(ctx context.Context) error {
	temp, err := w.storage.Open(ctx, domain.TempCacheName)
	if err != nil {
		return fmt.Errorf("open temp cache: %w", err)
	}

	type entry struct {
		key  string
		resp *domain.Response
	}
	fetched := make([]entry, 0, len(w.core))
	for _, path := range w.core {
		key := CacheKey(w.origin, path)
		req, err := network.NewRequest(ctx, key)
		if err != nil {
			return err
		}
		resp, err := w.fetcher.Fetch(ctx, req, network.ModeReload)
		if err != nil {
			return err
		}
		if !resp.OK() {
			return fmt.Errorf("fetch %s: unexpected status %d", key, resp.Status)
		}
		fetched = append(fetched, entry{key: key, resp: resp})
	}

	for _, e := range fetched {
		if err := temp.Put(ctx, e.key, e.resp); err != nil {
			if _, derr := w.storage.Delete(context.WithoutCancel(ctx), domain.TempCacheName); derr != nil {
				w.log.Error("failed to discard partial temp cache", "error", derr)
			}
			return fmt.Errorf("store %s: %w", e.key, err)
		}
	}
	return nil
}

// Message handles a control-plane message.
// A redundant worker no longer accepts messages.
func (w *Worker) Message(ctx context.Context, payload string) error {
	if state := w.State(); state.IsTerminal() {
		return fmt.Errorf("%w: worker %s is %s", domain.ErrWorkerState, w.id, state)
	}

	switch payload {
	case domain.MessageSkipWaiting:
		w.mu.Lock()
		w.skipWaiting = true
		w.mu.Unlock()
		return w.getRuntime().SkipWaiting(ctx, w)
	case domain.MessageDownloadOffline:
		w.background(ctx, func(ctx context.Context) {
			if err := w.DownloadOffline(ctx); err != nil {
				w.log.Warn("offline download incomplete", "error", err)
			}
		})
		return nil
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownMessage, payload)
	}
}

// isGet reports whether the request is a plain retrieval.
func isGet(req *http.Request) bool {
	return req.Method == http.MethodGet
}

// errIsMiss reports whether err only means the entry is absent.
func errIsMiss(err error) bool {
	return errors.Is(err, domain.ErrCacheMiss)
}
