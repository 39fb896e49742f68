package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
)

// Lifecycle hosts successive worker versions for one origin. At most one
// worker controls clients at a time; a newer installed worker waits until
// it asks to skip waiting or there is no controller.
type Lifecycle struct {
	mu         sync.Mutex
	controller *Worker
	waiting    *Worker
	retired    []*Worker
}

// NewLifecycle creates a Lifecycle with no controller.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// Controller returns the worker currently serving fetches, or nil.
func (l *Lifecycle) Controller() *Worker {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.controller
}

// Waiting returns the installed worker waiting to activate, or nil.
func (l *Lifecycle) Waiting() *Worker {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waiting
}

// Register installs w and activates it once it may take over.
func (l *Lifecycle) Register(ctx context.Context, w *Worker) error {
	w.bind(l)
	if err := w.Install(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	previous := l.waiting
	l.waiting = w
	noController := l.controller == nil
	if previous != nil {
		l.retired = append(l.retired, previous)
	}
	l.mu.Unlock()

	if previous != nil {
		previous.setState(domain.WorkerStateRedundant)
		slog.Info("waiting worker superseded", "worker_id", previous.ID(), "by", w.ID())
	}

	if w.wantsSkipWaiting() || noController {
		return l.activate(ctx, w)
	}
	return nil
}

// SkipWaiting activates w if it is installed and waiting. Before install
// completes the request is remembered by the worker and honored by Register.
func (l *Lifecycle) SkipWaiting(ctx context.Context, w *Worker) error {
	if w.State() != domain.WorkerStateInstalled {
		return nil
	}
	return l.activate(ctx, w)
}

// Claim makes w the controller.
func (l *Lifecycle) Claim(_ context.Context, w *Worker) error {
	l.promote(w)
	return nil
}

func (l *Lifecycle) activate(ctx context.Context, w *Worker) error {
	l.mu.Lock()
	if l.waiting != w {
		l.mu.Unlock()
		return nil
	}
	l.waiting = nil
	old := l.controller
	l.mu.Unlock()

	// The outgoing controller stops serving before reconciliation starts so
	// none of its cache writes land after stale entries are evicted.
	if old != nil {
		old.setState(domain.WorkerStateRedundant)
		old.Wait()
	}

	err := w.Activate(ctx)
	if w.State() == domain.WorkerStateActivated {
		l.promote(w)
	}
	return err
}

func (l *Lifecycle) promote(w *Worker) {
	l.mu.Lock()
	if l.controller == w {
		l.mu.Unlock()
		return
	}
	old := l.controller
	l.controller = w
	if old != nil {
		l.retired = append(l.retired, old)
	}
	l.mu.Unlock()

	if old != nil {
		old.setState(domain.WorkerStateRedundant)
	}
	slog.Info("worker controls clients", "worker_id", w.ID(), "origin", w.Origin())
}

// Wait blocks until the background work of every worker this lifecycle has
// hosted has finished.
func (l *Lifecycle) Wait() {
	l.mu.Lock()
	workers := append([]*Worker(nil), l.retired...)
	if l.controller != nil {
		workers = append(workers, l.controller)
	}
	if l.waiting != nil {
		workers = append(workers, l.waiting)
	}
	l.mu.Unlock()

	for _, w := range workers {
		w.Wait()
	}
}
