// Package signal provides graceful shutdown handling for keel commands.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages (to avoid circular dependencies)
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler manages graceful shutdown by listening for interrupt signals.
// It wraps a context and cancels it when SIGINT or SIGTERM is received.
//
// Cleanup callbacks registered with OnInterrupt run when a signal arrives
// and again via RunCleanups at normal shutdown; each callback executes at
// most once regardless of how many times it is triggered, so the rollback
// of staged manifest changes stays idempotent.
type Handler struct {
	ctx         context.Context //nolint:containedctx // intentional: handler manages context lifecycle
	cancel      context.CancelFunc
	interrupted chan struct{}
	done        chan struct{} // signals listen() to exit cleanly
	once        sync.Once
	stopOnce    sync.Once
	sigChan     chan os.Signal

	cleanupMu sync.Mutex
	cleanups  []*Cleanup
}

// Cleanup wraps a callback with once semantics: it either runs exactly
// once or is disarmed, whichever happens first.
type Cleanup struct {
	once sync.Once
	fn   func()
}

// Run fires the callback if it has neither run nor been disarmed.
func (c *Cleanup) Run() {
	c.once.Do(c.fn)
}

// Disarm consumes the callback without running it. Call it at the normal
// end of the risk window so the cleanup never fires afterwards.
func (c *Cleanup) Disarm() {
	c.once.Do(func() {})
}

// NewHandler creates a signal handler that listens for SIGINT and SIGTERM.
// When a signal is received, the handler runs registered cleanups, cancels
// the context, and closes the interrupted channel.
//
// Usage:
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	ctx = h.Context()
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		// Buffer of 1 ensures signal.Notify doesn't drop signals if handler is busy.
		sigChan: make(chan os.Signal, 1),
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h
}

// Context returns the cancellable context.
// Use this context for all operations that should be interruptible.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted returns a channel that closes when an interrupt signal is received.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// OnInterrupt registers a cleanup callback for the current risk window.
// The callback fires when a signal arrives or when the caller invokes
// Run on the returned Cleanup; Disarm deactivates it once the window
// closes normally. Callbacks must not panic.
func (h *Handler) OnInterrupt(fn func()) *Cleanup {
	c := &Cleanup{fn: fn}
	h.cleanupMu.Lock()
	h.cleanups = append(h.cleanups, c)
	h.cleanupMu.Unlock()
	return c
}

// RunCleanups fires all registered cleanups that have not run yet.
// Safe to call multiple times.
func (h *Handler) RunCleanups() {
	h.cleanupMu.Lock()
	pending := make([]*Cleanup, len(h.cleanups))
	copy(pending, h.cleanups)
	h.cleanupMu.Unlock()

	for _, c := range pending {
		c.Run()
	}
}

// Stop cleans up the signal handler and stops listening for signals.
// Always call this when done to prevent resource leaks.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done) // Signal listen() to exit before closing sigChan
		h.cancel()
	})
}

// handleSignal processes a received signal.
func (h *Handler) handleSignal() {
	h.once.Do(func() {
		h.RunCleanups()
		h.cancel()
		close(h.interrupted)
	})
}

// listen waits for signals and handles them.
// It loops continuously to handle multiple signals until Stop() is called
// or the context is canceled.
func (h *Handler) listen() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.done:
			return
		case <-h.sigChan:
			h.handleSignal()
			// Keep draining: only the first signal has effect due to
			// sync.Once; later signals must not block delivery.
		}
	}
}
