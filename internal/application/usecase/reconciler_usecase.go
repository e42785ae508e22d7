// internal/application/usecase/reconciler_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	// DefaultSyncDebounce coalesces rapid mutations into one network call.
	DefaultSyncDebounce = 1 * time.Second

	// DefaultSyncHeartbeat re-syncs long-running authenticated sessions.
	DefaultSyncHeartbeat = 30 * time.Second
)

var ErrReconcilerClosed = errors.New("reconciler: closed")

// ReconcilerConfig carries the timing knobs. Zero values select defaults.
type ReconcilerConfig struct {
	Debounce  time.Duration
	Heartbeat time.Duration
	Clock     Clock
}

// Reconciler keeps the local cart and the server-held cart in agreement for
// authenticated sessions.
//
// Eventual-consistency policy, stated explicitly: local mutations are
// immediately authoritative; backend sync is best-effort and lossy-tolerant.
// A failed sync is logged and retried on the next debounce/heartbeat tick,
// never rolled back into local state and never shown to the user.
type Reconciler struct {
	store   *CartStore
	svc     CartService
	session Session
	clock   Clock

	debounce  time.Duration
	heartbeat time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	stopBeats chan struct{}
	closed    bool
}

func NewReconciler(store *CartStore, svc CartService, session Session, cfg ReconcilerConfig) *Reconciler {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultSyncDebounce
	}
	heartbeat := cfg.Heartbeat
	if heartbeat <= 0 {
		heartbeat = DefaultSyncHeartbeat
	}
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}

	return &Reconciler{
		store:     store,
		svc:       svc,
		session:   session,
		clock:     clock,
		debounce:  debounce,
		heartbeat: heartbeat,
	}
}

// Trigger schedules a debounced sync. A trigger arriving while one is
// pending cancels and reschedules the timer instead of firing twice.
func (r *Reconciler) Trigger() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		r.syncOnce(context.Background())
	})
}

// SyncNow pushes the current item list immediately.
// No-op (nil) when no authenticated session is active.
func (r *Reconciler) SyncNow(ctx context.Context) error {
	if r == nil || r.store == nil || r.svc == nil {
		return ErrReconcilerClosed
	}
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrReconcilerClosed
	}

	if r.session == nil || !r.session.IsAuthenticated(ctx) {
		return nil
	}

	if err := r.svc.Sync(ctx, r.store.syncItems()); err != nil {
		return fmt.Errorf("reconciler: sync: %w", err)
	}
	r.store.markSynced(ctx, r.clock.Now())
	return nil
}

// HandleSignIn runs the one-shot load-and-merge for a fresh authenticated
// session and starts the heartbeat.
//
// Merge policy (local-wins): an empty local cart adopts the server cart
// wholesale; otherwise server-only items are appended and conflicting
// identity keys keep the local line — nothing the user just did while
// signed out is lost.
func (r *Reconciler) HandleSignIn(ctx context.Context) error {
	if r == nil || r.store == nil || r.svc == nil {
		return ErrReconcilerClosed
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrReconcilerClosed
	}
	r.mu.Unlock()

	r.startHeartbeat()

	remote, err := r.svc.Get(ctx)
	if err != nil {
		// non-fatal: the heartbeat will reconcile later
		log.Printf("[reconciler] initial cart load failed: %v", err)
		return nil
	}
	if _, err := r.store.mergeRemote(ctx, remote); err != nil {
		log.Printf("[reconciler] sign-in merge failed: %v", err)
	}
	return nil
}

// HandleSignOut stops the heartbeat and cancels any pending debounce.
// Local state is kept: the cart belongs to the device, not the session.
func (r *Reconciler) HandleSignOut() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimersLocked()
}

// Close tears the reconciler down.
func (r *Reconciler) Close() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.stopTimersLocked()
}

func (r *Reconciler) startHeartbeat() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.stopBeats != nil {
		return
	}
	stop := make(chan struct{})
	r.stopBeats = stop

	go func() {
		t := time.NewTicker(r.heartbeat)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				r.syncOnce(context.Background())
			}
		}
	}()
}

func (r *Reconciler) stopTimersLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.stopBeats != nil {
		close(r.stopBeats)
		r.stopBeats = nil
	}
}

func (r *Reconciler) syncOnce(ctx context.Context) {
	if err := r.SyncNow(ctx); err != nil && !errors.Is(err, ErrReconcilerClosed) {
		log.Printf("[reconciler] sync failed (will retry on next trigger): %v", err)
	}
}
