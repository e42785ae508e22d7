// internal/application/usecase/cart_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	cartdom "atelier/internal/domain/cart"
	catalogdom "atelier/internal/domain/catalog"
)

var (
	ErrCartStoreClosed  = errors.New("cart_store: closed")
	ErrCartStoreNoDeps  = errors.New("cart_store: storage is required")
	ErrCartInvalidInput = errors.New("cart_store: invalid argument")
)

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SyncTrigger requests a (debounced) backend reconciliation.
// Implemented by Reconciler; wired after construction via SetSyncTrigger.
type SyncTrigger interface {
	Trigger()
}

// CartStoreConfig carries the knobs of a store instance.
// Zero values select defaults.
type CartStoreConfig struct {
	// TaxRate defaults to cart.DefaultTaxRate (5%).
	TaxRate float64

	// Origin identifies this execution context in cross-context change
	// notifications. Defaults to a random uuid.
	Origin string

	// Clock defaults to the system clock.
	Clock Clock
}

// CartStore is the authoritative in-memory cart of one execution context.
//
// Mutations are synchronous and atomic (mutex-held); after every successful
// mutation the store recomputes totals, persists the durable subset,
// broadcasts a change descriptor and kicks the debounced backend sync.
// Persist/broadcast failures are logged and never surfaced: in-memory state
// stays correct for this context.
//
// There is no package-level singleton; construct an instance, inject it, and
// Close it on teardown.
type CartStore struct {
	mu     sync.Mutex
	state  cartdom.State
	totals cartdom.Totals

	storage cartdom.Storage
	bus     cartdom.Broadcaster
	clock   Clock
	sync    SyncTrigger

	origin  string
	taxRate float64
	closed  bool
}

// NewCartStore builds a store, hydrates it from storage (missing or corrupt
// payloads start an empty cart) and subscribes to cross-context changes.
func NewCartStore(storage cartdom.Storage, bus cartdom.Broadcaster, cfg CartStoreConfig) (*CartStore, error) {
	if storage == nil {
		return nil, ErrCartStoreNoDeps
	}

	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	taxRate := cfg.TaxRate
	if taxRate == 0 {
		taxRate = cartdom.DefaultTaxRate
	}
	origin := strings.TrimSpace(cfg.Origin)
	if origin == "" {
		origin = uuid.NewString()
	}

	s := &CartStore{
		state:   cartdom.State{Items: []cartdom.Item{}},
		storage: storage,
		bus:     bus,
		clock:   clock,
		origin:  origin,
		taxRate: taxRate,
	}

	ctx := context.Background()
	p, ok, err := storage.Load(ctx)
	if err != nil {
		log.Printf("[cart_store] initial load failed, starting empty: %v", err)
	} else if ok {
		s.state.ApplyPersisted(p)
	}
	s.recomputeLocked()

	if bus != nil {
		if err := bus.Subscribe(s.onRemoteChange); err != nil {
			log.Printf("[cart_store] subscribe failed, cross-context sync disabled: %v", err)
		}
	}

	return s, nil
}

// SetSyncTrigger wires the reconciler's debounced sync. May be nil.
func (s *CartStore) SetSyncTrigger(t SyncTrigger) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync = t
}

// Origin returns the context id used to filter self-notifications.
func (s *CartStore) Origin() string {
	if s == nil {
		return ""
	}
	return s.origin
}

// Close marks the store as torn down. Adapters (storage, broadcaster) are
// owned and closed by the container, not here.
func (s *CartStore) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sync = nil
}

// ----------------------------
// Mutations
// ----------------------------

// AddItem inserts (or merges) a line for the product snapshot.
//
// Quantity must be within [1, 99] (InvalidQuantityError). When a line with
// the same identity key exists, quantities merge and the merged total is
// checked against the stock snapshot captured on the existing line
// (StockExceededError, state unchanged). Price and stock are snapshotted
// from p at add time.
func (s *CartStore) AddItem(ctx context.Context, p catalogdom.ProductSnapshot, variantID string, quantity int, customizations map[string]string) (cartdom.Totals, error) {
	if s == nil {
		return cartdom.Totals{}, ErrCartStoreClosed
	}
	if err := cartdom.ValidateQuantity(quantity); err != nil {
		return s.Totals(), err
	}
	pid := strings.TrimSpace(p.ProductID)
	if pid == "" {
		return s.Totals(), ErrCartInvalidInput
	}

	return s.mutate(ctx, cartdom.OpAdd, true, func(st *cartdom.State, now time.Time) (string, error) {
		it := cartdom.Item{
			ID:             uuid.NewString(),
			ProductID:      pid,
			VariantID:      strings.TrimSpace(variantID),
			Quantity:       quantity,
			Customizations: customizations,
			PriceAtAdd:     p.Price,
			StockAvailable: p.StockQuantity,
			AddedAt:        now,
		}
		if err := st.Add(it); err != nil {
			return "", err
		}
		if line, ok := lineByKey(st, it.Key()); ok {
			return line.ID, nil
		}
		return it.ID, nil
	})
}

// RemoveItem deletes the line with lineID. Missing line is a no-op.
func (s *CartStore) RemoveItem(ctx context.Context, lineID string) (cartdom.Totals, error) {
	if s == nil {
		return cartdom.Totals{}, ErrCartStoreClosed
	}
	return s.mutate(ctx, cartdom.OpRemove, true, func(st *cartdom.State, now time.Time) (string, error) {
		st.RemoveLine(lineID)
		return strings.TrimSpace(lineID), nil
	})
}

// UpdateQuantity sets the quantity of the line with lineID.
// quantity < 1 behaves exactly as RemoveItem; quantity > 99 is clamped.
func (s *CartStore) UpdateQuantity(ctx context.Context, lineID string, quantity int) (cartdom.Totals, error) {
	if s == nil {
		return cartdom.Totals{}, ErrCartStoreClosed
	}
	op := cartdom.OpUpdate
	if quantity < cartdom.MinQuantity {
		op = cartdom.OpRemove
	}
	return s.mutate(ctx, op, true, func(st *cartdom.State, now time.Time) (string, error) {
		if err := st.SetQuantity(lineID, quantity, now); err != nil {
			return "", err
		}
		return strings.TrimSpace(lineID), nil
	})
}

// Clear empties the cart and resets promo, discount and shipping.
func (s *CartStore) Clear(ctx context.Context) (cartdom.Totals, error) {
	if s == nil {
		return cartdom.Totals{}, ErrCartStoreClosed
	}
	return s.mutate(ctx, cartdom.OpClear, true, func(st *cartdom.State, now time.Time) (string, error) {
		st.Reset()
		return "", nil
	})
}

// Consume snapshots the current items and clears the cart in one step.
// Intended for order creation: build the order from the returned snapshot,
// then the cart is already empty.
func (s *CartStore) Consume(ctx context.Context) ([]cartdom.Item, error) {
	if s == nil {
		return nil, ErrCartStoreClosed
	}

	var snap []cartdom.Item
	_, err := s.mutate(ctx, cartdom.OpClear, true, func(st *cartdom.State, now time.Time) (string, error) {
		snap = cartdom.CloneItems(st.Items)
		st.Reset()
		return "", nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ----------------------------
// Reads (pure, no side effects)
// ----------------------------

// IsInCart reports whether any line references productID.
func (s *CartStore) IsInCart(productID string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsInCart(productID)
}

// GetItem returns the first line for productID.
func (s *CartStore) GetItem(productID string) (cartdom.Item, bool) {
	if s == nil {
		return cartdom.Item{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ItemForProduct(productID)
}

// ProductQuantity sums quantity for productID across variants and
// customizations.
func (s *CartStore) ProductQuantity(productID string) int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ProductQuantity(productID)
}

// State returns a deep copy of the current state.
func (s *CartStore) State() cartdom.State {
	if s == nil {
		return cartdom.State{Items: []cartdom.Item{}}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Totals returns the current derived totals.
func (s *CartStore) Totals() cartdom.Totals {
	if s == nil {
		return cartdom.Totals{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// ----------------------------
// Package-internal API (promo / shipping / reconciler)
// ----------------------------

// applyPromo records a validated promo code and its resolved discount.
func (s *CartStore) applyPromo(ctx context.Context, code string, discount int64) (cartdom.Totals, error) {
	return s.mutate(ctx, cartdom.OpPromo, false, func(st *cartdom.State, now time.Time) (string, error) {
		st.PromoCode = strings.TrimSpace(code)
		if discount < 0 {
			discount = 0
		}
		st.Discount = discount
		return "", nil
	})
}

// clearPromo removes the promo code and discount. No network involved.
func (s *CartStore) clearPromo(ctx context.Context) cartdom.Totals {
	t, err := s.mutate(ctx, cartdom.OpPromo, false, func(st *cartdom.State, now time.Time) (string, error) {
		st.PromoCode = ""
		st.Discount = 0
		return "", nil
	})
	if err != nil {
		log.Printf("[cart_store] clear promo: %v", err)
	}
	return t
}

// setShipping installs a resolved shipping cost. Shipping is derived state:
// not persisted, not broadcast, just recomputed into totals.
func (s *CartStore) setShipping(cost int64) cartdom.Totals {
	if s == nil {
		return cartdom.Totals{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cost < 0 {
		cost = 0
	}
	s.state.Shipping = cost
	s.recomputeLocked()
	return s.totals
}

// markSynced stamps a successful backend reconciliation. Persisted and
// broadcast so sibling contexts observe sync recency; does not re-trigger
// the sync that just completed.
func (s *CartStore) markSynced(ctx context.Context, at time.Time) {
	_, err := s.mutate(ctx, cartdom.OpSync, false, func(st *cartdom.State, now time.Time) (string, error) {
		st.LastSyncedAt = at
		return "", nil
	})
	if err != nil {
		log.Printf("[cart_store] mark synced: %v", err)
	}
}

// syncItems builds the wire item list for backend reconciliation.
func (s *CartStore) syncItems() []SyncItem {
	st := s.State()
	out := make([]SyncItem, 0, len(st.Items))
	for _, it := range st.Items {
		out = append(out, SyncItem{
			ProductID:      it.ProductID,
			VariantID:      it.VariantID,
			Quantity:       it.Quantity,
			Customizations: it.Customizations,
		})
	}
	return out
}

// mergeRemote merges the server-held cart into local state on sign-in.
// Local-wins: an empty local cart is replaced wholesale, otherwise remote
// items only fill gaps and conflicting keys keep the local line.
func (s *CartStore) mergeRemote(ctx context.Context, remote []cartdom.Item) (cartdom.Totals, error) {
	return s.mutate(ctx, cartdom.OpMerge, true, func(st *cartdom.State, now time.Time) (string, error) {
		st.Items = cartdom.MergeSignIn(st.Items, remote)
		return "", nil
	})
}

// ----------------------------
// Internals
// ----------------------------

// mutate is the single mutation path: refresh from shared storage, apply fn,
// recompute, persist, broadcast, optionally kick the debounced sync.
// fn must leave the state untouched when it returns an error.
func (s *CartStore) mutate(ctx context.Context, op string, triggerSync bool, fn func(st *cartdom.State, now time.Time) (string, error)) (cartdom.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.totals, ErrCartStoreClosed
	}

	now := s.clock.Now()

	// Pick up writes from sibling contexts before writing ourselves: the
	// shared payload is read-merge-modify-written so a context that only
	// touched item A does not clobber a concurrent edit to item B.
	s.refreshLocked(ctx)

	lineID, err := fn(&s.state, now)
	if err != nil {
		s.recomputeLocked()
		return s.totals, err
	}

	s.recomputeLocked()
	s.persistLocked(ctx)
	s.broadcastLocked(ctx, cartdom.Change{Origin: s.origin, Op: op, LineID: lineID})

	if triggerSync && s.sync != nil {
		s.sync.Trigger()
	}
	return s.totals, nil
}

// refreshLocked merges the persisted payload into memory (per-item LWW) and
// adopts the shared promo / sync bookkeeping.
func (s *CartStore) refreshLocked(ctx context.Context) {
	p, ok, err := s.storage.Load(ctx)
	if err != nil {
		log.Printf("[cart_store] reload before mutation failed: %v", err)
		return
	}
	if !ok {
		return
	}
	s.state.Items = cartdom.MergeLWW(s.state.Items, p.Items)
	s.state.PromoCode = p.PromoCode
	s.state.Discount = p.Discount
	s.state.LastSyncedAt = p.LastSyncedAt
}

func (s *CartStore) recomputeLocked() {
	s.totals = cartdom.ComputeTotals(s.state.Items, s.taxRate, s.state.Shipping, s.state.Discount)
}

func (s *CartStore) persistLocked(ctx context.Context) {
	if err := s.storage.Save(ctx, s.state.Persisted()); err != nil {
		// in-memory state stays correct for this context
		log.Printf("[cart_store] persist failed: %v", err)
	}
}

func (s *CartStore) broadcastLocked(ctx context.Context, ch cartdom.Change) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Broadcast(ctx, ch); err != nil {
		log.Printf("[cart_store] broadcast failed: %v", err)
	}
}

// onRemoteChange reloads persisted state after another context signalled a
// change and merges it per-item LWW (clear adopts wholesale, remove drops
// the named line first). No write-back and no re-broadcast: the emitting
// context already persisted the payload.
func (s *CartStore) onRemoteChange(ch cartdom.Change) {
	if s == nil || ch.Origin == s.origin {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	ctx := context.Background()
	p, ok, err := s.storage.Load(ctx)
	if err != nil {
		log.Printf("[cart_store] reload after remote change failed: %v", err)
		return
	}
	if !ok {
		return
	}

	switch ch.Op {
	case cartdom.OpClear:
		s.state.ApplyPersisted(p)
		s.state.Shipping = 0
	case cartdom.OpRemove:
		s.state.RemoveLine(ch.LineID)
		s.state.Items = cartdom.MergeLWW(s.state.Items, p.Items)
		s.state.PromoCode = p.PromoCode
		s.state.Discount = p.Discount
		s.state.LastSyncedAt = p.LastSyncedAt
	default:
		s.state.Items = cartdom.MergeLWW(s.state.Items, p.Items)
		s.state.PromoCode = p.PromoCode
		s.state.Discount = p.Discount
		s.state.LastSyncedAt = p.LastSyncedAt
	}
	s.recomputeLocked()
}

func lineByKey(st *cartdom.State, key string) (cartdom.Item, bool) {
	for _, it := range st.Items {
		if it.Key() == key {
			return it, true
		}
	}
	return cartdom.Item{}, false
}
