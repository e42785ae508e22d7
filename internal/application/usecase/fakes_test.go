// internal/application/usecase/fakes_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	cartdom "atelier/internal/domain/cart"
	catalogdom "atelier/internal/domain/catalog"
)

// fakeClock hands out a controllable time.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock { return &fakeClock{now: at} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSession flips between signed-in and signed-out.
type fakeSession struct {
	mu   sync.Mutex
	auth bool
}

func (s *fakeSession) IsAuthenticated(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth
}

func (s *fakeSession) setAuth(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = v
}

// fakeCartService records calls and answers from canned values.
type fakeCartService struct {
	mu sync.Mutex

	syncCalls int
	lastSync  []SyncItem
	syncErr   error

	remote []cartdom.Item
	getErr error

	promoResult PromoResult
	promoErr    error
	promoCalls  int

	shippingCost int64
	shippingErr  error
}

func (s *fakeCartService) Sync(ctx context.Context, items []SyncItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncCalls++
	s.lastSync = items
	return s.syncErr
}

func (s *fakeCartService) Get(ctx context.Context) ([]cartdom.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cartdom.CloneItems(s.remote), s.getErr
}

func (s *fakeCartService) ApplyPromoCode(ctx context.Context, code string, items []SyncItem) (PromoResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promoCalls++
	return s.promoResult, s.promoErr
}

func (s *fakeCartService) CalculateShipping(ctx context.Context, addr Address, items []SyncItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shippingCost, s.shippingErr
}

func (s *fakeCartService) syncCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncCalls
}

func (s *fakeCartService) lastSynced() []SyncItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

// fakeStorage is an in-memory cartdom.Storage with fault injection.
type fakeStorage struct {
	mu      sync.Mutex
	payload cartdom.Persisted
	set     bool
	saveErr error
	loadErr error
}

func (f *fakeStorage) Save(ctx context.Context, p cartdom.Persisted) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.payload = p
	f.set = true
	return nil
}

func (f *fakeStorage) Load(ctx context.Context) (cartdom.Persisted, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return cartdom.Persisted{Items: []cartdom.Item{}}, false, f.loadErr
	}
	if !f.set {
		return cartdom.Persisted{Items: []cartdom.Item{}}, false, nil
	}
	return cartdom.Persisted{
		Items:        cartdom.CloneItems(f.payload.Items),
		PromoCode:    f.payload.PromoCode,
		Discount:     f.payload.Discount,
		LastSyncedAt: f.payload.LastSyncedAt,
	}, true, nil
}

// syncBus delivers change notifications synchronously, which keeps
// cross-context assertions deterministic.
type syncBus struct {
	mu       sync.Mutex
	handlers []func(cartdom.Change)
}

func (b *syncBus) Broadcast(ctx context.Context, ch cartdom.Change) error {
	b.mu.Lock()
	handlers := make([]func(cartdom.Change), len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, h := range handlers {
		h(ch)
	}
	return nil
}

func (b *syncBus) Subscribe(handler func(cartdom.Change)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
	return nil
}

func (b *syncBus) Close() error { return nil }

// fakeCatalog answers product lookups from a fixed map.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]catalogdom.ProductSnapshot
	err      error
}

func (c *fakeCatalog) GetProduct(ctx context.Context, productID string) (catalogdom.ProductSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return catalogdom.ProductSnapshot{}, c.err
	}
	p, ok := c.products[productID]
	if !ok {
		return catalogdom.ProductSnapshot{}, catalogdom.ErrProductNotFound
	}
	return p, nil
}

func (c *fakeCatalog) put(p catalogdom.ProductSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.products == nil {
		c.products = map[string]catalogdom.ProductSnapshot{}
	}
	c.products[p.ProductID] = p
}

func snapshot(id string, price int64, stock int) catalogdom.ProductSnapshot {
	return catalogdom.ProductSnapshot{ProductID: id, Title: id, Price: price, StockQuantity: stock}
}
