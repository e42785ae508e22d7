// cmd/cartdemo/main.go
package main

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	usecase "atelier/internal/application/usecase"
	cartdom "atelier/internal/domain/cart"
	catalogdom "atelier/internal/domain/catalog"
	"atelier/internal/infra/config"
	"atelier/internal/platform/di"
)

// cartdemo runs the cart engine end-to-end and logs every step. With
// CART_SERVICE_BASE_URL and CATALOG_BASE_URL set it talks to the real
// backend; otherwise in-process fakes stand in for the three external
// collaborators (catalog, session, backend cart service).
func main() {
	ctx := context.Background()

	cfg := config.Load()
	cfg.StorageKind = config.StorageMemory

	var (
		catalog catalogdom.Reader
		svc     usecase.CartService
	)
	demo := &demoCatalog{products: map[string]catalogdom.ProductSnapshot{
		"shirt-001":  {ProductID: "shirt-001", Title: "Tailored Shirt", Price: 1000, StockQuantity: 10},
		"jacket-004": {ProductID: "jacket-004", Title: "Custom Jacket", Price: 8800, StockQuantity: 3},
	}}
	if backendSvc, backendCatalog, err := di.NewBackendClients(cfg, nil); err == nil {
		log.Printf("[cartdemo] using backend endpoints %s / %s", cfg.CartServiceBaseURL, cfg.CatalogBaseURL)
		svc, catalog = backendSvc, backendCatalog
	} else {
		svc, catalog = &demoCartService{}, demo
	}
	session := &demoSession{authenticated: true}

	container, err := di.NewContainer(ctx, cfg, svc, session, catalog)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer container.Close()

	store := container.Store

	shirt, err := catalog.GetProduct(ctx, "shirt-001")
	if err != nil {
		log.Fatalf("fetch shirt: %v", err)
	}
	totals, err := store.AddItem(ctx, shirt, "", 2, map[string]string{"stitching": "contrast"})
	if err != nil {
		log.Fatalf("add shirt: %v", err)
	}
	log.Printf("[cartdemo] added shirt x2: subtotal=%d tax=%d total=%d", totals.Subtotal, totals.Tax, totals.Total)

	jacket, err := catalog.GetProduct(ctx, "jacket-004")
	if err != nil {
		log.Fatalf("fetch jacket: %v", err)
	}
	if _, err := store.AddItem(ctx, jacket, "slim", 1, nil); err != nil {
		log.Fatalf("add jacket: %v", err)
	}

	// same identity key merges instead of adding a second line
	totals, err = store.AddItem(ctx, shirt, "", 1, map[string]string{"stitching": "contrast"})
	if err != nil {
		log.Fatalf("merge shirt: %v", err)
	}
	log.Printf("[cartdemo] merged shirt line: items=%d total=%d", totals.TotalItems, totals.Total)

	if _, err := container.Promo.Apply(ctx, "WELCOME500"); err != nil {
		log.Printf("[cartdemo] promo rejected: %v", err)
	} else {
		log.Printf("[cartdemo] promo applied: total=%d", store.Totals().Total)
	}

	cost, err := container.Shipping.Calculate(ctx, &usecase.Address{
		Line1:      "1-2-3 Sakura",
		City:       "Shibuya",
		PostalCode: "150-0001",
		Country:    "JP",
	})
	if err != nil {
		log.Fatalf("shipping: %v", err)
	}
	log.Printf("[cartdemo] shipping resolved: cost=%d total=%d", cost, store.Totals().Total)

	result, err := container.Validator.Validate(ctx)
	if err != nil {
		log.Fatalf("validate: %v", err)
	}
	log.Printf("[cartdemo] validation: valid=%t problems=%d", result.Valid, len(result.Problems))
	for _, p := range result.Problems {
		log.Printf("[cartdemo]   line=%s kind=%s", p.LineID, p.Kind)
	}

	if result.Valid {
		items, err := store.Consume(ctx)
		if err != nil {
			log.Fatalf("consume: %v", err)
		}
		log.Printf("[cartdemo] order snapshot taken: lines=%d, cart cleared (items=%d)", len(items), store.Totals().TotalItems)
	}
}

// ----------------------------
// demo collaborators
// ----------------------------

type demoCatalog struct {
	products map[string]catalogdom.ProductSnapshot
}

func (c *demoCatalog) GetProduct(ctx context.Context, productID string) (catalogdom.ProductSnapshot, error) {
	p, ok := c.products[strings.TrimSpace(productID)]
	if !ok {
		return catalogdom.ProductSnapshot{}, catalogdom.ErrProductNotFound
	}
	return p, nil
}

type demoSession struct {
	authenticated bool
}

func (s *demoSession) IsAuthenticated(ctx context.Context) bool { return s.authenticated }

type demoCartService struct {
	mu    sync.Mutex
	items []usecase.SyncItem
}

func (s *demoCartService) Sync(ctx context.Context, items []usecase.SyncItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	log.Printf("[cartdemo] backend sync received %d items", len(items))
	return nil
}

func (s *demoCartService) Get(ctx context.Context) ([]cartdom.Item, error) {
	return nil, nil
}

func (s *demoCartService) ApplyPromoCode(ctx context.Context, code string, items []usecase.SyncItem) (usecase.PromoResult, error) {
	if code == "WELCOME500" {
		return usecase.PromoResult{Discount: 500, DiscountType: usecase.DiscountTypeFixed, Message: "welcome"}, nil
	}
	return usecase.PromoResult{}, errors.New("unknown code")
}

func (s *demoCartService) CalculateShipping(ctx context.Context, addr usecase.Address, items []usecase.SyncItem) (int64, error) {
	return 350, nil
}
