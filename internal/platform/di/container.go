// internal/platform/di/container.go
package di

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	fb "firebase.google.com/go/v4"
	_ "github.com/lib/pq"

	"atelier/internal/adapters/out/broadcast"
	dbadapter "atelier/internal/adapters/out/db"
	firebaseadapter "atelier/internal/adapters/out/firebase"
	httpout "atelier/internal/adapters/out/http"
	"atelier/internal/adapters/out/storage"
	usecase "atelier/internal/application/usecase"
	cartdom "atelier/internal/domain/cart"
	catalogdom "atelier/internal/domain/catalog"
	"atelier/internal/infra/config"
)

// Container wires one ready-to-use cart engine instance.
// Close releases adapters, timers and subscriptions (explicit teardown; no
// package-level singleton anywhere in the engine).
type Container struct {
	Store      *usecase.CartStore
	Reconciler *usecase.Reconciler
	Promo      *usecase.PromoResolver
	Shipping   *usecase.ShippingEstimator
	Validator  *usecase.Validator

	closers []func() error
}

// NewContainer assembles the engine from config and the external
// collaborators (backend cart service, session provider, product catalog).
func NewContainer(ctx context.Context, cfg *config.Config, svc usecase.CartService, session usecase.Session, catalog catalogdom.Reader) (*Container, error) {
	if cfg == nil {
		cfg = config.Load()
	}

	c := &Container{}

	store, bus, err := c.buildStorage(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	cartStore, err := usecase.NewCartStore(store, bus, usecase.CartStoreConfig{
		TaxRate: cfg.TaxRate,
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Store = cartStore
	c.closers = append(c.closers, func() error {
		cartStore.Close()
		return nil
	})

	reconciler := usecase.NewReconciler(cartStore, svc, session, usecase.ReconcilerConfig{
		Debounce:  cfg.SyncDebounce,
		Heartbeat: cfg.SyncHeartbeat,
	})
	cartStore.SetSyncTrigger(reconciler)
	c.Reconciler = reconciler
	c.closers = append(c.closers, func() error {
		reconciler.Close()
		return nil
	})

	// session transitions drive the one-shot load-and-merge + heartbeat
	if sa, ok := session.(*firebaseadapter.SessionAdapter); ok && sa != nil {
		sa.OnTransition(
			func(ctx context.Context) {
				if err := reconciler.HandleSignIn(ctx); err != nil {
					log.Printf("[di] sign-in reconciliation: %v", err)
				}
			},
			reconciler.HandleSignOut,
		)
	}

	c.Promo = usecase.NewPromoResolver(cartStore, svc)
	c.Shipping = usecase.NewShippingEstimator(cartStore, svc, usecase.ShippingEstimatorConfig{
		FlatRate:      cfg.FlatShippingRate,
		FreeThreshold: cfg.FreeShippingThreshold,
	})
	c.Validator = usecase.NewValidator(cartStore, catalog, cfg.PriceDriftEpsilon)

	return c, nil
}

// NewBackendClients builds the outbound HTTP collaborators from config.
// token may be nil (unauthenticated calls); wire the session adapter's
// IDToken for authenticated deployments.
func NewBackendClients(cfg *config.Config, token httpout.TokenSource) (usecase.CartService, catalogdom.Reader, error) {
	if cfg == nil || cfg.CartServiceBaseURL == "" {
		return nil, nil, fmt.Errorf("di: CART_SERVICE_BASE_URL is not set")
	}
	if cfg.CatalogBaseURL == "" {
		return nil, nil, fmt.Errorf("di: CATALOG_BASE_URL is not set")
	}
	return httpout.NewCartServiceClient(cfg.CartServiceBaseURL, token),
		httpout.NewCatalogClient(cfg.CatalogBaseURL), nil
}

// NewFirebaseSession builds the Firebase Auth session adapter from config.
func NewFirebaseSession(ctx context.Context, cfg *config.Config) (*firebaseadapter.SessionAdapter, error) {
	if cfg == nil || cfg.FirebaseProjectID == "" {
		return nil, fmt.Errorf("di: FIREBASE_PROJECT_ID is not set")
	}

	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: cfg.FirebaseProjectID})
	if err != nil {
		return nil, fmt.Errorf("di: firebase app: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("di: firebase auth: %w", err)
	}
	return firebaseadapter.NewSessionAdapter(authClient), nil
}

// Close tears everything down in reverse construction order.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}

func (c *Container) buildStorage(ctx context.Context, cfg *config.Config) (cartdom.Storage, cartdom.Broadcaster, error) {
	switch cfg.StorageKind {
	case config.StorageMemory:
		bus := broadcast.NewBus()
		c.closers = append(c.closers, bus.Close)
		return storage.NewMemoryStorage(), bus, nil

	case config.StorageFile:
		fs, err := storage.NewFileStorage(cfg.StatePath)
		if err != nil {
			return nil, nil, err
		}
		fw, err := broadcast.NewFileBroadcaster(cfg.StatePath)
		if err != nil {
			return nil, nil, err
		}
		c.closers = append(c.closers, fw.Close)
		return fs, fw, nil

	case config.StorageBadger:
		bs, err := storage.OpenBadgerStorage(storage.BadgerConfig{Dir: cfg.BadgerDir})
		if err != nil {
			return nil, nil, err
		}
		c.closers = append(c.closers, bs.Close)
		bus := broadcast.NewBus()
		c.closers = append(c.closers, bus.Close)
		return bs, bus, nil

	case config.StoragePostgres:
		sqlDB, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		c.closers = append(c.closers, sqlDB.Close)

		pg, err := dbadapter.NewCartStoragePG(sqlDB, cfg.StorageOrigin)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		bus := broadcast.NewBus()
		c.closers = append(c.closers, bus.Close)
		return pg, bus, nil

	default:
		return nil, nil, fmt.Errorf("di: unknown storage kind %q", cfg.StorageKind)
	}
}
