// internal/application/usecase/shipping_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
)

const (
	// DefaultFlatShippingRate is charged when no backend rate is available.
	DefaultFlatShippingRate int64 = 500

	// DefaultFreeShippingThreshold waives shipping above this subtotal.
	DefaultFreeShippingThreshold int64 = 10000
)

// ShippingEstimatorConfig carries pricing knobs. Zero values select defaults.
type ShippingEstimatorConfig struct {
	FlatRate      int64
	FreeThreshold int64
}

// ShippingEstimator resolves the shipping cost for the current cart.
// Shipping is always resolved before the final total is shown at checkout.
type ShippingEstimator struct {
	store         *CartStore
	svc           CartService
	flatRate      int64
	freeThreshold int64
}

func NewShippingEstimator(store *CartStore, svc CartService, cfg ShippingEstimatorConfig) *ShippingEstimator {
	flat := cfg.FlatRate
	if flat <= 0 {
		flat = DefaultFlatShippingRate
	}
	threshold := cfg.FreeThreshold
	if threshold <= 0 {
		threshold = DefaultFreeShippingThreshold
	}
	return &ShippingEstimator{
		store:         store,
		svc:           svc,
		flatRate:      flat,
		freeThreshold: threshold,
	}
}

// Calculate resolves shipping for the current subtotal and optional address,
// records it on the store and returns the cost.
//
// Free above the threshold. With an address the backend rate calculator is
// asked; a network failure falls back to the flat rate instead of blocking
// the flow. Without an address the flat rate applies directly.
func (e *ShippingEstimator) Calculate(ctx context.Context, addr *Address) (int64, error) {
	if e == nil || e.store == nil {
		return 0, errors.New("shipping_estimator: not configured")
	}

	if e.store.Totals().Subtotal >= e.freeThreshold {
		e.store.setShipping(0)
		return 0, nil
	}

	cost := e.flatRate
	if addr != nil && e.svc != nil {
		backendCost, err := e.svc.CalculateShipping(ctx, *addr, e.store.syncItems())
		if err != nil {
			log.Printf("[shipping_estimator] rate lookup failed, falling back to flat rate: %v", err)
		} else if backendCost >= 0 {
			cost = backendCost
		}
	}

	e.store.setShipping(cost)
	return cost, nil
}
