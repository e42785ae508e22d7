// internal/application/usecase/ports.go
package usecase

import (
	"context"

	cartdom "atelier/internal/domain/cart"
)

// Session reports whether an authenticated session is active.
// Sign-in / sign-out transitions are delivered to the Reconciler by the
// session adapter (HandleSignIn / HandleSignOut); this port only answers
// "is someone signed in right now".
type Session interface {
	IsAuthenticated(ctx context.Context) bool
}

// SyncItem is the wire shape sent to the backend cart service.
// Price is deliberately absent: the server computes its own prices and
// never trusts a client snapshot.
type SyncItem struct {
	ProductID      string            `json:"productId"`
	VariantID      string            `json:"variantId,omitempty"`
	Quantity       int               `json:"quantity"`
	Customizations map[string]string `json:"customizations,omitempty"`
}

// Address is a shipping destination for rate calculation.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Promo discount types returned by the backend.
const (
	DiscountTypeFixed      = "fixed"
	DiscountTypePercentage = "percentage"
)

// PromoResult is the backend's answer to a promo code validation.
// For DiscountTypePercentage, Discount is the percentage (0-100); for
// DiscountTypeFixed it is an amount in minor units.
type PromoResult struct {
	Discount     int64  `json:"discount"`
	DiscountType string `json:"discountType"`
	Message      string `json:"message,omitempty"`
}

// CartService is the outbound port onto the server-held cart.
type CartService interface {
	// Sync pushes the current item list. Best-effort: callers treat failure
	// as retryable background noise, never a user-facing error.
	Sync(ctx context.Context, items []SyncItem) error

	// Get fetches the server-held cart for the signed-in user.
	Get(ctx context.Context) ([]cartdom.Item, error)

	// ApplyPromoCode validates code against the given items.
	// A rejection should come back as *cart.PromoInvalidError.
	ApplyPromoCode(ctx context.Context, code string, items []SyncItem) (PromoResult, error)

	// CalculateShipping returns the shipping cost for addr, in minor units.
	CalculateShipping(ctx context.Context, addr Address, items []SyncItem) (int64, error)
}
