// internal/application/usecase/promo_usecase.go
package usecase

import (
	"context"
	"errors"
	"math"
	"strings"

	cartdom "atelier/internal/domain/cart"
)

// PromoResolver validates discount codes against the backend and records the
// resulting discount on the store.
//
// Unlike background sync, promo application is user-facing and blocking:
// a rejection comes back to the caller as *cart.PromoInvalidError and the
// cart state stays untouched.
type PromoResolver struct {
	store *CartStore
	svc   CartService
}

func NewPromoResolver(store *CartStore, svc CartService) *PromoResolver {
	return &PromoResolver{store: store, svc: svc}
}

// Apply validates code against the current items and, on success, records
// promoCode + discount and returns the recomputed totals.
// Percentage codes are computed against the current subtotal; fixed codes
// are used as-is.
func (p *PromoResolver) Apply(ctx context.Context, code string) (cartdom.Totals, error) {
	if p == nil || p.store == nil || p.svc == nil {
		return cartdom.Totals{}, errors.New("promo_resolver: not configured")
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return p.store.Totals(), &cartdom.PromoInvalidError{Code: code, Reason: "empty code"}
	}

	res, err := p.svc.ApplyPromoCode(ctx, code, p.store.syncItems())
	if err != nil {
		var pe *cartdom.PromoInvalidError
		if errors.As(err, &pe) {
			return p.store.Totals(), err
		}
		return p.store.Totals(), &cartdom.PromoInvalidError{Code: code, Reason: err.Error()}
	}

	discount := res.Discount
	if strings.EqualFold(res.DiscountType, DiscountTypePercentage) {
		subtotal := p.store.Totals().Subtotal
		discount = int64(math.Round(float64(subtotal) * float64(res.Discount) / 100))
	}
	if discount < 0 {
		return p.store.Totals(), &cartdom.PromoInvalidError{Code: code, Reason: "negative discount"}
	}

	return p.store.applyPromo(ctx, code, discount)
}

// Remove clears promoCode and discount synchronously. No network call.
func (p *PromoResolver) Remove() cartdom.Totals {
	if p == nil || p.store == nil {
		return cartdom.Totals{}
	}
	return p.store.clearPromo(context.Background())
}
