// internal/domain/cart/errors.go
package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState guards nil receivers and malformed input.
	ErrInvalidState = errors.New("cart: invalid state")
)

// InvalidQuantityError is returned when a caller-supplied quantity is
// outside [MinQuantity, MaxQuantity]. User-facing; blocks the mutation.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("cart: quantity %d out of range [%d, %d]", e.Quantity, MinQuantity, MaxQuantity)
}

// StockExceededError is returned when a requested quantity exceeds the known
// stock for the line. User-facing; blocks the mutation (or flags the line at
// checkout validation).
type StockExceededError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("cart: product %s requested %d exceeds stock %d", e.ProductID, e.Requested, e.Available)
}

// ProductUnavailableError is raised by checkout validation when a line's
// product no longer exists in the catalog.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("cart: product %s is no longer available", e.ProductID)
}

// PromoInvalidError is returned when the backend rejects a discount code.
// User-facing; blocks promo application only, never the cart itself.
type PromoInvalidError struct {
	Code   string
	Reason string
}

func (e *PromoInvalidError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("cart: promo code %q rejected", e.Code)
	}
	return fmt.Sprintf("cart: promo code %q rejected: %s", e.Code, e.Reason)
}
