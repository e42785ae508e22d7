// internal/application/usecase/checkout_validator_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	cartdom "atelier/internal/domain/cart"
	catalogdom "atelier/internal/domain/catalog"
)

// Problem kinds reported by checkout validation.
type ProblemKind string

const (
	ProblemStockExceeded      ProblemKind = "stock_exceeded"
	ProblemPriceDrift         ProblemKind = "price_drift"
	ProblemProductUnavailable ProblemKind = "product_unavailable"
)

// Problem describes one per-line finding.
type Problem struct {
	Kind      ProblemKind
	LineID    string
	ProductID string

	// stock findings
	Requested int
	Available int

	// price drift findings
	PriceAtAdd   int64
	CurrentPrice int64

	// Err carries the typed error where one exists (errors.As friendly).
	Err error
}

// ValidationResult is the outcome of the pre-checkout gate.
type ValidationResult struct {
	Valid    bool
	Problems []Problem
}

// Validator re-checks every line against live catalog truth immediately
// before order submission. It mutates nothing: the checkout flow decides
// whether to block, clamp quantities or prompt the user.
//
// This is the single blocking, must-complete operation of the engine; a
// catalog fetch failure is returned as an error (checkout must not proceed
// on unknown truth).
type Validator struct {
	store   *CartStore
	catalog catalogdom.Reader

	// epsilon is the tolerated |currentPrice − priceAtAdd| before a drift
	// finding is raised.
	epsilon int64
}

func NewValidator(store *CartStore, catalog catalogdom.Reader, epsilon int64) *Validator {
	if epsilon < 0 {
		epsilon = 0
	}
	return &Validator{store: store, catalog: catalog, epsilon: epsilon}
}

// Validate produces the per-line problem list for the current cart.
func (v *Validator) Validate(ctx context.Context) (ValidationResult, error) {
	if v == nil || v.store == nil || v.catalog == nil {
		return ValidationResult{}, errors.New("cart_validator: not configured")
	}

	st := v.store.State()
	problems := []Problem{}

	for _, it := range st.Items {
		snap, err := v.catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, catalogdom.ErrProductNotFound) {
				problems = append(problems, Problem{
					Kind:      ProblemProductUnavailable,
					LineID:    it.ID,
					ProductID: it.ProductID,
					Err:       &cartdom.ProductUnavailableError{ProductID: it.ProductID},
				})
				continue
			}
			return ValidationResult{}, fmt.Errorf("cart_validator: fetch product %s: %w", it.ProductID, err)
		}

		if it.Quantity > snap.StockQuantity {
			problems = append(problems, Problem{
				Kind:      ProblemStockExceeded,
				LineID:    it.ID,
				ProductID: it.ProductID,
				Requested: it.Quantity,
				Available: snap.StockQuantity,
				Err: &cartdom.StockExceededError{
					ProductID: it.ProductID,
					Requested: it.Quantity,
					Available: snap.StockQuantity,
				},
			})
		}

		if drift := snap.Price - it.PriceAtAdd; drift > v.epsilon || -drift > v.epsilon {
			problems = append(problems, Problem{
				Kind:         ProblemPriceDrift,
				LineID:       it.ID,
				ProductID:    it.ProductID,
				PriceAtAdd:   it.PriceAtAdd,
				CurrentPrice: snap.Price,
			})
		}
	}

	return ValidationResult{Valid: len(problems) == 0, Problems: problems}, nil
}
