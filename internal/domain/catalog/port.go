// internal/domain/catalog/port.go
package catalog

import (
	"context"
	"errors"
)

var (
	// ErrProductNotFound is returned when the catalog has no such product.
	ErrProductNotFound = errors.New("catalog: product not found")
)

// ProductSnapshot is the slice of catalog truth the cart engine consumes:
// price and stock at a point in time, plus a display title.
// Price is in minor currency units.
type ProductSnapshot struct {
	ProductID     string `json:"productId"`
	Title         string `json:"title"`
	Price         int64  `json:"price"`
	StockQuantity int    `json:"stockQuantity"`
}

// Reader is the read port onto the external product catalog.
// Used when snapshotting price/stock at add-time and by the checkout
// validator when re-checking every line against live product truth.
type Reader interface {
	GetProduct(ctx context.Context, productID string) (ProductSnapshot, error)
}
