// internal/domain/cart/entity.go
package cart

import (
	"sort"
	"strings"
	"time"
)

const (
	// MinQuantity / MaxQuantity bound the quantity of a single line.
	MinQuantity = 1
	MaxQuantity = 99
)

// Item represents "one line item" in a cart.
//
// Identity is defined by (productId, variantId, customizations); two lines
// with the same identity key must never coexist and are merged by summing
// quantity. ID is the line id (unique per line, not per product) and stays
// stable across quantity updates.
//
// PriceAtAdd / StockAvailable are snapshots captured when the line was
// created. They are hints only; authoritative values are re-checked by the
// checkout validator.
type Item struct {
	ID             string            `json:"id"`
	ProductID      string            `json:"productId"`
	VariantID      string            `json:"variantId,omitempty"`
	Quantity       int               `json:"quantity"`
	Customizations map[string]string `json:"customizations,omitempty"`
	PriceAtAdd     int64             `json:"priceAtAdd"`
	StockAvailable int               `json:"stockAvailable"`

	// AddedAt is the line's mutation timestamp. It is refreshed on every
	// mutation of the line and decides last-writer-wins in cross-context
	// merges.
	AddedAt time.Time `json:"addedAt"`
}

// Key returns the identity key of the line.
func (it Item) Key() string {
	return ItemKey(it.ProductID, it.VariantID, it.Customizations)
}

// ItemKey builds the deterministic composite identity key
// productId__variantId__k=v;k=v (customization keys sorted).
func ItemKey(productID, variantID string, customizations map[string]string) string {
	pid := strings.TrimSpace(productID)
	vid := strings.TrimSpace(variantID)

	keys := make([]string, 0, len(customizations))
	for k := range customizations {
		if strings.TrimSpace(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(pid)
	b.WriteString("__")
	b.WriteString(vid)
	b.WriteString("__")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(";")
		}
		b.WriteString(strings.TrimSpace(k))
		b.WriteString("=")
		b.WriteString(strings.TrimSpace(customizations[k]))
	}
	return b.String()
}

// State is the in-memory cart state.
//
// Items keeps insertion order (display order); order is irrelevant to
// correctness. Shipping is derived (estimator or backend supplied) and is
// NOT part of the persisted subset.
type State struct {
	Items        []Item    `json:"items"`
	PromoCode    string    `json:"promoCode,omitempty"`
	Discount     int64     `json:"discount"`
	Shipping     int64     `json:"shipping"`
	LastSyncedAt time.Time `json:"lastSyncedAt,omitempty"`
}

// ValidateQuantity checks the caller-supplied quantity for an add.
func ValidateQuantity(q int) error {
	if q < MinQuantity || q > MaxQuantity {
		return &InvalidQuantityError{Quantity: q}
	}
	return nil
}

// Add merges it into the state by identity key.
//
// If a line with the same key exists, its quantity grows by it.Quantity and
// the merged total is checked against the stock snapshot captured on the
// existing line; on StockExceededError the state is left unchanged.
// Otherwise it is appended as a new line.
//
// The caller is responsible for it.ID, it.AddedAt and quantity bounds
// (ValidateQuantity).
func (s *State) Add(it Item) error {
	if s == nil {
		return ErrInvalidState
	}

	it.ProductID = strings.TrimSpace(it.ProductID)
	it.VariantID = strings.TrimSpace(it.VariantID)
	if it.ProductID == "" || it.Quantity < MinQuantity {
		return ErrInvalidState
	}

	idx := s.findKey(it.Key())
	if idx < 0 {
		if it.Quantity > MaxQuantity {
			it.Quantity = MaxQuantity
		}
		s.Items = append(s.Items, cloneItem(it))
		return nil
	}

	existing := s.Items[idx]
	merged := existing.Quantity + it.Quantity
	if existing.StockAvailable > 0 && merged > existing.StockAvailable {
		return &StockExceededError{
			ProductID: existing.ProductID,
			Requested: merged,
			Available: existing.StockAvailable,
		}
	}
	if merged > MaxQuantity {
		merged = MaxQuantity
	}
	s.Items[idx].Quantity = merged
	s.Items[idx].AddedAt = it.AddedAt
	return nil
}

// SetQuantity sets the quantity of the line with lineID.
//
// q < MinQuantity removes the line (same as RemoveLine). q > MaxQuantity is
// clamped. The new quantity is re-checked against the line's stock snapshot.
// A missing line is a no-op, not an error.
func (s *State) SetQuantity(lineID string, q int, now time.Time) error {
	if s == nil {
		return ErrInvalidState
	}

	idx := s.findLine(lineID)
	if idx < 0 {
		return nil
	}

	if q < MinQuantity {
		s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
		return nil
	}
	if q > MaxQuantity {
		q = MaxQuantity
	}

	line := s.Items[idx]
	if line.StockAvailable > 0 && q > line.StockAvailable {
		return &StockExceededError{
			ProductID: line.ProductID,
			Requested: q,
			Available: line.StockAvailable,
		}
	}
	s.Items[idx].Quantity = q
	s.Items[idx].AddedAt = now
	return nil
}

// RemoveLine deletes the line with lineID. Missing line is a no-op.
func (s *State) RemoveLine(lineID string) {
	if s == nil {
		return
	}
	idx := s.findLine(lineID)
	if idx < 0 {
		return
	}
	s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
}

// Reset empties items and clears promo, discount and shipping.
// LastSyncedAt is kept (sync recency is about the session, not the items).
func (s *State) Reset() {
	if s == nil {
		return
	}
	s.Items = []Item{}
	s.PromoCode = ""
	s.Discount = 0
	s.Shipping = 0
}

// IsInCart reports whether any line references productID.
func (s *State) IsInCart(productID string) bool {
	_, ok := s.ItemForProduct(productID)
	return ok
}

// ItemForProduct returns the first line for productID (insertion order).
func (s *State) ItemForProduct(productID string) (Item, bool) {
	if s == nil {
		return Item{}, false
	}
	pid := strings.TrimSpace(productID)
	for _, it := range s.Items {
		if it.ProductID == pid {
			return it, true
		}
	}
	return Item{}, false
}

// ProductQuantity sums quantity across all lines of productID
// (variants / customizations included).
func (s *State) ProductQuantity(productID string) int {
	if s == nil {
		return 0
	}
	pid := strings.TrimSpace(productID)
	total := 0
	for _, it := range s.Items {
		if it.ProductID == pid {
			total += it.Quantity
		}
	}
	return total
}

// Clone returns a deep copy (items slice and customization maps).
func (s *State) Clone() State {
	if s == nil {
		return State{Items: []Item{}}
	}
	out := *s
	out.Items = CloneItems(s.Items)
	return out
}

// CloneItems deep-copies a line slice.
func CloneItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, cloneItem(it))
	}
	return out
}

func cloneItem(it Item) Item {
	if it.Customizations != nil {
		m := make(map[string]string, len(it.Customizations))
		for k, v := range it.Customizations {
			m[k] = v
		}
		it.Customizations = m
	}
	return it
}

// Normalize repairs a decoded item list: drops invalid entries and merges
// duplicate identity keys by summing quantity (first occurrence keeps its
// position and line id; the later mutation timestamp is kept).
func Normalize(items []Item) []Item {
	out := make([]Item, 0, len(items))
	byKey := map[string]int{}

	for _, it := range items {
		it.ProductID = strings.TrimSpace(it.ProductID)
		it.VariantID = strings.TrimSpace(it.VariantID)
		if it.ProductID == "" || it.Quantity < MinQuantity {
			continue
		}
		if it.Quantity > MaxQuantity {
			it.Quantity = MaxQuantity
		}

		k := it.Key()
		if idx, ok := byKey[k]; ok {
			merged := out[idx].Quantity + it.Quantity
			if merged > MaxQuantity {
				merged = MaxQuantity
			}
			out[idx].Quantity = merged
			if it.AddedAt.After(out[idx].AddedAt) {
				out[idx].AddedAt = it.AddedAt
			}
			continue
		}
		byKey[k] = len(out)
		out = append(out, cloneItem(it))
	}
	return out
}

func (s *State) findKey(key string) int {
	for i := range s.Items {
		if s.Items[i].Key() == key {
			return i
		}
	}
	return -1
}

func (s *State) findLine(lineID string) int {
	id := strings.TrimSpace(lineID)
	for i := range s.Items {
		if s.Items[i].ID == id {
			return i
		}
	}
	return -1
}
