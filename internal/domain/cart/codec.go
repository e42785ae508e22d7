// internal/domain/cart/codec.go
package cart

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Persisted is the durable subset of State shared by every storage adapter:
// items + promoCode + discount + lastSyncedAt. UI-only and derived fields
// (shipping, totals, drawer flags) are never persisted.
type Persisted struct {
	Items        []Item    `json:"items"`
	PromoCode    string    `json:"promoCode,omitempty"`
	Discount     int64     `json:"discount"`
	LastSyncedAt time.Time `json:"lastSyncedAt,omitempty"`
}

// Persisted extracts the durable subset of the state.
func (s *State) Persisted() Persisted {
	if s == nil {
		return Persisted{Items: []Item{}}
	}
	return Persisted{
		Items:        CloneItems(s.Items),
		PromoCode:    s.PromoCode,
		Discount:     s.Discount,
		LastSyncedAt: s.LastSyncedAt,
	}
}

// ApplyPersisted installs a loaded snapshot into the state.
// Items are normalized; shipping is left untouched (derived, re-estimated).
func (s *State) ApplyPersisted(p Persisted) {
	if s == nil {
		return
	}
	s.Items = Normalize(p.Items)
	s.PromoCode = strings.TrimSpace(p.PromoCode)
	s.Discount = p.Discount
	if s.Discount < 0 {
		s.Discount = 0
	}
	s.LastSyncedAt = p.LastSyncedAt
}

// EncodePersisted serializes the durable subset.
func EncodePersisted(p Persisted) ([]byte, error) {
	if p.Items == nil {
		p.Items = []Item{}
	}
	return json.Marshal(p)
}

// DecodePersisted parses a stored payload with forward/backward
// compatibility: unknown fields are ignored, missing fields defaulted, and
// malformed entries dropped instead of failing the whole load.
//
// Payloads written by older (or newer) storefront builds must keep loading,
// so we parse from raw maps instead of strict struct decoding — same
// approach as parsing legacy document shapes out of a datastore snapshot.
func DecodePersisted(b []byte) (Persisted, error) {
	out := Persisted{Items: []Item{}}

	if len(b) == 0 {
		return out, errors.New("cart: empty payload")
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return out, err
	}

	out.PromoCode = strings.TrimSpace(asString(raw["promoCode"]))
	out.Discount = asInt64(raw["discount"])
	if out.Discount < 0 {
		out.Discount = 0
	}
	if t, ok := asTime(raw["lastSyncedAt"]); ok {
		out.LastSyncedAt = t
	}

	list, ok := raw["items"].([]any)
	if !ok {
		return out, nil
	}

	for _, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}

		it := Item{
			ID:             strings.TrimSpace(asString(m["id"])),
			ProductID:      strings.TrimSpace(asString(m["productId"])),
			VariantID:      strings.TrimSpace(asString(m["variantId"])),
			Quantity:       int(asInt64(m["quantity"])),
			PriceAtAdd:     asInt64(m["priceAtAdd"]),
			StockAvailable: int(asInt64(m["stockAvailable"])),
		}
		if t, ok2 := asTime(m["addedAt"]); ok2 {
			it.AddedAt = t
		}
		if cm, ok2 := m["customizations"].(map[string]any); ok2 {
			it.Customizations = map[string]string{}
			for k, cv := range cm {
				k = strings.TrimSpace(k)
				if k == "" {
					continue
				}
				it.Customizations[k] = asString(cv)
			}
		}

		if it.ProductID == "" || it.Quantity < MinQuantity {
			continue
		}
		out.Items = append(out.Items, it)
	}

	out.Items = Normalize(out.Items)
	return out, nil
}

// ----------------------------
// raw value helpers
// ----------------------------

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func asTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
