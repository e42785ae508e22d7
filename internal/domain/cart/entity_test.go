// internal/domain/cart/entity_test.go
package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(id, productID, variantID string, qty int, price int64, stock int, at time.Time) Item {
	return Item{
		ID:             id,
		ProductID:      productID,
		VariantID:      variantID,
		Quantity:       qty,
		PriceAtAdd:     price,
		StockAvailable: stock,
		AddedAt:        at,
	}
}

func TestItemKeyDeterministic(t *testing.T) {
	a := ItemKey("p1", "v1", map[string]string{"stitching": "contrast", "fit": "slim"})
	b := ItemKey("p1", "v1", map[string]string{"fit": "slim", "stitching": "contrast"})
	assert.Equal(t, a, b, "customization map order must not affect the key")

	c := ItemKey("p1", "v1", map[string]string{"fit": "relaxed"})
	assert.NotEqual(t, a, c)

	assert.NotEqual(t, ItemKey("p1", "", nil), ItemKey("p1", "v1", nil))
	assert.Equal(t, ItemKey(" p1 ", "v1", nil), ItemKey("p1", " v1 ", nil))
}

func TestAddMergesSameIdentityKey(t *testing.T) {
	now := time.Now()
	var s State

	require.NoError(t, s.Add(testItem("l1", "p1", "", 2, 1000, 10, now)))
	require.NoError(t, s.Add(testItem("l2", "p1", "", 3, 1000, 10, now.Add(time.Second))))

	require.Len(t, s.Items, 1, "same identity key must never produce two lines")
	assert.Equal(t, 5, s.Items[0].Quantity)
	assert.Equal(t, "l1", s.Items[0].ID, "merged line keeps the original line id")
	assert.Equal(t, now.Add(time.Second), s.Items[0].AddedAt, "merge refreshes the mutation timestamp")
}

func TestAddDistinctCustomizationsStaySeparate(t *testing.T) {
	now := time.Now()
	var s State

	it1 := testItem("l1", "p1", "", 1, 1000, 10, now)
	it1.Customizations = map[string]string{"stitching": "contrast"}
	it2 := testItem("l2", "p1", "", 1, 1000, 10, now)
	it2.Customizations = map[string]string{"stitching": "tonal"}

	require.NoError(t, s.Add(it1))
	require.NoError(t, s.Add(it2))
	assert.Len(t, s.Items, 2)
}

func TestAddStockExceededLeavesStateUnchanged(t *testing.T) {
	now := time.Now()
	var s State
	require.NoError(t, s.Add(testItem("l1", "p1", "", 4, 1000, 5, now)))

	err := s.Add(testItem("l2", "p1", "", 2, 1000, 5, now.Add(time.Second)))
	var se *StockExceededError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 6, se.Requested)
	assert.Equal(t, 5, se.Available)

	require.Len(t, s.Items, 1)
	assert.Equal(t, 4, s.Items[0].Quantity, "failed merge must not change quantity")
	assert.Equal(t, now, s.Items[0].AddedAt, "failed merge must not touch the timestamp")
}

func TestAddClampsMergedQuantity(t *testing.T) {
	now := time.Now()
	var s State
	require.NoError(t, s.Add(testItem("l1", "p1", "", 60, 1000, 0, now)))
	require.NoError(t, s.Add(testItem("l2", "p1", "", 60, 1000, 0, now)))
	assert.Equal(t, MaxQuantity, s.Items[0].Quantity)
}

func TestSetQuantityZeroEqualsRemove(t *testing.T) {
	now := time.Now()

	build := func() State {
		var s State
		require.NoError(t, s.Add(testItem("l1", "p1", "", 2, 1000, 10, now)))
		require.NoError(t, s.Add(testItem("l2", "p2", "", 1, 500, 10, now)))
		return s
	}

	viaSet := build()
	require.NoError(t, viaSet.SetQuantity("l1", 0, now.Add(time.Second)))

	viaRemove := build()
	viaRemove.RemoveLine("l1")

	assert.Equal(t, viaRemove.Items, viaSet.Items)
}

func TestSetQuantityClampsAndChecksStock(t *testing.T) {
	now := time.Now()
	var s State
	require.NoError(t, s.Add(testItem("l1", "p1", "", 1, 1000, 3, now)))

	err := s.SetQuantity("l1", 5, now)
	var se *StockExceededError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, s.Items[0].Quantity)

	var unbounded State
	require.NoError(t, unbounded.Add(testItem("l2", "p2", "", 1, 1000, 0, now)))
	require.NoError(t, unbounded.SetQuantity("l2", 500, now))
	assert.Equal(t, MaxQuantity, unbounded.Items[0].Quantity)
}

func TestSetQuantityMissingLineIsNoop(t *testing.T) {
	var s State
	require.NoError(t, s.SetQuantity("nope", 3, time.Now()))
	assert.Empty(t, s.Items)
}

func TestValidateQuantityBounds(t *testing.T) {
	var iq *InvalidQuantityError

	require.ErrorAs(t, ValidateQuantity(0), &iq)
	assert.Equal(t, 0, iq.Quantity)
	require.ErrorAs(t, ValidateQuantity(100), &iq)
	require.ErrorAs(t, ValidateQuantity(-1), &iq)

	assert.NoError(t, ValidateQuantity(1))
	assert.NoError(t, ValidateQuantity(99))
}

func TestResetClearsPromoAndShipping(t *testing.T) {
	now := time.Now()
	var s State
	require.NoError(t, s.Add(testItem("l1", "p1", "", 2, 1000, 10, now)))
	s.PromoCode = "WELCOME"
	s.Discount = 500
	s.Shipping = 350
	s.LastSyncedAt = now

	s.Reset()

	assert.Empty(t, s.Items)
	assert.Empty(t, s.PromoCode)
	assert.Zero(t, s.Discount)
	assert.Zero(t, s.Shipping)
	assert.Equal(t, now, s.LastSyncedAt, "sync recency survives a clear")
}

func TestProductQueries(t *testing.T) {
	now := time.Now()
	var s State

	it1 := testItem("l1", "p1", "v1", 2, 1000, 10, now)
	it2 := testItem("l2", "p1", "v2", 3, 1100, 10, now)
	it3 := testItem("l3", "p2", "", 1, 500, 10, now)
	require.NoError(t, s.Add(it1))
	require.NoError(t, s.Add(it2))
	require.NoError(t, s.Add(it3))

	assert.True(t, s.IsInCart("p1"))
	assert.False(t, s.IsInCart("p9"))

	got, ok := s.ItemForProduct("p1")
	require.True(t, ok)
	assert.Equal(t, "l1", got.ID, "first line in insertion order")

	assert.Equal(t, 5, s.ProductQuantity("p1"), "sums across variants")
	assert.Equal(t, 0, s.ProductQuantity("p9"))
}

func TestNormalizeMergesDuplicatesAndDropsInvalid(t *testing.T) {
	now := time.Now()
	items := []Item{
		testItem("l1", "p1", "", 2, 1000, 10, now),
		testItem("l2", "", "", 2, 1000, 10, now),   // no product id
		testItem("l3", "p1", "", 0, 1000, 10, now), // zero quantity
		testItem("l4", "p1", "", 3, 1000, 10, now.Add(time.Minute)),
		testItem("l5", "p2", "", 1, 500, 10, now),
	}

	out := Normalize(items)
	require.Len(t, out, 2)
	assert.Equal(t, "l1", out[0].ID)
	assert.Equal(t, 5, out[0].Quantity)
	assert.Equal(t, now.Add(time.Minute), out[0].AddedAt)
	assert.Equal(t, "p2", out[1].ProductID)
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now()
	var s State
	it := testItem("l1", "p1", "", 1, 1000, 10, now)
	it.Customizations = map[string]string{"fit": "slim"}
	require.NoError(t, s.Add(it))

	c := s.Clone()
	c.Items[0].Quantity = 50
	c.Items[0].Customizations["fit"] = "relaxed"

	assert.Equal(t, 1, s.Items[0].Quantity)
	assert.Equal(t, "slim", s.Items[0].Customizations["fit"])
}
