// internal/application/usecase/promo_usecase_test.go
package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "atelier/internal/domain/cart"
)

func newPromoFixture(t *testing.T, svc *fakeCartService) (*PromoResolver, *CartStore) {
	t.Helper()
	store, err := NewCartStore(&fakeStorage{}, nil, CartStoreConfig{Origin: "test"})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	_, err = store.AddItem(context.Background(), snapshot("p1", 1000, 10), "", 2, nil)
	require.NoError(t, err)

	return NewPromoResolver(store, svc), store
}

func TestPromoApplyFixedDiscount(t *testing.T) {
	svc := &fakeCartService{promoResult: PromoResult{Discount: 500, DiscountType: DiscountTypeFixed}}
	p, store := newPromoFixture(t, svc)

	totals, err := p.Apply(context.Background(), "WELCOME500")
	require.NoError(t, err)

	assert.Equal(t, int64(500), totals.Discount)
	assert.Equal(t, int64(2000+100-500), totals.Total)
	assert.Equal(t, "WELCOME500", store.State().PromoCode)
}

func TestPromoApplyPercentageDiscount(t *testing.T) {
	svc := &fakeCartService{promoResult: PromoResult{Discount: 10, DiscountType: DiscountTypePercentage}}
	p, store := newPromoFixture(t, svc)

	totals, err := p.Apply(context.Background(), "TENOFF")
	require.NoError(t, err)

	assert.Equal(t, int64(200), totals.Discount, "10% of the 2000 subtotal")
	assert.Equal(t, int64(200), store.State().Discount)
}

func TestPromoApplyRejectionLeavesStateUntouched(t *testing.T) {
	svc := &fakeCartService{promoErr: errors.New("code expired")}
	p, store := newPromoFixture(t, svc)

	var pe *cartdom.PromoInvalidError
	_, err := p.Apply(context.Background(), "EXPIRED")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "EXPIRED", pe.Code)

	st := store.State()
	assert.Empty(t, st.PromoCode)
	assert.Zero(t, st.Discount)
}

func TestPromoApplyTypedRejectionPassesThrough(t *testing.T) {
	want := &cartdom.PromoInvalidError{Code: "GONE", Reason: "not applicable to these items"}
	svc := &fakeCartService{promoErr: want}
	p, _ := newPromoFixture(t, svc)

	var pe *cartdom.PromoInvalidError
	_, err := p.Apply(context.Background(), "GONE")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "not applicable to these items", pe.Reason)
}

func TestPromoApplyEmptyCodeSkipsNetwork(t *testing.T) {
	svc := &fakeCartService{}
	p, _ := newPromoFixture(t, svc)

	var pe *cartdom.PromoInvalidError
	_, err := p.Apply(context.Background(), "   ")
	require.ErrorAs(t, err, &pe)
	assert.Zero(t, svc.promoCalls)
}

func TestPromoApplyNegativeDiscountRejected(t *testing.T) {
	svc := &fakeCartService{promoResult: PromoResult{Discount: -100, DiscountType: DiscountTypeFixed}}
	p, store := newPromoFixture(t, svc)

	var pe *cartdom.PromoInvalidError
	_, err := p.Apply(context.Background(), "NEGATIVE")
	require.ErrorAs(t, err, &pe)
	assert.Zero(t, store.State().Discount)
}

func TestPromoReplacesPreviousCode(t *testing.T) {
	svc := &fakeCartService{promoResult: PromoResult{Discount: 500, DiscountType: DiscountTypeFixed}}
	p, store := newPromoFixture(t, svc)

	_, err := p.Apply(context.Background(), "FIRST")
	require.NoError(t, err)

	svc.mu.Lock()
	svc.promoResult = PromoResult{Discount: 300, DiscountType: DiscountTypeFixed}
	svc.mu.Unlock()

	_, err = p.Apply(context.Background(), "SECOND")
	require.NoError(t, err)

	st := store.State()
	assert.Equal(t, "SECOND", st.PromoCode, "one promo at a time")
	assert.Equal(t, int64(300), st.Discount)
}

func TestPromoRemoveClearsSynchronously(t *testing.T) {
	svc := &fakeCartService{promoResult: PromoResult{Discount: 500, DiscountType: DiscountTypeFixed}}
	p, store := newPromoFixture(t, svc)

	_, err := p.Apply(context.Background(), "WELCOME500")
	require.NoError(t, err)

	totals := p.Remove()
	assert.Zero(t, totals.Discount)
	assert.Equal(t, int64(2100), totals.Total)
	assert.Empty(t, store.State().PromoCode)
	assert.Equal(t, 1, svc.promoCalls, "removal never hits the network")
}
