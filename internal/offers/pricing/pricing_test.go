package pricing

import (
	"testing"

	"offerbuilder_backend/internal/offers/domain"
)

func TestRoundBpsRoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		amount int64
		bps    int
		want   int64
	}{
		{999, 825, 82},   // 82.4175 rounds down
		{10000, 825, 825},
		{100, 50, 1},     // 0.5 rounds up
		{100, 49, 0},     // 0.49 rounds down
		{0, 2100, 0},
		{-100, 50, -1},   // half rounds away from zero on the negative side
		{1, 10000, 1},
	}
	for _, tc := range cases {
		if got := RoundBps(tc.amount, tc.bps); got != tc.want {
			t.Fatalf("RoundBps(%d, %d) = %d, want %d", tc.amount, tc.bps, got, tc.want)
		}
	}
}

func TestDefaultItemPrice(t *testing.T) {
	item := &domain.Item{Quantity: 3, UnitPriceCents: 333}
	if got := DefaultItemPrice(item); got != 999 {
		t.Fatalf("DefaultItemPrice = %d, want 999", got)
	}
}

func TestTaxIsPerItemNotAggregate(t *testing.T) {
	// Two items at 825 bps: per-item rounding gives 82 + 82 = 164, while
	// taxing the 1998 aggregate would give 165.
	e := New(nil)
	items := []*domain.Item{
		{LineTotalCents: 999, TaxRateBps: 825},
		{LineTotalCents: 999, TaxRateBps: 825},
	}
	if got := e.CalculateTax(items); got != 164 {
		t.Fatalf("CalculateTax = %d, want 164", got)
	}
}

func TestPercentageDiscount(t *testing.T) {
	e := New(nil)
	offer := &domain.Offer{DiscountType: domain.DiscountPercentage, DiscountValue: 5}
	if got := e.CalculateDiscount(10000, offer); got != 500 {
		t.Fatalf("5%% of 10000 = %d, want 500", got)
	}
}

func TestFixedDiscount(t *testing.T) {
	e := New(nil)
	offer := &domain.Offer{DiscountType: domain.DiscountFixed, DiscountValue: 750}
	if got := e.CalculateDiscount(10000, offer); got != 750 {
		t.Fatalf("fixed discount = %d, want 750", got)
	}
}

func TestZeroDiscountValueYieldsNothing(t *testing.T) {
	e := New(nil)
	offer := &domain.Offer{DiscountType: domain.DiscountPercentage, DiscountValue: 0}
	if got := e.CalculateDiscount(10000, offer); got != 0 {
		t.Fatalf("expected no discount, got %d", got)
	}
}

func TestTotalIsNotClamped(t *testing.T) {
	e := New(nil)
	if got := e.CalculateTotal(100, 8, 500); got != -392 {
		t.Fatalf("CalculateTotal = %d, want -392", got)
	}
}

func TestBlockSubtotalSumsLineItems(t *testing.T) {
	e := New(nil)
	block := &domain.Block{Items: []*domain.Item{
		{Quantity: 10, UnitPriceCents: 850},
		{Quantity: 20, UnitPriceCents: 250},
	}}
	if got := e.CalculateBlockSubtotal(block, &domain.Offer{}); got != 13500 {
		t.Fatalf("CalculateBlockSubtotal = %d, want 13500", got)
	}
}
