// Package pricing computes money totals for the offer aggregate. Every
// function is pure and deterministic; all money values are integer cents and
// tax rates are basis points. No floating-point currency representation is
// permitted here.
package pricing

import (
	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/plugin"
)

// Engine evaluates pricing over the aggregate, deferring item-level price
// decisions to the plugin's pricing strategy when one is provided.
type Engine struct {
	strategy plugin.PricingStrategy
}

// New creates a pricing engine for the given plugin.
func New(p plugin.Plugin) *Engine {
	var strategy plugin.PricingStrategy
	if p != nil {
		strategy = p.Pricing()
	}
	return &Engine{strategy: strategy}
}

// CalculateItemPrice returns the item's line total in cents. The default is
// quantity times unit price; the plugin strategy may override it to add
// item-level surcharges.
func (e *Engine) CalculateItemPrice(item *domain.Item, block *domain.Block, offer *domain.Offer) int64 {
	if e.strategy != nil {
		return e.strategy.ItemPrice(item, block, offer)
	}
	return DefaultItemPrice(item)
}

// DefaultItemPrice is the base line total: quantity times unit price.
func DefaultItemPrice(item *domain.Item) int64 {
	return item.Quantity * item.UnitPriceCents
}

// CalculateBlockSubtotal sums the line totals of the block's items.
func (e *Engine) CalculateBlockSubtotal(block *domain.Block, offer *domain.Offer) int64 {
	var sum int64
	for _, it := range block.Items {
		sum += e.CalculateItemPrice(it, block, offer)
	}
	return sum
}

// CalculateTax computes tax per item and sums the rounded contributions.
// Tax is never computed on the aggregate subtotal directly; doing so would
// drift when items carry heterogeneous rates.
func (e *Engine) CalculateTax(items []*domain.Item) int64 {
	var sum int64
	for _, it := range items {
		sum += RoundBps(it.LineTotalCents, it.TaxRateBps)
	}
	return sum
}

// CalculateDiscount reads the discount attached to the offer and returns its
// value in cents against the given subtotal. It does not decide whether a
// discount applies; an offer without one yields zero.
func (e *Engine) CalculateDiscount(subtotalCents int64, offer *domain.Offer) int64 {
	if offer.DiscountValue <= 0 {
		return 0
	}
	switch offer.DiscountType {
	case domain.DiscountPercentage:
		return RoundBps(subtotalCents, int(offer.DiscountValue)*100)
	case domain.DiscountFixed:
		return offer.DiscountValue
	default:
		return 0
	}
}

// CalculateTotal is subtotal + tax - discount. The result is never clamped
// to zero; a negative total is a validation concern, not a pricing one.
func (e *Engine) CalculateTotal(subtotalCents, taxCents, discountCents int64) int64 {
	return subtotalCents + taxCents - discountCents
}

// RoundBps applies a basis-point rate to an amount of cents, rounding half
// away from zero on the cent.
func RoundBps(amountCents int64, bps int) int64 {
	n := amountCents * int64(bps)
	if n >= 0 {
		return (n + 5000) / 10000
	}
	return (n - 5000) / 10000
}

// AllItems flattens the offer's items in block order.
func AllItems(offer *domain.Offer) []*domain.Item {
	var items []*domain.Item
	for _, b := range offer.Blocks {
		items = append(items, b.Items...)
	}
	return items
}
