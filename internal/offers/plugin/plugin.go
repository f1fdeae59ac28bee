// Package plugin defines the domain plugin contract: a bundle of strategy
// objects injected into the offer engines. The engine core is polymorphic
// over this contract and never hard-codes domain vocabulary; the catering
// plugin under plugin/catering is the one concrete implementation today.
package plugin

import (
	catalogrepo "offerbuilder_backend/internal/catalog/repository"
	"offerbuilder_backend/internal/offers/domain"
)

// ItemTypeSpec describes one permitted item type and its display metadata.
type ItemTypeSpec struct {
	Key   string
	Label string
	// QuantityEditable is false for types priced as a whole (e.g. delivery).
	QuantityEditable bool
}

// FieldKind is the input kind of a block-level field.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldDate   FieldKind = "date"
	FieldTime   FieldKind = "time"
	FieldNumber FieldKind = "number"
	FieldSelect FieldKind = "select"
)

// BlockField describes one entry of the plugin's block metadata schema.
type BlockField struct {
	Key      string
	Label    string
	Kind     FieldKind
	Required bool
	// Options constrains FieldSelect values.
	Options []string
	// Validate checks a metadata value; nil means any value passes.
	Validate func(value any) error
}

// PricingStrategy lets a plugin override item-level pricing, e.g. to add
// surcharges. Implementations must be pure.
type PricingStrategy interface {
	// ItemPrice returns the line total in cents for the item in context.
	ItemPrice(item *domain.Item, block *domain.Block, offer *domain.Offer) int64
}

// OfferRule checks one offer-level constraint. A non-empty return value is
// a human-readable violation; empty string means the rule passes.
type OfferRule struct {
	Field string
	Check func(offer *domain.Offer) string
}

// BlockRule checks one block-level constraint.
type BlockRule struct {
	Field string
	Check func(block *domain.Block, offer *domain.Offer) string
}

// ItemRule checks one item-level constraint.
type ItemRule struct {
	Field string
	Check func(item *domain.Item, block *domain.Block, offer *domain.Offer) string
}

// ValidationRules bundles the three independent rule sets.
type ValidationRules struct {
	Offer []OfferRule
	Block []BlockRule
	Item  []ItemRule
}

// BlockTemplate is a default shape for a newly created block.
type BlockTemplate struct {
	Name     string
	Metadata map[string]any
}

// SuggestionStrategy produces advisory proposals; callers may ignore every
// output and implementations never write to the aggregate.
type SuggestionStrategy interface {
	// SuggestQuantity proposes a quantity for adding a catalog item to the
	// block, given the offer context (e.g. per-head multipliers).
	SuggestQuantity(item catalogrepo.Item, block *domain.Block, offer *domain.Offer) int64

	// SuggestItems filters the catalog down to candidates that fit the
	// block (time of day, event type tags).
	SuggestItems(block *domain.Block, offer *domain.Offer, catalog []catalogrepo.Item) []catalogrepo.Item

	// SuggestBlockTemplate proposes a default template for a new block at
	// the given position.
	SuggestBlockTemplate(position int) BlockTemplate
}

// Formatter renders domain values for presentation.
type Formatter interface {
	FormatPrice(cents int64, currency string) string
	FormatQuantity(item *domain.Item) string
	BlockLabel(block *domain.Block) string
}

// Plugin bundles everything a domain contributes to the offer engine.
type Plugin interface {
	// Key identifies the plugin (e.g. "catering").
	Key() string

	ItemTypes() []ItemTypeSpec
	BlockFields() []BlockField

	Pricing() PricingStrategy
	Rules() ValidationRules
	Suggestions() SuggestionStrategy
	Formatter() Formatter

	// StatusTransitions contributes domain-specific intermediate offer
	// states. Keys and values extend the core lifecycle table; the core
	// states themselves cannot be redefined.
	StatusTransitions() map[domain.OfferStatus][]domain.OfferStatus
}

// ItemType returns the spec for key, or false when the plugin does not
// permit the type.
func ItemType(p Plugin, key string) (ItemTypeSpec, bool) {
	for _, spec := range p.ItemTypes() {
		if spec.Key == key {
			return spec, true
		}
	}
	return ItemTypeSpec{}, false
}
