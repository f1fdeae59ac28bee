// Package validation evaluates plugin rule sets over the offer aggregate.
// Rules produce human-readable violation strings; evaluation never mutates
// the model, never panics, and never stops at the first failure; callers
// must be able to display every violation at once.
package validation

import (
	"fmt"

	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/plugin"
)

// Engine runs the three independent rule sets of a plugin.
type Engine struct {
	rules plugin.ValidationRules
}

// New creates a validation engine for the given plugin.
func New(p plugin.Plugin) *Engine {
	var rules plugin.ValidationRules
	if p != nil {
		rules = p.Rules()
	}
	return &Engine{rules: rules}
}

// ValidateOffer evaluates every offer rule and the rules of every contained
// block and item, returning all violations in rule order.
func (e *Engine) ValidateOffer(offer *domain.Offer) []string {
	var violations []string
	for _, r := range e.rules.Offer {
		if msg := r.Check(offer); msg != "" {
			violations = append(violations, msg)
		}
	}
	for _, b := range offer.Blocks {
		violations = append(violations, e.ValidateBlock(b, offer)...)
	}
	return violations
}

// ValidateBlock evaluates every block rule against the block, then every
// item rule against its items.
func (e *Engine) ValidateBlock(block *domain.Block, offer *domain.Offer) []string {
	var violations []string
	for _, r := range e.rules.Block {
		if msg := r.Check(block, offer); msg != "" {
			violations = append(violations, msg)
		}
	}
	for _, it := range block.Items {
		violations = append(violations, e.ValidateItem(it, block, offer)...)
	}
	return violations
}

// ValidateItem evaluates every item rule.
func (e *Engine) ValidateItem(item *domain.Item, block *domain.Block, offer *domain.Offer) []string {
	var violations []string
	for _, r := range e.rules.Item {
		if msg := r.Check(item, block, offer); msg != "" {
			violations = append(violations, msg)
		}
	}
	return violations
}

// ValidateBlockMetadata checks a block's metadata against the plugin's
// field schema: required fields must be present and per-field validators
// must pass.
func ValidateBlockMetadata(p plugin.Plugin, block *domain.Block) []string {
	var violations []string
	for _, field := range p.BlockFields() {
		value, ok := block.Metadata[field.Key]
		if !ok || value == nil || value == "" {
			if field.Required {
				violations = append(violations, fmt.Sprintf("%s: %s is required", block.Name, field.Label))
			}
			continue
		}
		if field.Validate != nil {
			if err := field.Validate(value); err != nil {
				violations = append(violations, fmt.Sprintf("%s: %s %s", block.Name, field.Label, err.Error()))
			}
		}
	}
	return violations
}
