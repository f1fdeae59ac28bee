// Package suggest exposes the plugin's advisory heuristics: quantity
// proposals, candidate catalog items for a block, and default block
// templates. Every output is a suggestion the caller may ignore; nothing
// here writes to the aggregate.
package suggest

import (
	catalogrepo "offerbuilder_backend/internal/catalog/repository"
	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/plugin"
)

// Engine delegates to the plugin's suggestion strategy.
type Engine struct {
	strategy plugin.SuggestionStrategy
}

// New creates a suggestion engine for the given plugin.
func New(p plugin.Plugin) *Engine {
	var strategy plugin.SuggestionStrategy
	if p != nil {
		strategy = p.Suggestions()
	}
	return &Engine{strategy: strategy}
}

// SuggestQuantity proposes a quantity for adding the catalog item to the
// block. Without a strategy the fallback is 1.
func (e *Engine) SuggestQuantity(item catalogrepo.Item, block *domain.Block, offer *domain.Offer) int64 {
	if e.strategy == nil {
		return 1
	}
	qty := e.strategy.SuggestQuantity(item, block, offer)
	if qty < 1 {
		return 1
	}
	return qty
}

// SuggestItems filters the catalog down to candidates fitting the block.
// Without a strategy the available subset is returned unchanged.
func (e *Engine) SuggestItems(block *domain.Block, offer *domain.Offer, catalog []catalogrepo.Item) []catalogrepo.Item {
	if e.strategy == nil {
		out := make([]catalogrepo.Item, 0, len(catalog))
		for _, it := range catalog {
			if it.Available {
				out = append(out, it)
			}
		}
		return out
	}
	return e.strategy.SuggestItems(block, offer, catalog)
}

// SuggestBlockTemplate proposes a default template for a new block at the
// given position.
func (e *Engine) SuggestBlockTemplate(position int) plugin.BlockTemplate {
	if e.strategy == nil {
		return plugin.BlockTemplate{Name: "New block"}
	}
	return e.strategy.SuggestBlockTemplate(position)
}
