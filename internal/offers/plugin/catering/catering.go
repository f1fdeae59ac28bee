// Package catering is the concrete domain plugin for catering offers. It
// supplies the permitted item types, the block scheduling schema, pricing,
// validation rules, suggestion heuristics and formatting for meal-service
// based quotes.
package catering

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	catalogrepo "offerbuilder_backend/internal/catalog/repository"
	"offerbuilder_backend/internal/offers/domain"
	"offerbuilder_backend/internal/offers/plugin"
	"offerbuilder_backend/internal/offers/pricing"
)

// Block metadata keys used by the catering schema.
const (
	FieldDate      = "date"
	FieldStartTime = "startTime"
	FieldEndTime   = "endTime"
	FieldHeadcount = "headcount"
	FieldLocation  = "location"
)

// Item type keys permitted by the catering plugin.
const (
	TypeMenuItem  = "menu_item"
	TypeBeverage  = "beverage"
	TypeEquipment = "equipment"
	TypeService   = "service"
	TypeDelivery  = "delivery"
	TypeCustom    = "custom"
)

// OfferStatusTastingScheduled is a catering-specific intermediate state
// between draft and sent: the client tastes the menu before the offer goes
// out formally.
const OfferStatusTastingScheduled domain.OfferStatus = "tasting_scheduled"

var timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Plugin implements plugin.Plugin for the catering domain.
type Plugin struct{}

// New creates the catering plugin.
func New() *Plugin {
	return &Plugin{}
}

// Key identifies the plugin.
func (p *Plugin) Key() string { return "catering" }

// ItemTypes lists the permitted catering item types.
func (p *Plugin) ItemTypes() []plugin.ItemTypeSpec {
	return []plugin.ItemTypeSpec{
		{Key: TypeMenuItem, Label: "Menu item", QuantityEditable: true},
		{Key: TypeBeverage, Label: "Beverage", QuantityEditable: true},
		{Key: TypeEquipment, Label: "Equipment", QuantityEditable: true},
		{Key: TypeService, Label: "Service staff", QuantityEditable: true},
		{Key: TypeDelivery, Label: "Delivery", QuantityEditable: false},
		{Key: TypeCustom, Label: "Custom", QuantityEditable: true},
	}
}

// BlockFields describes the scheduling schema of a catering service block.
func (p *Plugin) BlockFields() []plugin.BlockField {
	return []plugin.BlockField{
		{Key: FieldDate, Label: "Date", Kind: plugin.FieldDate, Required: true, Validate: validateDate},
		{Key: FieldStartTime, Label: "Start time", Kind: plugin.FieldTime, Required: true, Validate: validateClock},
		{Key: FieldEndTime, Label: "End time", Kind: plugin.FieldTime, Required: true, Validate: validateClock},
		{Key: FieldHeadcount, Label: "Headcount", Kind: plugin.FieldNumber, Required: true, Validate: validateHeadcount},
		{Key: FieldLocation, Label: "Location", Kind: plugin.FieldText, Required: false},
	}
}

// Pricing returns the catering pricing strategy: plain quantity times unit
// price. The strategy seam exists for surcharges, but catering keeps the
// stored line total authoritative.
func (p *Plugin) Pricing() plugin.PricingStrategy {
	return pricingStrategy{}
}

type pricingStrategy struct{}

func (pricingStrategy) ItemPrice(item *domain.Item, _ *domain.Block, _ *domain.Offer) int64 {
	return pricing.DefaultItemPrice(item)
}

// StatusTransitions contributes the tasting round to the offer lifecycle.
func (p *Plugin) StatusTransitions() map[domain.OfferStatus][]domain.OfferStatus {
	return map[domain.OfferStatus][]domain.OfferStatus{
		domain.OfferStatusDraft:      {OfferStatusTastingScheduled},
		OfferStatusTastingScheduled:  {domain.OfferStatusDraft, domain.OfferStatusSent},
	}
}

// Rules returns the catering validation rule sets.
func (p *Plugin) Rules() plugin.ValidationRules {
	return plugin.ValidationRules{
		Offer: []plugin.OfferRule{
			{Field: "title", Check: func(o *domain.Offer) string {
				if strings.TrimSpace(o.Title) == "" {
					return "offer title is required"
				}
				return ""
			}},
			{Field: "currency", Check: func(o *domain.Offer) string {
				if len(o.Currency) != 3 {
					return "offer currency must be a 3-letter code"
				}
				return ""
			}},
			{Field: "blocks", Check: func(o *domain.Offer) string {
				if len(o.Blocks) == 0 {
					return "offer has no service blocks"
				}
				return ""
			}},
			{Field: "total", Check: func(o *domain.Offer) string {
				if o.TotalCents < 0 {
					return "offer total is negative"
				}
				return ""
			}},
		},
		Block: []plugin.BlockRule{
			{Field: "name", Check: func(b *domain.Block, _ *domain.Offer) string {
				if strings.TrimSpace(b.Name) == "" {
					return "block name is required"
				}
				return ""
			}},
			{Field: "items", Check: func(b *domain.Block, _ *domain.Offer) string {
				if len(b.Items) == 0 {
					return fmt.Sprintf("block %q has no items", b.Name)
				}
				return ""
			}},
			{Field: "timeWindow", Check: func(b *domain.Block, _ *domain.Offer) string {
				start, okStart := b.Metadata[FieldStartTime].(string)
				end, okEnd := b.Metadata[FieldEndTime].(string)
				if !okStart || !okEnd {
					return ""
				}
				if timeRe.MatchString(start) && timeRe.MatchString(end) && end <= start {
					return fmt.Sprintf("block %q ends before it starts", b.Name)
				}
				return ""
			}},
			{Field: "headcount", Check: func(b *domain.Block, _ *domain.Offer) string {
				if hc, ok := Headcount(b); ok && hc <= 0 {
					return fmt.Sprintf("block %q headcount must be positive", b.Name)
				}
				return ""
			}},
		},
		Item: []plugin.ItemRule{
			{Field: "name", Check: func(it *domain.Item, b *domain.Block, _ *domain.Offer) string {
				if strings.TrimSpace(it.Name) == "" {
					return fmt.Sprintf("item in block %q has no name", b.Name)
				}
				return ""
			}},
			{Field: "type", Check: func(it *domain.Item, b *domain.Block, _ *domain.Offer) string {
				if _, ok := plugin.ItemType(&Plugin{}, it.Type); !ok {
					return fmt.Sprintf("item %q has unknown type %q", it.Name, it.Type)
				}
				return ""
			}},
			{Field: "quantity", Check: func(it *domain.Item, _ *domain.Block, _ *domain.Offer) string {
				if it.Quantity < 0 {
					return fmt.Sprintf("item %q quantity is negative", it.Name)
				}
				return ""
			}},
			{Field: "taxRate", Check: func(it *domain.Item, _ *domain.Block, _ *domain.Offer) string {
				if it.TaxRateBps < 0 || it.TaxRateBps > 10000 {
					return fmt.Sprintf("item %q tax rate out of range", it.Name)
				}
				return ""
			}},
		},
	}
}

// Suggestions returns the catering suggestion heuristics.
func (p *Plugin) Suggestions() plugin.SuggestionStrategy {
	return suggestionStrategy{}
}

// perHeadMultipliers maps catalog categories to portions per guest.
// Quantities scale with the block headcount; categories not listed get one
// unit regardless of headcount.
var perHeadMultipliers = map[string]float64{
	"appetizer": 3,
	"main":      1,
	"side":      1.5,
	"dessert":   1,
	"beverage":  2,
}

type suggestionStrategy struct{}

func (suggestionStrategy) SuggestQuantity(item catalogrepo.Item, block *domain.Block, _ *domain.Offer) int64 {
	mult, ok := perHeadMultipliers[item.Category]
	if !ok {
		return 1
	}
	hc, found := Headcount(block)
	if !found || hc <= 0 {
		return 1
	}
	qty := int64(float64(hc)*mult + 0.5)
	if qty < 1 {
		return 1
	}
	return qty
}

func (suggestionStrategy) SuggestItems(block *domain.Block, offer *domain.Offer, catalog []catalogrepo.Item) []catalogrepo.Item {
	meal := mealForBlock(block)
	eventType, _ := offer.Metadata["eventType"].(string)

	var out []catalogrepo.Item
	for _, it := range catalog {
		if !it.Available {
			continue
		}
		if meal != "" && hasTagPrefix(it.Tags, "meal:") && !hasTag(it.Tags, "meal:"+meal) {
			continue
		}
		if eventType != "" && hasTagPrefix(it.Tags, "event:") && !hasTag(it.Tags, "event:"+eventType) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// blockTemplates cycle by position: first block breakfast, then lunch, then
// dinner, and around again.
var blockTemplates = []plugin.BlockTemplate{
	{Name: "Breakfast", Metadata: map[string]any{FieldStartTime: "08:00", FieldEndTime: "10:00"}},
	{Name: "Lunch", Metadata: map[string]any{FieldStartTime: "12:00", FieldEndTime: "14:00"}},
	{Name: "Dinner", Metadata: map[string]any{FieldStartTime: "18:00", FieldEndTime: "21:00"}},
}

func (suggestionStrategy) SuggestBlockTemplate(position int) plugin.BlockTemplate {
	if position < 0 {
		position = 0
	}
	tpl := blockTemplates[position%len(blockTemplates)]
	meta := make(map[string]any, len(tpl.Metadata))
	for k, v := range tpl.Metadata {
		meta[k] = v
	}
	return plugin.BlockTemplate{Name: tpl.Name, Metadata: meta}
}

// Formatter returns the catering display formatter.
func (p *Plugin) Formatter() plugin.Formatter {
	return formatter{}
}

type formatter struct{}

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
}

func (formatter) FormatPrice(cents int64, currency string) string {
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, symbol, cents/100, cents%100)
}

func (formatter) FormatQuantity(item *domain.Item) string {
	spec, ok := plugin.ItemType(&Plugin{}, item.Type)
	if ok && !spec.QuantityEditable {
		return "1 x"
	}
	return fmt.Sprintf("%d x", item.Quantity)
}

func (formatter) BlockLabel(block *domain.Block) string {
	start, _ := block.Metadata[FieldStartTime].(string)
	end, _ := block.Metadata[FieldEndTime].(string)
	if start != "" && end != "" {
		return fmt.Sprintf("%s (%s–%s)", block.Name, start, end)
	}
	return block.Name
}

// Headcount reads the headcount metadata field, tolerating the numeric
// types JSON decoding produces.
func Headcount(block *domain.Block) (int64, bool) {
	switch v := block.Metadata[FieldHeadcount].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// mealForBlock infers breakfast/lunch/dinner from the block's start time.
func mealForBlock(block *domain.Block) string {
	start, ok := block.Metadata[FieldStartTime].(string)
	if !ok || !timeRe.MatchString(start) {
		return ""
	}
	switch {
	case start < "11:00":
		return "breakfast"
	case start < "16:00":
		return "lunch"
	default:
		return "dinner"
	}
}

func validateDate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("must be a date string")
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("must be formatted YYYY-MM-DD")
	}
	return nil
}

func validateClock(value any) error {
	s, ok := value.(string)
	if !ok || !timeRe.MatchString(s) {
		return fmt.Errorf("must be formatted HH:MM")
	}
	return nil
}

func validateHeadcount(value any) error {
	switch v := value.(type) {
	case int:
		if v <= 0 {
			return fmt.Errorf("must be positive")
		}
	case int64:
		if v <= 0 {
			return fmt.Errorf("must be positive")
		}
	case float64:
		if v <= 0 {
			return fmt.Errorf("must be positive")
		}
	default:
		return fmt.Errorf("must be a number")
	}
	return nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func hasTagPrefix(tags []string, prefix string) bool {
	for _, t := range tags {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}

// Compile-time check that Plugin implements the contract.
var _ plugin.Plugin = (*Plugin)(nil)
