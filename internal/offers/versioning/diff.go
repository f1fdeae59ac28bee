// Package versioning snapshots offers and computes structural diffs between
// two offer states. The diff is identity-based: blocks and items are matched
// by id, and a modified item entry records quantity and unit-price deltas
// only. Renames, moves and block-metadata changes are deliberately outside
// the structural diff contract.
package versioning

import (
	"fmt"
	"strings"

	"offerbuilder_backend/internal/offers/domain"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// BlockRef identifies a block in a diff result.
type BlockRef struct {
	BlockID uuid.UUID `json:"blockId"`
	Name    string    `json:"name"`
}

// ItemRef identifies an item in a diff result.
type ItemRef struct {
	ItemID uuid.UUID `json:"itemId"`
	Name   string    `json:"name"`
}

// ItemChange records the deltas of a modified item.
type ItemChange struct {
	ItemID              uuid.UUID `json:"itemId"`
	Name                string    `json:"name"`
	QuantityDelta       int64     `json:"quantityDelta"`
	UnitPriceDeltaCents int64     `json:"unitPriceDeltaCents"`
}

// BlockChange records the item-level changes within a modified block.
type BlockChange struct {
	BlockID       uuid.UUID    `json:"blockId"`
	Name          string       `json:"name"`
	AddedItems    []ItemRef    `json:"addedItems,omitempty"`
	RemovedItems  []ItemRef    `json:"removedItems,omitempty"`
	ModifiedItems []ItemChange `json:"modifiedItems,omitempty"`
}

// Diff is the structural difference between two offer snapshots.
type Diff struct {
	AddedBlocks    []BlockRef    `json:"addedBlocks,omitempty"`
	RemovedBlocks  []BlockRef    `json:"removedBlocks,omitempty"`
	ModifiedBlocks []BlockChange `json:"modifiedBlocks,omitempty"`
	ChangedFields  []string      `json:"changedFields,omitempty"`
}

// Empty reports whether nothing changed between the two snapshots.
func (d Diff) Empty() bool {
	return len(d.AddedBlocks) == 0 && len(d.RemovedBlocks) == 0 &&
		len(d.ModifiedBlocks) == 0 && len(d.ChangedFields) == 0
}

// Compute diffs two offer snapshots. A nil before is treated as an empty
// offer, so the first snapshot reports every block as added.
func Compute(before, after *domain.Offer) Diff {
	var d Diff

	beforeBlocks := make(map[uuid.UUID]*domain.Block)
	if before != nil {
		for _, b := range before.Blocks {
			beforeBlocks[b.ID] = b
		}
	}
	afterBlocks := make(map[uuid.UUID]*domain.Block)
	for _, b := range after.Blocks {
		afterBlocks[b.ID] = b
	}

	for _, b := range after.Blocks {
		prev, ok := beforeBlocks[b.ID]
		if !ok {
			d.AddedBlocks = append(d.AddedBlocks, BlockRef{BlockID: b.ID, Name: b.Name})
			continue
		}
		if change, modified := diffBlock(prev, b); modified {
			d.ModifiedBlocks = append(d.ModifiedBlocks, change)
		}
	}
	if before != nil {
		for _, b := range before.Blocks {
			if _, ok := afterBlocks[b.ID]; !ok {
				d.RemovedBlocks = append(d.RemovedBlocks, BlockRef{BlockID: b.ID, Name: b.Name})
			}
		}
	}

	d.ChangedFields = changedFields(before, after, d)
	return d
}

func diffBlock(before, after *domain.Block) (BlockChange, bool) {
	change := BlockChange{BlockID: after.ID, Name: after.Name}

	beforeItems := make(map[uuid.UUID]*domain.Item)
	for _, it := range before.Items {
		beforeItems[it.ID] = it
	}
	afterItems := make(map[uuid.UUID]*domain.Item)
	for _, it := range after.Items {
		afterItems[it.ID] = it
	}

	for _, it := range after.Items {
		prev, ok := beforeItems[it.ID]
		if !ok {
			change.AddedItems = append(change.AddedItems, ItemRef{ItemID: it.ID, Name: it.Name})
			continue
		}
		qtyDelta := it.Quantity - prev.Quantity
		priceDelta := it.UnitPriceCents - prev.UnitPriceCents
		if qtyDelta != 0 || priceDelta != 0 {
			change.ModifiedItems = append(change.ModifiedItems, ItemChange{
				ItemID:              it.ID,
				Name:                it.Name,
				QuantityDelta:       qtyDelta,
				UnitPriceDeltaCents: priceDelta,
			})
		}
	}
	for _, it := range before.Items {
		if _, ok := afterItems[it.ID]; !ok {
			change.RemovedItems = append(change.RemovedItems, ItemRef{ItemID: it.ID, Name: it.Name})
		}
	}

	modified := len(change.AddedItems) > 0 || len(change.RemovedItems) > 0 || len(change.ModifiedItems) > 0
	return change, modified
}

func changedFields(before, after *domain.Offer, d Diff) []string {
	var fields []string
	if before == nil {
		return []string{"blocks", "subtotalCents", "taxCents", "discountCents", "totalCents"}
	}
	if before.Title != after.Title {
		fields = append(fields, "title")
	}
	if before.Status != after.Status {
		fields = append(fields, "status")
	}
	if before.Currency != after.Currency {
		fields = append(fields, "currency")
	}
	if before.SubtotalCents != after.SubtotalCents {
		fields = append(fields, "subtotalCents")
	}
	if before.TaxCents != after.TaxCents {
		fields = append(fields, "taxCents")
	}
	if before.DiscountCents != after.DiscountCents {
		fields = append(fields, "discountCents")
	}
	if before.TotalCents != after.TotalCents {
		fields = append(fields, "totalCents")
	}
	if derefOr(before.Notes) != derefOr(after.Notes) {
		fields = append(fields, "notes")
	}
	if len(d.AddedBlocks) > 0 || len(d.RemovedBlocks) > 0 || len(d.ModifiedBlocks) > 0 {
		fields = append(fields, "blocks")
	}
	return fields
}

// ChangeLog renders a human-readable summary of the diff. Text fields are
// rendered with a character-level diff so a reviewer sees what was edited,
// not just that an edit happened.
func ChangeLog(before, after *domain.Offer, d Diff) string {
	var lines []string

	if before != nil && before.Title != after.Title {
		lines = append(lines, "title: "+textDelta(before.Title, after.Title))
	}
	if before != nil && derefOr(before.Notes) != derefOr(after.Notes) {
		lines = append(lines, "notes: "+textDelta(derefOr(before.Notes), derefOr(after.Notes)))
	}
	if before != nil && before.Status != after.Status {
		lines = append(lines, fmt.Sprintf("status: %s -> %s", before.Status, after.Status))
	}

	for _, b := range d.AddedBlocks {
		lines = append(lines, fmt.Sprintf("block %q added", b.Name))
	}
	for _, b := range d.RemovedBlocks {
		lines = append(lines, fmt.Sprintf("block %q removed", b.Name))
	}
	for _, b := range d.ModifiedBlocks {
		for _, it := range b.AddedItems {
			lines = append(lines, fmt.Sprintf("block %q: item %q added", b.Name, it.Name))
		}
		for _, it := range b.RemovedItems {
			lines = append(lines, fmt.Sprintf("block %q: item %q removed", b.Name, it.Name))
		}
		for _, it := range b.ModifiedItems {
			var parts []string
			if it.QuantityDelta != 0 {
				parts = append(parts, fmt.Sprintf("quantity %+d", it.QuantityDelta))
			}
			if it.UnitPriceDeltaCents != 0 {
				parts = append(parts, fmt.Sprintf("unit price %+d cents", it.UnitPriceDeltaCents))
			}
			lines = append(lines, fmt.Sprintf("block %q: item %q changed (%s)", b.Name, it.Name, strings.Join(parts, ", ")))
		}
	}

	if before != nil && before.TotalCents != after.TotalCents {
		lines = append(lines, fmt.Sprintf("total: %d -> %d cents", before.TotalCents, after.TotalCents))
	}
	if len(lines) == 0 {
		lines = append(lines, "no structural changes")
	}
	return strings.Join(lines, "\n")
}

func textDelta(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, part := range diffs {
		switch part.Type {
		case diffmatchpatch.DiffInsert:
			b.WriteString("[+" + part.Text + "]")
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + part.Text + "]")
		default:
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
