// Package patch implements the deterministic transform that turns a packing
// list snapshot plus one operation into the next snapshot.
//
// Apply is pure: it never touches storage, the network, or the clock, and it
// is the exact same function on both sides of the wire — the client uses it
// to fold pending operations into an optimistic projection, the server uses
// it as the authoritative transform. Replaying the same operations in the
// same order therefore always produces the same list on both sides.
package patch

import (
	"encoding/json"
	"fmt"

	"github.com/packwise/go-pack-sync/models"
)

// Apply produces the snapshot that results from applying op to s. The input
// snapshot is never mutated. The version marker is not touched here: only
// the authoritative store assigns versions.
func Apply(s models.Snapshot, op models.Operation) (models.Snapshot, error) {
	switch op.Kind {
	case models.OpAddItem:
		return applyAdd(s, op.Payload)
	case models.OpUpdateItem:
		return applyUpdate(s, op.Payload)
	case models.OpRemoveItem:
		return applyRemove(s, op.Payload)
	case models.OpReorderItems:
		return applyReorder(s, op.Payload)
	default:
		return models.Snapshot{}, fmt.Errorf("%w: %q", ErrUnsupportedOperation, op.Kind)
	}
}

// applyAdd appends the new item with order index max(existing)+1. An empty
// list starts at index 0.
func applyAdd(s models.Snapshot, payload json.RawMessage) (models.Snapshot, error) {
	var p models.AddItemPayload
	if err := decode(payload, &p); err != nil {
		return models.Snapshot{}, err
	}
	if p.ItemID == "" {
		return models.Snapshot{}, fmt.Errorf("%w: add_item requires item_id", ErrInvalidPayload)
	}

	next := s.Clone()

	// Re-adding an id that is already present is treated as a replay of an
	// earlier add and leaves the snapshot unchanged.
	for _, item := range next.Items {
		if item.ItemID == p.ItemID {
			return next, nil
		}
	}

	position := 0
	for _, item := range next.Items {
		if item.Position >= position {
			position = item.Position + 1
		}
	}

	next.Items = append(next.Items, models.Item{
		ItemID:   p.ItemID,
		Title:    p.Title,
		Quantity: p.Quantity,
		Packed:   p.Packed,
		Position: position,
	})

	return next, nil
}

// applyUpdate merges the non-nil payload fields into the matching item.
func applyUpdate(s models.Snapshot, payload json.RawMessage) (models.Snapshot, error) {
	var p models.UpdateItemPayload
	if err := decode(payload, &p); err != nil {
		return models.Snapshot{}, err
	}
	if p.ItemID == "" {
		return models.Snapshot{}, fmt.Errorf("%w: update_item requires item_id", ErrInvalidPayload)
	}

	next := s.Clone()
	for i := range next.Items {
		if next.Items[i].ItemID != p.ItemID {
			continue
		}
		if p.Title != nil {
			next.Items[i].Title = *p.Title
		}
		if p.Quantity != nil {
			next.Items[i].Quantity = *p.Quantity
		}
		if p.Packed != nil {
			next.Items[i].Packed = *p.Packed
		}
		return next, nil
	}

	return models.Snapshot{}, fmt.Errorf("%w: %s", ErrItemNotFound, p.ItemID)
}

// applyRemove deletes the matching item and closes the position gap.
// Removing an id that is already absent is a no-op, not an error, so a
// duplicated replay of the same removal stays harmless.
func applyRemove(s models.Snapshot, payload json.RawMessage) (models.Snapshot, error) {
	var p models.RemoveItemPayload
	if err := decode(payload, &p); err != nil {
		return models.Snapshot{}, err
	}
	if p.ItemID == "" {
		return models.Snapshot{}, fmt.Errorf("%w: remove_item requires item_id", ErrInvalidPayload)
	}

	next := s.Clone()
	kept := next.Items[:0]
	for _, item := range next.Items {
		if item.ItemID != p.ItemID {
			kept = append(kept, item)
		}
	}
	next.Items = kept
	renumber(next.Items)

	return next, nil
}

// applyReorder reassigns contiguous indices 0..n-1 following the supplied
// ordering. Ids present in the snapshot but missing from the payload keep
// their relative order appended at the end — a partial ordering (e.g. one
// computed from a filtered view) must never drop data. Payload ids unknown
// to the snapshot are skipped.
func applyReorder(s models.Snapshot, payload json.RawMessage) (models.Snapshot, error) {
	var p models.ReorderItemsPayload
	if err := decode(payload, &p); err != nil {
		return models.Snapshot{}, err
	}

	next := s.Clone()

	index := make(map[string]models.Item, len(next.Items))
	for _, item := range next.Items {
		index[item.ItemID] = item
	}

	ordered := make([]models.Item, 0, len(next.Items))
	seen := make(map[string]bool, len(p.ItemIDs))
	for _, id := range p.ItemIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if item, ok := index[id]; ok {
			ordered = append(ordered, item)
		}
	}

	// Append ids the payload omitted, preserving their old relative order.
	for _, item := range next.Items {
		if !seen[item.ItemID] {
			ordered = append(ordered, item)
		}
	}

	next.Items = ordered
	renumber(next.Items)

	return next, nil
}

// renumber rewrites positions to the contiguous range 0..n-1 in slice order.
func renumber(items []models.Item) {
	for i := range items {
		items[i].Position = i
	}
}

func decode(payload json.RawMessage, dst any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}
