package models

import (
	"encoding/json"
	"time"
)

// OpKind identifies one of the closed set of mutation kinds. Unknown kinds
// are rejected by the patch engine, never silently ignored.
type OpKind string

const (
	OpAddItem      OpKind = "add_item"
	OpUpdateItem   OpKind = "update_item"
	OpRemoveItem   OpKind = "remove_item"
	OpReorderItems OpKind = "reorder_items"
)

// Valid reports whether k is one of the supported operation kinds.
func (k OpKind) Valid() bool {
	switch k {
	case OpAddItem, OpUpdateItem, OpRemoveItem, OpReorderItems:
		return true
	}
	return false
}

// Operation is a single self-contained mutation of one packing list.
//
// OpID is generated once at creation time and acts as the idempotency key:
// the server treats duplicate delivery of the same OpID as a no-op returning
// the previously computed result. Payload is the kind-specific body; it is
// always self-contained so that replaying the operation needs no external
// lookups.
type Operation struct {
	OpID       string          `json:"op_id"`
	EntityID   string          `json:"entity_id"`
	Kind       OpKind          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Attempt    int             `json:"attempt"`
}

// AddItemPayload carries the full set of fields for a new item. ItemID is
// assigned by the editing client so the add is renderable offline; the order
// index is assigned by the patch engine (max existing + 1).
type AddItemPayload struct {
	ItemID   string `json:"item_id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Packed   bool   `json:"packed"`
}

// UpdateItemPayload carries a partial update: nil fields are left untouched.
type UpdateItemPayload struct {
	ItemID   string  `json:"item_id"`
	Title    *string `json:"title,omitempty"`
	Quantity *int    `json:"quantity,omitempty"`
	Packed   *bool   `json:"packed,omitempty"`
}

// RemoveItemPayload identifies the item to delete. Removing an absent item
// is a no-op so duplicate replays stay harmless.
type RemoveItemPayload struct {
	ItemID string `json:"item_id"`
}

// ReorderItemsPayload is the explicit full ordering of item ids. Ids present
// in the snapshot but missing from the list keep their relative position
// appended at the end.
type ReorderItemsPayload struct {
	ItemIDs []string `json:"item_ids"`
}
