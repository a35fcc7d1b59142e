package models

import "encoding/json"

// Apply endpoint statuses. The server maps every failure into exactly one of
// these before it reaches the wire; the client adapter maps them back into
// typed errors.
const (
	StatusApplied   = "applied"
	StatusForbidden = "forbidden"
	StatusNotFound  = "not_found"
	StatusConflict  = "conflict"
	StatusInvalid   = "invalid"
)

// ApplyRequest is the wire form of a single operation submission.
// RequestorIdentity is not part of the body: it is derived from the bearer
// token by the auth middleware.
type ApplyRequest struct {
	OpID    string          `json:"op_id"`
	Kind    OpKind          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// ApplyResponse is the apply endpoint's answer. Snapshot is present on
// success (the new canonical state) and on conflict (the current canonical
// state, so the client can build a ConflictRecord without a second round
// trip).
type ApplyResponse struct {
	Status   string    `json:"status"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// CreateListRequest bootstraps a new packing list owned by the requestor.
type CreateListRequest struct {
	EntityID string `json:"entity_id"`
	Title    string `json:"title"`
}
