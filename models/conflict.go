package models

import "encoding/json"

// ConflictRecord captures a detected local/remote divergence for one entity.
// It is created when the server rejects the oldest queued operation with a
// stale-precondition conflict and destroyed when the user resolves it.
// Exactly one record exists per entity at a time because draining is paused
// while it is open.
type ConflictRecord struct {
	EntityID      string   `json:"entity_id"`
	LocalData     Snapshot `json:"local_data"`
	RemoteData    Snapshot `json:"remote_data"`
	OffendingOpID string   `json:"offending_op_id"`
}

// ResolutionKind is the user's choice for settling a conflict.
type ResolutionKind string

const (
	// ResolutionAcceptRemote discards the offending operation and every
	// operation queued behind it, adopting the remote state as canonical.
	ResolutionAcceptRemote ResolutionKind = "accept_remote"
	// ResolutionAcceptLocal re-submits the offending payload as a new
	// operation computed against the fresh remote state.
	ResolutionAcceptLocal ResolutionKind = "accept_local"
	// ResolutionManualMerge enqueues a caller-synthesized payload ahead of
	// the remaining queue for the entity.
	ResolutionManualMerge ResolutionKind = "manual_merge"
)

// Resolution is the outcome of mediating a ConflictRecord. MergedKind and
// MergedPayload are only consulted for ResolutionManualMerge.
type Resolution struct {
	Kind          ResolutionKind  `json:"kind"`
	MergedKind    OpKind          `json:"merged_kind,omitempty"`
	MergedPayload json.RawMessage `json:"merged_payload,omitempty"`
}
