package service

import "errors"

// Client-side sentinel errors.
var (
	// ErrSyncPaused is returned when draining is requested for an entity
	// with an open conflict. The queue stays frozen until the conflict is
	// resolved.
	ErrSyncPaused = errors.New("sync paused by unresolved conflict")

	// ErrNoConflict is returned by Resolve when no open conflict exists
	// for the entity.
	ErrNoConflict = errors.New("no open conflict for entity")

	// ErrUnknownResolution is returned for a resolution kind outside the
	// supported set.
	ErrUnknownResolution = errors.New("unknown resolution kind")

	// ErrSessionExpired is returned when the server rejects the stored
	// token; the user must log in again before syncing can continue.
	ErrSessionExpired = errors.New("session expired, login required")
)
