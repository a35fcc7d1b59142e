package adapter

import (
	"errors"
	"fmt"

	"github.com/packwise/go-pack-sync/models"
)

// Typed transport outcomes. The sync driver branches on these: transient
// failures ([ErrServerUnavailable]) are retried silently, conflicts pause
// the entity's queue, and the remaining sentinels are permanent rejections.
var (
	// ErrUnauthorized means the bearer token is missing, expired or
	// invalid.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrForbidden means the operation targeted a list the user may not
	// edit.
	ErrForbidden = errors.New("no access to this list")

	// ErrNotFound means the target list does not exist on the server.
	ErrNotFound = errors.New("list not found on server")

	// ErrInvalidOperation means the server rejected the operation shape.
	ErrInvalidOperation = errors.New("server rejected operation as invalid")

	// ErrConflict means the operation no longer applies to the canonical
	// state. Use [errors.As] with [*ConflictError] to read the snapshot.
	ErrConflict = errors.New("operation conflicts with server state")

	// ErrServerUnavailable groups every transient failure: network
	// errors, timeouts and 5xx responses. Retrying may succeed.
	ErrServerUnavailable = errors.New("server unavailable")
)

// ConflictError carries the current canonical snapshot returned by the
// server alongside a conflict rejection. It unwraps to [ErrConflict].
type ConflictError struct {
	Snapshot models.Snapshot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: canonical version %d", ErrConflict, e.Snapshot.Version)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// IsTransient reports whether err is worth a silent retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrServerUnavailable)
}
