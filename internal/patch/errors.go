package patch

import "errors"

// Sentinel errors returned by Apply. Callers match with [errors.Is]; the
// server additionally classifies ErrItemNotFound as a stale-precondition
// conflict because the missing item was usually removed by a concurrent
// editor.
var (
	// ErrItemNotFound is returned when update_item targets an item id that
	// is absent from the snapshot.
	ErrItemNotFound = errors.New("item not found in snapshot")

	// ErrUnsupportedOperation is returned for any operation kind outside
	// the closed set. Unknown kinds fail closed.
	ErrUnsupportedOperation = errors.New("unsupported operation kind")

	// ErrInvalidPayload is returned when the payload does not decode into
	// the shape its kind requires.
	ErrInvalidPayload = errors.New("invalid operation payload")
)
