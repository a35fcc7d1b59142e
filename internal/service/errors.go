package service

import "errors"

// Service-level sentinel errors. The HTTP layer maps each of these onto one
// wire status; everything unmatched becomes an internal error.
var (
	// ErrLoginAlreadyTaken is returned by Register when the login exists.
	ErrLoginAlreadyTaken = errors.New("login already taken")

	// ErrInvalidCredentials is returned by Login when the login is unknown
	// or the password does not match.
	ErrInvalidCredentials = errors.New("invalid login or password")

	// ErrPermissionDenied is returned when the requestor holds no
	// sufficient role on the target list.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrEntityNotFound is returned when the target list or user does not
	// exist.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrEntityAlreadyExists is returned when creating a list with a taken
	// entity id.
	ErrEntityAlreadyExists = errors.New("entity already exists")

	// ErrConflict is returned when an operation is structurally valid but
	// cannot apply to the current canonical state. The snapshot returned
	// alongside is the current canonical state.
	ErrConflict = errors.New("operation conflicts with canonical state")

	// ErrInvalidOperation is returned when the operation kind is unknown
	// or the payload is malformed.
	ErrInvalidOperation = errors.New("invalid operation")
)
