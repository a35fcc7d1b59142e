// Package adapter provides the client's transport layer for talking to the
// authoritative store.
//
// The primary abstraction is [ServerAdapter], which decouples the sync
// driver from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]). Error values defined in errors.go
// are mapped from wire statuses by mapApplyResponse and mapHTTPError so that
// callers can use [errors.Is] and [errors.As] for transport-agnostic error
// handling (e.g. [ErrConflict] plus [*ConflictError] for a rejected
// operation, [ErrServerUnavailable] for transient failures).
package adapter

import (
	"context"

	"github.com/packwise/go-pack-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/mock_adapter.go -package=mock

// ServerAdapter defines transport-agnostic communication with the
// authoritative store. Implementations are responsible for serialisation,
// bearer token management, and mapping transport-level failures to the
// sentinel values defined in this package.
type ServerAdapter interface {
	// SetToken stores the bearer token attached to all subsequent
	// authenticated requests. It is called automatically after a
	// successful Register or Login.
	SetToken(token string)

	// Token returns the stored bearer token, or an empty string when no
	// token has been set yet.
	Token() string

	// Register creates an account and stores the returned bearer token.
	Register(ctx context.Context, user models.User) (models.Token, error)

	// Login authenticates and stores the returned bearer token.
	Login(ctx context.Context, user models.User) (models.Token, error)

	// CreateList creates a packing list on the server and returns its
	// initial canonical snapshot.
	CreateList(ctx context.Context, req models.CreateListRequest) (models.Snapshot, error)

	// GetSnapshot fetches the current canonical snapshot of one list.
	GetSnapshot(ctx context.Context, entityID string) (models.Snapshot, error)

	// ShareList grants another user edit access to an owned list.
	ShareList(ctx context.Context, entityID, editorLogin string) error

	// Apply submits a single operation. On success the new canonical
	// snapshot is returned. A rejected operation surfaces as one of the
	// package sentinels; a conflict additionally carries the current
	// canonical snapshot inside [*ConflictError].
	Apply(ctx context.Context, op models.Operation) (models.Snapshot, error)

	// Ping probes server reachability without touching any state.
	Ping(ctx context.Context) error
}
