package store

import (
	"context"

	"github.com/packwise/go-pack-sync/models"
)

// ApplyFunc transforms a snapshot with a single operation. The repository
// invokes it inside the apply transaction while the list row is locked, so
// the input snapshot is guaranteed to be the current canonical state.
type ApplyFunc func(models.Snapshot, models.Operation) (models.Snapshot, error)

// Role is the access level a user holds on a packing list.
type Role int

const (
	// RoleNone means the user has no access to the list.
	RoleNone Role = iota
	// RoleEditor means the user may submit operations against the list.
	RoleEditor
	// RoleOwner means the user created the list and may manage editors.
	RoleOwner
)

// CanEdit reports whether the role permits submitting operations.
func (r Role) CanEdit() bool {
	return r == RoleEditor || r == RoleOwner
}

// UserRepository persists user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// ListRepository persists packing lists and applies operations against them.
type ListRepository interface {
	CreateList(ctx context.Context, ownerID int64, entityID string, title string) error
	GetSnapshot(ctx context.Context, entityID string) (models.Snapshot, error)
	AccessLevel(ctx context.Context, entityID string, userID int64) (Role, error)
	AddEditor(ctx context.Context, entityID string, userID int64) error
	ApplyOperation(ctx context.Context, op models.Operation, apply ApplyFunc) (models.Snapshot, error)
}

// Repositories groups all server-side repositories for dependency wiring.
type Repositories struct {
	UserRepository
	ListRepository
}

// NewPostgresRepositories constructs the repository container backed by one
// shared database handle.
func NewPostgresRepositories(db *DB) *Repositories {
	return &Repositories{
		UserRepository: NewUserRepository(db),
		ListRepository: NewListRepository(db),
	}
}
