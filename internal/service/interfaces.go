package service

import (
	"context"

	"github.com/packwise/go-pack-sync/internal/config"
	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/internal/store"
	"github.com/packwise/go-pack-sync/models"
)

// Auth issues and verifies access tokens.
type Auth interface {
	Register(ctx context.Context, user models.User) (models.Token, error)
	Login(ctx context.Context, user models.User) (models.Token, error)
	ParseToken(tokenString string) (models.Token, error)
}

// Patch is the server-side patch application engine.
type Patch interface {
	CreateList(ctx context.Context, userID int64, entityID, title string) (models.Snapshot, error)
	GetSnapshot(ctx context.Context, userID int64, entityID string) (models.Snapshot, error)
	ShareList(ctx context.Context, userID int64, entityID, editorLogin string) error
	Apply(ctx context.Context, userID int64, op models.Operation) (models.Snapshot, error)
}

// Services bundles the server services for handler wiring.
type Services struct {
	Auth
	Patch
}

func NewServices(repos *store.Repositories, cfg config.App, log *logger.Logger) *Services {
	return &Services{
		Auth:  NewAuthService(repos.UserRepository, cfg, log),
		Patch: NewPatchService(repos.ListRepository, repos.UserRepository, log),
	}
}
