package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/internal/patch"
	"github.com/packwise/go-pack-sync/internal/store"
	"github.com/packwise/go-pack-sync/internal/utils"
	"github.com/packwise/go-pack-sync/models"
)

// PatchService implements [Patch]. The list repository runs the whole apply
// inside one locked transaction; this service supplies [patch.Apply] as the
// snapshot transform and maps repository and patch errors onto service
// sentinels.
type PatchService struct {
	lists   store.ListRepository
	users   store.UserRepository
	uuidGen utils.UUIDGenerator
	logger  *logger.Logger
}

func NewPatchService(lists store.ListRepository, users store.UserRepository, log *logger.Logger) *PatchService {
	return &PatchService{lists: lists, users: users, logger: log}
}

// CreateList creates an empty packing list owned by userID. When entityID is
// empty a new id is generated.
func (s *PatchService) CreateList(ctx context.Context, userID int64, entityID, title string) (models.Snapshot, error) {
	log := s.logger.GetChildLogger("service")

	if entityID == "" {
		entityID = s.uuidGen.Generate()
	}

	err := s.lists.CreateList(ctx, userID, entityID, title)
	if err != nil {
		if errors.Is(err, store.ErrListAlreadyExists) {
			return models.Snapshot{}, fmt.Errorf("%w: %w", ErrEntityAlreadyExists, err)
		}
		log.Err(err).Str("func", "CreateList").Msg("error creating list")
		return models.Snapshot{}, err
	}

	return models.Snapshot{EntityID: entityID, Title: title, Version: 0, Items: []models.Item{}}, nil
}

// GetSnapshot returns the canonical snapshot when userID may access the list.
func (s *PatchService) GetSnapshot(ctx context.Context, userID int64, entityID string) (models.Snapshot, error) {
	if err := s.requireRole(ctx, entityID, userID, false); err != nil {
		return models.Snapshot{}, err
	}

	snapshot, err := s.lists.GetSnapshot(ctx, entityID)
	if err != nil {
		if errors.Is(err, store.ErrListNotFound) {
			return models.Snapshot{}, fmt.Errorf("%w: %w", ErrEntityNotFound, err)
		}
		return models.Snapshot{}, err
	}

	return snapshot, nil
}

// ShareList grants edit access to the user with editorLogin. Only the list
// owner may share.
func (s *PatchService) ShareList(ctx context.Context, userID int64, entityID, editorLogin string) error {
	log := s.logger.GetChildLogger("service")

	if err := s.requireRole(ctx, entityID, userID, true); err != nil {
		return err
	}

	editor, err := s.users.FindUserByLogin(ctx, editorLogin)
	if err != nil {
		if errors.Is(err, store.ErrNoUserWasFound) {
			return fmt.Errorf("%w: %w", ErrEntityNotFound, err)
		}
		return err
	}

	if err = s.lists.AddEditor(ctx, entityID, editor.UserID); err != nil {
		log.Err(err).Str("func", "ShareList").Msg("error adding editor")
		return err
	}

	log.Info().
		Str("func", "ShareList").
		Str("entity_id", entityID).
		Int64("editor_id", editor.UserID).
		Msg("list shared")

	return nil
}

// Apply validates and applies a single operation against its list.
//
// Outcomes follow a strict precedence: permission and existence are checked
// first, then the operation shape, then the patch itself. A duplicate op_id
// short-circuits into a success carrying the previously recorded snapshot.
// A conflict (the operation no longer applies to the canonical state)
// returns [ErrConflict] together with the current canonical snapshot.
func (s *PatchService) Apply(ctx context.Context, userID int64, op models.Operation) (models.Snapshot, error) {
	log := s.logger.GetChildLogger("service")

	if op.OpID == "" {
		return models.Snapshot{}, fmt.Errorf("%w: op_id is required", ErrInvalidOperation)
	}
	if !op.Kind.Valid() {
		return models.Snapshot{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, op.Kind)
	}

	if err := s.requireRole(ctx, op.EntityID, userID, false); err != nil {
		return models.Snapshot{}, err
	}

	snapshot, err := s.lists.ApplyOperation(ctx, op, patch.Apply)
	switch {
	case err == nil:
		return snapshot, nil

	case errors.Is(err, store.ErrOpAlreadyApplied):
		// Idempotent replay: the recorded result is returned as success.
		return snapshot, nil

	case errors.Is(err, store.ErrListNotFound):
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrEntityNotFound, err)

	case errors.Is(err, patch.ErrItemNotFound):
		current, getErr := s.lists.GetSnapshot(ctx, op.EntityID)
		if getErr != nil {
			log.Err(getErr).Str("func", "Apply").Msg("error loading snapshot for conflict response")
			return models.Snapshot{}, getErr
		}
		log.Warn().
			Str("func", "Apply").
			Str("op_id", op.OpID).
			Str("entity_id", op.EntityID).
			Msg("operation conflicts with canonical state")
		return current, fmt.Errorf("%w: %w", ErrConflict, err)

	case errors.Is(err, patch.ErrInvalidPayload), errors.Is(err, patch.ErrUnsupportedOperation):
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidOperation, err)

	default:
		log.Err(err).Str("func", "Apply").Str("op_id", op.OpID).Msg("error applying operation")
		return models.Snapshot{}, err
	}
}

// requireRole checks the requestor's access, demanding ownership when
// ownerOnly is set.
func (s *PatchService) requireRole(ctx context.Context, entityID string, userID int64, ownerOnly bool) error {
	role, err := s.lists.AccessLevel(ctx, entityID, userID)
	if err != nil {
		if errors.Is(err, store.ErrListNotFound) {
			return fmt.Errorf("%w: %w", ErrEntityNotFound, err)
		}
		return err
	}

	if ownerOnly && role != store.RoleOwner {
		return ErrPermissionDenied
	}
	if !role.CanEdit() {
		return ErrPermissionDenied
	}

	return nil
}
