package service

import (
	"context"
	"errors"

	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/internal/patch"
	"github.com/packwise/go-pack-sync/internal/store"
	"github.com/packwise/go-pack-sync/models"
)

// ProjectorService implements [Projector]. It never mutates the cached
// canonical snapshot: the projection is rebuilt from scratch on every call
// by folding the pending queue over a copy.
type ProjectorService struct {
	queue  OperationQueue
	cache  SnapshotCache
	logger *logger.Logger
}

func NewProjectorService(queue OperationQueue, cache SnapshotCache, log *logger.Logger) *ProjectorService {
	return &ProjectorService{queue: queue, cache: cache, logger: log}
}

// Project returns the optimistic state of entityID. An entity that has never
// been cached projects from an empty snapshot, so purely local lists render
// before their first sync. A pending operation that no longer folds cleanly
// is skipped rather than hiding the rest of the projection; the server is
// the one to rule on it during draining.
func (s *ProjectorService) Project(ctx context.Context, entityID string) (models.Snapshot, error) {
	log := s.logger.GetChildLogger("service")

	base, err := s.cache.GetSnapshot(ctx, entityID)
	if err != nil {
		if !errors.Is(err, store.ErrSnapshotNotFound) {
			return models.Snapshot{}, err
		}
		base = models.Snapshot{EntityID: entityID, Items: []models.Item{}}
	}

	pending, err := s.queue.ListPending(ctx, entityID)
	if err != nil {
		return models.Snapshot{}, err
	}

	projected := base.Clone()
	for _, entry := range pending {
		next, applyErr := patch.Apply(projected, entry.Operation)
		if applyErr != nil {
			log.Warn().
				Str("func", "Project").
				Str("op_id", entry.OpID).
				Str("entity_id", entityID).
				Err(applyErr).
				Msg("pending operation does not fold, skipping in projection")
			continue
		}
		projected = next
	}

	return projected, nil
}
