package service

import (
	"context"
	"fmt"
	"time"

	"github.com/packwise/go-pack-sync/internal/utils"
	"github.com/packwise/go-pack-sync/models"
)

// Conflict mediation lives on the sync driver because the driver owns the
// pause bookkeeping: exactly one open conflict may exist per entity, and the
// entity's queue is frozen while it does.

// Conflict returns the open conflict for entityID, if any.
func (s *SyncDriverService) Conflict(entityID string) (models.ConflictRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.conflicts[entityID]
	return record, ok
}

// Conflicts returns every open conflict.
func (s *SyncDriverService) Conflicts() []models.ConflictRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.ConflictRecord, 0, len(s.conflicts))
	for _, record := range s.conflicts {
		records = append(records, record)
	}
	return records
}

// Resolve applies the user's decision and unfreezes the entity's queue.
//
// accept_remote discards the offending operation together with everything
// queued behind it and adopts the remote snapshot as the canonical cache.
// accept_local re-issues the offending payload as a brand-new operation (a
// fresh op id, so the server never mistakes it for a replay of the rejected
// one). manual_merge does the same with a caller-synthesized payload. In the
// last two cases the remaining queued tail stays, ordered after the
// re-issued operation.
func (s *SyncDriverService) Resolve(ctx context.Context, entityID string, resolution models.Resolution) error {
	log := s.logger.GetChildLogger("service")

	record, ok := s.Conflict(entityID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoConflict, entityID)
	}

	switch resolution.Kind {
	case models.ResolutionAcceptRemote:
		discarded, err := s.queue.DiscardFrom(ctx, entityID, record.OffendingOpID)
		if err != nil {
			return err
		}
		log.Info().
			Str("func", "Resolve").
			Str("entity_id", entityID).
			Int("discarded", discarded).
			Msg("conflict resolved, remote state accepted")

	case models.ResolutionAcceptLocal:
		offending, err := s.queue.PeekOldest(ctx, entityID)
		if err != nil {
			return err
		}
		if offending.OpID != record.OffendingOpID {
			return fmt.Errorf("%w: queue head changed under open conflict", ErrNoConflict)
		}
		if err = s.queue.Dequeue(ctx, offending.OpID); err != nil {
			return err
		}
		if _, err = s.queue.EnqueueFront(ctx, reissue(offending.Operation, offending.Kind, offending.Payload)); err != nil {
			return err
		}
		log.Info().
			Str("func", "Resolve").
			Str("entity_id", entityID).
			Msg("conflict resolved, local change re-issued against remote state")

	case models.ResolutionManualMerge:
		if !resolution.MergedKind.Valid() {
			return fmt.Errorf("%w: merge kind %q", ErrUnknownResolution, resolution.MergedKind)
		}
		offending, err := s.queue.PeekOldest(ctx, entityID)
		if err != nil {
			return err
		}
		if offending.OpID != record.OffendingOpID {
			return fmt.Errorf("%w: queue head changed under open conflict", ErrNoConflict)
		}
		if err = s.queue.Dequeue(ctx, offending.OpID); err != nil {
			return err
		}
		if _, err = s.queue.EnqueueFront(ctx, reissue(offending.Operation, resolution.MergedKind, resolution.MergedPayload)); err != nil {
			return err
		}
		log.Info().
			Str("func", "Resolve").
			Str("entity_id", entityID).
			Msg("conflict resolved, merged operation enqueued")

	default:
		return fmt.Errorf("%w: %q", ErrUnknownResolution, resolution.Kind)
	}

	// In every resolution the remote snapshot becomes the canonical base the
	// remaining queue is projected against. The UI gets the projection, not
	// the bare remote state: a re-issued or merged operation and the queued
	// tail must render immediately.
	if err := s.cache.SaveSnapshot(ctx, record.RemoteData); err != nil {
		return err
	}
	s.pushProjection(ctx, entityID, record.RemoteData)

	s.mu.Lock()
	delete(s.conflicts, entityID)
	s.mu.Unlock()

	return nil
}

// reissue builds a fresh operation from an existing one. The new op id makes
// it a distinct submission for the server's idempotency ledger.
func reissue(op models.Operation, kind models.OpKind, payload []byte) models.Operation {
	return models.Operation{
		OpID:       utils.NewUUIDGenerator().Generate(),
		EntityID:   op.EntityID,
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
}
