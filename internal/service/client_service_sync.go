package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sethvargo/go-retry"

	"github.com/packwise/go-pack-sync/internal/adapter"
	"github.com/packwise/go-pack-sync/internal/config"
	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/internal/store"
	"github.com/packwise/go-pack-sync/models"
)

// SyncDriverService implements [Syncer] and [ConflictMediator]. It drains
// each entity's durable queue strictly in order: the head operation is
// submitted, acknowledged and removed before the next one is touched.
// Transient failures are retried with capped exponential backoff; a conflict
// freezes the entity's queue until the user resolves it; other rejections
// drop the single offending operation and draining continues.
type SyncDriverService struct {
	transport adapter.ServerAdapter
	queue     OperationQueue
	cache     SnapshotCache
	projector Projector
	notifier  Notifier
	cfg       config.ClientWorkers
	logger    *logger.Logger

	mu        sync.RWMutex
	conflicts map[string]models.ConflictRecord
}

func NewSyncDriverService(
	transport adapter.ServerAdapter,
	queue OperationQueue,
	cache SnapshotCache,
	projector Projector,
	notifier Notifier,
	cfg config.ClientWorkers,
	log *logger.Logger,
) *SyncDriverService {
	return &SyncDriverService{
		transport: transport,
		queue:     queue,
		cache:     cache,
		projector: projector,
		notifier:  notifier,
		cfg:       cfg,
		logger:    log,
		conflicts: make(map[string]models.ConflictRecord),
	}
}

// DrainAll drains every entity that has queued operations. A paused or
// failing entity never blocks its siblings; the first transport-level error
// is returned after all entities had their turn.
func (s *SyncDriverService) DrainAll(ctx context.Context) error {
	log := s.logger.GetChildLogger("service")

	entities, err := s.queue.ListEntities(ctx)
	if err != nil {
		return err
	}

	var firstErr error
	for _, entityID := range entities {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := s.DrainEntity(ctx, entityID)
		if err != nil && !errors.Is(err, ErrSyncPaused) {
			log.Warn().Str("func", "DrainAll").Str("entity_id", entityID).Err(err).Msg("entity drain stopped")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// DrainEntity submits the entity's queued operations oldest first until the
// queue is empty, a conflict pauses it, or a transient failure exhausts its
// retry budget.
func (s *SyncDriverService) DrainEntity(ctx context.Context, entityID string) error {
	log := s.logger.GetChildLogger("service")

	if _, paused := s.Conflict(entityID); paused {
		return fmt.Errorf("%w: %s", ErrSyncPaused, entityID)
	}

	for {
		entry, err := s.queue.PeekOldest(ctx, entityID)
		if err != nil {
			if errors.Is(err, store.ErrQueueEntryNotFound) {
				return nil
			}
			return err
		}

		if err = s.queue.MarkInFlight(ctx, entry.OpID); err != nil {
			return err
		}

		snapshot, attempts, submitErr := s.submit(ctx, entry)
		switch {
		case submitErr == nil:
			if err = s.cache.SaveSnapshot(ctx, snapshot); err != nil {
				return err
			}
			if err = s.queue.Dequeue(ctx, entry.OpID); err != nil {
				return err
			}
			s.pushProjection(ctx, entityID, snapshot)
			log.Debug().
				Str("func", "DrainEntity").
				Str("op_id", entry.OpID).
				Str("entity_id", entityID).
				Int64("version", snapshot.Version).
				Msg("operation acknowledged")

		case isConflict(submitErr):
			return s.pauseOnConflict(ctx, entry, submitErr)

		case errors.Is(submitErr, adapter.ErrUnauthorized):
			if err = s.queue.MarkPending(ctx, entry.OpID); err != nil {
				return err
			}
			return fmt.Errorf("%w: %w", ErrSessionExpired, submitErr)

		case adapter.IsTransient(submitErr):
			if err = s.queue.MarkPending(ctx, entry.OpID); err != nil {
				return err
			}
			if attempts >= s.cfg.MaxAttempts {
				s.notifier.OperationStuck(entityID, entry.OpID, attempts)
			}
			return submitErr

		case errors.Is(submitErr, context.Canceled) || errors.Is(submitErr, context.DeadlineExceeded):
			// Shutdown or timeout mid-submit, not a server verdict. The
			// edit stays queued; the status reset runs on a detached
			// context because ctx is already done.
			if err = s.queue.MarkPending(context.WithoutCancel(ctx), entry.OpID); err != nil {
				log.Warn().Str("func", "DrainEntity").Str("op_id", entry.OpID).Err(err).Msg("error resetting status after cancelled submit")
			}
			return submitErr

		default:
			// Permanent rejection of a single operation. Drop it and keep
			// draining so one bad edit cannot wedge the queue forever.
			if err = s.queue.Dequeue(ctx, entry.OpID); err != nil {
				return err
			}
			s.notifier.OperationDropped(entityID, entry.OpID, submitErr)
			log.Warn().
				Str("func", "DrainEntity").
				Str("op_id", entry.OpID).
				Str("entity_id", entityID).
				Err(submitErr).
				Msg("operation permanently rejected, dropped from queue")
		}
	}
}

// submit sends one operation with silent retries on transient failures. The
// persisted attempt counter advances on every failed submission, so the
// retry budget spans drain passes: once MaxAttempts real submissions have
// failed, later passes probe once per pass instead of burning a full budget
// again. Returns the counter's latest value alongside the outcome.
func (s *SyncDriverService) submit(ctx context.Context, entry models.QueueEntry) (models.Snapshot, int, error) {
	attempts := entry.Attempt

	backoff := retry.NewExponential(s.cfg.BackoffBase)
	backoff = retry.WithCappedDuration(s.cfg.BackoffCap, backoff)
	budget := uint64(0)
	if remaining := s.cfg.MaxAttempts - attempts; remaining > 1 {
		budget = uint64(remaining - 1)
	}
	backoff = retry.WithMaxRetries(budget, backoff)

	var snapshot models.Snapshot
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, applyErr := s.transport.Apply(ctx, entry.Operation)
		if applyErr != nil {
			if adapter.IsTransient(applyErr) {
				if n, incErr := s.queue.IncrementAttempt(ctx, entry.OpID); incErr == nil {
					attempts = n
				}
				return retry.RetryableError(applyErr)
			}
			return applyErr
		}
		snapshot = result
		return nil
	})

	return snapshot, attempts, err
}

// pushProjection recomputes the optimistic state and hands it to the
// notifier. The canonical snapshot alone is not enough for the UI: any
// operations still queued behind the acknowledged one must stay visible.
func (s *SyncDriverService) pushProjection(ctx context.Context, entityID string, fallback models.Snapshot) {
	projected, err := s.projector.Project(ctx, entityID)
	if err != nil {
		s.logger.GetChildLogger("service").
			Warn().
			Str("func", "pushProjection").
			Str("entity_id", entityID).
			Err(err).
			Msg("error projecting after snapshot install, pushing canonical state")
		projected = fallback
	}

	s.notifier.SnapshotUpdated(projected)
}

// pauseOnConflict records the divergence and freezes the entity's queue.
func (s *SyncDriverService) pauseOnConflict(ctx context.Context, entry models.QueueEntry, submitErr error) error {
	log := s.logger.GetChildLogger("service")

	if err := s.queue.MarkPending(ctx, entry.OpID); err != nil {
		return err
	}

	var conflictErr *adapter.ConflictError
	record := models.ConflictRecord{
		EntityID:      entry.EntityID,
		OffendingOpID: entry.OpID,
	}
	if errors.As(submitErr, &conflictErr) {
		record.RemoteData = conflictErr.Snapshot
	}

	local, err := s.projector.Project(ctx, entry.EntityID)
	if err != nil {
		return err
	}
	record.LocalData = local

	s.mu.Lock()
	s.conflicts[entry.EntityID] = record
	s.mu.Unlock()

	s.notifier.ConflictDetected(record)
	log.Warn().
		Str("func", "pauseOnConflict").
		Str("op_id", entry.OpID).
		Str("entity_id", entry.EntityID).
		Int64("remote_version", record.RemoteData.Version).
		Msg("conflict detected, entity queue paused")

	return fmt.Errorf("%w: %s", ErrSyncPaused, entry.EntityID)
}

func isConflict(err error) bool {
	return errors.Is(err, adapter.ErrConflict)
}
