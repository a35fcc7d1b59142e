package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/internal/utils"
	"github.com/packwise/go-pack-sync/models"
)

// ClientQueueService implements [Queue]. Every local edit becomes a
// self-contained operation with a fresh op id and lands in the durable queue
// before anything is shown as saved. The optimistic projection is pushed to
// the notifier synchronously after every enqueue, so the edit renders with
// zero round trips.
type ClientQueueService struct {
	queue     OperationQueue
	projector Projector
	notifier  Notifier
	uuidGen   *utils.UUIDGenerator
	logger    *logger.Logger
}

func NewClientQueueService(queue OperationQueue, projector Projector, notifier Notifier, log *logger.Logger) *ClientQueueService {
	return &ClientQueueService{
		queue:     queue,
		projector: projector,
		notifier:  notifier,
		uuidGen:   utils.NewUUIDGenerator(),
		logger:    log,
	}
}

// Submit validates the payload for its kind, stamps the operation with a new
// op id and enqueues it. Validation happens here so a malformed edit is
// rejected immediately instead of poisoning the queue.
func (s *ClientQueueService) Submit(ctx context.Context, entityID string, kind models.OpKind, payload []byte) (models.QueueEntry, error) {
	log := s.logger.GetChildLogger("service")

	if entityID == "" {
		return models.QueueEntry{}, fmt.Errorf("%w: entity id is required", ErrInvalidOperation)
	}
	if err := validatePayload(kind, payload); err != nil {
		return models.QueueEntry{}, err
	}

	op := models.Operation{
		OpID:       s.uuidGen.Generate(),
		EntityID:   entityID,
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}

	entry, err := s.queue.Enqueue(ctx, op)
	if err != nil {
		log.Err(err).Str("func", "Submit").Str("entity_id", entityID).Msg("error enqueueing operation")
		return models.QueueEntry{}, err
	}

	log.Debug().
		Str("func", "Submit").
		Str("op_id", op.OpID).
		Str("entity_id", entityID).
		Str("kind", string(kind)).
		Msg("operation recorded")

	// Push the optimistic state immediately; the queued edit must render
	// before any server round trip.
	projected, err := s.projector.Project(ctx, entityID)
	if err != nil {
		log.Warn().Str("func", "Submit").Str("entity_id", entityID).Err(err).Msg("error projecting after enqueue")
		return entry, nil
	}
	s.notifier.SnapshotUpdated(projected)

	return entry, nil
}

// Pending returns the entity's queued operations oldest first.
func (s *ClientQueueService) Pending(ctx context.Context, entityID string) ([]models.QueueEntry, error) {
	return s.queue.ListPending(ctx, entityID)
}

// validatePayload checks that payload decodes into the kind's body and that
// the required identifiers are present.
func validatePayload(kind models.OpKind, payload []byte) error {
	switch kind {
	case models.OpAddItem:
		var p models.AddItemPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
		}
		if p.ItemID == "" {
			return fmt.Errorf("%w: item id is required", ErrInvalidOperation)
		}
	case models.OpUpdateItem:
		var p models.UpdateItemPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
		}
		if p.ItemID == "" {
			return fmt.Errorf("%w: item id is required", ErrInvalidOperation)
		}
	case models.OpRemoveItem:
		var p models.RemoveItemPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
		}
		if p.ItemID == "" {
			return fmt.Errorf("%w: item id is required", ErrInvalidOperation)
		}
	case models.OpReorderItems:
		var p models.ReorderItemsPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, kind)
	}

	return nil
}
