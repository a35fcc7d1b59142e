package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/packwise/go-pack-sync/models"
)

// QueueSQLiteRepository implements the durable per-entity FIFO of pending
// operations. Entries are ordered by a per-entity sequence number so the
// submission order survives restarts; only the head of an entity's queue may
// be dequeued, except for the explicit DiscardFrom used during conflict
// resolution.
type QueueSQLiteRepository struct {
	*ClientDB
}

func NewQueueRepository(db *ClientDB) *QueueSQLiteRepository {
	return &QueueSQLiteRepository{ClientDB: db}
}

// Enqueue appends op to the back of its entity's queue.
func (r *QueueSQLiteRepository) Enqueue(ctx context.Context, op models.Operation) (models.QueueEntry, error) {
	return r.insert(ctx, op, selectNextSeqQuery)
}

// EnqueueFront places op ahead of every queued operation of its entity. It
// is used for the merged operation produced by a manual conflict merge, which
// must be submitted before the remaining queued tail.
func (r *QueueSQLiteRepository) EnqueueFront(ctx context.Context, op models.Operation) (models.QueueEntry, error) {
	return r.insert(ctx, op, selectFrontSeqQuery)
}

func (r *QueueSQLiteRepository) insert(ctx context.Context, op models.Operation, seqQuery string) (models.QueueEntry, error) {
	log := r.logger.GetChildLogger("store")

	tx, err := r.BeginTx(ctx, nil)
	if err != nil {
		return models.QueueEntry{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	entry := models.QueueEntry{Operation: op, Status: models.StatusPending}
	if err = tx.QueryRowContext(ctx, seqQuery, op.EntityID).Scan(&entry.Seq); err != nil {
		return models.QueueEntry{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	_, err = tx.ExecContext(ctx, insertQueueEntryQuery,
		op.OpID, op.EntityID, string(op.Kind), []byte(op.Payload),
		op.EnqueuedAt, op.Attempt, string(entry.Status), entry.Seq)
	if err != nil {
		log.Err(err).Str("func", "insert").Str("op_id", op.OpID).Msg("error inserting queue entry")
		return models.QueueEntry{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err = tx.Commit(); err != nil {
		return models.QueueEntry{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	log.Debug().
		Str("func", "insert").
		Str("op_id", op.OpID).
		Str("entity_id", op.EntityID).
		Int64("seq", entry.Seq).
		Msg("operation enqueued")

	return entry, nil
}

// PeekOldest returns the head of the entity's queue without removing it.
// ErrQueueEntryNotFound is returned when the queue is empty.
func (r *QueueSQLiteRepository) PeekOldest(ctx context.Context, entityID string) (models.QueueEntry, error) {
	entry, err := r.scanEntry(r.QueryRowContext(ctx, selectOldestEntryQuery, entityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.QueueEntry{}, ErrQueueEntryNotFound
		}
		return models.QueueEntry{}, err
	}

	return entry, nil
}

// Dequeue removes the entry with opID. The entry must be the head of its
// entity's queue; anything else returns ErrDequeueNotHead.
func (r *QueueSQLiteRepository) Dequeue(ctx context.Context, opID string) error {
	log := r.logger.GetChildLogger("store")

	tx, err := r.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	entry, err := r.scanEntry(tx.QueryRowContext(ctx, selectQueueEntryQuery, opID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQueueEntryNotFound
		}
		return err
	}

	head, err := r.scanEntry(tx.QueryRowContext(ctx, selectOldestEntryQuery, entry.EntityID))
	if err != nil {
		return err
	}
	if head.OpID != opID {
		return ErrDequeueNotHead
	}

	if _, err = tx.ExecContext(ctx, deleteQueueEntryQuery, opID); err != nil {
		log.Err(err).Str("func", "Dequeue").Str("op_id", opID).Msg("error deleting queue entry")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	log.Debug().Str("func", "Dequeue").Str("op_id", opID).Msg("operation dequeued")

	return nil
}

// DiscardFrom removes the entry with fromOpID and everything queued behind
// it for the same entity. It returns the number of discarded entries. Used
// by the accept-remote conflict resolution.
func (r *QueueSQLiteRepository) DiscardFrom(ctx context.Context, entityID, fromOpID string) (int, error) {
	log := r.logger.GetChildLogger("store")

	tx, err := r.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	entry, err := r.scanEntry(tx.QueryRowContext(ctx, selectQueueEntryQuery, fromOpID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrQueueEntryNotFound
		}
		return 0, err
	}

	res, err := tx.ExecContext(ctx, deleteQueueFromSeqQuery, entityID, entry.Seq)
	if err != nil {
		log.Err(err).Str("func", "DiscardFrom").Str("entity_id", entityID).Msg("error discarding queue tail")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	discarded, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	log.Info().
		Str("func", "DiscardFrom").
		Str("entity_id", entityID).
		Str("op_id", fromOpID).
		Int64("discarded", discarded).
		Msg("queued operations discarded")

	return int(discarded), nil
}

// MarkInFlight flags the entry as handed to the transport.
func (r *QueueSQLiteRepository) MarkInFlight(ctx context.Context, opID string) error {
	return r.setStatus(ctx, opID, models.StatusInFlight)
}

// MarkPending returns the entry to the pending state after a failed attempt.
func (r *QueueSQLiteRepository) MarkPending(ctx context.Context, opID string) error {
	return r.setStatus(ctx, opID, models.StatusPending)
}

func (r *QueueSQLiteRepository) setStatus(ctx context.Context, opID string, status models.QueueStatus) error {
	res, err := r.ExecContext(ctx, updateQueueStatusQuery, string(status), opID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 0 {
		return ErrQueueEntryNotFound
	}

	return nil
}

// IncrementAttempt bumps the entry's attempt counter and returns the new
// value.
func (r *QueueSQLiteRepository) IncrementAttempt(ctx context.Context, opID string) (int, error) {
	res, err := r.ExecContext(ctx, incrementAttemptQuery, opID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 0 {
		return 0, ErrQueueEntryNotFound
	}

	var attempt int
	if err = r.QueryRowContext(ctx, selectAttemptQuery, opID).Scan(&attempt); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return attempt, nil
}

// ListPending returns the entity's queued operations oldest first.
func (r *QueueSQLiteRepository) ListPending(ctx context.Context, entityID string) ([]models.QueueEntry, error) {
	rows, err := r.QueryContext(ctx, selectPendingEntriesQuery, entityID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	entries := make([]models.QueueEntry, 0)
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return entries, nil
}

// ListEntities returns every entity id that has at least one queued
// operation.
func (r *QueueSQLiteRepository) ListEntities(ctx context.Context) ([]string, error) {
	rows, err := r.QueryContext(ctx, selectQueueEntitiesQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	entities := make([]string, 0)
	for rows.Next() {
		var entityID string
		if err = rows.Scan(&entityID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		entities = append(entities, entityID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return entities, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *QueueSQLiteRepository) scanEntry(row rowScanner) (models.QueueEntry, error) {
	var (
		entry   models.QueueEntry
		kind    string
		payload []byte
		status  string
	)
	err := row.Scan(&entry.OpID, &entry.EntityID, &kind, &payload,
		&entry.EnqueuedAt, &entry.Attempt, &status, &entry.Seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.QueueEntry{}, err
		}
		return models.QueueEntry{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	entry.Kind = models.OpKind(kind)
	entry.Payload = payload
	entry.Status = models.QueueStatus(status)

	return entry, nil
}
