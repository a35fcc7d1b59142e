package service

import (
	"context"
	"time"

	"github.com/packwise/go-pack-sync/models"
)

// OperationQueue is the durable per-entity FIFO backing the client.
type OperationQueue interface {
	Enqueue(ctx context.Context, op models.Operation) (models.QueueEntry, error)
	EnqueueFront(ctx context.Context, op models.Operation) (models.QueueEntry, error)
	PeekOldest(ctx context.Context, entityID string) (models.QueueEntry, error)
	Dequeue(ctx context.Context, opID string) error
	DiscardFrom(ctx context.Context, entityID, fromOpID string) (int, error)
	MarkInFlight(ctx context.Context, opID string) error
	MarkPending(ctx context.Context, opID string) error
	IncrementAttempt(ctx context.Context, opID string) (int, error)
	ListPending(ctx context.Context, entityID string) ([]models.QueueEntry, error)
	ListEntities(ctx context.Context) ([]string, error)
}

// SnapshotCache stores the last canonical snapshot per entity.
type SnapshotCache interface {
	SaveSnapshot(ctx context.Context, snapshot models.Snapshot) error
	GetSnapshot(ctx context.Context, entityID string) (models.Snapshot, error)
	ListEntities(ctx context.Context) ([]string, error)
}

// Queue is the client-facing entry point for recording local edits.
type Queue interface {
	Submit(ctx context.Context, entityID string, kind models.OpKind, payload []byte) (models.QueueEntry, error)
	Pending(ctx context.Context, entityID string) ([]models.QueueEntry, error)
}

// Projector renders the optimistic local state of one entity: the cached
// canonical snapshot with every pending queued operation folded on top.
type Projector interface {
	Project(ctx context.Context, entityID string) (models.Snapshot, error)
}

// Syncer drains durable queues toward the server.
type Syncer interface {
	DrainAll(ctx context.Context) error
	DrainEntity(ctx context.Context, entityID string) error
}

// ConflictMediator exposes open conflicts and applies the user's resolution.
type ConflictMediator interface {
	Conflict(entityID string) (models.ConflictRecord, bool)
	Conflicts() []models.ConflictRecord
	Resolve(ctx context.Context, entityID string, resolution models.Resolution) error
}

// Notifier receives user-facing sync events. The client UI plugs in here;
// the default implementation logs them.
type Notifier interface {
	SnapshotUpdated(snapshot models.Snapshot)
	ConflictDetected(record models.ConflictRecord)
	OperationStuck(entityID, opID string, attempts int)
	OperationDropped(entityID, opID string, reason error)
}

// SyncJob is the background scheduler that periodically drains the durable
// queues while the server is reachable.
type SyncJob interface {
	Start(ctx context.Context, interval time.Duration)
	Stop()
}

// ConnectivitySource reports server reachability transitions.
type ConnectivitySource interface {
	Online() bool
	Changes() <-chan bool
}
