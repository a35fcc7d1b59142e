package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/packwise/go-pack-sync/internal/adapter"
	"github.com/packwise/go-pack-sync/internal/config"
	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/internal/mock"
	"github.com/packwise/go-pack-sync/internal/store"
	"github.com/packwise/go-pack-sync/models"
)

// recordingNotifier captures sync events for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	updated  []models.Snapshot
	conflict []models.ConflictRecord
	stuck    []string
	dropped  []string
}

func (n *recordingNotifier) SnapshotUpdated(snapshot models.Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, snapshot)
}

func (n *recordingNotifier) ConflictDetected(record models.ConflictRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.conflict = append(n.conflict, record)
}

func (n *recordingNotifier) OperationStuck(_, opID string, _ int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stuck = append(n.stuck, opID)
}

func (n *recordingNotifier) OperationDropped(_, opID string, _ error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dropped = append(n.dropped, opID)
}

type syncHarness struct {
	driver    *SyncDriverService
	transport *mock.MockServerAdapter
	repos     *store.ClientRepositories
	notifier  *recordingNotifier
}

func newSyncHarness(t *testing.T, workers config.ClientWorkers) *syncHarness {
	t.Helper()

	db, err := store.NewConnectSQLite(
		config.ClientStorage{Path: filepath.Join(t.TempDir(), "client.db")},
		logger.Nop(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := store.NewClientRepositories(db)
	transport := mock.NewMockServerAdapter(gomock.NewController(t))
	notifier := &recordingNotifier{}
	projector := NewProjectorService(repos.Queue, repos.Snapshots, logger.Nop())
	driver := NewSyncDriverService(transport, repos.Queue, repos.Snapshots, projector, notifier, workers, logger.Nop())

	return &syncHarness{driver: driver, transport: transport, repos: repos, notifier: notifier}
}

func fastWorkers() config.ClientWorkers {
	return config.ClientWorkers{
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
		BackoffCap:  5 * time.Millisecond,
	}
}

func enqueueAdd(t *testing.T, h *syncHarness, opID, entityID, itemID string) models.QueueEntry {
	t.Helper()

	payload, err := json.Marshal(models.AddItemPayload{ItemID: itemID, Title: "Tent", Quantity: 1})
	require.NoError(t, err)

	entry, err := h.repos.Queue.Enqueue(context.Background(), models.Operation{
		OpID:       opID,
		EntityID:   entityID,
		Kind:       models.OpAddItem,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	return entry
}

func TestSyncDriver_DrainEntityInOrder(t *testing.T) {
	h := newSyncHarness(t, fastWorkers())
	ctx := context.Background()

	enqueueAdd(t, h, "op-1", "list-1", "item-1")
	enqueueAdd(t, h, "op-2", "list-1", "item-2")
	enqueueAdd(t, h, "op-3", "list-1", "item-3")

	var submitted []string
	h.transport.EXPECT().Apply(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, op models.Operation) (models.Snapshot, error) {
			submitted = append(submitted, op.OpID)
			return models.Snapshot{EntityID: "list-1", Version: int64(len(submitted))}, nil
		}).
		Times(3)

	err := h.driver.DrainEntity(ctx, "list-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"op-1", "op-2", "op-3"}, submitted)

	pending, err := h.repos.Queue.ListPending(ctx, "list-1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	cached, err := h.repos.Snapshots.GetSnapshot(ctx, "list-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), cached.Version)

	require.Len(t, h.notifier.updated, 3)
	assert.Equal(t, int64(3), h.notifier.updated[2].Version)
}

func TestSyncDriver_ConflictPausesEntityOnly(t *testing.T) {
	h := newSyncHarness(t, fastWorkers())
	ctx := context.Background()

	enqueueAdd(t, h, "op-a1", "list-a", "item-1")
	enqueueAdd(t, h, "op-a2", "list-a", "item-2")
	enqueueAdd(t, h, "op-b1", "list-b", "item-9")

	remote := models.Snapshot{EntityID: "list-a", Version: 9, Items: []models.Item{
		{ItemID: "item-remote", Title: "Stove", Quantity: 1},
	}}
	h.transport.EXPECT().Apply(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, op models.Operation) (models.Snapshot, error) {
			if op.EntityID == "list-a" {
				return models.Snapshot{}, &adapter.ConflictError{Snapshot: remote}
			}
			return models.Snapshot{EntityID: "list-b", Version: 1}, nil
		}).
		Times(2)

	err := h.driver.DrainAll(ctx)
	require.NoError(t, err, "a paused entity must not fail the overall drain")

	record, open := h.driver.Conflict("list-a")
	require.True(t, open)
	assert.Equal(t, "op-a1", record.OffendingOpID)
	assert.Equal(t, int64(9), record.RemoteData.Version)
	require.Len(t, record.LocalData.Items, 2, "local side carries the optimistic projection")

	pending, err := h.repos.Queue.ListPending(ctx, "list-a")
	require.NoError(t, err)
	assert.Len(t, pending, 2, "paused entity keeps its queue intact")

	pendingB, err := h.repos.Queue.ListPending(ctx, "list-b")
	require.NoError(t, err)
	assert.Empty(t, pendingB, "sibling entity drains despite the conflict")

	require.Len(t, h.notifier.conflict, 1)

	// While paused, draining the entity is refused without touching transport.
	err = h.driver.DrainEntity(ctx, "list-a")
	assert.ErrorIs(t, err, ErrSyncPaused)
}

func TestSyncDriver_PermanentRejectionDropsAndContinues(t *testing.T) {
	h := newSyncHarness(t, fastWorkers())
	ctx := context.Background()

	enqueueAdd(t, h, "op-bad", "list-1", "item-1")
	enqueueAdd(t, h, "op-good", "list-1", "item-2")

	h.transport.EXPECT().Apply(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, op models.Operation) (models.Snapshot, error) {
			if op.OpID == "op-bad" {
				return models.Snapshot{}, fmt.Errorf("%w: unknown kind", adapter.ErrInvalidOperation)
			}
			return models.Snapshot{EntityID: "list-1", Version: 1}, nil
		}).
		Times(2)

	err := h.driver.DrainEntity(ctx, "list-1")
	require.NoError(t, err)

	pending, err := h.repos.Queue.ListPending(ctx, "list-1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.Equal(t, []string{"op-bad"}, h.notifier.dropped)
	require.Len(t, h.notifier.updated, 1)
}

func TestSyncDriver_TransientFailureKeepsOperation(t *testing.T) {
	h := newSyncHarness(t, config.ClientWorkers{
		MaxAttempts: 2,
		BackoffBase: time.Millisecond,
		BackoffCap:  2 * time.Millisecond,
	})
	ctx := context.Background()

	enqueueAdd(t, h, "op-1", "list-1", "item-1")

	unavailable := fmt.Errorf("%w: connection refused", adapter.ErrServerUnavailable)
	// First pass burns the whole budget (initial attempt plus one retry);
	// the exhausted pass probes exactly once.
	h.transport.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(models.Snapshot{}, unavailable).Times(3)

	err := h.driver.DrainEntity(ctx, "list-1")
	require.ErrorIs(t, err, adapter.ErrServerUnavailable)

	pending, err := h.repos.Queue.ListPending(ctx, "list-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.StatusPending, pending[0].Status)
	assert.Equal(t, 2, pending[0].Attempt, "every real submission advances the counter")
	assert.Equal(t, []string{"op-1"}, h.notifier.stuck, "budget spent, the user hears the edit is stuck")

	// The edit stays queued; a later pass retries once, not a fresh budget.
	err = h.driver.DrainEntity(ctx, "list-1")
	require.ErrorIs(t, err, adapter.ErrServerUnavailable)

	pending, err = h.repos.Queue.ListPending(ctx, "list-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 3, pending[0].Attempt)
}

func TestSyncDriver_PushKeepsPendingEditsVisible(t *testing.T) {
	h := newSyncHarness(t, config.ClientWorkers{
		MaxAttempts: 1,
		BackoffBase: time.Millisecond,
		BackoffCap:  time.Millisecond,
	})
	ctx := context.Background()

	enqueueAdd(t, h, "op-1", "list-1", "item-1")
	enqueueAdd(t, h, "op-2", "list-1", "item-2")

	unavailable := fmt.Errorf("%w: connection refused", adapter.ErrServerUnavailable)
	h.transport.EXPECT().Apply(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, op models.Operation) (models.Snapshot, error) {
			if op.OpID == "op-1" {
				return models.Snapshot{EntityID: "list-1", Version: 1, Items: []models.Item{
					{ItemID: "item-1", Title: "Tent", Quantity: 1},
				}}, nil
			}
			return models.Snapshot{}, unavailable
		}).
		Times(2)

	err := h.driver.DrainEntity(ctx, "list-1")
	require.ErrorIs(t, err, adapter.ErrServerUnavailable)

	// The push after op-1's ack folds the still-queued op-2 on top of the
	// canonical state, so the user's second edit never vanishes from view.
	require.NotEmpty(t, h.notifier.updated)
	last := h.notifier.updated[len(h.notifier.updated)-1]
	require.Len(t, last.Items, 2)
	assert.Equal(t, "item-1", last.Items[0].ItemID)
	assert.Equal(t, "item-2", last.Items[1].ItemID)
	assert.Equal(t, int64(1), last.Version, "projection keeps the canonical base version")
}

func TestSyncDriver_UnauthorizedExpiresSession(t *testing.T) {
	h := newSyncHarness(t, fastWorkers())
	ctx := context.Background()

	enqueueAdd(t, h, "op-1", "list-1", "item-1")

	h.transport.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(models.Snapshot{}, adapter.ErrUnauthorized)

	err := h.driver.DrainEntity(ctx, "list-1")
	require.ErrorIs(t, err, ErrSessionExpired)

	pending, err := h.repos.Queue.ListPending(ctx, "list-1")
	require.NoError(t, err)
	require.Len(t, pending, 1, "the operation survives for the next authenticated session")
	assert.Equal(t, models.StatusPending, pending[0].Status)
}

func TestSyncDriver_DrainAllReportsFirstError(t *testing.T) {
	h := newSyncHarness(t, config.ClientWorkers{
		MaxAttempts: 1,
		BackoffBase: time.Millisecond,
		BackoffCap:  time.Millisecond,
	})
	ctx := context.Background()

	enqueueAdd(t, h, "op-a1", "list-a", "item-1")
	enqueueAdd(t, h, "op-b1", "list-b", "item-2")

	unavailable := fmt.Errorf("%w: connection refused", adapter.ErrServerUnavailable)
	h.transport.EXPECT().Apply(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, op models.Operation) (models.Snapshot, error) {
			if op.EntityID == "list-a" {
				return models.Snapshot{}, unavailable
			}
			return models.Snapshot{EntityID: "list-b", Version: 1}, nil
		}).
		Times(2)

	err := h.driver.DrainAll(ctx)
	require.ErrorIs(t, err, adapter.ErrServerUnavailable)

	pendingB, err := h.repos.Queue.ListPending(ctx, "list-b")
	require.NoError(t, err)
	assert.Empty(t, pendingB, "the failing entity does not block the others")
}

func TestSyncDriver_EmptyQueueIsNoop(t *testing.T) {
	h := newSyncHarness(t, fastWorkers())

	err := h.driver.DrainEntity(context.Background(), "list-unknown")
	require.NoError(t, err)

	err = h.driver.DrainAll(context.Background())
	require.NoError(t, err)
}

func TestSyncDriver_CancelledSubmitKeepsOperation(t *testing.T) {
	h := newSyncHarness(t, fastWorkers())

	enqueueAdd(t, h, "op-1", "list-1", "item-1")

	ctx, cancel := context.WithCancel(context.Background())
	unavailable := fmt.Errorf("%w: connection reset", adapter.ErrServerUnavailable)
	h.transport.EXPECT().Apply(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.Operation) (models.Snapshot, error) {
			cancel()
			return models.Snapshot{}, unavailable
		})

	err := h.driver.DrainEntity(ctx, "list-1")
	require.ErrorIs(t, err, context.Canceled)

	// Shutdown mid-submit must never discard the durable edit.
	pending, err := h.repos.Queue.ListPending(context.Background(), "list-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.StatusPending, pending[0].Status)
	assert.Empty(t, h.notifier.dropped)
}

func TestSyncDriver_CancelledContextStopsDrain(t *testing.T) {
	h := newSyncHarness(t, fastWorkers())

	enqueueAdd(t, h, "op-1", "list-1", "item-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.driver.DrainAll(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
