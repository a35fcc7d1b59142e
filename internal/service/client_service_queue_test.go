package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packwise/go-pack-sync/internal/config"
	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/internal/store"
	"github.com/packwise/go-pack-sync/models"
)

func newQueueService(t *testing.T) (*ClientQueueService, *store.ClientRepositories, *recordingNotifier) {
	t.Helper()

	db, err := store.NewConnectSQLite(
		config.ClientStorage{Path: filepath.Join(t.TempDir(), "client.db")},
		logger.Nop(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := store.NewClientRepositories(db)
	notifier := &recordingNotifier{}
	projector := NewProjectorService(repos.Queue, repos.Snapshots, logger.Nop())

	return NewClientQueueService(repos.Queue, projector, notifier, logger.Nop()), repos, notifier
}

func TestQueueService_Submit(t *testing.T) {
	svc, repos, _ := newQueueService(t)
	ctx := context.Background()

	payload, err := json.Marshal(models.AddItemPayload{ItemID: "item-1", Title: "Tent", Quantity: 1})
	require.NoError(t, err)

	entry, err := svc.Submit(ctx, "list-1", models.OpAddItem, payload)
	require.NoError(t, err)

	assert.NotEmpty(t, entry.OpID, "submit stamps a fresh op id")
	assert.Equal(t, "list-1", entry.EntityID)
	assert.Equal(t, models.StatusPending, entry.Status)
	assert.False(t, entry.EnqueuedAt.IsZero())

	// The edit is durable before Submit returns.
	persisted, err := repos.Queue.PeekOldest(ctx, "list-1")
	require.NoError(t, err)
	assert.Equal(t, entry.OpID, persisted.OpID)
}

func TestQueueService_SubmitPushesProjection(t *testing.T) {
	svc, _, notifier := newQueueService(t)
	ctx := context.Background()

	payload, err := json.Marshal(models.AddItemPayload{ItemID: "item-1", Title: "Tent", Quantity: 1})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "list-1", models.OpAddItem, payload)
	require.NoError(t, err)

	// The optimistic state goes out synchronously, before any sync pass.
	require.Len(t, notifier.updated, 1)
	projected := notifier.updated[0]
	assert.Equal(t, "list-1", projected.EntityID)
	require.Len(t, projected.Items, 1)
	assert.Equal(t, "item-1", projected.Items[0].ItemID)
}

func TestQueueService_SubmitStampsDistinctIDs(t *testing.T) {
	svc, _, _ := newQueueService(t)
	ctx := context.Background()

	payload, err := json.Marshal(models.AddItemPayload{ItemID: "item-1", Title: "Tent"})
	require.NoError(t, err)

	first, err := svc.Submit(ctx, "list-1", models.OpAddItem, payload)
	require.NoError(t, err)
	second, err := svc.Submit(ctx, "list-1", models.OpAddItem, payload)
	require.NoError(t, err)

	assert.NotEqual(t, first.OpID, second.OpID)
	assert.Greater(t, second.Seq, first.Seq)
}

func TestQueueService_SubmitValidation(t *testing.T) {
	svc, _, _ := newQueueService(t)
	ctx := context.Background()

	addPayload, _ := json.Marshal(models.AddItemPayload{ItemID: "item-1", Title: "Tent"})

	tests := []struct {
		name     string
		entityID string
		kind     models.OpKind
		payload  []byte
	}{
		{
			name:    "empty entity id",
			kind:    models.OpAddItem,
			payload: addPayload,
		},
		{
			name:     "unknown kind",
			entityID: "list-1",
			kind:     "repaint_item",
			payload:  addPayload,
		},
		{
			name:     "malformed payload",
			entityID: "list-1",
			kind:     models.OpAddItem,
			payload:  []byte(`{"item_id":`),
		},
		{
			name:     "add without item id",
			entityID: "list-1",
			kind:     models.OpAddItem,
			payload:  []byte(`{"title":"Tent"}`),
		},
		{
			name:     "update without item id",
			entityID: "list-1",
			kind:     models.OpUpdateItem,
			payload:  []byte(`{"title":"Tarp"}`),
		},
		{
			name:     "remove without item id",
			entityID: "list-1",
			kind:     models.OpRemoveItem,
			payload:  []byte(`{}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.entityID, tt.kind, tt.payload)
			assert.ErrorIs(t, err, ErrInvalidOperation)
		})
	}

	// Nothing invalid ever reaches the queue.
	pending, err := svc.Pending(ctx, "list-1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestQueueService_SubmitReorder(t *testing.T) {
	svc, _, _ := newQueueService(t)
	ctx := context.Background()

	payload, err := json.Marshal(models.ReorderItemsPayload{ItemIDs: []string{"b", "a"}})
	require.NoError(t, err)

	entry, err := svc.Submit(ctx, "list-1", models.OpReorderItems, payload)
	require.NoError(t, err)
	assert.Equal(t, models.OpReorderItems, entry.Kind)
}

func TestQueueService_PendingOrder(t *testing.T) {
	svc, _, _ := newQueueService(t)
	ctx := context.Background()

	for _, itemID := range []string{"item-1", "item-2", "item-3"} {
		payload, err := json.Marshal(models.AddItemPayload{ItemID: itemID, Title: "Gear"})
		require.NoError(t, err)
		_, err = svc.Submit(ctx, "list-1", models.OpAddItem, payload)
		require.NoError(t, err)
	}

	pending, err := svc.Pending(ctx, "list-1")
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i := 1; i < len(pending); i++ {
		assert.Greater(t, pending[i].Seq, pending[i-1].Seq)
	}
}
