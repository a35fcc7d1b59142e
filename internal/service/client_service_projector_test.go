package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packwise/go-pack-sync/internal/config"
	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/internal/store"
	"github.com/packwise/go-pack-sync/models"
)

func newProjector(t *testing.T) (*ProjectorService, *store.ClientRepositories) {
	t.Helper()

	db, err := store.NewConnectSQLite(
		config.ClientStorage{Path: filepath.Join(t.TempDir(), "client.db")},
		logger.Nop(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := store.NewClientRepositories(db)
	return NewProjectorService(repos.Queue, repos.Snapshots, logger.Nop()), repos
}

func queueOp(t *testing.T, repos *store.ClientRepositories, opID, entityID string, kind models.OpKind, body any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	_, err = repos.Queue.Enqueue(context.Background(), models.Operation{
		OpID:       opID,
		EntityID:   entityID,
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestProjector_NeverSyncedEntity(t *testing.T) {
	projector, repos := newProjector(t)
	ctx := context.Background()

	queueOp(t, repos, "op-1", "list-1", models.OpAddItem, models.AddItemPayload{ItemID: "item-1", Title: "Tent", Quantity: 1})
	queueOp(t, repos, "op-2", "list-1", models.OpAddItem, models.AddItemPayload{ItemID: "item-2", Title: "Stove", Quantity: 1})

	projected, err := projector.Project(ctx, "list-1")
	require.NoError(t, err)

	// A purely local list renders from an empty base at version zero.
	assert.Equal(t, int64(0), projected.Version)
	require.Len(t, projected.Items, 2)
	assert.Equal(t, "item-1", projected.Items[0].ItemID)
	assert.Equal(t, 0, projected.Items[0].Position)
	assert.Equal(t, "item-2", projected.Items[1].ItemID)
	assert.Equal(t, 1, projected.Items[1].Position)
}

func TestProjector_FoldsOverCanonicalBase(t *testing.T) {
	projector, repos := newProjector(t)
	ctx := context.Background()

	base := models.Snapshot{EntityID: "list-1", Title: "Trip", Version: 5, Items: []models.Item{
		{ItemID: "item-1", Title: "Tent", Quantity: 1, Position: 0},
	}}
	require.NoError(t, repos.Snapshots.SaveSnapshot(ctx, base))

	packed := true
	queueOp(t, repos, "op-1", "list-1", models.OpUpdateItem, models.UpdateItemPayload{ItemID: "item-1", Packed: &packed})
	queueOp(t, repos, "op-2", "list-1", models.OpAddItem, models.AddItemPayload{ItemID: "item-2", Title: "Stove", Quantity: 2})

	projected, err := projector.Project(ctx, "list-1")
	require.NoError(t, err)

	assert.Equal(t, int64(5), projected.Version, "projection keeps the canonical base version")
	require.Len(t, projected.Items, 2)
	assert.True(t, projected.Items[0].Packed)
	assert.Equal(t, "item-2", projected.Items[1].ItemID)

	// The canonical cache itself is untouched by projecting.
	cached, err := repos.Snapshots.GetSnapshot(ctx, "list-1")
	require.NoError(t, err)
	require.Len(t, cached.Items, 1)
	assert.False(t, cached.Items[0].Packed)
}

func TestProjector_SkipsNonFoldingOperation(t *testing.T) {
	projector, repos := newProjector(t)
	ctx := context.Background()

	queueOp(t, repos, "op-1", "list-1", models.OpUpdateItem, models.UpdateItemPayload{ItemID: "item-ghost"})
	queueOp(t, repos, "op-2", "list-1", models.OpAddItem, models.AddItemPayload{ItemID: "item-1", Title: "Tent"})

	projected, err := projector.Project(ctx, "list-1")
	require.NoError(t, err)

	// The unfoldable update is skipped, the rest still projects.
	require.Len(t, projected.Items, 1)
	assert.Equal(t, "item-1", projected.Items[0].ItemID)
}

func TestProjector_NoPendingReturnsCachedState(t *testing.T) {
	projector, repos := newProjector(t)
	ctx := context.Background()

	base := models.Snapshot{EntityID: "list-1", Title: "Trip", Version: 3, Items: []models.Item{
		{ItemID: "item-1", Title: "Tent", Quantity: 1},
	}}
	require.NoError(t, repos.Snapshots.SaveSnapshot(ctx, base))

	projected, err := projector.Project(ctx, "list-1")
	require.NoError(t, err)
	assert.Equal(t, base.Version, projected.Version)
	assert.Equal(t, base.Items, projected.Items)
}
