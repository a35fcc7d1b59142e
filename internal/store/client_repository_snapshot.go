package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/packwise/go-pack-sync/models"
)

// SnapshotSQLiteRepository caches the last canonical snapshot per entity.
// The projector folds pending queue entries on top of this cache, so the UI
// keeps rendering while the server is unreachable.
type SnapshotSQLiteRepository struct {
	*ClientDB
}

func NewSnapshotRepository(db *ClientDB) *SnapshotSQLiteRepository {
	return &SnapshotSQLiteRepository{ClientDB: db}
}

// SaveSnapshot replaces the cached canonical snapshot for its entity.
func (r *SnapshotSQLiteRepository) SaveSnapshot(ctx context.Context, snapshot models.Snapshot) error {
	log := r.logger.GetChildLogger("store")

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = r.ExecContext(ctx, upsertSnapshotQuery, snapshot.EntityID, payload, snapshot.Version)
	if err != nil {
		log.Err(err).Str("func", "SaveSnapshot").Str("entity_id", snapshot.EntityID).Msg("error saving snapshot")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Debug().
		Str("func", "SaveSnapshot").
		Str("entity_id", snapshot.EntityID).
		Int64("version", snapshot.Version).
		Msg("canonical snapshot cached")

	return nil
}

// GetSnapshot returns the cached canonical snapshot for entityID.
// ErrSnapshotNotFound is returned when the entity has never been cached.
func (r *SnapshotSQLiteRepository) GetSnapshot(ctx context.Context, entityID string) (models.Snapshot, error) {
	var payload []byte
	err := r.QueryRowContext(ctx, selectSnapshotQuery, entityID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Snapshot{}, ErrSnapshotNotFound
		}
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	var snapshot models.Snapshot
	if err = json.Unmarshal(payload, &snapshot); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return snapshot, nil
}

// ListEntities returns every entity id with a cached snapshot.
func (r *SnapshotSQLiteRepository) ListEntities(ctx context.Context) ([]string, error) {
	rows, err := r.QueryContext(ctx, selectSnapshotEntitiesQuery)
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
