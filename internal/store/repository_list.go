package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"

	"github.com/packwise/go-pack-sync/models"
)

// ListPostgresRepository implements [ListRepository] on top of PostgreSQL.
//
// ApplyOperation is the critical path: it runs the whole apply inside a
// single transaction with the list row locked, so concurrent submissions
// against the same list serialise on the database and each applied
// operation bumps the version exactly once.
type ListPostgresRepository struct {
	*DB
}

func NewListRepository(db *DB) *ListPostgresRepository {
	return &ListPostgresRepository{DB: db}
}

// CreateList inserts an empty packing list at version 0 owned by ownerID.
func (r *ListPostgresRepository) CreateList(ctx context.Context, ownerID int64, entityID string, title string) error {
	log := r.logger.GetChildLogger("store")

	query, args, err := buildInsertList(ownerID, entityID, title)
	if err != nil {
		log.Err(err).Str("func", "CreateList").Msg("error building insert list query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	_, err = r.ExecContext(ctx, query, args...)
	if err != nil {
		if postgresErrorCode(err) == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %w", ErrListAlreadyExists, err)
		}
		log.Err(err).Str("func", "CreateList").Str("entity_id", entityID).Msg("error inserting list")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Info().Str("func", "CreateList").Str("entity_id", entityID).Int64("owner_id", ownerID).Msg("list created")

	return nil
}

// GetSnapshot loads the canonical snapshot of one list.
func (r *ListPostgresRepository) GetSnapshot(ctx context.Context, entityID string) (models.Snapshot, error) {
	log := r.logger.GetChildLogger("store")

	query, args, err := buildSelectList(entityID)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	snapshot := models.Snapshot{EntityID: entityID}
	err = r.QueryRowContext(ctx, query, args...).Scan(&snapshot.Title, &snapshot.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Snapshot{}, ErrListNotFound
		}
		log.Err(err).Str("func", "GetSnapshot").Str("entity_id", entityID).Msg("error selecting list")
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	snapshot.Items, err = r.selectItems(ctx, r.DB.DB, entityID)
	if err != nil {
		return models.Snapshot{}, err
	}

	return snapshot, nil
}

// AccessLevel returns the role userID holds on the list. ErrListNotFound is
// returned when the list does not exist.
func (r *ListPostgresRepository) AccessLevel(ctx context.Context, entityID string, userID int64) (Role, error) {
	log := r.logger.GetChildLogger("store")

	query, args, err := buildSelectListOwner(entityID)
	if err != nil {
		return RoleNone, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var ownerID int64
	err = r.QueryRowContext(ctx, query, args...).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RoleNone, ErrListNotFound
		}
		log.Err(err).Str("func", "AccessLevel").Str("entity_id", entityID).Msg("error selecting list owner")
		return RoleNone, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if ownerID == userID {
		return RoleOwner, nil
	}

	query, args, err = buildSelectEditor(entityID, userID)
	if err != nil {
		return RoleNone, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var one int
	err = r.QueryRowContext(ctx, query, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RoleNone, nil
		}
		log.Err(err).Str("func", "AccessLevel").Str("entity_id", entityID).Msg("error selecting editor")
		return RoleNone, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return RoleEditor, nil
}

// AddEditor grants userID edit access to the list. Granting twice is a no-op.
func (r *ListPostgresRepository) AddEditor(ctx context.Context, entityID string, userID int64) error {
	log := r.logger.GetChildLogger("store")

	query, args, err := buildInsertEditor(entityID, userID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	_, err = r.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "AddEditor").Str("entity_id", entityID).Int64("user_id", userID).Msg("error inserting editor")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// ApplyOperation applies one operation atomically and returns the resulting
// canonical snapshot.
//
// Inside a single transaction it locks the list row, checks the applied-ops
// ledger for the op_id (a hit returns the recorded snapshot together with
// ErrOpAlreadyApplied), loads the current items, invokes apply, rewrites the
// items, bumps the version and records the result in the ledger. Errors from
// apply are returned unwrapped so callers can match patch sentinels.
func (r *ListPostgresRepository) ApplyOperation(ctx context.Context, op models.Operation, apply ApplyFunc) (models.Snapshot, error) {
	log := r.logger.GetChildLogger("store")

	tx, err := r.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "ApplyOperation").Msg("error beginning transaction")
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	current := models.Snapshot{EntityID: op.EntityID}

	query, args, err := buildSelectListForUpdate(op.EntityID)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	err = tx.QueryRowContext(ctx, query, args...).Scan(&current.Title, &current.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Snapshot{}, ErrListNotFound
		}
		log.Err(err).Str("func", "ApplyOperation").Str("entity_id", op.EntityID).Msg("error locking list row")
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	recorded, found, err := r.lookupAppliedOp(ctx, tx, op.OpID)
	if err != nil {
		return models.Snapshot{}, err
	}
	if found {
		log.Info().Str("func", "ApplyOperation").Str("op_id", op.OpID).Msg("duplicate operation, returning recorded snapshot")
		return recorded, ErrOpAlreadyApplied
	}

	current.Items, err = r.selectItems(ctx, tx, op.EntityID)
	if err != nil {
		return models.Snapshot{}, err
	}

	next, err := apply(current, op)
	if err != nil {
		return models.Snapshot{}, err
	}
	next.Version = current.Version + 1

	if err = r.rewriteItems(ctx, tx, op.EntityID, next.Items); err != nil {
		return models.Snapshot{}, err
	}

	query, args, err = buildUpdateListVersion(op.EntityID, next.Version)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "ApplyOperation").Msg("error bumping list version")
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err = r.recordAppliedOp(ctx, tx, op, next); err != nil {
		return models.Snapshot{}, err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "ApplyOperation").Msg("error committing transaction")
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	log.Info().
		Str("func", "ApplyOperation").
		Str("op_id", op.OpID).
		Str("entity_id", op.EntityID).
		Str("kind", string(op.Kind)).
		Int64("version", next.Version).
		Msg("operation applied")

	return next, nil
}

// queryer abstracts *sql.DB and *sql.Tx for shared read helpers.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *ListPostgresRepository) selectItems(ctx context.Context, q queryer, entityID string) ([]models.Item, error) {
	log := r.logger.GetChildLogger("store")

	query, args, err := buildSelectItems(entityID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "selectItems").Str("entity_id", entityID).Msg("error selecting items")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	items := make([]models.Item, 0)
	for rows.Next() {
		var item models.Item
		if err = rows.Scan(&item.ItemID, &item.Title, &item.Quantity, &item.Packed, &item.Position); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return items, nil
}

func (r *ListPostgresRepository) rewriteItems(ctx context.Context, tx *sql.Tx, entityID string, items []models.Item) error {
	log := r.logger.GetChildLogger("store")

	query, args, err := buildDeleteItems(entityID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "rewriteItems").Msg("error deleting items")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if len(items) == 0 {
		return nil
	}

	query, args, err = buildInsertItems(entityID, items)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "rewriteItems").Msg("error inserting items")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

func (r *ListPostgresRepository) lookupAppliedOp(ctx context.Context, tx *sql.Tx, opID string) (models.Snapshot, bool, error) {
	query, args, err := buildSelectAppliedOp(opID)
	if err != nil {
		return models.Snapshot{}, false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var raw []byte
	err = tx.QueryRowContext(ctx, query, args...).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Snapshot{}, false, nil
		}
		return models.Snapshot{}, false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	var snapshot models.Snapshot
	if err = json.Unmarshal(raw, &snapshot); err != nil {
		return models.Snapshot{}, false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return snapshot, true, nil
}

func (r *ListPostgresRepository) recordAppliedOp(ctx context.Context, tx *sql.Tx, op models.Operation, snapshot models.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal applied snapshot: %w", err)
	}

	query, args, err := buildInsertAppliedOp(op.OpID, op.EntityID, raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}
