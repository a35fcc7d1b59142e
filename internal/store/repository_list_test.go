package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packwise/go-pack-sync/models"
)

func quoted(query string, _ []any, err error) string {
	if err != nil {
		panic(err)
	}
	return regexp.QuoteMeta(query)
}

func TestListRepository_CreateList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListRepository(db)

	mock.ExpectExec(quoted(buildInsertList(7, "list-1", "Weekend trip"))).
		WithArgs("list-1", int64(7), "Weekend trip", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateList(context.Background(), 7, "list-1", "Weekend trip")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRepository_GetSnapshot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListRepository(db)

	mock.ExpectQuery(quoted(buildSelectList("list-1"))).
		WithArgs("list-1").
		WillReturnRows(sqlmock.NewRows([]string{"title", "version"}).AddRow("Weekend trip", int64(4)))
	mock.ExpectQuery(quoted(buildSelectItems("list-1"))).
		WithArgs("list-1").
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "title", "quantity", "packed", "position"}).
			AddRow("i-1", "Tent", 1, false, 0).
			AddRow("i-2", "Socks", 4, true, 1))

	snapshot, err := repo.GetSnapshot(context.Background(), "list-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), snapshot.Version)
	require.Len(t, snapshot.Items, 2)
	assert.Equal(t, "Tent", snapshot.Items[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRepository_GetSnapshot_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListRepository(db)

	mock.ExpectQuery(quoted(buildSelectList("ghost"))).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"title", "version"}))

	_, err := repo.GetSnapshot(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestListRepository_AccessLevel(t *testing.T) {
	tests := []struct {
		name     string
		ownerID  int64
		isEditor bool
		want     Role
	}{
		{name: "owner", ownerID: 7, want: RoleOwner},
		{name: "editor", ownerID: 9, isEditor: true, want: RoleEditor},
		{name: "stranger", ownerID: 9, want: RoleNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewListRepository(db)

			mock.ExpectQuery(quoted(buildSelectListOwner("list-1"))).
				WithArgs("list-1").
				WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(tc.ownerID))

			if tc.ownerID != 7 {
				editorRows := sqlmock.NewRows([]string{"1"})
				if tc.isEditor {
					editorRows.AddRow(1)
				}
				mock.ExpectQuery(quoted(buildSelectEditor("list-1", 7))).
					WithArgs("list-1", int64(7)).
					WillReturnRows(editorRows)
			}

			role, err := repo.AccessLevel(context.Background(), "list-1", 7)
			require.NoError(t, err)
			assert.Equal(t, tc.want, role)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListRepository_AccessLevel_ListMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListRepository(db)

	mock.ExpectQuery(quoted(buildSelectListOwner("ghost"))).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))

	_, err := repo.AccessLevel(context.Background(), "ghost", 7)
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestListRepository_ApplyOperation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListRepository(db)

	op := models.Operation{OpID: "op-1", EntityID: "list-1", Kind: models.OpAddItem}
	next := models.Snapshot{
		EntityID: "list-1",
		Title:    "Weekend trip",
		Items: []models.Item{
			{ItemID: "i-1", Title: "Tent", Quantity: 1, Position: 0},
			{ItemID: "i-2", Title: "Socks", Quantity: 4, Position: 1},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(quoted(buildSelectListForUpdate("list-1"))).
		WithArgs("list-1").
		WillReturnRows(sqlmock.NewRows([]string{"title", "version"}).AddRow("Weekend trip", int64(4)))
	mock.ExpectQuery(quoted(buildSelectAppliedOp("op-1"))).
		WithArgs("op-1").
		WillReturnRows(sqlmock.NewRows([]string{"snapshot"}))
	mock.ExpectQuery(quoted(buildSelectItems("list-1"))).
		WithArgs("list-1").
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "title", "quantity", "packed", "position"}).
			AddRow("i-1", "Tent", 1, false, 0))
	mock.ExpectExec(quoted(buildDeleteItems("list-1"))).
		WithArgs("list-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(quoted(buildInsertItems("list-1", next.Items))).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(quoted(buildUpdateListVersion("list-1", 5))).
		WithArgs(int64(5), "list-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(quoted(buildInsertAppliedOp("op-1", "list-1", nil))).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var seen models.Snapshot
	got, err := repo.ApplyOperation(context.Background(), op, func(s models.Snapshot, _ models.Operation) (models.Snapshot, error) {
		seen = s
		out := next
		out.Version = s.Version
		return out, nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4), seen.Version, "apply must see the locked canonical state")
	require.Len(t, seen.Items, 1)
	assert.Equal(t, int64(5), got.Version, "version bumps exactly once per applied op")
	assert.Len(t, got.Items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRepository_ApplyOperation_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListRepository(db)

	recorded := models.Snapshot{EntityID: "list-1", Title: "Weekend trip", Version: 5}
	raw, err := json.Marshal(recorded)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(quoted(buildSelectListForUpdate("list-1"))).
		WithArgs("list-1").
		WillReturnRows(sqlmock.NewRows([]string{"title", "version"}).AddRow("Weekend trip", int64(5)))
	mock.ExpectQuery(quoted(buildSelectAppliedOp("op-1"))).
		WithArgs("op-1").
		WillReturnRows(sqlmock.NewRows([]string{"snapshot"}).AddRow(raw))
	mock.ExpectRollback()

	op := models.Operation{OpID: "op-1", EntityID: "list-1", Kind: models.OpAddItem}
	got, err := repo.ApplyOperation(context.Background(), op, func(s models.Snapshot, _ models.Operation) (models.Snapshot, error) {
		t.Fatal("apply must not run for a duplicate op")
		return s, nil
	})
	assert.ErrorIs(t, err, ErrOpAlreadyApplied)
	assert.Equal(t, recorded, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRepository_ApplyOperation_ListMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(quoted(buildSelectListForUpdate("ghost"))).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"title", "version"}))
	mock.ExpectRollback()

	op := models.Operation{OpID: "op-1", EntityID: "ghost", Kind: models.OpAddItem}
	_, err := repo.ApplyOperation(context.Background(), op, func(s models.Snapshot, _ models.Operation) (models.Snapshot, error) {
		return s, nil
	})
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestListRepository_ApplyOperation_ApplyErrorRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(quoted(buildSelectListForUpdate("list-1"))).
		WithArgs("list-1").
		WillReturnRows(sqlmock.NewRows([]string{"title", "version"}).AddRow("Weekend trip", int64(4)))
	mock.ExpectQuery(quoted(buildSelectAppliedOp("op-1"))).
		WithArgs("op-1").
		WillReturnRows(sqlmock.NewRows([]string{"snapshot"}))
	mock.ExpectQuery(quoted(buildSelectItems("list-1"))).
		WithArgs("list-1").
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "title", "quantity", "packed", "position"}))
	mock.ExpectRollback()

	applyErr := errors.New("target item is gone")
	op := models.Operation{OpID: "op-1", EntityID: "list-1", Kind: models.OpUpdateItem}
	_, err := repo.ApplyOperation(context.Background(), op, func(s models.Snapshot, _ models.Operation) (models.Snapshot, error) {
		return models.Snapshot{}, applyErr
	})
	assert.ErrorIs(t, err, applyErr, "apply errors must pass through unwrapped")
	assert.NoError(t, mock.ExpectationsWereMet())
}
