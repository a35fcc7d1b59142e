package store

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/packwise/go-pack-sync/models"
)

// psql is the shared statement builder configured for PostgreSQL placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func buildInsertUser(user models.User) (string, []any, error) {
	return psql.Insert("users").
		Columns("login", "password", "name").
		Values(user.Login, user.Password, user.Name).
		Suffix("RETURNING user_id, created_at").
		ToSql()
}

func buildSelectUserByLogin(login string) (string, []any, error) {
	return psql.Select("user_id", "login", "password", "name", "created_at").
		From("users").
		Where(sq.Eq{"login": login}).
		ToSql()
}

func buildInsertList(ownerID int64, entityID, title string) (string, []any, error) {
	return psql.Insert("lists").
		Columns("list_id", "owner_id", "title", "version").
		Values(entityID, ownerID, title, 0).
		ToSql()
}

func buildSelectListForUpdate(entityID string) (string, []any, error) {
	return psql.Select("title", "version").
		From("lists").
		Where(sq.Eq{"list_id": entityID}).
		Suffix("FOR UPDATE").
		ToSql()
}

func buildSelectList(entityID string) (string, []any, error) {
	return psql.Select("title", "version").
		From("lists").
		Where(sq.Eq{"list_id": entityID}).
		ToSql()
}

func buildSelectListOwner(entityID string) (string, []any, error) {
	return psql.Select("owner_id").
		From("lists").
		Where(sq.Eq{"list_id": entityID}).
		ToSql()
}

func buildSelectItems(entityID string) (string, []any, error) {
	return psql.Select("item_id", "title", "quantity", "packed", "position").
		From("list_items").
		Where(sq.Eq{"list_id": entityID}).
		OrderBy("position ASC").
		ToSql()
}

func buildDeleteItems(entityID string) (string, []any, error) {
	return psql.Delete("list_items").
		Where(sq.Eq{"list_id": entityID}).
		ToSql()
}

func buildInsertItems(entityID string, items []models.Item) (string, []any, error) {
	b := psql.Insert("list_items").
		Columns("list_id", "item_id", "title", "quantity", "packed", "position")
	for _, item := range items {
		b = b.Values(entityID, item.ItemID, item.Title, item.Quantity, item.Packed, item.Position)
	}
	return b.ToSql()
}

func buildUpdateListVersion(entityID string, version int64) (string, []any, error) {
	return psql.Update("lists").
		Set("version", version).
		Where(sq.Eq{"list_id": entityID}).
		ToSql()
}

func buildSelectAppliedOp(opID string) (string, []any, error) {
	return psql.Select("snapshot").
		From("applied_ops").
		Where(sq.Eq{"op_id": opID}).
		ToSql()
}

func buildInsertAppliedOp(opID, entityID string, snapshot []byte) (string, []any, error) {
	return psql.Insert("applied_ops").
		Columns("op_id", "list_id", "snapshot").
		Values(opID, entityID, snapshot).
		ToSql()
}

func buildSelectEditor(entityID string, userID int64) (string, []any, error) {
	return psql.Select("1").
		From("list_editors").
		Where(sq.Eq{"list_id": entityID, "user_id": userID}).
		ToSql()
}

func buildInsertEditor(entityID string, userID int64) (string, []any, error) {
	return psql.Insert("list_editors").
		Columns("list_id", "user_id").
		Values(entityID, userID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
}
