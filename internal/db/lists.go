package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const shoppingListColumns = `id, user_id, name, status, created_at, updated_at`

func scanShoppingList(row pgx.Row) (ShoppingList, error) {
	var l ShoppingList
	err := row.Scan(&l.ID, &l.UserID, &l.Name, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

type CreateShoppingListParams struct {
	UserID pgtype.UUID
	Name   string
	Status string
}

const createShoppingList = `
INSERT INTO shopping_lists (user_id, name, status)
VALUES ($1, $2, $3)
RETURNING ` + shoppingListColumns

func (q *Queries) CreateShoppingList(ctx context.Context, arg CreateShoppingListParams) (ShoppingList, error) {
	return scanShoppingList(q.db.QueryRow(ctx, createShoppingList, arg.UserID, arg.Name, arg.Status))
}

const listShoppingListsByUser = `
SELECT ` + shoppingListColumns + `
FROM shopping_lists
WHERE user_id = $1
ORDER BY updated_at DESC`

func (q *Queries) ListShoppingListsByUser(ctx context.Context, userID pgtype.UUID) ([]ShoppingList, error) {
	rows, err := q.db.Query(ctx, listShoppingListsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ShoppingList
	for rows.Next() {
		l, err := scanShoppingList(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

type ShoppingListOwnerParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

const getShoppingListForUser = `
SELECT ` + shoppingListColumns + `
FROM shopping_lists
WHERE id = $1 AND user_id = $2`

func (q *Queries) GetShoppingListForUser(ctx context.Context, arg ShoppingListOwnerParams) (ShoppingList, error) {
	return scanShoppingList(q.db.QueryRow(ctx, getShoppingListForUser, arg.ID, arg.UserID))
}

type UpdateShoppingListStatusParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
	Status string
}

const updateShoppingListStatus = `
UPDATE shopping_lists
SET status = $3, updated_at = now()
WHERE id = $1 AND user_id = $2`

func (q *Queries) UpdateShoppingListStatus(ctx context.Context, arg UpdateShoppingListStatusParams) (int64, error) {
	tag, err := q.db.Exec(ctx, updateShoppingListStatus, arg.ID, arg.UserID, arg.Status)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteShoppingList = `
DELETE FROM shopping_lists
WHERE id = $1 AND user_id = $2`

func (q *Queries) DeleteShoppingList(ctx context.Context, arg ShoppingListOwnerParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteShoppingList, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
