package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const listItemColumns = `id, shopping_list_id, product_id, quantity, unit, paid_price, purchased_at, updated_at`

func scanListItem(row pgx.Row) (ListItem, error) {
	var i ListItem
	err := row.Scan(&i.ID, &i.ShoppingListID, &i.ProductID, &i.Quantity, &i.Unit, &i.PaidPrice, &i.PurchasedAt, &i.UpdatedAt)
	return i, err
}

const listItemsForEstimate = `
SELECT i.id, i.shopping_list_id, i.product_id, i.quantity, i.unit, i.paid_price, i.purchased_at, i.updated_at,
       p.id, p.name, p.unit, p.is_active
FROM shopping_list_items i
LEFT JOIN products p ON p.id = i.product_id
WHERE i.shopping_list_id = $1
ORDER BY i.created_at`

func (q *Queries) ListItemsForEstimate(ctx context.Context, listID pgtype.UUID) ([]ListItemRow, error) {
	rows, err := q.db.Query(ctx, listItemsForEstimate, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListItemRow
	for rows.Next() {
		var (
			i        ListItem
			pid      pgtype.UUID
			name     pgtype.Text
			unit     pgtype.Text
			isActive pgtype.Bool
		)
		if err := rows.Scan(&i.ID, &i.ShoppingListID, &i.ProductID, &i.Quantity, &i.Unit, &i.PaidPrice, &i.PurchasedAt, &i.UpdatedAt,
			&pid, &name, &unit, &isActive); err != nil {
			return nil, err
		}
		if !pid.Valid {
			items = append(items, NewListItemRow(i))
			continue
		}
		items = append(items, NewListItemRow(i, RelatedProduct{
			ID:       pid,
			Name:     name.String,
			Unit:     unit.String,
			IsActive: isActive.Valid && isActive.Bool,
		}))
	}
	return items, rows.Err()
}

type ListItemsByProductsParams struct {
	ListID     pgtype.UUID
	ProductIDs []pgtype.UUID
}

const listItemsByProducts = `
SELECT ` + listItemColumns + `
FROM shopping_list_items
WHERE shopping_list_id = $1 AND product_id = ANY($2::uuid[])
ORDER BY updated_at DESC`

func (q *Queries) ListItemsByProducts(ctx context.Context, arg ListItemsByProductsParams) ([]ListItem, error) {
	rows, err := q.db.Query(ctx, listItemsByProducts, arg.ListID, arg.ProductIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListItem
	for rows.Next() {
		i, err := scanListItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type ListItemKeyParams struct {
	ID     pgtype.UUID
	ListID pgtype.UUID
}

const getListItem = `
SELECT ` + listItemColumns + `
FROM shopping_list_items
WHERE id = $1 AND shopping_list_id = $2`

func (q *Queries) GetListItem(ctx context.Context, arg ListItemKeyParams) (ListItem, error) {
	return scanListItem(q.db.QueryRow(ctx, getListItem, arg.ID, arg.ListID))
}

type CreateListItemParams struct {
	ListID    pgtype.UUID
	ProductID pgtype.UUID
	Quantity  decimal.Decimal
	Unit      string
}

const createListItem = `
INSERT INTO shopping_list_items (shopping_list_id, product_id, quantity, unit)
VALUES ($1, $2, $3, $4)
RETURNING ` + listItemColumns

func (q *Queries) CreateListItem(ctx context.Context, arg CreateListItemParams) (ListItem, error) {
	return scanListItem(q.db.QueryRow(ctx, createListItem, arg.ListID, arg.ProductID, arg.Quantity, arg.Unit))
}

type UpdateListItemParams struct {
	ID       pgtype.UUID
	ListID   pgtype.UUID
	Quantity decimal.Decimal
	Unit     string
}

const updateListItem = `
UPDATE shopping_list_items
SET quantity = $3, unit = $4, updated_at = now()
WHERE id = $1 AND shopping_list_id = $2`

func (q *Queries) UpdateListItem(ctx context.Context, arg UpdateListItemParams) (int64, error) {
	tag, err := q.db.Exec(ctx, updateListItem, arg.ID, arg.ListID, arg.Quantity, arg.Unit)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type MarkListItemPurchasedParams struct {
	ID           pgtype.UUID
	ListID       pgtype.UUID
	PaidPrice    decimal.Decimal
	PaidCurrency string
	PurchasedAt  pgtype.Timestamptz
}

const markListItemPurchased = `
UPDATE shopping_list_items
SET paid_price = $3, paid_currency = $4, purchased_at = $5, updated_at = now()
WHERE id = $1 AND shopping_list_id = $2`

func (q *Queries) MarkListItemPurchased(ctx context.Context, arg MarkListItemPurchasedParams) (int64, error) {
	tag, err := q.db.Exec(ctx, markListItemPurchased, arg.ID, arg.ListID, arg.PaidPrice, arg.PaidCurrency, arg.PurchasedAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteListItem = `
DELETE FROM shopping_list_items
WHERE id = $1 AND shopping_list_id = $2`

func (q *Queries) DeleteListItem(ctx context.Context, arg ListItemKeyParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteListItem, arg.ID, arg.ListID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
