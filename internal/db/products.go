package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const listCategories = `
SELECT id, slug, name
FROM categories
ORDER BY name`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const getCategoryByID = `
SELECT id, slug, name
FROM categories
WHERE id = $1`

func (q *Queries) GetCategoryByID(ctx context.Context, id pgtype.UUID) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, getCategoryByID, id).Scan(&c.ID, &c.Slug, &c.Name)
	return c, err
}

type UpsertCategoryParams struct {
	Slug string
	Name string
}

const upsertCategory = `
INSERT INTO categories (slug, name)
VALUES ($1, $2)
ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
RETURNING id, slug, name`

func (q *Queries) UpsertCategory(ctx context.Context, arg UpsertCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, upsertCategory, arg.Slug, arg.Name).Scan(&c.ID, &c.Slug, &c.Name)
	return c, err
}

const productColumns = `id, slug, name, owner_user_id, category_id, unit, is_active, created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.OwnerUserID, &p.CategoryID, &p.Unit, &p.IsActive, &p.CreatedAt)
	return p, err
}

type CreateProductParams struct {
	Slug        string
	Name        string
	OwnerUserID pgtype.UUID
	CategoryID  pgtype.UUID
	Unit        string
}

const createProduct = `
INSERT INTO products (slug, name, owner_user_id, category_id, unit, is_active)
VALUES ($1, $2, $3, $4, $5, true)
RETURNING ` + productColumns

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, createProduct, arg.Slug, arg.Name, arg.OwnerUserID, arg.CategoryID, arg.Unit))
}

const getActiveProduct = `
SELECT ` + productColumns + `
FROM products
WHERE id = $1 AND is_active`

func (q *Queries) GetActiveProduct(ctx context.Context, id pgtype.UUID) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getActiveProduct, id))
}

const getProductBySlug = `
SELECT ` + productColumns + `
FROM products
WHERE slug = $1`

func (q *Queries) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProductBySlug, slug))
}

const listUserProducts = `
SELECT p.id, p.name, p.unit, p.category_id, c.slug, c.name
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
WHERE p.owner_user_id = $1 AND p.is_active
ORDER BY p.created_at DESC`

func (q *Queries) ListUserProducts(ctx context.Context, ownerUserID pgtype.UUID) ([]UserProductRow, error) {
	rows, err := q.db.Query(ctx, listUserProducts, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UserProductRow
	for rows.Next() {
		var p UserProductRow
		if err := rows.Scan(&p.ID, &p.Name, &p.Unit, &p.CategoryID, &p.CategorySlug, &p.CategoryName); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

type DeactivateProductParams struct {
	ID          pgtype.UUID
	OwnerUserID pgtype.UUID
}

const deactivateProduct = `
UPDATE products
SET is_active = false
WHERE id = $1 AND owner_user_id = $2 AND is_active`

func (q *Queries) DeactivateProduct(ctx context.Context, arg DeactivateProductParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deactivateProduct, arg.ID, arg.OwnerUserID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
