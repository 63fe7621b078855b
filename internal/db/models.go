package db

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type Profile struct {
	ID          pgtype.UUID
	PreferredUF pgtype.Text
	UpdatedAt   pgtype.Timestamptz
}

type Category struct {
	ID   pgtype.UUID
	Slug string
	Name string
}

type ShoppingList struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	Name      string
	Status    string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type Product struct {
	ID          pgtype.UUID
	Slug        string
	Name        string
	OwnerUserID pgtype.UUID
	CategoryID  pgtype.UUID
	Unit        string
	IsActive    bool
	CreatedAt   pgtype.Timestamptz
}

// UserProductRow is a product owned by the caller joined with its category.
type UserProductRow struct {
	ID           pgtype.UUID
	Name         string
	Unit         string
	CategoryID   pgtype.UUID
	CategorySlug pgtype.Text
	CategoryName pgtype.Text
}

type ListItem struct {
	ID             pgtype.UUID
	ShoppingListID pgtype.UUID
	ProductID      pgtype.UUID
	Quantity       decimal.Decimal
	Unit           string
	PaidPrice      decimal.NullDecimal
	PurchasedAt    pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

// RelatedProduct is the product side of a list item join.
type RelatedProduct struct {
	ID       pgtype.UUID
	Name     string
	Unit     string
	IsActive bool
}

// ListItemRow is a list item left-joined with its product. The join may come
// back empty when the product row is gone, so callers go through Product.
type ListItemRow struct {
	ListItem
	related []RelatedProduct
}

// NewListItemRow builds a row with zero or one related product.
func NewListItemRow(item ListItem, related ...RelatedProduct) ListItemRow {
	row := ListItemRow{ListItem: item}
	if len(related) > 0 {
		row.related = related[:1]
	}
	return row
}

// Product returns the joined product, if any.
func (r ListItemRow) Product() (RelatedProduct, bool) {
	if len(r.related) == 0 || !r.related[0].ID.Valid {
		return RelatedProduct{}, false
	}
	return r.related[0], true
}

type UserPriceRow struct {
	ProductID   pgtype.UUID
	PaidPrice   decimal.Decimal
	PurchasedAt pgtype.Timestamptz
}

type RegionalPriceRow struct {
	ProductID     pgtype.UUID
	RegionType    string
	RegionCode    string
	AvgPrice      decimal.Decimal
	EffectiveDate pgtype.Date
}
