package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type ListUserPricesParams struct {
	UserID     pgtype.UUID
	ProductIDs []pgtype.UUID
}

const listUserPrices = `
SELECT product_id, paid_price, purchased_at
FROM user_product_prices
WHERE user_id = $1 AND product_id = ANY($2::uuid[])
ORDER BY purchased_at DESC`

func (q *Queries) ListUserPrices(ctx context.Context, arg ListUserPricesParams) ([]UserPriceRow, error) {
	rows, err := q.db.Query(ctx, listUserPrices, arg.UserID, arg.ProductIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UserPriceRow
	for rows.Next() {
		var r UserPriceRow
		if err := rows.Scan(&r.ProductID, &r.PaidPrice, &r.PurchasedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type InsertUserPriceParams struct {
	UserID      pgtype.UUID
	ProductID   pgtype.UUID
	PaidPrice   decimal.Decimal
	Currency    string
	PurchasedAt pgtype.Timestamptz
	Source      string
}

const insertUserPrice = `
INSERT INTO user_product_prices (user_id, product_id, paid_price, currency, purchased_at, source)
VALUES ($1, $2, $3, $4, $5, $6)`

func (q *Queries) InsertUserPrice(ctx context.Context, arg InsertUserPriceParams) error {
	_, err := q.db.Exec(ctx, insertUserPrice, arg.UserID, arg.ProductID, arg.PaidPrice, arg.Currency, arg.PurchasedAt, arg.Source)
	return err
}

type ListRegionalPricesParams struct {
	ProductIDs  []pgtype.UUID
	RegionCodes []string
}

const listRegionalPrices = `
SELECT product_id, region_type, region_code, avg_price, effective_date
FROM regional_prices
WHERE product_id = ANY($1::uuid[])
  AND region_type IN ('state', 'macro_region', 'national')
  AND upper(region_code) = ANY($2::text[])
ORDER BY effective_date DESC`

func (q *Queries) ListRegionalPrices(ctx context.Context, arg ListRegionalPricesParams) ([]RegionalPriceRow, error) {
	rows, err := q.db.Query(ctx, listRegionalPrices, arg.ProductIDs, arg.RegionCodes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RegionalPriceRow
	for rows.Next() {
		var r RegionalPriceRow
		if err := rows.Scan(&r.ProductID, &r.RegionType, &r.RegionCode, &r.AvgPrice, &r.EffectiveDate); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type UpsertRegionalPriceParams struct {
	ProductID     pgtype.UUID
	RegionType    string
	RegionCode    string
	AvgPrice      decimal.Decimal
	EffectiveDate pgtype.Date
}

const upsertRegionalPrice = `
INSERT INTO regional_prices (product_id, region_type, region_code, avg_price, effective_date)
VALUES ($1, $2, upper($3), $4, $5)
ON CONFLICT (product_id, region_type, region_code, effective_date)
DO UPDATE SET avg_price = EXCLUDED.avg_price`

func (q *Queries) UpsertRegionalPrice(ctx context.Context, arg UpsertRegionalPriceParams) error {
	_, err := q.db.Exec(ctx, upsertRegionalPrice, arg.ProductID, arg.RegionType, arg.RegionCode, arg.AvgPrice, arg.EffectiveDate)
	return err
}
