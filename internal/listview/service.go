// Package listview assembles the list page: header, estimate, the caller's
// product panel and per-category spend.
package listview

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/db"
	"github.com/noah-isme/backend-lista/internal/estimate"
	"github.com/noah-isme/backend-lista/internal/listtotals"
	"github.com/noah-isme/backend-lista/internal/product"
	"github.com/noah-isme/backend-lista/internal/region"
	"github.com/noah-isme/backend-lista/internal/shoppinglist"
)

// otherCategorySlug is the catch-all category shown as uncategorized.
const otherCategorySlug = "outros"

// PanelProduct is one of the caller's products as seen from a list.
type PanelProduct struct {
	ID             string
	Name           string
	CategoryID     string
	CategoryName   string
	Quantity       decimal.Decimal
	Unit           string
	Purchased      bool
	PaidPrice      *decimal.Decimal
	ReferencePrice *decimal.Decimal
	ListItemID     string
}

// Detail is the full list page.
type Detail struct {
	List           shoppinglist.List
	Region         region.Context
	Estimate       estimate.ListEstimate
	Products       []PanelProduct
	CategoryTotals []listtotals.CategoryTotal
}

// Lists loads a list owned by the caller.
type Lists interface {
	Get(ctx context.Context, userID, listID string) (shoppinglist.List, error)
}

// Products loads the caller's active products.
type Products interface {
	ListUserProducts(ctx context.Context, userID string) ([]product.Product, error)
}

// Estimator computes the list estimate.
type Estimator interface {
	EstimateListTotal(ctx context.Context, listID string, rc region.Context) (estimate.ListEstimate, error)
}

// RegionSource builds the caller's region context.
type RegionSource interface {
	RegionContext(ctx context.Context, userID string) (region.Context, error)
}

// Queries is the persistence surface for the product panel.
type Queries interface {
	ListItemsByProducts(ctx context.Context, arg db.ListItemsByProductsParams) ([]db.ListItem, error)
	ListUserPrices(ctx context.Context, arg db.ListUserPricesParams) ([]db.UserPriceRow, error)
}

// Service builds list pages.
type Service struct {
	Lists     Lists
	Products  Products
	Estimates Estimator
	Regions   RegionSource
	Q         Queries
}

// Detail returns the page for listID. A list the caller does not own is
// NOT_FOUND.
func (s *Service) Detail(ctx context.Context, userID, listID string) (Detail, error) {
	list, err := s.Lists.Get(ctx, userID, listID)
	if err != nil {
		return Detail{}, err
	}
	rc := region.NewContext("")
	if s.Regions != nil {
		if rc, err = s.Regions.RegionContext(ctx, userID); err != nil {
			return Detail{}, err
		}
	}

	out := Detail{List: list, Region: rc}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		est, err := s.Estimates.EstimateListTotal(common.WithUserID(gctx, userID), list.ID, rc)
		if err != nil {
			return err
		}
		out.Estimate = est
		return nil
	})
	g.Go(func() error {
		panel, err := s.panel(gctx, userID, list.ID)
		if err != nil {
			return err
		}
		out.Products = panel
		return nil
	})
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}

	out.CategoryTotals = listtotals.BuildOrderedCategoryTotals(purchases(out.Products), listtotals.DefaultDisplayOrder)
	return out, nil
}

func (s *Service) panel(ctx context.Context, userID, listID string) ([]PanelProduct, error) {
	products, err := s.Products.ListUserProducts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return []PanelProduct{}, nil
	}

	uid, err := db.ParseUUID(userID)
	if err != nil {
		return nil, common.AuthRequired()
	}
	lid, err := db.ParseUUID(listID)
	if err != nil {
		return nil, common.Validation("invalid list id")
	}
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	productIDs, err := db.ParseUUIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("list view: product ids: %w", err)
	}

	var (
		items  []db.ListItem
		prices []db.UserPriceRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.Q.ListItemsByProducts(gctx, db.ListItemsByProductsParams{ListID: lid, ProductIDs: productIDs})
		if err != nil {
			return fmt.Errorf("list view: list items: %w", err)
		}
		items = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.Q.ListUserPrices(gctx, db.ListUserPricesParams{UserID: uid, ProductIDs: productIDs})
		if err != nil {
			return fmt.Errorf("list view: reference prices: %w", err)
		}
		prices = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	latestItem := make(map[string]db.ListItem, len(items))
	for _, item := range items {
		key := db.UUIDString(item.ProductID)
		if _, seen := latestItem[key]; !seen {
			latestItem[key] = item
		}
	}
	reference := latestPrices(prices)

	out := make([]PanelProduct, 0, len(products))
	for _, p := range products {
		row := PanelProduct{
			ID:           p.ID,
			Name:         p.Name,
			CategoryID:   p.CategoryID,
			CategoryName: categoryName(p.CategorySlug, p.CategoryName),
			Quantity:     decimal.NewFromInt(1),
			Unit:         p.Unit,
		}
		if p.CategorySlug == otherCategorySlug {
			row.CategoryID = ""
		}
		if item, ok := latestItem[p.ID]; ok {
			row.ListItemID = db.UUIDString(item.ID)
			if item.Quantity.IsPositive() {
				row.Quantity = item.Quantity
			}
			if item.Unit != "" {
				row.Unit = item.Unit
			}
			row.Purchased = item.PurchasedAt.Valid
			if item.PaidPrice.Valid {
				paid := item.PaidPrice.Decimal
				row.PaidPrice = &paid
			}
		}
		if price, ok := reference[p.ID]; ok {
			row.ReferencePrice = &price
		}
		out = append(out, row)
	}
	return out, nil
}

// latestPrices keeps the most recent purchase per product. Rows with equal
// timestamps keep the first one seen.
func latestPrices(rows []db.UserPriceRow) map[string]decimal.Decimal {
	type entry struct {
		price decimal.Decimal
		at    time.Time
	}
	latest := make(map[string]entry, len(rows))
	for _, row := range rows {
		key := db.UUIDString(row.ProductID)
		at := db.TimeFromPG(row.PurchasedAt)
		if cur, ok := latest[key]; ok && !at.After(cur.at) {
			continue
		}
		latest[key] = entry{price: row.PaidPrice, at: at}
	}
	out := make(map[string]decimal.Decimal, len(latest))
	for k, v := range latest {
		out[k] = v.price
	}
	return out
}

func categoryName(slug, name string) string {
	if slug == "" || slug == otherCategorySlug {
		return listtotals.Uncategorized
	}
	return listtotals.NormalizeCategoryName(name)
}

func purchases(products []PanelProduct) []listtotals.PurchasedItem {
	out := make([]listtotals.PurchasedItem, 0, len(products))
	for _, p := range products {
		out = append(out, listtotals.PurchasedItem{
			Purchased:    p.Purchased,
			PaidPrice:    p.PaidPrice,
			CategoryName: p.CategoryName,
		})
	}
	return out
}

var _ Queries = (*db.Queries)(nil)
