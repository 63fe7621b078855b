package estimate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/db"
	"github.com/noah-isme/backend-lista/internal/obs"
	"github.com/noah-isme/backend-lista/internal/pricing"
	"github.com/noah-isme/backend-lista/internal/region"
)

// ErrAuthRequired is returned when the context carries no user.
var ErrAuthRequired = common.NewAppError(common.CodeAuthRequired, "authentication required", http.StatusUnauthorized, nil)

// ItemReader loads list items joined with their product.
type ItemReader interface {
	ListItemsForEstimate(ctx context.Context, listID pgtype.UUID) ([]db.ListItemRow, error)
}

// UserPriceReader loads a user's price history.
type UserPriceReader interface {
	ListUserPrices(ctx context.Context, arg db.ListUserPricesParams) ([]db.UserPriceRow, error)
}

// SeedReader loads regional reference prices.
type SeedReader interface {
	ListRegionalPrices(ctx context.Context, arg db.ListRegionalPricesParams) ([]db.RegionalPriceRow, error)
}

// ListGuard rejects lists the user does not own.
type ListGuard interface {
	RequireOwnership(ctx context.Context, listID, userID string) error
}

// Service estimates list totals.
type Service struct {
	Items      ItemReader
	UserPrices UserPriceReader
	Seeds      SeedReader
	Lists      ListGuard
	Metrics    *obs.DomainMetrics
}

// NewService wires a Service on top of q. A non-nil seeds overrides q for
// regional price reads (the Redis cache, for instance).
func NewService(q db.Querier, seeds SeedReader, lists ListGuard, metrics *obs.DomainMetrics) *Service {
	if seeds == nil {
		seeds = q
	}
	return &Service{Items: q, UserPrices: q, Seeds: seeds, Lists: lists, Metrics: metrics}
}

// EstimateListTotal resolves a suggested price for every active item of the
// list and sums what was already paid.
func (s *Service) EstimateListTotal(ctx context.Context, listID string, rc region.Context) (ListEstimate, error) {
	userIDText, ok := common.UserID(ctx)
	if !ok {
		s.Metrics.EstimateResult("unauthenticated")
		return ListEstimate{}, ErrAuthRequired
	}
	userID, err := db.ParseUUID(userIDText)
	if err != nil {
		s.Metrics.EstimateResult("unauthenticated")
		return ListEstimate{}, ErrAuthRequired
	}
	listUUID, err := db.ParseUUID(listID)
	if err != nil {
		return ListEstimate{}, common.Validation("invalid list id")
	}
	if s.Lists != nil {
		if err := s.Lists.RequireOwnership(ctx, listID, userIDText); err != nil {
			return ListEstimate{}, err
		}
	}

	estimate, err := s.estimate(ctx, userID, listUUID, listID, rc)
	switch {
	case err != nil:
		s.Metrics.EstimateResult("error")
	case len(estimate.Items) == 0:
		s.Metrics.EstimateResult("empty")
	default:
		s.Metrics.EstimateResult("ok")
	}
	return estimate, err
}

func (s *Service) estimate(ctx context.Context, userID, listUUID pgtype.UUID, listID string, rc region.Context) (ListEstimate, error) {
	rows, err := s.Items.ListItemsForEstimate(ctx, listUUID)
	if err != nil {
		return ListEstimate{}, fmt.Errorf("estimate: list items: %w", err)
	}

	items := activeItems(rows)
	productIDs := distinctProducts(items)
	if len(productIDs) == 0 {
		return emptyEstimate(listID), nil
	}

	var (
		userRows []db.UserPriceRow
		seedRows []db.RegionalPriceRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		userRows, err = s.UserPrices.ListUserPrices(gctx, db.ListUserPricesParams{UserID: userID, ProductIDs: productIDs})
		if err != nil {
			return fmt.Errorf("estimate: user prices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		seedRows, err = s.Seeds.ListRegionalPrices(gctx, db.ListRegionalPricesParams{ProductIDs: productIDs, RegionCodes: rc.Codes()})
		if err != nil {
			return fmt.Errorf("estimate: seed prices: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return ListEstimate{}, err
	}

	userByProduct := groupUserPrices(userRows)
	seedByProduct := groupSeedPrices(seedRows)

	out := emptyEstimate(listID)
	out.Items = make([]EstimatedItem, 0, len(items))
	paid := decimal.Zero
	for _, row := range items {
		suggestion := pricing.Resolve(userByProduct[row.ProductID.Bytes], seedByProduct[row.ProductID.Bytes], rc)
		s.Metrics.PriceOrigin(string(suggestion.Origin))

		item := toEstimatedItem(row, suggestion)
		if item.Purchased() {
			paid = paid.Add(*item.PaidPrice)
		}
		out.Items = append(out.Items, item)
	}
	out.EstimatedTotal = pricing.Round2(paid)
	return out, nil
}

// activeItems drops items whose joined product is soft-deleted. Items whose
// product row is missing are kept.
func activeItems(rows []db.ListItemRow) []db.ListItemRow {
	out := make([]db.ListItemRow, 0, len(rows))
	for _, row := range rows {
		if product, ok := row.Product(); ok && !product.IsActive {
			continue
		}
		out = append(out, row)
	}
	return out
}

func distinctProducts(rows []db.ListItemRow) []pgtype.UUID {
	seen := make(map[[16]byte]struct{}, len(rows))
	out := make([]pgtype.UUID, 0, len(rows))
	for _, row := range rows {
		if !row.ProductID.Valid {
			continue
		}
		if _, dup := seen[row.ProductID.Bytes]; dup {
			continue
		}
		seen[row.ProductID.Bytes] = struct{}{}
		out = append(out, row.ProductID)
	}
	return out
}

func groupUserPrices(rows []db.UserPriceRow) map[[16]byte][]pricing.UserPrice {
	out := make(map[[16]byte][]pricing.UserPrice)
	for _, row := range rows {
		out[row.ProductID.Bytes] = append(out[row.ProductID.Bytes], pricing.UserPrice{
			PaidPrice:   row.PaidPrice,
			PurchasedAt: db.TimeFromPG(row.PurchasedAt),
		})
	}
	return out
}

func groupSeedPrices(rows []db.RegionalPriceRow) map[[16]byte][]pricing.SeedPrice {
	out := make(map[[16]byte][]pricing.SeedPrice)
	for _, row := range rows {
		out[row.ProductID.Bytes] = append(out[row.ProductID.Bytes], toSeedPrice(row))
	}
	return out
}

func toSeedPrice(row db.RegionalPriceRow) pricing.SeedPrice {
	seed := pricing.SeedPrice{
		RegionType: pricing.RegionType(row.RegionType),
		RegionCode: row.RegionCode,
		AvgPrice:   row.AvgPrice,
	}
	if row.EffectiveDate.Valid {
		seed.EffectiveDate = row.EffectiveDate.Time
	}
	return seed
}

func toEstimatedItem(row db.ListItemRow, suggestion pricing.Suggestion) EstimatedItem {
	item := EstimatedItem{
		ItemID:           db.UUIDString(row.ID),
		ProductID:        db.UUIDString(row.ProductID),
		ProductName:      FallbackProductName,
		Quantity:         row.Quantity,
		Unit:             row.Unit,
		UnitPrice:        suggestion.UnitPrice,
		Origin:           suggestion.Origin,
		ItemTotal:        pricing.ItemTotal(suggestion.UnitPrice, row.Quantity),
		IsPriceAvailable: suggestion.IsPriceAvailable,
	}
	if product, ok := row.Product(); ok && product.Name != "" {
		item.ProductName = product.Name
	}
	if row.PaidPrice.Valid {
		paid := row.PaidPrice.Decimal
		item.PaidPrice = &paid
	}
	if row.PurchasedAt.Valid {
		at := row.PurchasedAt.Time
		item.PurchasedAt = &at
	}
	return item
}
