package estimate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/db"
	"github.com/noah-isme/backend-lista/internal/estimate"
	"github.com/noah-isme/backend-lista/internal/obs"
	"github.com/noah-isme/backend-lista/internal/pricing"
	"github.com/noah-isme/backend-lista/internal/region"
)

const (
	userID   = "6f1c1a52-52d3-4b89-9a3e-3f0a2b4c5d61"
	listID   = "0d3f7e1a-1111-4c2b-8a7d-6b5c4d3e2f10"
	productA = "aaaaaaaa-0000-4000-8000-000000000001"
	productB = "bbbbbbbb-0000-4000-8000-000000000002"
	productC = "cccccccc-0000-4000-8000-000000000003"
)

type stubStore struct {
	mu         sync.Mutex
	items      []db.ListItemRow
	userPrices []db.UserPriceRow
	seeds      []db.RegionalPriceRow
	itemsErr   error
	userErr    error
	seedErr    error

	userCalls int
	seedCalls int
	seedArgs  []db.ListRegionalPricesParams
}

func (s *stubStore) ListItemsForEstimate(ctx context.Context, listID pgtype.UUID) ([]db.ListItemRow, error) {
	return s.items, s.itemsErr
}

func (s *stubStore) ListUserPrices(ctx context.Context, arg db.ListUserPricesParams) ([]db.UserPriceRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userCalls++
	return s.userPrices, s.userErr
}

func (s *stubStore) ListRegionalPrices(ctx context.Context, arg db.ListRegionalPricesParams) ([]db.RegionalPriceRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seedCalls++
	s.seedArgs = append(s.seedArgs, arg)
	return filterSeeds(s.seeds, arg.ProductIDs), s.seedErr
}

func filterSeeds(rows []db.RegionalPriceRow, ids []pgtype.UUID) []db.RegionalPriceRow {
	var out []db.RegionalPriceRow
	for _, row := range rows {
		for _, id := range ids {
			if row.ProductID == id {
				out = append(out, row)
			}
		}
	}
	return out
}

func newService(store *stubStore) *estimate.Service {
	return &estimate.Service{Items: store, UserPrices: store, Seeds: store}
}

func authed() context.Context {
	return common.WithUserID(context.Background(), userID)
}

func mustUUID(t testing.TB, v string) pgtype.UUID {
	id, err := db.ParseUUID(v)
	require.NoError(t, err)
	return id
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func ts(v string) pgtype.Timestamptz {
	parsed, err := time.Parse(time.RFC3339, v)
	if err != nil {
		panic(err)
	}
	return pgtype.Timestamptz{Time: parsed, Valid: true}
}

func item(t testing.TB, id, product, name string, active bool, qty string) db.ListItemRow {
	return db.NewListItemRow(db.ListItem{
		ID:        mustUUID(t, id),
		ProductID: mustUUID(t, product),
		Quantity:  money(qty),
		Unit:      "un",
	}, db.RelatedProduct{ID: mustUUID(t, product), Name: name, Unit: "un", IsActive: active})
}

func TestEstimateEndToEnd(t *testing.T) {
	purchased := item(t, "11111111-0000-4000-8000-000000000001", productA, "Café", true, "1")
	purchased.PaidPrice = decimal.NullDecimal{Decimal: money("9.90"), Valid: true}
	purchased.PurchasedAt = ts("2026-05-03T10:00:00Z")
	never := item(t, "11111111-0000-4000-8000-000000000002", productB, "Sabão", true, "2")

	store := &stubStore{
		items: []db.ListItemRow{purchased, never},
		userPrices: []db.UserPriceRow{
			{ProductID: mustUUID(t, productA), PaidPrice: money("8.50"), PurchasedAt: ts("2026-04-01T10:00:00Z")},
			{ProductID: mustUUID(t, productA), PaidPrice: money("9.90"), PurchasedAt: ts("2026-05-03T10:00:00Z")},
		},
	}

	got, err := newService(store).EstimateListTotal(authed(), listID, region.NewContext("SP"))
	require.NoError(t, err)
	require.Equal(t, listID, got.ListID)
	require.Equal(t, "BRL", got.Currency)
	require.Len(t, got.Items, 2)

	a := got.Items[0]
	require.Equal(t, pricing.OriginUserLastPrice, a.Origin)
	require.Equal(t, "9.90", a.UnitPrice.StringFixed(2))
	require.True(t, a.IsPriceAvailable)
	require.True(t, a.Purchased())

	b := got.Items[1]
	require.Equal(t, pricing.OriginUnavailable, b.Origin)
	require.True(t, b.UnitPrice.IsZero())
	require.False(t, b.IsPriceAvailable)
	require.Equal(t, "0.00", b.ItemTotal.StringFixed(2))

	require.Equal(t, "9.90", got.EstimatedTotal.StringFixed(2))
}

func TestEstimateTotalIgnoresSuggestedPrices(t *testing.T) {
	pending := item(t, "11111111-0000-4000-8000-000000000003", productA, "Leite", true, "3")
	paidNoDate := item(t, "11111111-0000-4000-8000-000000000004", productB, "Pão", true, "1")
	paidNoDate.PaidPrice = decimal.NullDecimal{Decimal: money("4"), Valid: true}

	store := &stubStore{
		items: []db.ListItemRow{pending, paidNoDate},
		seeds: []db.RegionalPriceRow{
			{ProductID: mustUUID(t, productA), RegionType: "national", RegionCode: "BR", AvgPrice: money("4.99"), EffectiveDate: pgtype.Date{Time: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Valid: true}},
		},
	}

	got, err := newService(store).EstimateListTotal(authed(), listID, region.NewContext(""))
	require.NoError(t, err)
	require.Equal(t, pricing.OriginSeedNational, got.Items[0].Origin)
	require.Equal(t, "14.97", got.Items[0].ItemTotal.StringFixed(2))
	require.True(t, got.EstimatedTotal.IsZero())
}

func TestEstimateSkipsInactiveProducts(t *testing.T) {
	store := &stubStore{
		items: []db.ListItemRow{
			item(t, "11111111-0000-4000-8000-000000000005", productA, "Arroz", true, "1"),
			item(t, "11111111-0000-4000-8000-000000000006", productC, "Antigo", false, "1"),
		},
	}

	got, err := newService(store).EstimateListTotal(authed(), listID, region.NewContext("BA"))
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, productA, got.Items[0].ProductID)
	require.Equal(t, []pgtype.UUID{mustUUID(t, productA)}, store.seedArgs[0].ProductIDs)
	require.ElementsMatch(t, []string{"BR", "BA", "NE"}, store.seedArgs[0].RegionCodes)
}

func TestEstimateKeepsItemsWithoutProductRow(t *testing.T) {
	orphan := db.NewListItemRow(db.ListItem{
		ID:        mustUUID(t, "11111111-0000-4000-8000-000000000007"),
		ProductID: mustUUID(t, productA),
		Quantity:  money("1"),
		Unit:      "kg",
	})
	store := &stubStore{items: []db.ListItemRow{orphan}}

	got, err := newService(store).EstimateListTotal(authed(), listID, region.NewContext(""))
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, estimate.FallbackProductName, got.Items[0].ProductName)
}

func TestEstimateEmptyListSkipsPriceReads(t *testing.T) {
	store := &stubStore{items: []db.ListItemRow{
		item(t, "11111111-0000-4000-8000-000000000008", productC, "Antigo", false, "1"),
	}}

	got, err := newService(store).EstimateListTotal(authed(), listID, region.NewContext("SP"))
	require.NoError(t, err)
	require.Empty(t, got.Items)
	require.True(t, got.EstimatedTotal.IsZero())
	require.Zero(t, store.userCalls)
	require.Zero(t, store.seedCalls)
}

func TestEstimateRequiresUser(t *testing.T) {
	_, err := newService(&stubStore{}).EstimateListTotal(context.Background(), listID, region.NewContext("SP"))
	require.ErrorIs(t, err, estimate.ErrAuthRequired)
	require.True(t, common.HasCode(err, common.CodeAuthRequired))
}

func TestEstimateRejectsInvalidListID(t *testing.T) {
	_, err := newService(&stubStore{}).EstimateListTotal(authed(), "not-a-uuid", region.NewContext("SP"))
	require.True(t, common.HasCode(err, common.CodeValidation))
}

func TestEstimateWrapsReadFailures(t *testing.T) {
	boom := errors.New("connection reset")
	cases := []struct {
		name  string
		store *stubStore
		want  string
	}{
		{"items", &stubStore{itemsErr: boom}, "estimate: list items: connection reset"},
		{"user prices", &stubStore{userErr: boom}, "estimate: user prices: connection reset"},
		{"seed prices", &stubStore{seedErr: boom}, "estimate: seed prices: connection reset"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.store.itemsErr == nil {
				tc.store.items = []db.ListItemRow{item(t, "11111111-0000-4000-8000-000000000009", productA, "Feijão", true, "1")}
			}
			_, err := newService(tc.store).EstimateListTotal(authed(), listID, region.NewContext("SP"))
			require.ErrorIs(t, err, boom)
			require.EqualError(t, err, tc.want)
			require.False(t, common.IsAppError(err))
		})
	}
}

type denyGuard struct{}

func (denyGuard) RequireOwnership(ctx context.Context, listID, userID string) error {
	return common.Forbidden("list belongs to another user")
}

func TestEstimateChecksOwnership(t *testing.T) {
	store := &stubStore{}
	svc := newService(store)
	svc.Lists = denyGuard{}

	_, err := svc.EstimateListTotal(authed(), listID, region.NewContext("SP"))
	require.True(t, common.HasCode(err, common.CodeForbidden))
}

func TestEstimateRecordsMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewDomainMetrics("lista_test", registry)
	store := &stubStore{items: []db.ListItemRow{item(t, "11111111-0000-4000-8000-00000000000a", productA, "Óleo", true, "1")}}
	svc := newService(store)
	svc.Metrics = metrics

	_, err := svc.EstimateListTotal(authed(), listID, region.NewContext("SP"))
	require.NoError(t, err)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.EstimateRequests.WithLabelValues("ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.PriceOrigins.WithLabelValues("unavailable")))
}
