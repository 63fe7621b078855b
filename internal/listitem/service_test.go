package listitem

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/db"
	"github.com/noah-isme/backend-lista/internal/obs"
)

const (
	userID  = "7d1e2f30-4a5b-4c6d-8e7f-901a2b3c4d5e"
	otherID = "0f9e8d7c-6b5a-4948-8372-615049382716"
	listID  = "3a4b5c6d-7e8f-4a0b-9c1d-2e3f4a5b6c7d"
)

type memStore struct {
	products  map[[16]byte]db.Product
	items     map[[16]byte]db.ListItem
	prices    []db.InsertUserPriceParams
	markErr   error
	insertErr error
	committed bool
}

func newMemStore() *memStore {
	return &memStore{products: map[[16]byte]db.Product{}, items: map[[16]byte]db.ListItem{}}
}

func (m *memStore) addProduct(owner, unit string, active bool) string {
	id := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	p := db.Product{ID: id, Unit: unit, IsActive: active}
	if owner != "" {
		p.OwnerUserID = mustParse(owner)
	}
	m.products[id.Bytes] = p
	return db.UUIDString(id)
}

func mustParse(v string) pgtype.UUID {
	id, err := db.ParseUUID(v)
	if err != nil {
		panic(err)
	}
	return id
}

func (m *memStore) GetActiveProduct(ctx context.Context, id pgtype.UUID) (db.Product, error) {
	p, ok := m.products[id.Bytes]
	if !ok || !p.IsActive {
		return db.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *memStore) GetListItem(ctx context.Context, arg db.ListItemKeyParams) (db.ListItem, error) {
	item, ok := m.items[arg.ID.Bytes]
	if !ok || item.ShoppingListID != arg.ListID {
		return db.ListItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (m *memStore) CreateListItem(ctx context.Context, arg db.CreateListItemParams) (db.ListItem, error) {
	item := db.ListItem{
		ID:             pgtype.UUID{Bytes: uuid.New(), Valid: true},
		ShoppingListID: arg.ListID,
		ProductID:      arg.ProductID,
		Quantity:       arg.Quantity,
		Unit:           arg.Unit,
	}
	m.items[item.ID.Bytes] = item
	return item, nil
}

func (m *memStore) UpdateListItem(ctx context.Context, arg db.UpdateListItemParams) (int64, error) {
	item, ok := m.items[arg.ID.Bytes]
	if !ok || item.ShoppingListID != arg.ListID {
		return 0, nil
	}
	item.Quantity = arg.Quantity
	item.Unit = arg.Unit
	m.items[arg.ID.Bytes] = item
	return 1, nil
}

func (m *memStore) DeleteListItem(ctx context.Context, arg db.ListItemKeyParams) (int64, error) {
	if _, ok := m.items[arg.ID.Bytes]; !ok {
		return 0, nil
	}
	delete(m.items, arg.ID.Bytes)
	return 1, nil
}

func (m *memStore) MarkListItemPurchased(ctx context.Context, arg db.MarkListItemPurchasedParams) (int64, error) {
	if m.markErr != nil {
		return 0, m.markErr
	}
	item, ok := m.items[arg.ID.Bytes]
	if !ok {
		return 0, nil
	}
	item.PaidPrice = decimal.NullDecimal{Decimal: arg.PaidPrice, Valid: true}
	item.PurchasedAt = arg.PurchasedAt
	m.items[arg.ID.Bytes] = item
	return 1, nil
}

func (m *memStore) InsertUserPrice(ctx context.Context, arg db.InsertUserPriceParams) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.prices = append(m.prices, arg)
	return nil
}

// tx mimics commit-on-success for the in-memory store.
func (m *memStore) tx(ctx context.Context, fn func(w PurchaseWriter) error) error {
	m.committed = false
	if err := fn(m); err != nil {
		return err
	}
	m.committed = true
	return nil
}

type ownerGuard struct{}

func (ownerGuard) RequireOwnership(ctx context.Context, list, user string) error {
	if user != userID {
		return common.Forbidden("list does not belong to the user")
	}
	return nil
}

func newTestService(m *memStore) *Service {
	svc := NewService(m, m.tx, ownerGuard{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 5, 3, 12, 0, 0, 0, time.UTC) }
	return svc
}

func qty(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestValidQuantity(t *testing.T) {
	require.True(t, ValidQuantity(qty("1")))
	require.True(t, ValidQuantity(qty("0.125")))
	require.True(t, ValidQuantity(qty("2.5000")))
	require.False(t, ValidQuantity(qty("0")))
	require.False(t, ValidQuantity(qty("-1")))
	require.False(t, ValidQuantity(qty("1.2345")))
}

func TestCreateChecksProduct(t *testing.T) {
	m := newMemStore()
	svc := newTestService(m)
	ctx := context.Background()

	own := m.addProduct(userID, "kg", true)
	global := m.addProduct("", "un", true)
	foreign := m.addProduct(otherID, "un", true)
	inactive := m.addProduct(userID, "un", false)

	item, err := svc.Create(ctx, userID, listID, Input{ProductID: own, Quantity: qty("1.5"), Unit: "kg"})
	require.NoError(t, err)
	require.Equal(t, "1.5", item.Quantity.String())

	_, err = svc.Create(ctx, userID, listID, Input{ProductID: global, Quantity: qty("2"), Unit: "un"})
	require.NoError(t, err)

	bad := []Input{
		{ProductID: own, Quantity: qty("1"), Unit: "un"},
		{ProductID: foreign, Quantity: qty("1"), Unit: "un"},
		{ProductID: inactive, Quantity: qty("1"), Unit: "un"},
		{ProductID: own, Quantity: qty("0"), Unit: "kg"},
		{ProductID: own, Quantity: qty("1"), Unit: "lb"},
	}
	for _, input := range bad {
		_, err := svc.Create(ctx, userID, listID, input)
		require.True(t, common.HasCode(err, common.CodeValidation), "input %+v", input)
	}

	_, err = svc.Create(ctx, otherID, listID, Input{ProductID: global, Quantity: qty("1"), Unit: "un"})
	require.True(t, common.HasCode(err, common.CodeForbidden))
}

func TestUpdate(t *testing.T) {
	m := newMemStore()
	svc := newTestService(m)
	ctx := context.Background()
	pid := m.addProduct(userID, "un", true)
	item, err := svc.Create(ctx, userID, listID, Input{ProductID: pid, Quantity: qty("1"), Unit: "un"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, userID, listID, item.ID, Input{ProductID: pid, Quantity: qty("4"), Unit: "un"})
	require.NoError(t, err)
	require.Equal(t, "4", updated.Quantity.String())

	_, err = svc.Update(ctx, userID, listID, uuid.NewString(), Input{ProductID: pid, Quantity: qty("4"), Unit: "un"})
	require.True(t, common.HasCode(err, common.CodeListItemNotFound))
}

func TestMarkPurchasedSavesReference(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewDomainMetrics("lista_test", registry)
	m := newMemStore()
	svc := newTestService(m)
	svc.metrics = metrics
	ctx := context.Background()
	pid := m.addProduct(userID, "un", true)
	item, err := svc.Create(ctx, userID, listID, Input{ProductID: pid, Quantity: qty("1"), Unit: "un"})
	require.NoError(t, err)

	got, err := svc.MarkPurchased(ctx, userID, listID, item.ID, PurchaseInput{PaidPrice: qty("9.899"), SaveReference: true})
	require.NoError(t, err)
	require.True(t, m.committed)
	require.Equal(t, "9.90", got.PaidPrice.StringFixed(2))
	require.NotNil(t, got.PurchasedAt)

	require.Len(t, m.prices, 1)
	saved := m.prices[0]
	require.Equal(t, "9.9", saved.PaidPrice.String())
	require.Equal(t, "BRL", saved.Currency)
	require.Equal(t, PriceSourceManual, saved.Source)
	require.Equal(t, pid, db.UUIDString(saved.ProductID))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Purchases.WithLabelValues("true")))
}

func TestMarkPurchasedWithoutReference(t *testing.T) {
	m := newMemStore()
	svc := newTestService(m)
	ctx := context.Background()
	pid := m.addProduct(userID, "un", true)
	item, err := svc.Create(ctx, userID, listID, Input{ProductID: pid, Quantity: qty("1"), Unit: "un"})
	require.NoError(t, err)

	_, err = svc.MarkPurchased(ctx, userID, listID, item.ID, PurchaseInput{PaidPrice: qty("3")})
	require.NoError(t, err)
	require.Empty(t, m.prices)
}

func TestMarkPurchasedFailures(t *testing.T) {
	m := newMemStore()
	svc := newTestService(m)
	ctx := context.Background()
	pid := m.addProduct(userID, "un", true)
	item, err := svc.Create(ctx, userID, listID, Input{ProductID: pid, Quantity: qty("1"), Unit: "un"})
	require.NoError(t, err)

	_, err = svc.MarkPurchased(ctx, userID, listID, item.ID, PurchaseInput{PaidPrice: qty("0.004")})
	require.True(t, common.HasCode(err, common.CodeValidation))

	_, err = svc.MarkPurchased(ctx, userID, listID, uuid.NewString(), PurchaseInput{PaidPrice: qty("1")})
	require.True(t, common.HasCode(err, common.CodeListItemNotFound))

	m.insertErr = errors.New("unique violation")
	_, err = svc.MarkPurchased(ctx, userID, listID, item.ID, PurchaseInput{PaidPrice: qty("1"), SaveReference: true})
	require.ErrorContains(t, err, "save reference price: unique violation")
	require.False(t, m.committed)
}

func TestDelete(t *testing.T) {
	m := newMemStore()
	svc := newTestService(m)
	ctx := context.Background()
	pid := m.addProduct(userID, "un", true)
	item, err := svc.Create(ctx, userID, listID, Input{ProductID: pid, Quantity: qty("1"), Unit: "un"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, listID, item.ID))
	err = svc.Delete(ctx, userID, listID, item.ID)
	require.True(t, common.HasCode(err, common.CodeListItemNotFound))
}

func TestHandlersAcceptCommaQuantityAndMaskedPrice(t *testing.T) {
	m := newMemStore()
	h := &Handler{Service: newTestService(m)}
	r := chi.NewRouter()
	r.Post("/lists/{listID}/items", h.Create)
	r.Post("/lists/{listID}/items/{itemID}/purchase", h.Purchase)
	pid := m.addProduct(userID, "kg", true)

	send := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req = req.WithContext(common.WithUserID(req.Context(), userID))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := send("/lists/"+listID+"/items", `{"productId":"`+pid+`","quantity":"1,25","unit":"kg"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created struct {
		Data struct {
			ID       string `json:"id"`
			Quantity string `json:"quantity"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, "1.25", created.Data.Quantity)

	rr = send("/lists/"+listID+"/items/"+created.Data.ID+"/purchase", `{"paidPriceMasked":"R$ 12,34","saveReference":true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"paidPrice":"12.34"`)

	rr = send("/lists/"+listID+"/items/"+created.Data.ID+"/purchase", `{"paidPrice":0}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
