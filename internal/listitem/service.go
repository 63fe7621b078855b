// Package listitem manages the lines of a shopping list and records
// purchases.
package listitem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/db"
	"github.com/noah-isme/backend-lista/internal/obs"
	"github.com/noah-isme/backend-lista/internal/pricing"
	"github.com/noah-isme/backend-lista/internal/product"
)

// PriceSourceManual tags history rows the user saved while purchasing.
const PriceSourceManual = "manual"

var (
	maxQuantity  = decimal.New(1, 9)
	maxPaidPrice = decimal.New(1, 10)
)

// Item is a list line in API-friendly form.
type Item struct {
	ID          string
	ListID      string
	ProductID   string
	Quantity    decimal.Decimal
	Unit        string
	PaidPrice   *decimal.Decimal
	PurchasedAt *time.Time
}

// MarshalJSON renders money with two decimals.
func (i Item) MarshalJSON() ([]byte, error) {
	out := struct {
		ID          string     `json:"id"`
		ListID      string     `json:"listId"`
		ProductID   string     `json:"productId"`
		Quantity    string     `json:"quantity"`
		Unit        string     `json:"unit"`
		PaidPrice   *string    `json:"paidPrice,omitempty"`
		PurchasedAt *time.Time `json:"purchasedAt,omitempty"`
	}{
		ID:          i.ID,
		ListID:      i.ListID,
		ProductID:   i.ProductID,
		Quantity:    i.Quantity.String(),
		Unit:        i.Unit,
		PurchasedAt: i.PurchasedAt,
	}
	if i.PaidPrice != nil {
		paid := i.PaidPrice.StringFixed(2)
		out.PaidPrice = &paid
	}
	return json.Marshal(out)
}

// Input is the payload for creating or updating an item.
type Input struct {
	ProductID string
	Quantity  decimal.Decimal
	Unit      string
}

// PurchaseInput is the payload for marking an item as purchased.
type PurchaseInput struct {
	PaidPrice     decimal.Decimal
	SaveReference bool
}

// Queries is the persistence surface the service needs.
type Queries interface {
	GetActiveProduct(ctx context.Context, id pgtype.UUID) (db.Product, error)
	GetListItem(ctx context.Context, arg db.ListItemKeyParams) (db.ListItem, error)
	CreateListItem(ctx context.Context, arg db.CreateListItemParams) (db.ListItem, error)
	UpdateListItem(ctx context.Context, arg db.UpdateListItemParams) (int64, error)
	DeleteListItem(ctx context.Context, arg db.ListItemKeyParams) (int64, error)
}

// PurchaseWriter is used inside the purchase transaction.
type PurchaseWriter interface {
	MarkListItemPurchased(ctx context.Context, arg db.MarkListItemPurchasedParams) (int64, error)
	InsertUserPrice(ctx context.Context, arg db.InsertUserPriceParams) error
}

// TxFunc runs fn inside a database transaction.
type TxFunc func(ctx context.Context, fn func(w PurchaseWriter) error) error

// ListGuard rejects lists the user does not own.
type ListGuard interface {
	RequireOwnership(ctx context.Context, listID, userID string) error
}

// Service orchestrates list item operations.
type Service struct {
	q       Queries
	tx      TxFunc
	lists   ListGuard
	metrics *obs.DomainMetrics
	now     func() time.Time
}

// NewService constructs a list item service.
func NewService(q Queries, tx TxFunc, lists ListGuard, metrics *obs.DomainMetrics) *Service {
	return &Service{q: q, tx: tx, lists: lists, metrics: metrics, now: time.Now}
}

// StoreTx adapts db.Store transactions to TxFunc.
func StoreTx(store *db.Store) TxFunc {
	return func(ctx context.Context, fn func(w PurchaseWriter) error) error {
		return store.InTx(ctx, func(q *db.Queries) error { return fn(q) })
	}
}

// ValidQuantity reports whether q is positive with at most three decimals.
func ValidQuantity(q decimal.Decimal) bool {
	return q.IsPositive() && q.LessThan(maxQuantity) && q.Equal(q.Truncate(3))
}

// Create adds a product to a list.
func (s *Service) Create(ctx context.Context, userID, listID string, input Input) (Item, error) {
	key, err := s.authorize(ctx, userID, listID, "")
	if err != nil {
		return Item{}, err
	}
	productID, err := s.checkProduct(ctx, validatedUUID(userID), input)
	if err != nil {
		return Item{}, err
	}
	row, err := s.q.CreateListItem(ctx, db.CreateListItemParams{
		ListID:    key.ListID,
		ProductID: productID,
		Quantity:  input.Quantity,
		Unit:      input.Unit,
	})
	if err != nil {
		return Item{}, fmt.Errorf("create list item: %w", err)
	}
	return convertItem(row), nil
}

// Update changes quantity and unit of an item.
func (s *Service) Update(ctx context.Context, userID, listID, itemID string, input Input) (Item, error) {
	key, err := s.authorize(ctx, userID, listID, itemID)
	if err != nil {
		return Item{}, err
	}
	if _, err := s.checkProduct(ctx, validatedUUID(userID), input); err != nil {
		return Item{}, err
	}
	affected, err := s.q.UpdateListItem(ctx, db.UpdateListItemParams{
		ID:       key.ID,
		ListID:   key.ListID,
		Quantity: input.Quantity,
		Unit:     input.Unit,
	})
	if err != nil {
		return Item{}, fmt.Errorf("update list item: %w", err)
	}
	if affected == 0 {
		return Item{}, itemNotFound()
	}
	return s.get(ctx, key)
}

// MarkPurchased stores the paid price and purchase time. With SaveReference
// the price is also appended to the user's price history, in the same
// transaction.
func (s *Service) MarkPurchased(ctx context.Context, userID, listID, itemID string, input PurchaseInput) (Item, error) {
	if !input.PaidPrice.IsPositive() || !input.PaidPrice.LessThan(maxPaidPrice) {
		return Item{}, common.Validation("paid price must be greater than zero")
	}
	paid := pricing.Round2(input.PaidPrice)
	if !paid.IsPositive() {
		return Item{}, common.Validation("paid price must be greater than zero")
	}

	key, err := s.authorize(ctx, userID, listID, itemID)
	if err != nil {
		return Item{}, err
	}
	current, err := s.get(ctx, key)
	if err != nil {
		return Item{}, err
	}
	productID, err := db.ParseUUID(current.ProductID)
	if err != nil {
		return Item{}, fmt.Errorf("mark purchased: product id: %w", err)
	}
	uid := validatedUUID(userID)
	purchasedAt := pgtype.Timestamptz{Time: s.now().UTC(), Valid: true}

	err = s.tx(ctx, func(w PurchaseWriter) error {
		affected, err := w.MarkListItemPurchased(ctx, db.MarkListItemPurchasedParams{
			ID:           key.ID,
			ListID:       key.ListID,
			PaidPrice:    paid,
			PaidCurrency: pricing.Currency,
			PurchasedAt:  purchasedAt,
		})
		if err != nil {
			return fmt.Errorf("mark purchased: %w", err)
		}
		if affected == 0 {
			return itemNotFound()
		}
		if !input.SaveReference {
			return nil
		}
		if err := w.InsertUserPrice(ctx, db.InsertUserPriceParams{
			UserID:      uid,
			ProductID:   productID,
			PaidPrice:   paid,
			Currency:    pricing.Currency,
			PurchasedAt: purchasedAt,
			Source:      PriceSourceManual,
		}); err != nil {
			return fmt.Errorf("save reference price: %w", err)
		}
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	s.metrics.Purchase(input.SaveReference)

	current.PaidPrice = &paid
	at := purchasedAt.Time
	current.PurchasedAt = &at
	return current, nil
}

// Delete removes an item from a list.
func (s *Service) Delete(ctx context.Context, userID, listID, itemID string) error {
	key, err := s.authorize(ctx, userID, listID, itemID)
	if err != nil {
		return err
	}
	affected, err := s.q.DeleteListItem(ctx, key)
	if err != nil {
		return fmt.Errorf("delete list item: %w", err)
	}
	if affected == 0 {
		return itemNotFound()
	}
	return nil
}

func (s *Service) authorize(ctx context.Context, userID, listID, itemID string) (db.ListItemKeyParams, error) {
	if _, err := db.ParseUUID(userID); err != nil {
		return db.ListItemKeyParams{}, common.AuthRequired()
	}
	lid, err := db.ParseUUID(listID)
	if err != nil {
		return db.ListItemKeyParams{}, common.Validation("invalid list id")
	}
	key := db.ListItemKeyParams{ListID: lid}
	if itemID != "" {
		key.ID, err = db.ParseUUID(itemID)
		if err != nil {
			return db.ListItemKeyParams{}, common.Validation("invalid item id")
		}
	}
	if s.lists != nil {
		if err := s.lists.RequireOwnership(ctx, listID, userID); err != nil {
			return db.ListItemKeyParams{}, err
		}
	}
	return key, nil
}

// checkProduct validates quantity and unit, then requires an active product
// with the same unit that is global or owned by the user.
func (s *Service) checkProduct(ctx context.Context, userID pgtype.UUID, input Input) (pgtype.UUID, error) {
	if !ValidQuantity(input.Quantity) {
		return pgtype.UUID{}, common.Validation("quantity must be positive with at most 3 decimals")
	}
	if !product.ValidUnit(input.Unit) {
		return pgtype.UUID{}, common.Validation("unit must be un, kg or L")
	}
	pid, err := db.ParseUUID(input.ProductID)
	if err != nil {
		return pgtype.UUID{}, common.Validation("invalid product id")
	}
	p, err := s.q.GetActiveProduct(ctx, pid)
	if errors.Is(err, pgx.ErrNoRows) {
		return pgtype.UUID{}, common.Validation("product not available")
	}
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("get product: %w", err)
	}
	if p.Unit != input.Unit {
		return pgtype.UUID{}, common.Validation("unit does not match the product")
	}
	if p.OwnerUserID.Valid && p.OwnerUserID != userID {
		return pgtype.UUID{}, common.Validation("product not available")
	}
	return pid, nil
}

func (s *Service) get(ctx context.Context, key db.ListItemKeyParams) (Item, error) {
	row, err := s.q.GetListItem(ctx, key)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, itemNotFound()
	}
	if err != nil {
		return Item{}, fmt.Errorf("get list item: %w", err)
	}
	return convertItem(row), nil
}

func itemNotFound() *common.AppError {
	return common.NewAppError(common.CodeListItemNotFound, "list item not found", http.StatusNotFound, nil)
}

// validatedUUID parses an id that authorize has already accepted.
func validatedUUID(v string) pgtype.UUID {
	id, _ := db.ParseUUID(v)
	return id
}

func convertItem(row db.ListItem) Item {
	item := Item{
		ID:        db.UUIDString(row.ID),
		ListID:    db.UUIDString(row.ShoppingListID),
		ProductID: db.UUIDString(row.ProductID),
		Quantity:  row.Quantity,
		Unit:      row.Unit,
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
