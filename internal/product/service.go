// Package product serves categories and the products users register
// themselves.
package product

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/db"
)

// Units accepted for products and list items.
const (
	UnitPiece    = "un"
	UnitKilogram = "kg"
	UnitLiter    = "L"
)

// MaxNameLength bounds product names, in characters.
const MaxNameLength = 120

// CategoryOrder is the display order of category slugs. Unknown slugs sort
// after these, by name.
var CategoryOrder = []string{"alimentos", "bebidas", "higiene", "limpeza", "utilidades", "outros"}

// ValidUnit reports whether unit is one of un, kg or L.
func ValidUnit(unit string) bool {
	switch unit {
	case UnitPiece, UnitKilogram, UnitLiter:
		return true
	}
	return false
}

// Category is a product category.
type Category struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Product is a user-registered product with its category.
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	CategoryID   string `json:"categoryId,omitempty"`
	CategorySlug string `json:"categorySlug,omitempty"`
	CategoryName string `json:"categoryName,omitempty"`
}

// CreateInput is the payload for registering a product.
type CreateInput struct {
	Name       string
	CategoryID string
	Unit       string
}

// Queries is the persistence surface the service needs.
type Queries interface {
	ListCategories(ctx context.Context) ([]db.Category, error)
	GetCategoryByID(ctx context.Context, id pgtype.UUID) (db.Category, error)
	CreateProduct(ctx context.Context, arg db.CreateProductParams) (db.Product, error)
	ListUserProducts(ctx context.Context, ownerUserID pgtype.UUID) ([]db.UserProductRow, error)
	DeactivateProduct(ctx context.Context, arg db.DeactivateProductParams) (int64, error)
}

// ListGuard rejects lists the user does not own.
type ListGuard interface {
	RequireOwnership(ctx context.Context, listID, userID string) error
}

// Service orchestrates category and product operations.
type Service struct {
	q     Queries
	lists ListGuard
	now   func() time.Time
}

// NewService constructs a product service.
func NewService(q Queries, lists ListGuard) *Service {
	return &Service{q: q, lists: lists, now: time.Now}
}

// ListCategories returns categories in display order.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.q.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	rank := make(map[string]int, len(CategoryOrder))
	for i, slug := range CategoryOrder {
		rank[slug] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ri, iok := rank[rows[i].Slug]
		rj, jok := rank[rows[j].Slug]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return rows[i].Name < rows[j].Name
		}
	})
	out := make([]Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, Category{ID: db.UUIDString(row.ID), Slug: row.Slug, Name: row.Name})
	}
	return out, nil
}

// CreateUserProduct registers a product owned by userID from the page of
// listID.
func (s *Service) CreateUserProduct(ctx context.Context, userID, listID string, input CreateInput) (Product, error) {
	uid, err := db.ParseUUID(userID)
	if err != nil {
		return Product{}, common.AuthRequired()
	}
	name := strings.TrimSpace(input.Name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return Product{}, common.Validation(fmt.Sprintf("name must have between 1 and %d characters", MaxNameLength))
	}
	if !ValidUnit(input.Unit) {
		return Product{}, common.Validation("unit must be un, kg or L")
	}
	categoryID, err := db.ParseUUID(input.CategoryID)
	if err != nil {
		return Product{}, common.Validation("invalid category id")
	}
	if s.lists != nil {
		if err := s.lists.RequireOwnership(ctx, listID, userID); err != nil {
			return Product{}, err
		}
	}

	category, err := s.q.GetCategoryByID(ctx, categoryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, common.Validation("category not found")
	}
	if err != nil {
		return Product{}, fmt.Errorf("get category: %w", err)
	}

	row, err := s.q.CreateProduct(ctx, db.CreateProductParams{
		Slug:        Slug(name, userID, s.now()),
		Name:        name,
		OwnerUserID: uid,
		CategoryID:  category.ID,
		Unit:        input.Unit,
	})
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return Product{
		ID:           db.UUIDString(row.ID),
		Name:         row.Name,
		Unit:         row.Unit,
		CategoryID:   db.UUIDString(category.ID),
		CategorySlug: category.Slug,
		CategoryName: category.Name,
	}, nil
}

// ListUserProducts returns the user's active products, newest first.
func (s *Service) ListUserProducts(ctx context.Context, userID string) ([]Product, error) {
	uid, err := db.ParseUUID(userID)
	if err != nil {
		return nil, common.AuthRequired()
	}
	rows, err := s.q.ListUserProducts(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list user products: %w", err)
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, Product{
			ID:           db.UUIDString(row.ID),
			Name:         row.Name,
			Unit:         row.Unit,
			CategoryID:   db.UUIDString(row.CategoryID),
			CategorySlug: db.TextString(row.CategorySlug),
			CategoryName: db.TextString(row.CategoryName),
		})
	}
	return out, nil
}

// Deactivate soft-deletes a product the user owns. Inactive products drop out
// of estimates but keep their price history.
func (s *Service) Deactivate(ctx context.Context, userID, productID string) error {
	uid, err := db.ParseUUID(userID)
	if err != nil {
		return common.AuthRequired()
	}
	pid, err := db.ParseUUID(productID)
	if err != nil {
		return common.Validation("invalid product id")
	}
	affected, err := s.q.DeactivateProduct(ctx, db.DeactivateProductParams{ID: pid, OwnerUserID: uid})
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if affected == 0 {
		return common.NotFound("product not found")
	}
	return nil
}
