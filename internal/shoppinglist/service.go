// Package shoppinglist manages the caller's shopping lists.
package shoppinglist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/db"
)

// Statuses a list can be in.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// MaxNameLength bounds list names, in characters.
const MaxNameLength = 120

// List is a shopping list in API-friendly form.
type List struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Queries is the persistence surface the service needs.
type Queries interface {
	CreateShoppingList(ctx context.Context, arg db.CreateShoppingListParams) (db.ShoppingList, error)
	ListShoppingListsByUser(ctx context.Context, userID pgtype.UUID) ([]db.ShoppingList, error)
	GetShoppingListForUser(ctx context.Context, arg db.ShoppingListOwnerParams) (db.ShoppingList, error)
	UpdateShoppingListStatus(ctx context.Context, arg db.UpdateShoppingListStatusParams) (int64, error)
	DeleteShoppingList(ctx context.Context, arg db.ShoppingListOwnerParams) (int64, error)
}

// Service orchestrates shopping list operations.
type Service struct {
	q Queries
}

// NewService constructs a list service.
func NewService(q Queries) *Service {
	return &Service{q: q}
}

// NormalizeStatus maps anything other than "archived" to "active".
func NormalizeStatus(status string) string {
	if strings.TrimSpace(status) == StatusArchived {
		return StatusArchived
	}
	return StatusActive
}

// Create inserts an active list owned by userID.
func (s *Service) Create(ctx context.Context, userID, name string) (List, error) {
	uid, err := userUUID(userID)
	if err != nil {
		return List{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return List{}, common.Validation("name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return List{}, common.Validation(fmt.Sprintf("name must have at most %d characters", MaxNameLength))
	}
	row, err := s.q.CreateShoppingList(ctx, db.CreateShoppingListParams{UserID: uid, Name: name, Status: StatusActive})
	if err != nil {
		return List{}, fmt.Errorf("create list: %w", err)
	}
	return convertList(row), nil
}

// List returns the owner's lists, most recently updated first.
func (s *Service) List(ctx context.Context, userID string) ([]List, error) {
	uid, err := userUUID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.ListShoppingListsByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	out := make([]List, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertList(row))
	}
	return out, nil
}

// Get returns one list, or NOT_FOUND when it does not exist for the user.
func (s *Service) Get(ctx context.Context, userID, listID string) (List, error) {
	key, err := ownerKey(userID, listID)
	if err != nil {
		return List{}, err
	}
	row, err := s.q.GetShoppingListForUser(ctx, key)
	if errors.Is(err, pgx.ErrNoRows) {
		return List{}, common.NotFound("list not found")
	}
	if err != nil {
		return List{}, fmt.Errorf("get list: %w", err)
	}
	return convertList(row), nil
}

// RequireOwnership fails with FORBIDDEN unless userID owns listID.
func (s *Service) RequireOwnership(ctx context.Context, listID, userID string) error {
	_, err := s.Get(ctx, userID, listID)
	if common.HasCode(err, common.CodeNotFound) {
		return common.Forbidden("list does not belong to the user")
	}
	return err
}

// SetStatus archives or reactivates a list.
func (s *Service) SetStatus(ctx context.Context, userID, listID, status string) (List, error) {
	key, err := ownerKey(userID, listID)
	if err != nil {
		return List{}, err
	}
	affected, err := s.q.UpdateShoppingListStatus(ctx, db.UpdateShoppingListStatusParams{
		ID:     key.ID,
		UserID: key.UserID,
		Status: NormalizeStatus(status),
	})
	if err != nil {
		return List{}, fmt.Errorf("update list status: %w", err)
	}
	if affected == 0 {
		return List{}, common.NotFound("list not found")
	}
	return s.Get(ctx, userID, listID)
}

// Delete removes a list the user owns.
func (s *Service) Delete(ctx context.Context, userID, listID string) error {
	key, err := ownerKey(userID, listID)
	if err != nil {
		return err
	}
	affected, err := s.q.DeleteShoppingList(ctx, key)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	if affected == 0 {
		return common.NotFound("list not found")
	}
	return nil
}

func userUUID(userID string) (pgtype.UUID, error) {
	uid, err := db.ParseUUID(userID)
	if err != nil {
		return pgtype.UUID{}, common.AuthRequired()
	}
	return uid, nil
}

func ownerKey(userID, listID string) (db.ShoppingListOwnerParams, error) {
	uid, err := userUUID(userID)
	if err != nil {
		return db.ShoppingListOwnerParams{}, err
	}
	lid, err := db.ParseUUID(listID)
	if err != nil {
		return db.ShoppingListOwnerParams{}, common.Validation("invalid list id")
	}
	return db.ShoppingListOwnerParams{ID: lid, UserID: uid}, nil
}

func convertList(row db.ShoppingList) List {
	return List{
		ID:        db.UUIDString(row.ID),
		Name:      row.Name,
		Status:    NormalizeStatus(row.Status),
		CreatedAt: db.TimeFromPG(row.CreatedAt),
		UpdatedAt: db.TimeFromPG(row.UpdatedAt),
	}
}
