package shoppinglist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lista/internal/common"
	"github.com/noah-isme/backend-lista/internal/db"
)

const (
	ownerID = "9b2f4c8e-1d3a-4e5f-8a7b-1c2d3e4f5a6b"
	otherID = "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
)

type memQueries struct {
	lists map[[16]byte]db.ShoppingList
	err   error
}

func newMem() *memQueries {
	return &memQueries{lists: map[[16]byte]db.ShoppingList{}}
}

func (m *memQueries) CreateShoppingList(ctx context.Context, arg db.CreateShoppingListParams) (db.ShoppingList, error) {
	if m.err != nil {
		return db.ShoppingList{}, m.err
	}
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	row := db.ShoppingList{
		ID:        pgtype.UUID{Bytes: uuid.New(), Valid: true},
		UserID:    arg.UserID,
		Name:      arg.Name,
		Status:    arg.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.lists[row.ID.Bytes] = row
	return row, nil
}

func (m *memQueries) ListShoppingListsByUser(ctx context.Context, userID pgtype.UUID) ([]db.ShoppingList, error) {
	var out []db.ShoppingList
	for _, l := range m.lists {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, m.err
}

func (m *memQueries) GetShoppingListForUser(ctx context.Context, arg db.ShoppingListOwnerParams) (db.ShoppingList, error) {
	if m.err != nil {
		return db.ShoppingList{}, m.err
	}
	l, ok := m.lists[arg.ID.Bytes]
	if !ok || l.UserID != arg.UserID {
		return db.ShoppingList{}, pgx.ErrNoRows
	}
	return l, nil
}

func (m *memQueries) UpdateShoppingListStatus(ctx context.Context, arg db.UpdateShoppingListStatusParams) (int64, error) {
	l, ok := m.lists[arg.ID.Bytes]
	if !ok || l.UserID != arg.UserID {
		return 0, m.err
	}
	l.Status = arg.Status
	m.lists[arg.ID.Bytes] = l
	return 1, m.err
}

func (m *memQueries) DeleteShoppingList(ctx context.Context, arg db.ShoppingListOwnerParams) (int64, error) {
	l, ok := m.lists[arg.ID.Bytes]
	if !ok || l.UserID != arg.UserID {
		return 0, m.err
	}
	delete(m.lists, arg.ID.Bytes)
	return 1, m.err
}

func TestCreateValidatesName(t *testing.T) {
	svc := NewService(newMem())
	ctx := context.Background()

	_, err := svc.Create(ctx, ownerID, "   ")
	require.True(t, common.HasCode(err, common.CodeValidation))

	_, err = svc.Create(ctx, ownerID, strings.Repeat("á", MaxNameLength+1))
	require.True(t, common.HasCode(err, common.CodeValidation))

	list, err := svc.Create(ctx, ownerID, "  Feira da semana ")
	require.NoError(t, err)
	require.Equal(t, "Feira da semana", list.Name)
	require.Equal(t, StatusActive, list.Status)
}

func TestCreateRequiresValidUser(t *testing.T) {
	_, err := NewService(newMem()).Create(context.Background(), "", "Mercado")
	require.True(t, common.HasCode(err, common.CodeAuthRequired))
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc := NewService(newMem())
	ctx := context.Background()
	list, err := svc.Create(ctx, ownerID, "Mercado")
	require.NoError(t, err)

	_, err = svc.Get(ctx, otherID, list.ID)
	require.True(t, common.HasCode(err, common.CodeNotFound))

	require.NoError(t, svc.RequireOwnership(ctx, list.ID, ownerID))
	err = svc.RequireOwnership(ctx, list.ID, otherID)
	require.True(t, common.HasCode(err, common.CodeForbidden))

	_, err = svc.Get(ctx, ownerID, "nope")
	require.True(t, common.HasCode(err, common.CodeValidation))
}

func TestSetStatusNormalizes(t *testing.T) {
	svc := NewService(newMem())
	ctx := context.Background()
	list, err := svc.Create(ctx, ownerID, "Mercado")
	require.NoError(t, err)

	updated, err := svc.SetStatus(ctx, ownerID, list.ID, "archived")
	require.NoError(t, err)
	require.Equal(t, StatusArchived, updated.Status)

	updated, err = svc.SetStatus(ctx, ownerID, list.ID, "whatever")
	require.NoError(t, err)
	require.Equal(t, StatusActive, updated.Status)

	_, err = svc.SetStatus(ctx, otherID, list.ID, "archived")
	require.True(t, common.HasCode(err, common.CodeNotFound))
}

func TestDelete(t *testing.T) {
	mem := newMem()
	svc := NewService(mem)
	ctx := context.Background()
	list, err := svc.Create(ctx, ownerID, "Mercado")
	require.NoError(t, err)

	err = svc.Delete(ctx, otherID, list.ID)
	require.True(t, common.HasCode(err, common.CodeNotFound))
	require.NoError(t, svc.Delete(ctx, ownerID, list.ID))
	require.Empty(t, mem.lists)
}

func TestPersistenceErrorsAreWrapped(t *testing.T) {
	mem := newMem()
	mem.err = errors.New("pool closed")
	_, err := NewService(mem).List(context.Background(), ownerID)
	require.EqualError(t, err, "list lists: pool closed")
	require.False(t, common.IsAppError(err))
}
