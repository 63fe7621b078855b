package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Querier lists every query exposed by Queries. Packages depend on the narrow
// subset they need.
type Querier interface {
	GetProfile(ctx context.Context, id pgtype.UUID) (Profile, error)
	UpsertProfileUF(ctx context.Context, arg UpsertProfileUFParams) (Profile, error)

	ListCategories(ctx context.Context) ([]Category, error)
	GetCategoryByID(ctx context.Context, id pgtype.UUID) (Category, error)
	UpsertCategory(ctx context.Context, arg UpsertCategoryParams) (Category, error)

	CreateShoppingList(ctx context.Context, arg CreateShoppingListParams) (ShoppingList, error)
	ListShoppingListsByUser(ctx context.Context, userID pgtype.UUID) ([]ShoppingList, error)
	GetShoppingListForUser(ctx context.Context, arg ShoppingListOwnerParams) (ShoppingList, error)
	UpdateShoppingListStatus(ctx context.Context, arg UpdateShoppingListStatusParams) (int64, error)
	DeleteShoppingList(ctx context.Context, arg ShoppingListOwnerParams) (int64, error)

	CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error)
	GetActiveProduct(ctx context.Context, id pgtype.UUID) (Product, error)
	ListUserProducts(ctx context.Context, ownerUserID pgtype.UUID) ([]UserProductRow, error)
	DeactivateProduct(ctx context.Context, arg DeactivateProductParams) (int64, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, error)

	ListItemsForEstimate(ctx context.Context, listID pgtype.UUID) ([]ListItemRow, error)
	ListItemsByProducts(ctx context.Context, arg ListItemsByProductsParams) ([]ListItem, error)
	GetListItem(ctx context.Context, arg ListItemKeyParams) (ListItem, error)
	CreateListItem(ctx context.Context, arg CreateListItemParams) (ListItem, error)
	UpdateListItem(ctx context.Context, arg UpdateListItemParams) (int64, error)
	MarkListItemPurchased(ctx context.Context, arg MarkListItemPurchasedParams) (int64, error)
	DeleteListItem(ctx context.Context, arg ListItemKeyParams) (int64, error)

	ListUserPrices(ctx context.Context, arg ListUserPricesParams) ([]UserPriceRow, error)
	InsertUserPrice(ctx context.Context, arg InsertUserPriceParams) error
	ListRegionalPrices(ctx context.Context, arg ListRegionalPricesParams) ([]RegionalPriceRow, error)
	UpsertRegionalPrice(ctx context.Context, arg UpsertRegionalPriceParams) error
}
