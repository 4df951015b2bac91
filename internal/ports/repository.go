package ports

import (
	"context"

	"shopify-barebone-app/internal/domain"
)

// ShopRepository persists the credential blob stored per shop domain.
// Get returns nil, nil when no record exists.
type ShopRepository interface {
	Get(ctx context.Context, shop string) (*domain.ShopData, error)
	// Insert creates the record and fails with domain.ErrShopExists if one is present
	Insert(ctx context.Context, shop string, data *domain.ShopData) error
	// Set replaces the data of an existing record and fails with domain.ErrShopNotFound otherwise
	Set(ctx context.Context, shop string, data *domain.ShopData) error
	Close(ctx context.Context) error
}
