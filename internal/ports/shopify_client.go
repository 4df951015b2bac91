package ports

import (
	"context"
	"encoding/json"

	"shopify-barebone-app/internal/domain"
)

// ShopifyClient defines the Shopify operations the app performs
type ShopifyClient interface {
	// Authentication
	AuthorizeURL(shop string, redirectURI string) string
	ExchangeToken(ctx context.Context, shop string, code string) (*domain.ShopData, error)

	// GraphQL returns the data member of an Admin API response. Top-level
	// GraphQL errors are returned as an error.
	GraphQL(ctx context.Context, shop string, accessToken string, query string, variables map[string]interface{}) (json.RawMessage, error)
}
