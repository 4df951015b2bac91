package shopify

import (
	"context"

	"shopify-barebone-app/internal/ports"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const shopNameQuery = `{
  shop {
    name
  }
}`

// TokenManager checks stored access tokens against the Admin API
type TokenManager struct {
	client ports.ShopifyClient
	logger zerolog.Logger
}

// NewTokenManager creates a new token manager
func NewTokenManager(client ports.ShopifyClient, logger zerolog.Logger) *TokenManager {
	return &TokenManager{
		client: client,
		logger: logger,
	}
}

// ValidateToken makes a lightweight shop query with the token. Any failure,
// including a response without shop.name, marks the token as unusable so the
// caller restarts OAuth.
func (tm *TokenManager) ValidateToken(ctx context.Context, shopDomain string, token string) bool {
	if token == "" || shopDomain == "" {
		return false
	}

	data, err := tm.client.GraphQL(ctx, shopDomain, token, shopNameQuery, nil)
	if err != nil {
		tm.logger.Warn().
			Err(err).
			Str("shop", shopDomain).
			Msg("Token validation failed: token is invalid or revoked")
		return false
	}

	if !gjson.GetBytes(data, "shop.name").Exists() {
		tm.logger.Warn().
			Str("shop", shopDomain).
			Msg("Token validation failed: shop name missing from response")
		return false
	}

	tm.logger.Debug().
		Str("shop", shopDomain).
		Msg("Token validation successful")
	return true
}
