package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"shopify-barebone-app/internal/domain"
	"shopify-barebone-app/internal/ports"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const appHandleQuery = `{
  app {
    handle
  }
}`

// TokenValidator reports whether a stored access token still works
type TokenValidator interface {
	ValidateToken(ctx context.Context, shopDomain string, token string) bool
}

// GraphQLRunner runs Admin API documents on behalf of an installed shop
type GraphQLRunner interface {
	Query(ctx context.Context, shop string, query string, variables map[string]interface{}) (json.RawMessage, error)
}

// ShopifyService handles installation and Admin API access for shops
type ShopifyService struct {
	repository ports.ShopRepository
	client     ports.ShopifyClient
	validator  TokenValidator
	logger     zerolog.Logger
}

// NewShopifyService creates a new Shopify service
func NewShopifyService(
	repository ports.ShopRepository,
	client ports.ShopifyClient,
	validator TokenValidator,
	logger zerolog.Logger,
) *ShopifyService {
	return &ShopifyService{
		repository: repository,
		client:     client,
		validator:  validator,
		logger:     logger,
	}
}

// AuthorizeURL returns the OAuth URL that brings the merchant back to /callback on host.
// Any port is dropped since the app is reached through Shopify over https.
func (s *ShopifyService) AuthorizeURL(shop, host string) string {
	if hostname, _, err := net.SplitHostPort(host); err == nil {
		host = hostname
	}
	return s.client.AuthorizeURL(shop, "https://"+host+"/callback")
}

// NeedsInstall reports whether the shop has no credential or a credential
// the Admin API no longer accepts.
func (s *ShopifyService) NeedsInstall(ctx context.Context, shop string) (bool, error) {
	data, err := s.repository.Get(ctx, shop)
	if err != nil {
		return false, fmt.Errorf("failed to load shop: %w", err)
	}
	if data == nil {
		s.logger.Info().Str("shop", shop).Msg("No shop data")
		return true, nil
	}
	if !s.validator.ValidateToken(ctx, shop, data.AccessToken) {
		s.logger.Info().Str("shop", shop).Msg("The stored access token is invalid")
		return true, nil
	}
	return false, nil
}

// Install exchanges the OAuth code, stores the credential and returns the
// app handle used to build the admin redirect.
func (s *ShopifyService) Install(ctx context.Context, shop, code string) (string, error) {
	data, err := s.client.ExchangeToken(ctx, shop, code)
	if err != nil {
		return "", err
	}

	if err := s.SaveShop(ctx, shop, data); err != nil {
		return "", err
	}

	res, err := s.client.GraphQL(ctx, shop, data.AccessToken, appHandleQuery, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get app handle: %w", err)
	}
	handle := gjson.GetBytes(res, "app.handle").String()
	if handle == "" {
		return "", fmt.Errorf("failed to get app handle: empty response")
	}

	s.logger.Info().Str("shop", shop).Str("handle", handle).Msg("App installed")
	return handle, nil
}

// SaveShop inserts the credential when absent and replaces it otherwise
func (s *ShopifyService) SaveShop(ctx context.Context, shop string, data *domain.ShopData) error {
	existing, err := s.repository.Get(ctx, shop)
	if err != nil {
		return fmt.Errorf("failed to load shop: %w", err)
	}

	if existing == nil {
		err = s.repository.Insert(ctx, shop, data)
		// a concurrent callback may have created it first
		if errors.Is(err, domain.ErrShopExists) {
			err = s.repository.Set(ctx, shop, data)
		}
	} else {
		err = s.repository.Set(ctx, shop, data)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to save shop")
		return fmt.Errorf("failed to save shop: %w", err)
	}
	return nil
}

// GetShop returns the stored credential for a shop, or ErrShopNotFound
func (s *ShopifyService) GetShop(ctx context.Context, shop string) (*domain.ShopData, error) {
	data, err := s.repository.Get(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("%s: %w", shop, domain.ErrShopNotFound)
	}
	return data, nil
}

// Query runs an Admin GraphQL document with the shop's stored token
func (s *ShopifyService) Query(ctx context.Context, shop string, query string, variables map[string]interface{}) (json.RawMessage, error) {
	data, err := s.GetShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	return s.client.GraphQL(ctx, shop, data.AccessToken, query, variables)
}
