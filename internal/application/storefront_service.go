package application

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/rs/zerolog"
)

const storefrontAccessTokenCreateMutation = `mutation storefrontAccessTokenCreate($input: StorefrontAccessTokenInput!) {
  storefrontAccessTokenCreate(input: $input) {
    storefrontAccessToken {
      accessToken
      title
      createdAt
      accessScopes {
        handle
      }
    }
    shop {
      id
    }
    userErrors {
      field
      message
    }
  }
}`

const appProxyProductsQuery = `{
  products(first: 5) {
    edges {
      node {
        id
        title
        handle
      }
    }
  }
}`

const storefrontTokenTitle = "Barebone app storefront token"

// StorefrontService covers storefront facing features: Storefront API tokens and the app proxy
type StorefrontService struct {
	gql    GraphQLRunner
	logger zerolog.Logger
}

// NewStorefrontService creates a new storefront service
func NewStorefrontService(gql GraphQLRunner, logger zerolog.Logger) *StorefrontService {
	return &StorefrontService{gql: gql, logger: logger}
}

// CreateAccessToken issues a Storefront API access token
func (s *StorefrontService) CreateAccessToken(ctx context.Context, shop string) (json.RawMessage, error) {
	s.logger.Info().Str("shop", shop).Msg("Creating storefront access token")
	return s.gql.Query(ctx, shop, storefrontAccessTokenCreateMutation, map[string]interface{}{
		"input": map[string]string{"title": storefrontTokenTitle},
	})
}

// AppProxyResponse is the JSON served to storefront pages through the app proxy
type AppProxyResponse struct {
	Shop       string          `json:"shop"`
	CustomerID string          `json:"logged_in_customer_id"`
	PathPrefix string          `json:"path_prefix"`
	Products   json.RawMessage `json:"products"`
}

// AppProxy builds the proxy payload from the signed query and the shop's products
func (s *StorefrontService) AppProxy(ctx context.Context, query url.Values) (*AppProxyResponse, error) {
	shop := query.Get("shop")
	data, err := s.gql.Query(ctx, shop, appProxyProductsQuery, nil)
	if err != nil {
		return nil, err
	}
	return &AppProxyResponse{
		Shop:       shop,
		CustomerID: query.Get("logged_in_customer_id"),
		PathPrefix: query.Get("path_prefix"),
		Products:   data,
	}, nil
}
