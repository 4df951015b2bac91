package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"shopify-barebone-app/internal/domain"
	"shopify-barebone-app/internal/infrastructure/metrics"
	"shopify-barebone-app/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout  = 30 * time.Second
	accessTokenPath = "admin/oauth/access_token"
)

type client struct {
	app        goshopify.App
	apiVersion string
	scopes     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Shopify client adapter
func NewClient(apiKey, apiSecret, apiVersion, scopes string, logger zerolog.Logger) ports.ShopifyClient {
	return NewClientWithOptions(apiKey, apiSecret, apiVersion, scopes, &http.Client{Timeout: defaultTimeout}, logger)
}

// NewClientWithOptions creates a client with a caller supplied HTTP client
func NewClientWithOptions(
	apiKey, apiSecret, apiVersion, scopes string,
	httpClient *http.Client,
	logger zerolog.Logger,
) ports.ShopifyClient {
	app := goshopify.App{
		ApiKey:    apiKey,
		ApiSecret: apiSecret,
		Scope:     scopes,
	}
	return &client{
		app:        app,
		apiVersion: apiVersion,
		scopes:     scopes,
		httpClient: httpClient,
		logger:     logger,
	}
}

// createClient is a helper to create a goshopify client bound to a shop
func (c *client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	client, err := goshopify.NewClient(c.app, shopDomain, accessToken,
		goshopify.WithVersion(c.apiVersion),
		goshopify.WithHTTPClient(c.httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// Authentication methods

// AuthorizeURL builds the OAuth authorize URL. state and grant_options[] are
// sent empty, which requests an offline token.
func (c *client) AuthorizeURL(shop string, redirectURI string) string {
	authURL := fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=&grant_options[]=",
		shop,
		url.QueryEscape(c.app.ApiKey),
		url.QueryEscape(c.scopes),
		url.QueryEscape(redirectURI),
	)

	c.logger.Info().
		Str("shop", shop).
		Str("scopes", c.scopes).
		Str("redirect_uri", redirectURI).
		Msg("Generated OAuth authorization URL")

	return authURL
}

// ExchangeToken trades the OAuth code for an offline access token. It goes
// through the goshopify client rather than App.GetAccessToken, which keeps
// only access_token and drops the granted scope.
func (c *client) ExchangeToken(ctx context.Context, shop string, code string) (*domain.ShopData, error) {
	client, err := c.createClient(shop, "")
	if err != nil {
		return nil, err
	}

	body := struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
		Code         string `json:"code"`
	}{
		ClientID:     c.app.ApiKey,
		ClientSecret: c.app.ApiSecret,
		Code:         code,
	}

	req, err := client.NewRequest(ctx, http.MethodPost, accessTokenPath, body, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	var tokenResponse domain.ShopData
	if err := client.Do(req, &tokenResponse); err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}
	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("failed to exchange token: response has no access_token")
	}

	c.logger.Info().Str("shop", shop).Str("scope", tokenResponse.Scope).Msg("Exchanged OAuth code for access token")
	return &tokenResponse, nil
}

// GraphQL API

func (c *client) GraphQL(
	ctx context.Context,
	shopDomain string,
	accessToken string,
	query string,
	variables map[string]interface{},
) (json.RawMessage, error) {
	op, err := DescribeOperation(query)
	if err != nil {
		return nil, err
	}

	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}

	var vars interface{}
	if len(variables) > 0 {
		vars = variables
	}

	var data json.RawMessage
	start := time.Now()
	err = client.GraphQL.Query(ctx, query, vars, &data)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordAdminCall(op.Name, op.Kind, metrics.OutcomeError, elapsed)
		c.logger.Error().
			Err(err).
			Str("shop", shopDomain).
			Str("operation", op.Name).
			Str("kind", op.Kind).
			Msg("Admin GraphQL call failed")
		return nil, fmt.Errorf("failed to call Admin GraphQL API: %w", err)
	}

	metrics.RecordAdminCall(op.Name, op.Kind, metrics.OutcomeSuccess, elapsed)
	c.logger.Debug().
		Str("shop", shopDomain).
		Str("operation", op.Name).
		Str("kind", op.Kind).
		Dur("elapsed", elapsed).
		Msg("Admin GraphQL call succeeded")

	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return data, nil
}
