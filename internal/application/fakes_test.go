package application

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"shopify-barebone-app/internal/domain"
)

type gqlCall struct {
	shop      string
	query     string
	variables map[string]interface{}
}

type gqlRule struct {
	match    string
	response string
}

// fakeGraphQL answers with the first rule whose match occurs in the document
type fakeGraphQL struct {
	mu    sync.Mutex
	rules []gqlRule
	calls []gqlCall
	err   error
}

func (f *fakeGraphQL) on(match, response string) *fakeGraphQL {
	f.rules = append(f.rules, gqlRule{match: match, response: response})
	return f
}

func (f *fakeGraphQL) Query(ctx context.Context, shop string, query string, variables map[string]interface{}) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, gqlCall{shop: shop, query: query, variables: variables})
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rules {
		if strings.Contains(query, r.match) {
			return json.RawMessage(r.response), nil
		}
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeGraphQL) callsMatching(match string) []gqlCall {
	var out []gqlCall
	for _, c := range f.calls {
		if strings.Contains(c.query, match) {
			out = append(out, c)
		}
	}
	return out
}

type fakeRepository struct {
	shops     map[string]*domain.ShopData
	getErr    error
	insertErr error
	inserts   int
	sets      int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{shops: map[string]*domain.ShopData{}}
}

func (r *fakeRepository) Get(ctx context.Context, shop string) (*domain.ShopData, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.shops[shop], nil
}

func (r *fakeRepository) Insert(ctx context.Context, shop string, data *domain.ShopData) error {
	r.inserts++
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.shops[shop]; ok {
		return domain.ErrShopExists
	}
	r.shops[shop] = data
	return nil
}

func (r *fakeRepository) Set(ctx context.Context, shop string, data *domain.ShopData) error {
	r.sets++
	r.shops[shop] = data
	return nil
}

func (r *fakeRepository) Close(ctx context.Context) error { return nil }

type fakeShopifyClient struct {
	exchanged *domain.ShopData
	gql       *fakeGraphQL
	tokens    []string
}

func (c *fakeShopifyClient) AuthorizeURL(shop, redirectURI string) string {
	return "https://" + shop + "/admin/oauth/authorize?redirect_uri=" + redirectURI
}

func (c *fakeShopifyClient) ExchangeToken(ctx context.Context, shop, code string) (*domain.ShopData, error) {
	return c.exchanged, nil
}

func (c *fakeShopifyClient) GraphQL(ctx context.Context, shop, accessToken, query string, variables map[string]interface{}) (json.RawMessage, error) {
	c.tokens = append(c.tokens, accessToken)
	return c.gql.Query(ctx, shop, query, variables)
}

type fakeValidator bool

func (v fakeValidator) ValidateToken(ctx context.Context, shop, token string) bool { return bool(v) }

type fakeMultipassEncoder struct {
	token    string
	err      error
	secret   string
	customer map[string]interface{}
}

func (f *fakeMultipassEncoder) Encode(secret string, customer map[string]interface{}) (string, error) {
	f.secret = secret
	f.customer = customer
	return f.token, f.err
}
