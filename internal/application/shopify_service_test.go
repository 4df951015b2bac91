package application

import (
	"context"
	"errors"
	"testing"

	"shopify-barebone-app/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShop = "demo.myshopify.com"

func TestShopifyService_NeedsInstall(t *testing.T) {
	tests := []struct {
		name   string
		stored *domain.ShopData
		valid  bool
		want   bool
	}{
		{name: "no credential", stored: nil, valid: true, want: true},
		{name: "revoked token", stored: &domain.ShopData{AccessToken: "old"}, valid: false, want: true},
		{name: "working token", stored: &domain.ShopData{AccessToken: "ok"}, valid: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			if tt.stored != nil {
				repo.shops[testShop] = tt.stored
			}
			svc := NewShopifyService(repo, &fakeShopifyClient{}, fakeValidator(tt.valid), zerolog.Nop())

			got, err := svc.NeedsInstall(context.Background(), testShop)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShopifyService_NeedsInstall_RepositoryError(t *testing.T) {
	repo := newFakeRepository()
	repo.getErr = errors.New("connection refused")
	svc := NewShopifyService(repo, &fakeShopifyClient{}, fakeValidator(true), zerolog.Nop())

	_, err := svc.NeedsInstall(context.Background(), testShop)
	assert.ErrorContains(t, err, "connection refused")
}

func TestShopifyService_Install(t *testing.T) {
	repo := newFakeRepository()
	gql := (&fakeGraphQL{}).on("app {", `{"app":{"handle":"barebone-app"}}`)
	client := &fakeShopifyClient{exchanged: &domain.ShopData{AccessToken: "shpat_new", Scope: "read_orders"}, gql: gql}
	svc := NewShopifyService(repo, client, fakeValidator(true), zerolog.Nop())

	handle, err := svc.Install(context.Background(), testShop, "code-123")
	require.NoError(t, err)
	assert.Equal(t, "barebone-app", handle)
	assert.Equal(t, "shpat_new", repo.shops[testShop].AccessToken)
	assert.Equal(t, 1, repo.inserts)
	assert.Equal(t, []string{"shpat_new"}, client.tokens)
}

func TestShopifyService_Install_EmptyHandle(t *testing.T) {
	client := &fakeShopifyClient{exchanged: &domain.ShopData{AccessToken: "shpat_new"}, gql: &fakeGraphQL{}}
	svc := NewShopifyService(newFakeRepository(), client, fakeValidator(true), zerolog.Nop())

	_, err := svc.Install(context.Background(), testShop, "code-123")
	assert.ErrorContains(t, err, "failed to get app handle")
}

func TestShopifyService_SaveShop(t *testing.T) {
	t.Run("replaces existing credential", func(t *testing.T) {
		repo := newFakeRepository()
		repo.shops[testShop] = &domain.ShopData{AccessToken: "old"}
		svc := NewShopifyService(repo, &fakeShopifyClient{}, fakeValidator(true), zerolog.Nop())

		require.NoError(t, svc.SaveShop(context.Background(), testShop, &domain.ShopData{AccessToken: "new"}))
		assert.Equal(t, 0, repo.inserts)
		assert.Equal(t, 1, repo.sets)
		assert.Equal(t, "new", repo.shops[testShop].AccessToken)
	})

	t.Run("falls back to set when insert races", func(t *testing.T) {
		repo := newFakeRepository()
		repo.insertErr = domain.ErrShopExists
		svc := NewShopifyService(repo, &fakeShopifyClient{}, fakeValidator(true), zerolog.Nop())

		require.NoError(t, svc.SaveShop(context.Background(), testShop, &domain.ShopData{AccessToken: "new"}))
		assert.Equal(t, 1, repo.inserts)
		assert.Equal(t, 1, repo.sets)
	})
}

func TestShopifyService_Query(t *testing.T) {
	repo := newFakeRepository()
	gql := (&fakeGraphQL{}).on("shop {", `{"shop":{"name":"Demo"}}`)
	client := &fakeShopifyClient{gql: gql}
	svc := NewShopifyService(repo, client, fakeValidator(true), zerolog.Nop())

	_, err := svc.Query(context.Background(), testShop, `{ shop { name } }`, nil)
	assert.ErrorIs(t, err, domain.ErrShopNotFound)

	repo.shops[testShop] = &domain.ShopData{AccessToken: "shpat_stored"}
	data, err := svc.Query(context.Background(), testShop, `{ shop { name } }`, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"shop":{"name":"Demo"}}`, string(data))
	assert.Equal(t, []string{"shpat_stored"}, client.tokens)
}

func TestShopifyService_AuthorizeURL(t *testing.T) {
	svc := NewShopifyService(newFakeRepository(), &fakeShopifyClient{}, fakeValidator(true), zerolog.Nop())
	assert.Contains(t, svc.AuthorizeURL(testShop, "app.example.com"), "redirect_uri=https://app.example.com/callback")
	assert.Contains(t, svc.AuthorizeURL(testShop, "app.example.com:3000"), "redirect_uri=https://app.example.com/callback")
}
