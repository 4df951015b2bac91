package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"shopify-barebone-app/internal/domain"
	"shopify-barebone-app/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runShopRepositoryContract checks the behaviour every ShopRepository driver shares.
// Steps run in order against one shop.
func runShopRepositoryContract(t *testing.T, repo ports.ShopRepository) {
	t.Helper()
	ctx := context.Background()
	shop := fmt.Sprintf("contract-%d.myshopify.com", time.Now().UnixNano())

	t.Run("get absent is nil", func(t *testing.T) {
		data, err := repo.Get(ctx, shop)
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("set absent is not found", func(t *testing.T) {
		err := repo.Set(ctx, shop, &domain.ShopData{AccessToken: "shpat_none"})
		assert.ErrorIs(t, err, domain.ErrShopNotFound)

		data, err := repo.Get(ctx, shop)
		require.NoError(t, err)
		assert.Nil(t, data, "a failed set creates nothing")
	})

	t.Run("get after insert", func(t *testing.T) {
		require.NoError(t, repo.Insert(ctx, shop, &domain.ShopData{AccessToken: "shpat_1", Scope: "read_orders"}))

		data, err := repo.Get(ctx, shop)
		require.NoError(t, err)
		assert.Equal(t, &domain.ShopData{AccessToken: "shpat_1", Scope: "read_orders"}, data)
	})

	t.Run("insert existing fails and keeps data", func(t *testing.T) {
		err := repo.Insert(ctx, shop, &domain.ShopData{AccessToken: "shpat_dup"})
		assert.ErrorIs(t, err, domain.ErrShopExists)

		data, err := repo.Get(ctx, shop)
		require.NoError(t, err)
		require.NotNil(t, data)
		assert.Equal(t, "shpat_1", data.AccessToken)
	})

	t.Run("get after set", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, shop, &domain.ShopData{AccessToken: "shpat_2", Scope: "write_products"}))

		data, err := repo.Get(ctx, shop)
		require.NoError(t, err)
		assert.Equal(t, &domain.ShopData{AccessToken: "shpat_2", Scope: "write_products"}, data)
	})

	t.Run("set with unchanged data succeeds", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, shop, &domain.ShopData{AccessToken: "shpat_2", Scope: "write_products"}))
	})

	t.Run("shops are independent", func(t *testing.T) {
		other := "other-" + shop
		require.NoError(t, repo.Insert(ctx, other, &domain.ShopData{AccessToken: "shpat_other"}))

		data, err := repo.Get(ctx, shop)
		require.NoError(t, err)
		assert.Equal(t, "shpat_2", data.AccessToken)
	})
}
