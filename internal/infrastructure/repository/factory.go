package repository

import (
	"context"
	"fmt"

	"shopify-barebone-app/internal/config"
	"shopify-barebone-app/internal/domain"
	"shopify-barebone-app/internal/ports"

	"github.com/rs/zerolog"
)

// NewShopRepository connects the datastore selected by SHOPIFY_DB_TYPE
func NewShopRepository(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (ports.ShopRepository, error) {
	logger.Info().Str("db_type", cfg.DBType).Msg("Connecting shop repository")

	switch cfg.DBType {
	case config.DBTypeMongo:
		return ConnectMongo(ctx, cfg.MongoURL, cfg.MongoDBName)
	case config.DBTypePostgres:
		return ConnectPostgres(ctx, cfg.PostgresURL)
	case config.DBTypeMySQL:
		return ConnectMySQL(ctx, cfg.MySQL.Host, cfg.MySQL.User, cfg.MySQL.Password, cfg.MySQL.Database)
	case config.DBTypeRedis:
		return ConnectRedis(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedDBType, cfg.DBType)
	}
}
