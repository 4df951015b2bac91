package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopify-barebone-app/internal/domain"
	"shopify-barebone-app/internal/ports"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "shops:"

// RedisRepository implements ShopRepository with one JSON value per shop
type RedisRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRepository creates a repository over an existing client
func NewRedisRepository(client *redis.Client) ports.ShopRepository {
	return &RedisRepository{client: client, now: time.Now}
}

// ConnectRedis parses a redis:// URL and pings the server
func ConnectRedis(ctx context.Context, url string) (ports.ShopRepository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return NewRedisRepository(client), nil
}

func redisKey(shop string) string {
	return redisKeyPrefix + shop
}

// Get retrieves the shop data by domain
func (r *RedisRepository) Get(ctx context.Context, shop string) (*domain.ShopData, error) {
	cred, err := r.load(ctx, shop)
	if err != nil || cred == nil {
		return nil, err
	}
	return &cred.Data, nil
}

// Insert creates the shop record only if the key does not exist
func (r *RedisRepository) Insert(ctx context.Context, shop string, data *domain.ShopData) error {
	now := r.now().UTC()
	payload, err := json.Marshal(&domain.ShopCredential{
		Shop:      shop,
		Data:      *data,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to encode shop: %w", err)
	}

	ok, err := r.client.SetNX(ctx, redisKey(shop), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to insert shop: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to insert shop %s: %w", shop, domain.ErrShopExists)
	}
	return nil
}

// Set replaces the data of an existing record, keeping created_at
func (r *RedisRepository) Set(ctx context.Context, shop string, data *domain.ShopData) error {
	cred, err := r.load(ctx, shop)
	if err != nil {
		return err
	}
	if cred == nil {
		return fmt.Errorf("failed to update shop %s: %w", shop, domain.ErrShopNotFound)
	}

	cred.Data = *data
	cred.UpdatedAt = r.now().UTC()
	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode shop: %w", err)
	}

	ok, err := r.client.SetXX(ctx, redisKey(shop), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update shop: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to update shop %s: %w", shop, domain.ErrShopNotFound)
	}
	return nil
}

// Close closes the client
func (r *RedisRepository) Close(_ context.Context) error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}
	return nil
}

func (r *RedisRepository) load(ctx context.Context, shop string) (*domain.ShopCredential, error) {
	raw, err := r.client.Get(ctx, redisKey(shop)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	var cred domain.ShopCredential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("failed to decode shop: %w", err)
	}
	return &cred, nil
}
