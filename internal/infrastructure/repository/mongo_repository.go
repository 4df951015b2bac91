package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-barebone-app/internal/domain"
	"shopify-barebone-app/internal/infrastructure/repository/entity"
	"shopify-barebone-app/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const shopsCollection = "shops"

// MongoRepository implements ShopRepository using MongoDB
type MongoRepository struct {
	client          *mongo.Client
	shopsCollection *mongo.Collection
	now             func() time.Time
}

// NewMongoRepository creates a repository over an existing database handle
func NewMongoRepository(db *mongo.Database) ports.ShopRepository {
	return &MongoRepository{
		client:          db.Client(),
		shopsCollection: db.Collection(shopsCollection),
		now:             time.Now,
	}
}

// ConnectMongo dials MongoDB and returns a repository owning the client
func ConnectMongo(ctx context.Context, uri, dbName string) (ports.ShopRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return NewMongoRepository(client.Database(dbName)), nil
}

// Get retrieves the shop data by domain
func (r *MongoRepository) Get(ctx context.Context, shop string) (*domain.ShopData, error) {
	var doc entity.MongoShopDoc
	filter := bson.M{"_id": shop}

	err := r.shopsCollection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	return &doc.ToDomain().Data, nil
}

// Insert creates a new shop document
func (r *MongoRepository) Insert(ctx context.Context, shop string, data *domain.ShopData) error {
	now := r.now()
	doc := entity.MongoShopDocFromDomain(&domain.ShopCredential{
		Shop:      shop,
		Data:      *data,
		CreatedAt: now,
		UpdatedAt: now,
	})

	_, err := r.shopsCollection.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to insert shop %s: %w", shop, domain.ErrShopExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert shop: %w", err)
	}

	return nil
}

// Set replaces the data of an existing shop document
func (r *MongoRepository) Set(ctx context.Context, shop string, data *domain.ShopData) error {
	filter := bson.M{"_id": shop}
	update := bson.M{"$set": bson.M{
		"data":       data,
		"updated_at": r.now(),
	}}

	res, err := r.shopsCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update shop: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to update shop %s: %w", shop, domain.ErrShopNotFound)
	}

	return nil
}

// Close disconnects the underlying client
func (r *MongoRepository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}
