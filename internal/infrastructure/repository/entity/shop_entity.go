package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"shopify-barebone-app/internal/domain"
)

// MongoShopDoc represents a shop credential in MongoDB
type MongoShopDoc struct {
	ID        string          `bson:"_id"`
	Data      domain.ShopData `bson:"data"`
	CreatedAt time.Time       `bson:"created_at"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoShopDoc) ToDomain() *domain.ShopCredential {
	return &domain.ShopCredential{
		Shop:      d.ID,
		Data:      d.Data,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoShopDocFromDomain converts a domain entity to a MongoDB document
func MongoShopDocFromDomain(c *domain.ShopCredential) *MongoShopDoc {
	return &MongoShopDoc{
		ID:        c.Shop,
		Data:      c.Data,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// SQLShopRow represents a row of the shops table. data holds the JSON blob.
type SQLShopRow struct {
	ID        string    `db:"_id"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ToDomain decodes the row into a domain entity
func (r *SQLShopRow) ToDomain() (*domain.ShopCredential, error) {
	var data domain.ShopData
	if err := json.Unmarshal(r.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode shop data: %w", err)
	}
	return &domain.ShopCredential{
		Shop:      r.ID,
		Data:      data,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

// SQLShopRowFromDomain encodes a domain entity into a row
func SQLShopRowFromDomain(c *domain.ShopCredential) (*SQLShopRow, error) {
	data, err := json.Marshal(c.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shop data: %w", err)
	}
	return &SQLShopRow{
		ID:        c.Shop,
		Data:      data,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}
