package domain

import (
	"strings"
	"time"
)

// ShopData is the blob persisted per shop after a successful OAuth callback
type ShopData struct {
	AccessToken string `json:"access_token" bson:"access_token"`
	Scope       string `json:"scope,omitempty" bson:"scope,omitempty"`
}

// ShopCredential is the stored record keyed by shop domain
type ShopCredential struct {
	Shop      string    `json:"_id" bson:"_id"`
	Data      ShopData  `json:"data" bson:"data"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

const myshopifySuffix = ".myshopify.com"

// IsValidShopDomain reports whether shop looks like a *.myshopify.com domain
func IsValidShopDomain(shop string) bool {
	if !strings.HasSuffix(shop, myshopifySuffix) {
		return false
	}
	if strings.ContainsAny(shop, "/ ?#@:") {
		return false
	}
	return len(shop) > len(myshopifySuffix)
}

// StoreHandle returns the store name used in admin.shopify.com URLs
func StoreHandle(shop string) string {
	return strings.TrimSuffix(shop, myshopifySuffix)
}

// AdminAppURL returns the embedded app URL inside the unified admin
func AdminAppURL(shop, appHandle string) string {
	return "https://admin.shopify.com/store/" + StoreHandle(shop) + "/apps/" + appHandle
}
