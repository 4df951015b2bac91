package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"shopify-barebone-app/internal/domain"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Metafields read by the checkout and post-purchase extensions
const (
	UpsellMetafieldNamespace = "barebone_app_upsell"
	AppURLKey                = "url"
	ScoreKey                 = "score"
	UpsellProductKey         = "product_id"
	UpsellHandleKey          = "handle"
	MultipassSecretKey       = "multipass_secret"
)

const shopIDQuery = `{
  shop {
    id
  }
}`

const shopMetafieldQuery = `query shopMetafield($namespace: String!, $key: String!) {
  shop {
    metafield(namespace: $namespace, key: $key) {
      value
    }
  }
}`

const metafieldsSetMutation = `mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      id
      namespace
      key
      value
    }
    userErrors {
      field
      message
    }
  }
}`

const metafieldDefinitionCreateMutation = `mutation metafieldDefinitionCreate($definition: MetafieldDefinitionInput!) {
  metafieldDefinitionCreate(definition: $definition) {
    createdDefinition {
      id
      namespace
      key
    }
    userErrors {
      code
      field
      message
    }
  }
}`

const upsellProductsQuery = `query upsellProducts($query: String!) {
  products(first: 10, query: $query) {
    edges {
      node {
        id
        title
        handle
        featuredImage {
          url
        }
        variants(first: 1) {
          edges {
            node {
              id
              price
            }
          }
        }
      }
    }
  }
}`

type metafieldDefinition struct {
	Name      string
	Namespace string
	Key       string
	Type      string
	OwnerType string
}

var checkoutDefinitions = []metafieldDefinition{
	{Name: "Barebone app URL", Namespace: AppMetafieldNamespace, Key: AppURLKey, Type: "single_line_text_field", OwnerType: "SHOP"},
	{Name: "Barebone upsell products", Namespace: UpsellMetafieldNamespace, Key: UpsellProductKey, Type: "list.product_reference", OwnerType: "PRODUCT"},
	{Name: "Barebone review score", Namespace: AppMetafieldNamespace, Key: ScoreKey, Type: "number_integer", OwnerType: "CUSTOMER"},
}

// SetupResult is returned after creating metafield definitions
type SetupResult struct {
	Data       json.RawMessage `json:"data"`
	UserErrors string          `json:"user_errors,omitempty"`
}

// MetafieldService stores the values the extensions read through app metafields
type MetafieldService struct {
	gql    GraphQLRunner
	logger zerolog.Logger
}

// NewMetafieldService creates a new metafield service
func NewMetafieldService(gql GraphQLRunner, logger zerolog.Logger) *MetafieldService {
	return &MetafieldService{gql: gql, logger: logger}
}

// SetupCheckoutExtensions creates the metafield definitions used by checkout
// extensions and stores the app URL in the shop metafield they read.
func (s *MetafieldService) SetupCheckoutExtensions(ctx context.Context, shop, appURL string) (*SetupResult, error) {
	var errs []string
	for _, d := range checkoutDefinitions {
		data, err := s.gql.Query(ctx, shop, metafieldDefinitionCreateMutation, map[string]interface{}{
			"definition": map[string]interface{}{
				"name":      d.Name,
				"namespace": d.Namespace,
				"key":       d.Key,
				"type":      d.Type,
				"ownerType": d.OwnerType,
				"access":    map[string]string{"storefront": "PUBLIC_READ"},
			},
		})
		if err != nil {
			return nil, err
		}
		// an existing definition is fine on re-runs
		if hasUserErrorCode(data, "metafieldDefinitionCreate", "TAKEN") {
			continue
		}
		errs = append(errs, userErrors(data, "metafieldDefinitionCreate")...)
	}

	data, err := s.SetShopMetafield(ctx, shop, AppMetafieldNamespace, AppURLKey, "single_line_text_field", appURL)
	if err != nil {
		return nil, err
	}
	errs = append(errs, userErrors(data, "metafieldsSet")...)

	s.logger.Info().Str("shop", shop).Int("user_errors", len(errs)).Msg("Checkout extension metafields prepared")
	return &SetupResult{Data: data, UserErrors: joinUserErrors(errs)}, nil
}

// SetCustomerScore stores the review score sent from the checkout extension
func (s *MetafieldService) SetCustomerScore(ctx context.Context, shop, customerID, score string) (json.RawMessage, error) {
	if customerID == "" {
		return nil, fmt.Errorf("customer: %w", domain.ErrMissingParameter)
	}
	if score == "" {
		return nil, fmt.Errorf("score: %w", domain.ErrMissingParameter)
	}
	return s.setMetafield(ctx, shop, toGID("Customer", customerID), AppMetafieldNamespace, ScoreKey, "number_integer", score)
}

// SetUpsellHandle stores the product handle offered by the checkout upsell block
func (s *MetafieldService) SetUpsellHandle(ctx context.Context, shop, handle string) (json.RawMessage, error) {
	if handle == "" {
		return nil, fmt.Errorf("upsell: %w", domain.ErrMissingParameter)
	}
	return s.SetShopMetafield(ctx, shop, UpsellMetafieldNamespace, UpsellHandleKey, "single_line_text_field", handle)
}

// UpsellProducts loads the products listed in the upsell metafields of the cart lines
func (s *MetafieldService) UpsellProducts(ctx context.Context, shop string, productIDs []string) (json.RawMessage, error) {
	if len(productIDs) == 0 {
		return nil, fmt.Errorf("upsell_product_ids: %w", domain.ErrMissingParameter)
	}
	terms := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		terms = append(terms, "id:"+gidTail(id))
	}
	return s.gql.Query(ctx, shop, upsellProductsQuery, map[string]interface{}{"query": strings.Join(terms, " OR ")})
}

// SetShopMetafield writes a metafield owned by the shop itself
func (s *MetafieldService) SetShopMetafield(ctx context.Context, shop, namespace, key, typ, value string) (json.RawMessage, error) {
	ids, err := s.gql.Query(ctx, shop, shopIDQuery, nil)
	if err != nil {
		return nil, err
	}
	shopID := gjson.GetBytes(ids, "shop.id").String()
	if shopID == "" {
		return nil, fmt.Errorf("failed to resolve shop id for %s", shop)
	}
	return s.setMetafield(ctx, shop, shopID, namespace, key, typ, value)
}

// ShopMetafield reads a shop metafield value, returning "" when unset
func (s *MetafieldService) ShopMetafield(ctx context.Context, shop, namespace, key string) (string, error) {
	data, err := s.gql.Query(ctx, shop, shopMetafieldQuery, map[string]interface{}{
		"namespace": namespace,
		"key":       key,
	})
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(data, "shop.metafield.value").String(), nil
}

func (s *MetafieldService) setMetafield(ctx context.Context, shop, ownerID, namespace, key, typ, value string) (json.RawMessage, error) {
	s.logger.Debug().Str("shop", shop).Str("owner", ownerID).Str("namespace", namespace).Str("key", key).Msg("Setting metafield")
	return s.gql.Query(ctx, shop, metafieldsSetMutation, map[string]interface{}{
		"metafields": []interface{}{
			map[string]string{
				"ownerId":   ownerID,
				"namespace": namespace,
				"key":       key,
				"type":      typ,
				"value":     value,
			},
		},
	})
}
