package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shopify-barebone-app/internal/domain"

	"github.com/rs/zerolog"
)

// Metafield coordinates shared with the extensions
const (
	AppMetafieldNamespace = "barebone_app"
	FunctionConfigKey     = "config"
	functionTitle         = "Barebone app function"
)

const discountAutomaticAppCreateMutation = `mutation discountAutomaticAppCreate($automaticAppDiscount: DiscountAutomaticAppInput!) {
  discountAutomaticAppCreate(automaticAppDiscount: $automaticAppDiscount) {
    automaticAppDiscount {
      discountId
      title
      status
    }
    userErrors {
      field
      message
    }
  }
}`

const deliveryCustomizationCreateMutation = `mutation deliveryCustomizationCreate($deliveryCustomization: DeliveryCustomizationInput!) {
  deliveryCustomizationCreate(deliveryCustomization: $deliveryCustomization) {
    deliveryCustomization {
      id
      title
      enabled
    }
    userErrors {
      field
      message
    }
  }
}`

const paymentCustomizationCreateMutation = `mutation paymentCustomizationCreate($paymentCustomization: PaymentCustomizationInput!) {
  paymentCustomizationCreate(paymentCustomization: $paymentCustomization) {
    paymentCustomization {
      id
      title
      enabled
    }
    userErrors {
      field
      message
    }
  }
}`

// FunctionService registers Shopify Functions with their JSON configuration
type FunctionService struct {
	gql    GraphQLRunner
	logger zerolog.Logger
	now    func() time.Time
}

// NewFunctionService creates a new function service
func NewFunctionService(gql GraphQLRunner, logger zerolog.Logger) *FunctionService {
	return &FunctionService{gql: gql, logger: logger, now: time.Now}
}

// CreateDiscount activates an automatic app discount. meta names the customer
// metafield (namespace.key) holding each customer's discount rate.
func (s *FunctionService) CreateDiscount(ctx context.Context, shop, functionID, meta string) (json.RawMessage, error) {
	if functionID == "" {
		return nil, fmt.Errorf("id: %w", domain.ErrMissingParameter)
	}
	config, err := configMetafield(map[string]string{"meta": meta})
	if err != nil {
		return nil, err
	}

	vars := map[string]interface{}{
		"automaticAppDiscount": map[string]interface{}{
			"title":      functionTitle + " (discount)",
			"functionId": functionID,
			"startsAt":   s.now().UTC().Format(time.RFC3339),
			"combinesWith": map[string]bool{
				"orderDiscounts":    true,
				"productDiscounts":  true,
				"shippingDiscounts": true,
			},
			"metafields": []interface{}{config},
		},
	}

	s.logger.Info().Str("shop", shop).Str("function_id", functionID).Str("meta", meta).Msg("Creating automatic app discount")
	return s.gql.Query(ctx, shop, discountAutomaticAppCreateMutation, vars)
}

// CreateDeliveryCustomization hides the delivery rate named rate for the given zip
func (s *FunctionService) CreateDeliveryCustomization(ctx context.Context, shop, functionID, rate, zip string) (json.RawMessage, error) {
	if functionID == "" {
		return nil, fmt.Errorf("id: %w", domain.ErrMissingParameter)
	}
	config, err := configMetafield(map[string]string{"rate": rate, "zip": zip})
	if err != nil {
		return nil, err
	}

	vars := map[string]interface{}{
		"deliveryCustomization": map[string]interface{}{
			"title":      functionTitle + " (shipping)",
			"functionId": functionID,
			"enabled":    true,
			"metafields": []interface{}{config},
		},
	}

	s.logger.Info().Str("shop", shop).Str("function_id", functionID).Msg("Creating delivery customization")
	return s.gql.Query(ctx, shop, deliveryCustomizationCreateMutation, vars)
}

// CreatePaymentCustomization hides the payment method unless the delivery rate matches
func (s *FunctionService) CreatePaymentCustomization(ctx context.Context, shop, functionID, method, rate string) (json.RawMessage, error) {
	if functionID == "" {
		return nil, fmt.Errorf("id: %w", domain.ErrMissingParameter)
	}
	config, err := configMetafield(map[string]string{"method": method, "rate": rate})
	if err != nil {
		return nil, err
	}

	vars := map[string]interface{}{
		"paymentCustomization": map[string]interface{}{
			"title":      functionTitle + " (payment)",
			"functionId": functionID,
			"enabled":    true,
			"metafields": []interface{}{config},
		},
	}

	s.logger.Info().Str("shop", shop).Str("function_id", functionID).Msg("Creating payment customization")
	return s.gql.Query(ctx, shop, paymentCustomizationCreateMutation, vars)
}

func configMetafield(config map[string]string) (map[string]interface{}, error) {
	value, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode function config: %w", err)
	}
	return map[string]interface{}{
		"namespace": AppMetafieldNamespace,
		"key":       FunctionConfigKey,
		"type":      "json",
		"value":     string(value),
	}, nil
}
