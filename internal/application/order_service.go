package application

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"strings"

	"shopify-barebone-app/internal/domain"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Fulfillment service callback kinds
const (
	KindFulfillmentRequest  = "FULFILLMENT_REQUEST"
	KindCancellationRequest = "CANCELLATION_REQUEST"
)

const (
	trackingCompany   = "Barebone Logistics"
	trackingURLPrefix = "https://tracking.example.com/"
	mockStockLevel    = 100
)

var mockSKUs = []string{"barebone-001", "barebone-002", "barebone-003"}

const orderQuery = `query order($id: ID!) {
  order(id: $id) {
    id
    name
    displayFulfillmentStatus
    fulfillmentOrders(first: 10) {
      edges {
        node {
          id
          status
          requestStatus
          assignedLocation {
            name
          }
          lineItems(first: 10) {
            edges {
              node {
                id
                remainingQuantity
              }
            }
          }
        }
      }
    }
  }
}`

const fulfillmentCreateMutation = `mutation fulfillmentCreateV2($fulfillment: FulfillmentV2Input!) {
  fulfillmentCreateV2(fulfillment: $fulfillment) {
    fulfillment {
      id
      status
    }
    userErrors {
      field
      message
    }
  }
}`

const assignedFulfillmentOrdersQuery = `query assignedFulfillmentOrders($status: FulfillmentOrderAssignmentStatus!) {
  assignedFulfillmentOrders(first: 10, assignmentStatus: $status) {
    edges {
      node {
        id
        status
        requestStatus
      }
    }
  }
}`

const acceptFulfillmentRequestMutation = `mutation fulfillmentOrderAcceptFulfillmentRequest($id: ID!, $message: String) {
  fulfillmentOrderAcceptFulfillmentRequest(id: $id, message: $message) {
    fulfillmentOrder {
      id
      status
      requestStatus
    }
    userErrors {
      field
      message
    }
  }
}`

const acceptCancellationRequestMutation = `mutation fulfillmentOrderAcceptCancellationRequest($id: ID!, $message: String) {
  fulfillmentOrderAcceptCancellationRequest(id: $id, message: $message) {
    fulfillmentOrder {
      id
      status
      requestStatus
    }
    userErrors {
      field
      message
    }
  }
}`

// FulfillResult carries the refreshed order and the concatenated userErrors
type FulfillResult struct {
	Order      json.RawMessage
	UserErrors string
}

// OrderService manages orders and acts as the app's fulfillment service
type OrderService struct {
	gql    GraphQLRunner
	logger zerolog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(gql GraphQLRunner, logger zerolog.Logger) *OrderService {
	return &OrderService{gql: gql, logger: logger}
}

// GetOrder returns the order with its fulfillment orders
func (s *OrderService) GetOrder(ctx context.Context, shop, orderID string) (json.RawMessage, error) {
	if orderID == "" {
		return nil, fmt.Errorf("id: %w", domain.ErrMissingParameter)
	}
	return s.gql.Query(ctx, shop, orderQuery, map[string]interface{}{"id": toGID("Order", orderID)})
}

// Fulfill creates one fulfillment per fulfillment order, then reloads the order.
// userErrors from every mutation are concatenated.
func (s *OrderService) Fulfill(ctx context.Context, shop, orderID string, fulfillmentOrderIDs []string) (*FulfillResult, error) {
	if orderID == "" {
		return nil, fmt.Errorf("id: %w", domain.ErrMissingParameter)
	}

	var errs []string
	for _, foID := range fulfillmentOrderIDs {
		foGID := toGID("FulfillmentOrder", foID)
		data, err := s.gql.Query(ctx, shop, fulfillmentCreateMutation, map[string]interface{}{
			"fulfillment": map[string]interface{}{
				"lineItemsByFulfillmentOrder": []interface{}{
					map[string]string{"fulfillmentOrderId": foGID},
				},
				"notifyCustomer": false,
				"trackingInfo": map[string]string{
					"company": trackingCompany,
					"number":  trackingNumber(foGID),
					"url":     trackingURLPrefix + trackingNumber(foGID),
				},
			},
		})
		if err != nil {
			return nil, err
		}
		errs = append(errs, userErrors(data, "fulfillmentCreateV2")...)
	}

	order, err := s.GetOrder(ctx, shop, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("shop", shop).Str("order", orderID).Int("fulfillment_orders", len(fulfillmentOrderIDs)).Msg("Fulfillments created")
	return &FulfillResult{Order: order, UserErrors: joinUserErrors(errs)}, nil
}

// HandleFulfillmentNotification accepts the requests Shopify sent to the
// fulfillment service. It returns the concatenated userErrors.
func (s *OrderService) HandleFulfillmentNotification(ctx context.Context, shop, kind string) (string, error) {
	var status, mutation, path string
	switch kind {
	case KindFulfillmentRequest:
		status, mutation, path = "FULFILLMENT_REQUESTED", acceptFulfillmentRequestMutation, "fulfillmentOrderAcceptFulfillmentRequest"
	case KindCancellationRequest:
		status, mutation, path = "CANCELLATION_REQUESTED", acceptCancellationRequestMutation, "fulfillmentOrderAcceptCancellationRequest"
	default:
		s.logger.Info().Str("shop", shop).Str("kind", kind).Msg("Ignoring fulfillment notification")
		return "", nil
	}

	assigned, err := s.gql.Query(ctx, shop, assignedFulfillmentOrdersQuery, map[string]interface{}{"status": status})
	if err != nil {
		return "", err
	}

	var errs []string
	for _, edge := range gjson.GetBytes(assigned, "assignedFulfillmentOrders.edges").Array() {
		id := edge.Get("node.id").String()
		data, err := s.gql.Query(ctx, shop, mutation, map[string]interface{}{
			"id":      id,
			"message": "Accepted by the barebone app",
		})
		if err != nil {
			return "", err
		}
		errs = append(errs, userErrors(data, path)...)
		s.logger.Info().Str("shop", shop).Str("fulfillment_order", id).Str("kind", kind).Msg("Accepted fulfillment order request")
	}

	return joinUserErrors(errs), nil
}

// TrackingNumbers returns mock tracking numbers keyed by order name
func (s *OrderService) TrackingNumbers(orderNames []string) map[string]string {
	out := make(map[string]string, len(orderNames))
	for _, name := range orderNames {
		out[name] = trackingNumber(name)
	}
	return out
}

// Stock returns mock inventory levels. An empty sku returns every known sku.
func (s *OrderService) Stock(sku string) map[string]int {
	if sku != "" {
		return map[string]int{sku: mockStockLevel}
	}
	out := make(map[string]int, len(mockSKUs))
	for _, k := range mockSKUs {
		out[k] = mockStockLevel
	}
	return out
}

func trackingNumber(seed string) string {
	return fmt.Sprintf("BB%010d", crc32.ChecksumIEEE([]byte(strings.TrimPrefix(seed, "#"))))
}
