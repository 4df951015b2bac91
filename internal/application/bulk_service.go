package application

import (
	"context"
	"encoding/json"
	"fmt"

	"shopify-barebone-app/internal/domain"

	"github.com/rs/zerolog"
)

const stagedUploadsCreateMutation = `mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters {
        name
        value
      }
    }
    userErrors {
      field
      message
    }
  }
}`

const bulkOperationRunMutation = `mutation bulkOperationRunMutation($mutation: String!, $stagedUploadPath: String!) {
  bulkOperationRunMutation(mutation: $mutation, stagedUploadPath: $stagedUploadPath) {
    bulkOperation {
      id
      url
      status
    }
    userErrors {
      field
      message
    }
  }
}`

// bulkProductCreate runs once per line of the uploaded JSONL file
const bulkProductCreate = `mutation call($input: ProductInput!) {
  productCreate(input: $input) {
    product {
      id
      title
    }
    userErrors {
      field
      message
    }
  }
}`

const currentBulkOperationQuery = `{
  currentBulkOperation(type: MUTATION) {
    id
    status
    errorCode
    createdAt
    completedAt
    objectCount
    fileSize
    url
    partialDataUrl
  }
}`

const bulkOperationCancelMutation = `mutation bulkOperationCancel($id: ID!) {
  bulkOperationCancel(id: $id) {
    bulkOperation {
      id
      status
    }
    userErrors {
      field
      message
    }
  }
}`

const bulkUploadFilename = "bulk_op_vars.jsonl"

// BulkService drives bulk mutations of products through staged uploads
type BulkService struct {
	gql    GraphQLRunner
	logger zerolog.Logger
}

// NewBulkService creates a new bulk operation service
func NewBulkService(gql GraphQLRunner, logger zerolog.Logger) *BulkService {
	return &BulkService{gql: gql, logger: logger}
}

// StageUpload reserves a staged upload target for the JSONL variables file
func (s *BulkService) StageUpload(ctx context.Context, shop string) (json.RawMessage, error) {
	return s.gql.Query(ctx, shop, stagedUploadsCreateMutation, map[string]interface{}{
		"input": []interface{}{
			map[string]string{
				"resource":   "BULK_MUTATION_VARIABLES",
				"filename":   bulkUploadFilename,
				"mimeType":   "text/jsonl",
				"httpMethod": "POST",
			},
		},
	})
}

// Run starts the bulk productCreate mutation over the uploaded file key
func (s *BulkService) Run(ctx context.Context, shop, key string) (json.RawMessage, error) {
	if key == "" {
		return nil, fmt.Errorf("key: %w", domain.ErrMissingParameter)
	}
	s.logger.Info().Str("shop", shop).Str("staged_upload_path", key).Msg("Starting bulk mutation")
	return s.gql.Query(ctx, shop, bulkOperationRunMutation, map[string]interface{}{
		"mutation":         bulkProductCreate,
		"stagedUploadPath": key,
	})
}

// Current returns the shop's current bulk mutation
func (s *BulkService) Current(ctx context.Context, shop string) (json.RawMessage, error) {
	return s.gql.Query(ctx, shop, currentBulkOperationQuery, nil)
}

// Cancel cancels a running bulk operation
func (s *BulkService) Cancel(ctx context.Context, shop, id string) (json.RawMessage, error) {
	if id == "" {
		return nil, fmt.Errorf("id: %w", domain.ErrMissingParameter)
	}
	s.logger.Info().Str("shop", shop).Str("bulk_operation", id).Msg("Cancelling bulk operation")
	return s.gql.Query(ctx, shop, bulkOperationCancelMutation, map[string]interface{}{"id": id})
}
