package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const webPixelCreateMutation = `mutation webPixelCreate($webPixel: WebPixelInput!) {
  webPixelCreate(webPixel: $webPixel) {
    webPixel {
      id
      settings
    }
    userErrors {
      code
      field
      message
    }
  }
}`

// aliased so callers read the same webPixelCreate payload either way
const webPixelUpdateMutation = `mutation webPixelUpdate($id: ID!, $webPixel: WebPixelInput!) {
  webPixelCreate: webPixelUpdate(id: $id, webPixel: $webPixel) {
    webPixel {
      id
      settings
    }
    userErrors {
      code
      field
      message
    }
  }
}`

const webPixelQuery = `{
  webPixel {
    id
    settings
  }
}`

const webPixelAccountID = "barebone"

// WebPixelService manages the app's web pixel extension instance
type WebPixelService struct {
	gql    GraphQLRunner
	logger zerolog.Logger
}

// NewWebPixelService creates a new web pixel service
func NewWebPixelService(gql GraphQLRunner, logger zerolog.Logger) *WebPixelService {
	return &WebPixelService{gql: gql, logger: logger}
}

// Activate creates the pixel, or updates its settings when one already exists
func (s *WebPixelService) Activate(ctx context.Context, shop string, ga4 bool) (json.RawMessage, error) {
	settings, err := json.Marshal(map[string]string{
		"accountID": webPixelAccountID,
		"ga4":       strconv.FormatBool(ga4),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode pixel settings: %w", err)
	}
	pixel := map[string]interface{}{"settings": string(settings)}

	data, err := s.gql.Query(ctx, shop, webPixelCreateMutation, map[string]interface{}{"webPixel": pixel})
	if err != nil {
		return nil, err
	}
	if !hasUserErrorCode(data, "webPixelCreate", "TAKEN") {
		s.logger.Info().Str("shop", shop).Bool("ga4", ga4).Msg("Web pixel created")
		return data, nil
	}

	current, err := s.gql.Query(ctx, shop, webPixelQuery, nil)
	if err != nil {
		return nil, err
	}
	id := gjson.GetBytes(current, "webPixel.id").String()
	if id == "" {
		return data, nil
	}

	s.logger.Info().Str("shop", shop).Str("pixel_id", id).Bool("ga4", ga4).Msg("Web pixel exists, updating settings")
	return s.gql.Query(ctx, shop, webPixelUpdateMutation, map[string]interface{}{"id": id, "webPixel": pixel})
}

// Show returns the current pixel
func (s *WebPixelService) Show(ctx context.Context, shop string) (json.RawMessage, error) {
	return s.gql.Query(ctx, shop, webPixelQuery, nil)
}

func hasUserErrorCode(data json.RawMessage, path, code string) bool {
	for _, e := range gjson.GetBytes(data, path+".userErrors").Array() {
		if e.Get("code").String() == code {
			return true
		}
	}
	return false
}
