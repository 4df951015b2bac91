package application

import (
	"context"
	"encoding/json"
	"fmt"

	"shopify-barebone-app/internal/domain"
	"shopify-barebone-app/internal/ports"

	"github.com/rs/zerolog"
)

// MultipassService stores a shop's Multipass secret and logs customers in with it
type MultipassService struct {
	metafields *MetafieldService
	encoder    ports.MultipassEncoder
	logger     zerolog.Logger
}

// NewMultipassService creates a new Multipass service
func NewMultipassService(metafields *MetafieldService, encoder ports.MultipassEncoder, logger zerolog.Logger) *MultipassService {
	return &MultipassService{metafields: metafields, encoder: encoder, logger: logger}
}

// SaveSecret stores the secret copied from the shop's customer account settings
func (s *MultipassService) SaveSecret(ctx context.Context, shop, secret string) (json.RawMessage, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret: %w", domain.ErrMissingParameter)
	}
	return s.metafields.SetShopMetafield(ctx, shop, AppMetafieldNamespace, MultipassSecretKey, "single_line_text_field", secret)
}

// LoginURL builds the storefront Multipass login URL for the customer
func (s *MultipassService) LoginURL(ctx context.Context, shop, email, returnTo string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email: %w", domain.ErrMissingParameter)
	}

	secret, err := s.metafields.ShopMetafield(ctx, shop, AppMetafieldNamespace, MultipassSecretKey)
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", fmt.Errorf("multipass secret for %s: %w", shop, domain.ErrMissingParameter)
	}

	customer := map[string]interface{}{"email": email}
	if returnTo != "" {
		customer["return_to"] = returnTo
	}

	token, err := s.encoder.Encode(secret, customer)
	if err != nil {
		return "", err
	}

	s.logger.Info().Str("shop", shop).Str("email", email).Msg("Generated Multipass token")
	return fmt.Sprintf("https://%s/account/login/multipass/%s", shop, token), nil
}
