package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopify-barebone-app/internal/application"
	"shopify-barebone-app/internal/application/webhook_handlers"
	"shopify-barebone-app/internal/config"
	apiinfra "shopify-barebone-app/internal/infrastructure/api"
	"shopify-barebone-app/internal/infrastructure/repository"
	shopifyinfra "shopify-barebone-app/internal/infrastructure/shopify"
	"shopify-barebone-app/internal/infrastructure/signature"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.Load(logger)
	logger = logger.Level(cfg.Level())
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize repository
	repo, err := repository.NewShopRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect shop repository")
	}
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("Failed to close shop repository")
		}
	}()

	// Initialize Shopify client and application services
	client := shopifyinfra.NewClient(cfg.APIKey, cfg.APISecret, cfg.APIVersion, cfg.APIScopes, logger)
	tokenManager := shopifyinfra.NewTokenManager(client, logger)
	shopifyService := application.NewShopifyService(repo, client, tokenManager, logger)
	metafieldService := application.NewMetafieldService(shopifyService, logger)

	// Initialize webhook dispatchers and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewOrderHandler(logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewProductHandler(logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger))

	privacyDispatcher := application.NewWebhookDispatcher(logger)
	privacyDispatcher.RegisterHandler(webhook_handlers.NewPrivacyHandler(logger))

	pages, err := apiinfra.NewPages(cfg.APIKey, cfg.APIVersion)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load page templates")
	}

	router := apiinfra.NewRouter(&apiinfra.Services{
		APIKey:          cfg.APIKey,
		AppURL:          cfg.AppURL,
		DocsPath:        "./docs/swagger.json",
		Verifier:        signature.NewVerifier(cfg.APISecret, cfg.WebhookSecret),
		Tokens:          signature.NewTokenService(cfg.APIKey, cfg.APISecret, cfg.AppURL),
		Pages:           pages,
		Shopify:         shopifyService,
		Functions:       application.NewFunctionService(shopifyService, logger),
		WebPixels:       application.NewWebPixelService(shopifyService, logger),
		Metafields:      metafieldService,
		Multipass:       application.NewMultipassService(metafieldService, signature.MultipassEncoder{}, logger),
		Orders:          application.NewOrderService(shopifyService, logger),
		Bulk:            application.NewBulkService(shopifyService, logger),
		Storefront:      application.NewStorefrontService(shopifyService, logger),
		Webhooks:        webhookDispatcher,
		PrivacyWebhooks: privacyDispatcher,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("db_type", cfg.DBType).Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shut down server")
	}
}
