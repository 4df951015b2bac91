package api

import (
	"encoding/json"
	"net/http"

	"shopify-barebone-app/internal/application"
	"shopify-barebone-app/internal/infrastructure/metrics"
	appmiddleware "shopify-barebone-app/internal/infrastructure/middleware"
	"shopify-barebone-app/internal/infrastructure/signature"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Services groups everything the routes depend on
type Services struct {
	APIKey   string
	AppURL   string
	DocsPath string

	Verifier *signature.Verifier
	Tokens   *signature.TokenService
	Pages    *Pages

	Shopify    *application.ShopifyService
	Functions  *application.FunctionService
	WebPixels  *application.WebPixelService
	Metafields *application.MetafieldService
	Multipass  *application.MultipassService
	Orders     *application.OrderService
	Bulk       *application.BulkService
	Storefront *application.StorefrontService

	Webhooks        *application.WebhookDispatcher
	PrivacyWebhooks *application.WebhookDispatcher
}

// NewRouter builds the HTTP surface of the app
func NewRouter(s *Services, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(appmiddleware.SecurityHeaders)
	// checkout, post-purchase and POS extensions call the app from Shopify origins
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, s.DocsPath)
	})

	page := func(name string) http.HandlerFunc {
		return signedPageHandler(s.Verifier, s.Pages, name, logger)
	}
	requireSession := appmiddleware.RequireSession(s.Tokens.VerifySessionToken, logger)
	optionalSession := appmiddleware.OptionalSession(s.Tokens.VerifySessionToken, logger)

	// Install flow
	r.Get("/", indexHandler(s.Verifier, s.Shopify, s.Pages, s.APIKey, logger))
	r.Get("/callback", callbackHandler(s.Verifier, s.Shopify, logger))

	// Admin pages
	r.Get("/sessiontoken", page("sessiontoken"))
	r.Get("/themeappextension", page("themeappextension"))
	r.Get("/adminlink", adminLinkHandler(s.Verifier, s.Pages, logger))
	r.With(requireSession).Get("/authenticated", authenticatedHandler(logger))

	// Admin pages backed by the JSON API
	r.Group(func(r chi.Router) {
		r.Use(optionalSession)

		r.Get("/functiondiscount", apiOrPage(page("functiondiscount"), functionDiscountHandler(s.Functions, logger)))
		r.Get("/functionshipping", apiOrPage(page("functionshipping"), functionShippingHandler(s.Functions, logger)))
		r.Get("/functionpayment", apiOrPage(page("functionpayment"), functionPaymentHandler(s.Functions, logger)))
		r.Get("/webpixel", apiOrPage(page("webpixel"), webPixelHandler(s.WebPixels, logger)))
		r.Get("/postpurchase", apiOrPage(page("postpurchase"), postPurchaseSetupHandler(s.Metafields, s.AppURL, logger)))
		r.Get("/checkoutui", apiOrPage(page("checkoutui"), checkoutUIHandler(s.Metafields, logger)))
		r.Get("/ordermanage", apiOrPage(page("ordermanage"), orderManageHandler(s.Orders, logger)))
		r.Get("/multipass", apiOrPage(multipassPageHandler(s.Verifier, s.Pages, logger), multipassSecretHandler(s.Multipass, logger)))
		r.Get("/bulkoperation", apiOrPage(page("bulkoperation"), bulkOperationHandler(s.Bulk, logger)))
		r.Get("/storefront", apiOrPage(storefrontPageHandler(s.Verifier, s.Pages, logger), storefrontTokenHandler(s.Storefront, s.AppURL, logger)))
	})

	// Extension endpoints
	r.With(requireSession).Post("/postpurchase", postPurchaseHandler(s.Metafields, logger))
	r.Post("/multipass", multipassLoginHandler(s.Multipass, logger))
	r.Get("/mocklogin", mockLoginPageHandler(s.Tokens, s.Pages, logger))
	r.With(appmiddleware.RequireSession(s.Tokens.VerifyAppToken, logger)).Post("/mocklogin", mockLoginHandler(logger))
	r.Get("/appproxy", appProxyHandler(s.Verifier, s.Storefront, logger))
	r.Post("/appproxy", appProxyHandler(s.Verifier, s.Storefront, logger))

	// Fulfillment service callbacks
	r.Post("/fulfillment_order_notification", fulfillmentNotificationHandler(s.Verifier, s.Orders, logger))
	r.Get("/fetch_tracking_numbers.json", trackingNumbersHandler(s.Verifier, s.Orders, logger))
	r.Get("/fetch_stock.json", stockHandler(s.Verifier, s.Orders, logger))

	// Webhooks
	r.Post("/webhookcommon", webhookHandler(s.Verifier, s.Webhooks, logger))
	r.Post("/webhookgdpr", webhookHandler(s.Verifier, s.PrivacyWebhooks, logger))

	return r
}
