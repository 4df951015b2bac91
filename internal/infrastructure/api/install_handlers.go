package api

import (
	"net/http"

	"shopify-barebone-app/internal/application"
	"shopify-barebone-app/internal/domain"
	"shopify-barebone-app/internal/infrastructure/signature"

	"github.com/rs/zerolog"
)

// indexHandler is the app's entry point inside the admin. Shops without a
// working credential are sent through OAuth first.
func indexHandler(
	verifier *signature.Verifier,
	shopifyService *application.ShopifyService,
	pages *Pages,
	apiKey string,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if !verifier.VerifyInstall(query) {
			logger.Warn().Msg("Invalid install signature")
			http.Error(w, "Invalid signature", http.StatusBadRequest)
			return
		}

		shop := query.Get("shop")
		if !domain.IsValidShopDomain(shop) {
			http.Error(w, "Invalid shop parameter", http.StatusBadRequest)
			return
		}

		install, err := shopifyService.NeedsInstall(r.Context(), shop)
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to check installation")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if install {
			logger.Info().Str("shop", shop).Msg("Redirecting to OAuth flow")
			http.Redirect(w, r, shopifyService.AuthorizeURL(shop, r.Host), http.StatusFound)
			return
		}

		if query.Get("embedded") != "1" {
			http.Redirect(w, r, domain.AdminAppURL(shop, apiKey), http.StatusFound)
			return
		}

		pages.Render(w, PageData{Shop: shop, Page: "index"}, logger)
	}
}

// callbackHandler completes OAuth and returns the merchant to the admin
func callbackHandler(verifier *signature.Verifier, shopifyService *application.ShopifyService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if !verifier.VerifyInstall(query) {
			logger.Warn().Msg("Invalid callback signature")
			http.Error(w, "Invalid signature", http.StatusBadRequest)
			return
		}

		shop := query.Get("shop")
		code := query.Get("code")
		if !domain.IsValidShopDomain(shop) || code == "" {
			http.Error(w, "Missing required parameters", http.StatusBadRequest)
			return
		}

		handle, err := shopifyService.Install(r.Context(), shop, code)
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to complete installation")
			http.Error(w, "Failed to complete installation", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, domain.AdminAppURL(shop, handle), http.StatusFound)
	}
}

// authenticatedHandler echoes the verified session token
func authenticatedHandler(logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := domain.SessionFromContext(r.Context())
		logger.Debug().Str("shop", session.Shop).Str("sub", session.Subject).Msg("Session token verified")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"result": map[string]interface{}{
				"message": "Your session token is valid",
				"shop":    session.Shop,
				"claims":  session,
			},
		})
	}
}

// adminLinkHandler serves admin link targets. Outside the admin frame the
// shell is served so App Bridge can redirect back into it.
func adminLinkHandler(verifier *signature.Verifier, pages *Pages, logger zerolog.Logger) http.HandlerFunc {
	signed := signedPageHandler(verifier, pages, "adminlink", logger)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("embedded") == "1" {
			signed(w, r)
			return
		}
		pages.Render(w, PageData{Page: "adminlink"}, logger)
	}
}
