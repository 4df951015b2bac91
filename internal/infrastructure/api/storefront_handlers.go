package api

import (
	"fmt"
	"html"
	"net/http"

	"shopify-barebone-app/internal/application"
	"shopify-barebone-app/internal/domain"
	"shopify-barebone-app/internal/infrastructure/signature"

	"github.com/rs/zerolog"
)

// appProxyHandler answers storefront requests Shopify forwards through the app proxy
func appProxyHandler(verifier *signature.Verifier, storefront *application.StorefrontService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if !verifier.VerifyAppProxy(query) {
			logger.Warn().Str("method", r.Method).Msg("Invalid app proxy signature")
			http.Error(w, "Invalid signature", http.StatusBadRequest)
			return
		}

		res, err := storefront.AppProxy(r.Context(), query)
		if err != nil {
			writeError(w, err, logger)
			return
		}

		if query.Get("liquid") == "true" {
			w.Header().Set("Content-Type", "application/liquid")
			fmt.Fprintf(w, "<p>Hello from the barebone app proxy, {{ customer.first_name | default: 'guest' }}!</p>\n<p>Shop: %s</p>\n", html.EscapeString(res.Shop))
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// mockLoginPageHandler exchanges a POS session token for an app token and
// renders it for the extension.
func mockLoginPageHandler(tokens *signature.TokenService, pages *Pages, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := tokens.VerifySessionToken(r.URL.Query().Get("sessiontoken"))
		if err != nil {
			logger.Warn().Err(err).Msg("Invalid POS session token")
			http.Error(w, "Invalid session token", http.StatusUnauthorized)
			return
		}

		appToken, err := tokens.SignAppToken(claims.Subject, claims.Shop())
		if err != nil {
			logger.Error().Err(err).Msg("Failed to issue app token")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		pages.Render(w, PageData{Shop: claims.Shop(), Page: "mocklogin", AppToken: appToken}, logger)
	}
}

// mockLoginHandler answers requests carrying an app token issued by the mock login page
func mockLoginHandler(logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := domain.SessionFromContext(r.Context())
		logger.Info().Str("shop", session.Shop).Str("user", session.Subject).Msg("Mock login verified")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"result": map[string]interface{}{
				"message": "Your app token is valid",
				"user":    session.Subject,
				"shop":    session.Shop,
			},
		})
	}
}

// multipassPageHandler renders the mock identity provider form for
// login_shop, or the admin page otherwise.
func multipassPageHandler(verifier *signature.Verifier, pages *Pages, logger zerolog.Logger) http.HandlerFunc {
	signed := signedPageHandler(verifier, pages, "multipass", logger)
	return func(w http.ResponseWriter, r *http.Request) {
		loginShop := r.URL.Query().Get("login_shop")
		if loginShop == "" {
			signed(w, r)
			return
		}
		if !domain.IsValidShopDomain(loginShop) {
			http.Error(w, "Invalid login_shop", http.StatusBadRequest)
			return
		}
		pages.Render(w, PageData{Page: "multipass", LoginShop: loginShop}, logger)
	}
}

// storefrontPageHandler renders the plain storefront page for a public
// token and shop, or the admin page otherwise.
func storefrontPageHandler(verifier *signature.Verifier, pages *Pages, logger zerolog.Logger) http.HandlerFunc {
	signed := signedPageHandler(verifier, pages, "storefront", logger)
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		token := query.Get("public_token")
		if token == "" {
			signed(w, r)
			return
		}
		shop := query.Get("shop")
		if !domain.IsValidShopDomain(shop) {
			http.Error(w, "Missing or invalid shop", http.StatusBadRequest)
			return
		}
		pages.Render(w, PageData{Page: "storefront", PublicToken: token, Shop: shop}, logger)
	}
}
