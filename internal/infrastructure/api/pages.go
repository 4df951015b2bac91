package api

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"shopify-barebone-app/internal/infrastructure/signature"

	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData fills the HTML shell
type PageData struct {
	APIKey      string
	APIVersion  string
	Shop        string
	Page        string
	LoginShop   string
	AppToken    string
	PublicToken string
}

// Pages renders the HTML shell the admin and extension pages load into
type Pages struct {
	tmpl       *template.Template
	apiKey     string
	apiVersion string
}

// NewPages parses the embedded templates
func NewPages(apiKey, apiVersion string) (*Pages, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Pages{tmpl: tmpl, apiKey: apiKey, apiVersion: apiVersion}, nil
}

// Render writes the shell. Pages shown inside the admin may only be framed by
// the shop and the unified admin.
func (p *Pages) Render(w http.ResponseWriter, data PageData, logger zerolog.Logger) {
	data.APIKey = p.apiKey
	data.APIVersion = p.apiVersion
	if data.Shop != "" {
		w.Header().Set("Content-Security-Policy", frameAncestors(data.Shop))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := p.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		logger.Error().Err(err).Str("page", data.Page).Msg("Failed to render page")
	}
}

func frameAncestors(shop string) string {
	return fmt.Sprintf("frame-ancestors https://%s https://admin.shopify.com;", shop)
}

// signedPageHandler serves an admin page after checking the install signature
func signedPageHandler(verifier *signature.Verifier, pages *Pages, page string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if !verifier.VerifyInstall(query) {
			logger.Warn().Str("page", page).Msg("Invalid install signature")
			http.Error(w, "Invalid signature", http.StatusBadRequest)
			return
		}
		pages.Render(w, PageData{Shop: query.Get("shop"), Page: page}, logger)
	}
}
