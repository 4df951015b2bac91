package signature

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	goshopify "github.com/bold-commerce/go-shopify/v4"
)

// Query parameters carrying the signature for each flavour
const (
	InstallSignatureParam  = "hmac"
	AppProxySignatureParam = "signature"
	WebhookHMACHeader      = "X-Shopify-Hmac-Sha256"
)

// Verifier checks the HMAC-SHA256 signatures Shopify attaches to admin
// redirects, app proxy requests and webhook deliveries.
type Verifier struct {
	app   goshopify.App
	hooks goshopify.App
}

// NewVerifier creates a verifier. An empty webhook secret falls back to the API secret.
func NewVerifier(apiSecret, webhookSecret string) *Verifier {
	if webhookSecret == "" {
		webhookSecret = apiSecret
	}
	return &Verifier{
		app:   goshopify.App{ApiSecret: apiSecret},
		hooks: goshopify.App{ApiSecret: webhookSecret},
	}
}

// VerifyInstall checks the hmac parameter of an admin-originated request.
// Remaining parameters are sorted by key and joined as k=v with '&'.
// goshopify's VerifyAuthorizationURL is not used: it also strips a
// signature parameter and repeats multi-valued keys instead of joining them.
func (v *Verifier) VerifyInstall(query url.Values) bool {
	given := query.Get(InstallSignatureParam)
	if given == "" {
		return false
	}
	return v.app.VerifyMessage(installMessage(query), strings.ToLower(given))
}

// SignInstall computes the hex signature for a query, ignoring any hmac parameter
func (v *Verifier) SignInstall(query url.Values) string {
	return hexHMAC(v.app.ApiSecret, installMessage(query))
}

// VerifyAppProxy checks the signature parameter of an app proxy request.
// k=v pairs are sorted and concatenated without a separator.
func (v *Verifier) VerifyAppProxy(query url.Values) bool {
	if query.Get(AppProxySignatureParam) == "" {
		return false
	}
	return v.app.VerifySignature(&url.URL{RawQuery: query.Encode()})
}

// SignAppProxy computes the hex signature for an app proxy query
func (v *Verifier) SignAppProxy(query url.Values) string {
	pairs := make([]string, 0, len(query))
	for k, vals := range query {
		if k == AppProxySignatureParam {
			continue
		}
		pairs = append(pairs, k+"="+strings.Join(vals, ","))
	}
	sort.Strings(pairs)
	return hexHMAC(v.app.ApiSecret, strings.Join(pairs, ""))
}

// VerifyWebhook checks the base64 X-Shopify-Hmac-Sha256 header against the raw body
func (v *Verifier) VerifyWebhook(body []byte, header string) bool {
	if header == "" {
		return false
	}
	req := &http.Request{
		Header: http.Header{WebhookHMACHeader: []string{header}},
		Body:   io.NopCloser(bytes.NewReader(body)),
	}
	return v.hooks.VerifyWebhookRequest(req)
}

// SignWebhook computes the base64 signature for a webhook body
func (v *Verifier) SignWebhook(body []byte) string {
	mac := hmac.New(sha256.New, []byte(v.hooks.ApiSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func installMessage(query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		if k == InstallSignatureParam {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+strings.Join(query[k], ","))
	}
	return strings.Join(pairs, "&")
}

func hexHMAC(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}
