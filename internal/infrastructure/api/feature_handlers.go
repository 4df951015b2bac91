package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"shopify-barebone-app/internal/application"
	"shopify-barebone-app/internal/domain"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// apiOrPage serves the JSON API to requests carrying a verified session
// token and the page shell to everything else.
func apiOrPage(page http.HandlerFunc, api http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if domain.SessionFromContext(r.Context()) != nil {
			api(w, r)
			return
		}
		page(w, r)
	}
}

func sessionShop(r *http.Request) string {
	if s := domain.SessionFromContext(r.Context()); s != nil {
		return s.Shop
	}
	return ""
}

func functionDiscountHandler(functions *application.FunctionService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		data, err := functions.CreateDiscount(r.Context(), sessionShop(r), q.Get("id"), q.Get("meta"))
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeResult(w, dataResponse{Data: data})
	}
}

func functionShippingHandler(functions *application.FunctionService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		data, err := functions.CreateDeliveryCustomization(r.Context(), sessionShop(r), q.Get("id"), q.Get("rate"), q.Get("zip"))
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeResult(w, dataResponse{Data: data})
	}
}

func functionPaymentHandler(functions *application.FunctionService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		data, err := functions.CreatePaymentCustomization(r.Context(), sessionShop(r), q.Get("id"), q.Get("method"), q.Get("rate"))
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeResult(w, dataResponse{Data: data})
	}
}

func webPixelHandler(pixels *application.WebPixelService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var (
			data json.RawMessage
			err  error
		)
		switch {
		case q.Get("create") == "true":
			data, err = pixels.Activate(r.Context(), sessionShop(r), q.Get("ga4") == "true")
		case q.Get("show") == "true":
			data, err = pixels.Show(r.Context(), sessionShop(r))
		default:
			err = fmt.Errorf("create or show: %w", domain.ErrMissingParameter)
		}
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeResult(w, dataResponse{Data: data})
	}
}

// postPurchaseSetupHandler prepares the metafields the checkout extensions read
func postPurchaseSetupHandler(metafields *application.MetafieldService, appURL string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := metafields.SetupCheckoutExtensions(r.Context(), sessionShop(r), appURL)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeResult(w, dataResponse{Data: res.Data, UserErrors: res.UserErrors})
	}
}

// postPurchaseHandler serves checkout and post-purchase extensions. The
// session token subject is the buyer.
func postPurchaseHandler(metafields *application.MetafieldService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := domain.SessionFromContext(r.Context())
		q := r.URL.Query()

		if raw := q.Get("upsell_product_ids"); raw != "" {
			var ids []string
			if err := json.Unmarshal([]byte(raw), &ids); err != nil {
				http.Error(w, "Invalid upsell_product_ids", http.StatusBadRequest)
				return
			}
			data, err := metafields.UpsellProducts(r.Context(), session.Shop, ids)
			if err != nil {
				writeError(w, err, logger)
				return
			}
			writeJSON(w, http.StatusOK, data)
			return
		}

		data, err := metafields.SetCustomerScore(r.Context(), session.Shop, session.Subject, q.Get("score"))
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeResult(w, dataResponse{Data: data})
	}
}

func checkoutUIHandler(metafields *application.MetafieldService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := metafields.SetUpsellHandle(r.Context(), sessionShop(r), r.URL.Query().Get("upsell"))
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeResult(w, dataResponse{Data: data})
	}
}

// orderManageHandler loads an order, or fulfills the listed fulfillment orders
func orderManageHandler(orders *application.OrderService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		id := q.Get("id")

		if foids := splitList(q.Get("foids")); len(foids) > 0 {
			res, err := orders.Fulfill(r.Context(), sessionShop(r), id, foids)
			if err != nil {
				writeError(w, err, logger)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"response":    res.Order,
				"user_errors": res.UserErrors,
			})
			return
		}

		data, err := orders.GetOrder(r.Context(), sessionShop(r), id)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"response": data})
	}
}

func multipassSecretHandler(multipass *application.MultipassService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := multipass.SaveSecret(r.Context(), sessionShop(r), r.URL.Query().Get("secret"))
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeResult(w, dataResponse{Data: data})
	}
}

// multipassLoginHandler receives the mock identity provider form and sends
// the customer to the storefront logged in.
func multipassLoginHandler(multipass *application.MultipassService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		shop := r.PostForm.Get("login_shop")
		if !domain.IsValidShopDomain(shop) {
			http.Error(w, "Invalid login_shop", http.StatusBadRequest)
			return
		}

		loginURL, err := multipass.LoginURL(r.Context(), shop, r.PostForm.Get("email"), r.PostForm.Get("return_to"))
		if err != nil {
			writeError(w, err, logger)
			return
		}
		http.Redirect(w, r, loginURL, http.StatusFound)
	}
}

// bulkOperationHandler returns the raw GraphQL response the bulk page reads
func bulkOperationHandler(bulk *application.BulkService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		shop := sessionShop(r)

		var (
			data json.RawMessage
			err  error
		)
		switch {
		case q.Get("key") != "":
			data, err = bulk.Run(r.Context(), shop, q.Get("key"))
		case q.Get("check") == "true":
			data, err = bulk.Current(r.Context(), shop)
		case q.Get("id") != "":
			data, err = bulk.Cancel(r.Context(), shop, q.Get("id"))
		default:
			data, err = bulk.StageUpload(r.Context(), shop)
		}
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]json.RawMessage{"data": data})
	}
}

func storefrontTokenHandler(storefront *application.StorefrontService, appURL string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := sessionShop(r)
		data, err := storefront.CreateAccessToken(r.Context(), shop)
		if err != nil {
			writeError(w, err, logger)
			return
		}

		token := gjson.GetBytes(data, "storefrontAccessTokenCreate.storefrontAccessToken.accessToken").String()
		response := map[string]interface{}{
			"data":         data,
			"public_token": token,
		}
		if token != "" {
			// the plain storefront page needs the shop as well as the token
			response["storefront_url"] = strings.TrimSuffix(appURL, "/") + "/storefront?" + url.Values{
				"public_token": {token},
				"shop":         {shop},
			}.Encode()
		}
		writeResult(w, response)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
