package middleware

import (
	"encoding/json"
	"net/http"

	"shopify-barebone-app/internal/domain"
	"shopify-barebone-app/internal/infrastructure/signature"

	"github.com/rs/zerolog"
)

// TokenVerifier verifies a bearer token and returns its claims
type TokenVerifier func(token string) (*signature.SessionClaims, error)

// RequireSession rejects requests without a valid bearer token with 401 and
// stores the verified session in the request context.
func RequireSession(verify TokenVerifier, logger zerolog.Logger) func(http.Handler) http.Handler {
	return sessionMiddleware(verify, true, logger)
}

// OptionalSession verifies the bearer token only when one is sent. Routes
// that serve both the page shell and the JSON API use it to tell the two apart.
func OptionalSession(verify TokenVerifier, logger zerolog.Logger) func(http.Handler) http.Handler {
	return sessionMiddleware(verify, false, logger)
}

func sessionMiddleware(verify TokenVerifier, required bool, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" && !required {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := signature.BearerToken(header)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := verify(token)
			if err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Session token verification failed")
				unauthorized(w, "invalid session token")
				return
			}

			ctx := domain.WithSession(r.Context(), claims.Session())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// SecurityHeaders sets the headers every response carries
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
