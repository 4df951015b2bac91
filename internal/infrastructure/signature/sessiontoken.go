package signature

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"shopify-barebone-app/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultLeeway = 5 * time.Second
	AppTokenTTL   = time.Hour
	signingMethod = "HS256"
	bearerPrefix  = "Bearer "
)

// SessionClaims are the claims carried by App Bridge, checkout and POS session tokens
type SessionClaims struct {
	Dest string `json:"dest"`
	Sid  string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Shop extracts the shop domain from the dest claim, which is either a bare
// domain or an https URL depending on the token issuer.
func (c *SessionClaims) Shop() string {
	dest := c.Dest
	if strings.Contains(dest, "://") {
		if u, err := url.Parse(dest); err == nil {
			return u.Host
		}
	}
	return dest
}

// Session converts the claims into the domain session
func (c *SessionClaims) Session() *domain.Session {
	s := &domain.Session{
		Shop:      c.Shop(),
		Subject:   c.Subject,
		SessionID: c.Sid,
		Issuer:    c.Issuer,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}

// TokenService verifies Shopify session tokens and signs the app's own tokens.
// Both are HS256 JWTs keyed with the API secret.
type TokenService struct {
	apiKey string
	secret []byte
	appURL string
	leeway time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service
func NewTokenService(apiKey, apiSecret, appURL string) *TokenService {
	return &TokenService{
		apiKey: apiKey,
		secret: []byte(apiSecret),
		appURL: appURL,
		leeway: defaultLeeway,
		now:    time.Now,
	}
}

// WithClock overrides the clock used for exp/nbf/iat checks
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// VerifySessionToken validates the signature, time claims and audience of a
// Shopify-issued session token.
func (s *TokenService) VerifySessionToken(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{signingMethod}),
		jwt.WithAudience(s.apiKey),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSessionToken, err)
	}
	if claims.Dest == "" {
		return nil, fmt.Errorf("%w: missing dest claim", domain.ErrInvalidSessionToken)
	}
	return claims, nil
}

// SignAppToken issues a short-lived token the app hands to extensions after
// a mock login. The issuer is the app URL.
func (s *TokenService) SignAppToken(subject, shop string) (string, error) {
	now := s.now()
	claims := &SessionClaims{
		Dest: shop,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.appURL,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.apiKey},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AppTokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign app token: %w", err)
	}
	return signed, nil
}

// VerifyAppToken validates a token previously issued by SignAppToken
func (s *TokenService) VerifyAppToken(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{signingMethod}),
		jwt.WithAudience(s.apiKey),
		jwt.WithIssuer(s.appURL),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSessionToken, err)
	}
	return claims, nil
}

func (s *TokenService) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return s.secret, nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(bearerPrefix):]), true
}
