package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "edgeguard/pkg/domainerrors"
)

// Claims is what the guard needs from a validated bearer token.
type Claims struct {
	UserID string
	Admin  bool
}

// sessionClaims is the wire shape of a session token.
type sessionClaims struct {
	Admin bool `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator validates and mints HMAC-SHA256 session tokens. This is the
// single signing strategy for the whole service: there is no fallback to an
// unsigned encoding, ever. An unavailable key is a startup error, not a
// downgrade.
type JWTValidator struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
}

func NewJWTValidator(signingKey string, tokenTTL time.Duration) (*JWTValidator, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("jwt signing key is required")
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &JWTValidator{
		signingKey: []byte(signingKey),
		issuer:     "edgeguard",
		tokenTTL:   tokenTTL,
	}, nil
}

// Validate parses a bearer token and returns its claims. Only HMAC-signed
// tokens are accepted.
func (v *JWTValidator) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired token")
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "malformed token claims")
	}

	return &Claims{
		UserID: claims.Subject,
		Admin:  claims.Admin,
	}, nil
}

// Generate mints a session token for a user. Used by the login handler after
// primary authentication and by tests.
func (v *JWTValidator) Generate(userID string, admin bool) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return signed, nil
}
