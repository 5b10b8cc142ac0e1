package auth

import (
	errs "chat-relay/errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenAuthority issues and verifies the short-lived credentials used to
// authenticate a connection. The signing key comes from configuration so
// a restart with the same key keeps previously issued tokens valid.
type TokenAuthority struct {
	secret   []byte
	duration time.Duration
}

func NewTokenAuthority(secret string, duration time.Duration) *TokenAuthority {
	return &TokenAuthority{secret: []byte(secret), duration: duration}
}

// Generate creates a signed JWT for a specific user.
func (a *TokenAuthority) Generate(username string, roles []string) (string, error) {
	expirationTime := time.Now().Add(a.duration)

	claims := &CustomClaims{
		Username: username,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "chat-relay",
		},
	}

	// Create the token using the HS256 algorithm (HMAC with SHA256).
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(a.secret)
}

// Verify parses and validates the signature and expiration of a JWT string
// and resolves it to the identity it names. Any failure, bad signature,
// expired token or garbage input, collapses into ErrInvalidCredential so
// the session layer has a single rejection path.
func (a *TokenAuthority) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.Username == "" {
		return "", errs.ErrInvalidCredential
	}
	return claims.Username, nil
}
