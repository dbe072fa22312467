// Package auth provides session tokens, password hashing, the Google OAuth
// provider, and the request-authentication middleware.
//
// SESSION MODEL:
// Sessions are stateless JWTs. The token embeds the user id and an expiry,
// signed with a shared HMAC secret; validity is proven by signature and
// expiry check alone, with no server-side session store and no revocation
// bookkeeping. Logout is purely client-side cookie deletion. A deleted
// user holding a still-valid token is caught by the middleware's user
// lookup, not by token verification.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL matches the session cookie's 7-day lifetime.
const DefaultTokenTTL = 7 * 24 * time.Hour

const issuer = "eventhub"

// Verification failures the middleware tells apart for the client's sake.
// Both are rejected identically; only the 401 message differs.
var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// TokenService signs and verifies session tokens. The same secret is used
// for both operations; rotate it and every outstanding session dies, which
// is the only revocation mechanism a stateless design has.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters (use 32+ bytes of randomness in production). A non-positive
// ttl falls back to DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the configured token lifetime, which the auth handlers reuse
// as the session cookie's Max-Age so both expire together.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims embeds the registered JWT claim set. The user id travels in the
// standard "sub" claim.
type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a new session token for the given user id. Pure signing,
// no side effects.
func (s *TokenService) Generate(userID int64) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. Used by tests
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID int64, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, expiry, and issuer, and returns the user id
// from the subject claim.
//
// Restricting the accepted algorithms to HS256 blocks algorithm-confusion
// attacks where a token claims "none" or an asymmetric method. Expired
// tokens return ErrTokenExpired; every other failure (bad signature,
// wrong issuer, malformed claims) returns ErrTokenInvalid.
func (s *TokenService) Validate(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("%w: bad subject claim", ErrTokenInvalid)
	}
	return userID, nil
}
