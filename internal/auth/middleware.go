package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/adlane/eventhub/internal/model"
	"github.com/adlane/eventhub/internal/repository"
)

// contextKey is unexported so only this package can read or write the
// authenticated user in a request context. A plain string key could be
// shadowed by any package that guesses it.
type contextKey string

const userKey contextKey = "user"

// TOKEN EXTRACTION ORDER:
// The browser frontend sends the session as an HttpOnly cookie named
// "token"; API clients send "Authorization: Bearer <token>". The cookie is
// checked first, the header is the fallback, and the absence of both is a
// missing credential.

// RequireAuth enforces authentication on protected routes.
//
// The chain is extract, verify, look up: a token whose signature and
// expiry check out still fails with 401 if the embedded user id no longer
// resolves (the user was deleted after issuance). On success the full user
// record is attached to the request context; the password hash never
// serializes thanks to the model's json tags. The 401 body distinguishes
// "invalid" from "expired" for client UX; callers treat both the same.
func RequireAuth(tokens *TokenService, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, tokens, users)
			if err != nil {
				writeUnauthorized(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the user when a valid token is present but lets
// every failure mode (missing token, bad signature, expiry, deleted user)
// degrade to an anonymous request instead of rejecting it. Public list and
// detail endpoints use it to personalize favorite flags.
func OptionalAuth(tokens *TokenService, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := resolveUser(r, tokens, users); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userKey, user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated user, or (nil, false) for an
// anonymous request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// resolveUser runs the shared extract-verify-lookup chain.
func resolveUser(r *http.Request, tokens *TokenService, users repository.UserRepository) (*model.User, error) {
	tokenStr, err := extractToken(r)
	if err != nil {
		return nil, err
	}

	userID, err := tokens.Validate(tokenStr)
	if err != nil {
		return nil, err
	}

	user, err := users.GetByID(r.Context(), userID)
	if err != nil {
		// Covers users deleted after the token was issued. Deliberately
		// reported as an invalid credential, not as a lookup detail.
		return nil, ErrTokenInvalid
	}
	return user, nil
}

// extractToken reads the session token from the cookie, falling back to
// the Authorization header.
func extractToken(r *http.Request) (string, error) {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	header := r.Header.Get("Authorization")
	if after, found := strings.CutPrefix(header, "Bearer "); found && after != "" {
		return after, nil
	}

	return "", errors.New("auth: no token provided")
}

// writeUnauthorized sends the 401 body. Kept local so the auth package
// does not depend on the handler package's response helpers.
func writeUnauthorized(w http.ResponseWriter, err error) {
	message := "valid authentication required"
	if errors.Is(err, ErrTokenExpired) {
		message = "token expired"
	} else if errors.Is(err, ErrTokenInvalid) {
		message = "invalid token"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthenticated","message":"` + message + `"}`))
}
