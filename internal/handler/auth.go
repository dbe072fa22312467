package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/adlane/eventhub/internal/auth"
	"github.com/adlane/eventhub/internal/service"
)

// AuthHandler owns registration, password login, the Google OAuth flow,
// and session management.
//
// SESSION COOKIE:
// The JWT travels in an HttpOnly cookie named "token" so the SPA never
// touches it from JavaScript. Its lifetime matches the token's own TTL;
// an expired cookie and an expired token fail at the same moment.
type AuthHandler struct {
	authSvc     *service.AuthService
	google      *auth.GoogleProvider
	tokens      *auth.TokenService
	frontendURL string
	logger      *slog.Logger
}

func NewAuthHandler(
	authSvc *service.AuthService,
	google *auth.GoogleProvider,
	tokens *auth.TokenService,
	frontendURL string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authSvc:     authSvc,
		google:      google,
		tokens:      tokens,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// authResponse is the body of every successful register/login.
type authResponse struct {
	User  any    `json:"user"`
	Token string `json:"token"`
}

// HandleRegister creates a password account.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authSvc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, r, result.Token)
	writeJSON(w, http.StatusCreated, authResponse{User: result.User, Token: result.Token})
}

// HandleLogin authenticates an email/password pair.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, r, result.Token)
	writeJSON(w, http.StatusOK, authResponse{User: result.User, Token: result.Token})
}

// HandleLogout clears the session cookie. Stateless tokens cannot be
// revoked server-side; deleting the cookie is the whole operation.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	cookie := h.sessionCookie(r, "")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated user's profile. The middleware has
// already resolved the token to a full user record.
//
// HTTP: GET /api/auth/me (RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, kept as a guard.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Message: "authentication required"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// HandleGoogleLogin starts the OAuth flow by redirecting to Google's
// consent page. The random state lands in a short-lived cookie and is
// checked on callback, which ties the callback to a flow this server
// started.
//
// HTTP: GET /api/auth/google
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the OAuth flow: verify state, exchange
// the code for a profile, reconcile it into an account, set the session
// cookie, and send the browser back to the frontend.
//
// HTTP: GET /api/auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch or missing")
		h.redirectFrontend(w, r, "/login?error=oauth_state")
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: authorization denied", slog.String("error", errParam))
		h.redirectFrontend(w, r, "/login?error=oauth_denied")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectFrontend(w, r, "/login?error=oauth_code")
		return
	}

	profile, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		h.redirectFrontend(w, r, "/login?error=oauth_exchange")
		return
	}

	user, err := h.authSvc.ResolveOAuthIdentity(r.Context(), service.OAuthIdentity{
		ProviderID:  profile.ID,
		Email:       profile.Email,
		DisplayName: profile.Name,
		AvatarURL:   profile.Picture,
	})
	if err != nil {
		h.logger.Error("oauth callback: identity resolution failed", slog.String("error", err.Error()))
		h.redirectFrontend(w, r, "/login?error=oauth_account")
		return
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		h.logger.Error("oauth callback: token generation failed", slog.String("error", err.Error()))
		h.redirectFrontend(w, r, "/login?error=oauth_token")
		return
	}

	h.setSessionCookie(w, r, token)
	h.redirectFrontend(w, r, "/")
}

// setSessionCookie issues the "token" cookie with a lifetime matching the
// token TTL.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, h.sessionCookie(r, token))
}

// sessionCookie builds the session cookie for this request's transport.
//
// CROSS-SITE DEPLOYMENTS:
// When the frontend is served from a different origin over HTTPS, the
// browser only sends the cookie on API calls if SameSite=None, and
// SameSite=None requires Secure. On plain-HTTP local dev, Secure cookies
// are dropped entirely, so the fallback is Lax without Secure. TLS may be
// terminated by a proxy in front of the app, hence the X-Forwarded-Proto
// check next to r.TLS.
func (h *AuthHandler) sessionCookie(r *http.Request, token string) *http.Cookie {
	secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"

	cookie := &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}

// redirectFrontend sends the browser to a path on the configured frontend
// origin, or a relative path when the SPA is served by this process.
func (h *AuthHandler) redirectFrontend(w http.ResponseWriter, r *http.Request, path string) {
	target := path
	if h.frontendURL != "" {
		target = h.frontendURL + path
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
