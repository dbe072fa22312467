// Package service contains the business logic layer: validation, rules,
// and orchestration between repositories and the auth utilities. Handlers
// stay HTTP-only, repositories stay SQL-only.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/adlane/eventhub/internal/apperror"
	"github.com/adlane/eventhub/internal/auth"
	"github.com/adlane/eventhub/internal/model"
	"github.com/adlane/eventhub/internal/repository"
)

// maxProvisionRetries bounds the username-collision loop during OAuth
// account creation. The loop exists because the email/username existence
// checks and the insert are not atomic: a concurrent registration can
// still take the username between them, and the UNIQUE constraint is what
// actually detects it.
const maxProvisionRetries = 5

// invalidCredentialsMsg is shared by every password-login failure so the
// response never reveals whether the email exists.
const invalidCredentialsMsg = "invalid email or password"

// AuthService owns registration, login, and OAuth reconciliation.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user and the issued session token so the handler
// can set the cookie and write the response in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a password account and issues a session token.
//
// Email and username uniqueness is enforced by the store's constraints;
// both collisions surface as Conflict. The hash happens before the insert,
// so a conflict costs a wasted bcrypt round rather than a window where the
// row exists without a credential.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := s.passwords.Hash(password)
	if err != nil {
		// The only input-driven failure is a password over bcrypt's 72-byte
		// limit, which the request length check measures in characters, not
		// bytes. Report it as a validation error rather than a 500.
		return nil, apperror.ValidationFailed("password", "password is too long")
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) || errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.Conflict("user with this email or username already exists")
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates an email/password pair and issues a session token.
//
// All three failure modes (unknown email, password-less OAuth account,
// wrong password) return InvalidCredentials with 401. The OAuth-only case
// carries a "log in with Google" hint; that this narrows the generic
// message slightly is a deliberate product tradeoff, not an oversight.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials(invalidCredentialsMsg)
		}
		return nil, fmt.Errorf("service/auth: looking up user by email: %w", err)
	}

	if !user.HasPassword() {
		return nil, apperror.InvalidCredentials("please log in with Google")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.InvalidCredentials(invalidCredentialsMsg)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// OAuthIdentity is the claim set extracted from the provider's profile.
type OAuthIdentity struct {
	ProviderID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// ResolveOAuthIdentity reconciles an OAuth profile against existing
// accounts:
//
//  1. An account already linked to this provider id is returned as is.
//  2. An account with the same email gets the provider id attached; a
//     password account is silently linked to OAuth on its first matching
//     login, password hash untouched.
//  3. Otherwise a new password-less account is provisioned. The username
//     is seeded from the display name (or the email's local part) and, on
//     a username uniqueness collision, regenerated with a random 4-digit
//     suffix and retried up to maxProvisionRetries times. An email
//     collision here means the email check above raced wrong in a way
//     retrying cannot fix, so it propagates as an internal error.
func (s *AuthService) ResolveOAuthIdentity(ctx context.Context, identity OAuthIdentity) (*model.User, error) {
	if identity.ProviderID == "" || identity.Email == "" {
		return nil, fmt.Errorf("service/auth: OAuth identity missing provider id or email")
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))

	user, err := s.users.GetByGoogleID(ctx, identity.ProviderID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up OAuth id: %w", err)
	}

	user, err = s.users.GetByEmail(ctx, email)
	if err == nil {
		if err := s.users.AttachGoogleID(ctx, user.ID, identity.ProviderID); err != nil {
			return nil, fmt.Errorf("service/auth: linking OAuth id to user %d: %w", user.ID, err)
		}
		user.GoogleID = identity.ProviderID
		s.logger.Info("linked OAuth identity to existing account",
			slog.Int64("userID", user.ID),
		)
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up user by email: %w", err)
	}

	username := usernameSeed(identity.DisplayName, email)

	for attempt := 0; attempt < maxProvisionRetries; attempt++ {
		user = &model.User{
			Username: username,
			Email:    email,
			GoogleID: identity.ProviderID,
			Avatar:   identity.AvatarURL,
		}
		err = s.users.Create(ctx, user)
		if err == nil {
			s.logger.Info("provisioned user from OAuth identity",
				slog.Int64("userID", user.ID),
				slog.String("username", user.Username),
			)
			return user, nil
		}
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, fmt.Errorf("service/auth: unexpected email conflict during OAuth provisioning: %w", err)
		}
		if !errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, fmt.Errorf("service/auth: provisioning OAuth user: %w", err)
		}

		username = collisionUsername(identity.DisplayName, email)
	}

	s.logger.Error("OAuth provisioning exhausted username retries",
		slog.Int("attempts", maxProvisionRetries),
	)
	return nil, apperror.ProvisioningFailed("failed to create user account")
}

// GetUserByID returns the user for an internal id. Used by /api/auth/me
// after the middleware resolves the token.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "user ID must be positive")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// usernameSeed picks the initial username for a provisioned account: the
// display name when present, else the email's local part.
func usernameSeed(displayName, email string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// collisionUsername builds a retry candidate: the seed with whitespace
// stripped plus a random 4-digit suffix (1000-9999).
func collisionUsername(displayName, email string) string {
	seed := usernameSeed(displayName, email)
	seed = strings.Join(strings.Fields(seed), "")
	return fmt.Sprintf("%s_%d", seed, 1000+rand.Intn(9000))
}
