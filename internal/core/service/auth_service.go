package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

const defaultTokenTTL = time.Hour

// AuthService implements registration, login and logout.
type AuthService struct {
	creds    ports.CredentialStore
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	tokenTTL time.Duration
	audit    ports.AuditRecorder
	denylist ports.TokenDenylist
	log      zerolog.Logger

	// dummyHash is compared against when the username is unknown so that
	// both failure paths cost one bcrypt comparison.
	dummyHash string
}

// AuthOption configures optional AuthService collaborators.
type AuthOption func(*AuthService)

// WithAuditRecorder sends login/logout/registration events to rec.
func WithAuditRecorder(rec ports.AuditRecorder) AuthOption {
	return func(s *AuthService) { s.audit = rec }
}

// WithDenylist makes Logout revoke the presented token until it expires.
func WithDenylist(dl ports.TokenDenylist) AuthOption {
	return func(s *AuthService) { s.denylist = dl }
}

func WithLogger(log zerolog.Logger) AuthOption {
	return func(s *AuthService) { s.log = log }
}

func NewAuthService(creds ports.CredentialStore, hasher ports.PasswordHasher, tokens ports.TokenIssuer, tokenTTL time.Duration, opts ...AuthOption) (*AuthService, error) {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	dummy, err := hasher.Hash("meditrack-unknown-user")
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	s := &AuthService{
		creds:     creds,
		hasher:    hasher,
		tokens:    tokens,
		tokenTTL:  tokenTTL,
		log:       zerolog.Nop(),
		dummyHash: dummy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *AuthService) Register(ctx context.Context, in domain.NewCredential, meta ports.RequestMeta) (*domain.User, error) {
	user, err := s.creds.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.record(domain.AuditEntry{
		UserID:     user.ID,
		Action:     domain.ActionUserRegistered,
		EntityType: "user",
		EntityID:   user.ID,
		Details:    map[string]any{"username": user.Username, "role": string(user.Role)},
	}, meta)

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// Login verifies credentials and mints a token. Unknown usernames and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string, meta ports.RequestMeta) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.NewValidationError("username and password are required")
	}

	user, found, err := s.creds.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !found {
		s.hasher.Verify(password, s.dummyHash)
		s.loginFailed(username, "unknown_user", meta)
		return nil, domain.ErrInvalidCredentials
	}
	if len(password) > domain.MaxPasswordBytes || !s.hasher.Verify(password, user.PasswordHash) {
		s.loginFailed(username, "bad_password", meta)
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Identity(), s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.record(domain.AuditEntry{
		UserID:     user.ID,
		Action:     domain.ActionLogin,
		EntityType: "user",
		EntityID:   user.ID,
		Details:    map[string]any{"login_method": "credentials"},
	}, meta)

	return &ports.LoginResult{Token: token, User: user}, nil
}

// Logout is advisory unless a denylist is configured, in which case the
// token id is revoked until the token's own expiry.
func (s *AuthService) Logout(ctx context.Context, id *domain.Identity, meta ports.RequestMeta) error {
	if id == nil {
		return domain.ErrAuthenticationRequired
	}

	if s.denylist != nil && id.TokenID != "" {
		if err := s.denylist.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}

	s.record(domain.AuditEntry{
		UserID:     id.ID,
		Action:     domain.ActionLogout,
		EntityType: "user",
		EntityID:   id.ID,
		Details:    map[string]any{"logout_method": "manual", "revoked": s.denylist != nil},
	}, meta)
	return nil
}

func (s *AuthService) loginFailed(username, reason string, meta ports.RequestMeta) {
	s.log.Warn().Str("reason", reason).Str("ip", meta.IPAddress).Msg("login failed")
	s.record(domain.AuditEntry{
		Action:     domain.ActionLoginFailed,
		EntityType: "user",
		Details:    map[string]any{"username": username, "failure_reason": reason},
	}, meta)
}

func (s *AuthService) record(entry domain.AuditEntry, meta ports.RequestMeta) {
	if s.audit == nil {
		return
	}
	entry.IPAddress = meta.IPAddress
	entry.UserAgent = meta.UserAgent
	s.audit.Record(entry)
}
