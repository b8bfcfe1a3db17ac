package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"usermanager/internal/auth"
	apperrors "usermanager/internal/errors"
	"usermanager/internal/metrics"
	"usermanager/internal/model"
)

// Session is the result of a successful login: a fresh token and the user
// record without its password hash.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Principal is the authenticated actor behind a request.
type Principal struct {
	ID        uint
	Email     string
	Role      model.Role
	TokenID   string
	ExpiresAt time.Time
}

// AuthService handles authentication operations.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	// LoginWithJWT verifies a previously issued token and reissues a new one.
	LoginWithJWT(ctx context.Context, token string) (*Session, error)
	Logout(ctx context.Context, token string) error
	// Authenticate resolves a bearer token to the current principal.
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

type authService struct {
	users   UserService
	hasher  auth.PasswordHasher
	tokens  auth.TokenService
	revoked auth.TokenStoreInterface
	log     zerolog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users UserService,
	hasher auth.PasswordHasher,
	tokens auth.TokenService,
	revoked auth.TokenStoreInterface,
	log zerolog.Logger,
) AuthService {
	return &authService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		revoked: revoked,
		log:     log.With().Str("component", "auth").Logger(),
	}
}

// Login checks credentials and issues a token. Failures other than an unknown
// email or a wrong password are logged and reported as ErrLoginFailed.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	session, err := s.login(ctx, email, password)
	switch {
	case err == nil:
		metrics.LoginAttemptsTotal.WithLabelValues("password", metrics.ResultSuccess).Inc()
		return session, nil
	case errors.Is(err, apperrors.ErrUserNotFound):
		metrics.LoginAttemptsTotal.WithLabelValues("password", metrics.ResultUserNotFound).Inc()
		return nil, apperrors.ErrUserNotFound
	case errors.Is(err, apperrors.ErrIncorrectPassword):
		metrics.LoginAttemptsTotal.WithLabelValues("password", metrics.ResultBadPassword).Inc()
		return nil, apperrors.ErrIncorrectPassword
	default:
		metrics.LoginAttemptsTotal.WithLabelValues("password", metrics.ResultInternalError).Inc()
		s.log.Error().Err(err).Msg("login failed")
		return nil, apperrors.ErrLoginFailed
	}
}

func (s *authService) login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindOneByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	if err := s.hasher.Compare(user.Password, password); err != nil {
		return nil, apperrors.ErrIncorrectPassword
	}
	return s.issue(user)
}

func (s *authService) LoginWithJWT(ctx context.Context, token string) (*Session, error) {
	claims, err := s.verify(ctx, token)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("token", metrics.ResultInvalidToken).Inc()
		return nil, err
	}

	user, err := s.users.FindOneByEmail(ctx, claims.Email)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("token", metrics.ResultInternalError).Inc()
		return nil, err
	}
	// A re-registered email gets a new id; the old token must not carry over.
	if user == nil || user.ID != claims.UserID {
		metrics.LoginAttemptsTotal.WithLabelValues("token", metrics.ResultUserNotFound).Inc()
		return nil, apperrors.ErrUserNotFound
	}

	session, err := s.issue(user)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("token", metrics.ResultInternalError).Inc()
		return nil, err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("token", metrics.ResultSuccess).Inc()
	return session, nil
}

// Logout revokes the token until its own expiry.
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.verify(ctx, token)
	if err != nil {
		return err
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.Remaining()); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate re-reads the user so role changes and deletions take effect
// before the token expires.
func (s *authService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindOneByEmail(ctx, claims.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.ID != claims.UserID {
		return nil, apperrors.ErrInvalidToken
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &Principal{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TokenID:   claims.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// verify collapses every token failure into ErrInvalidToken.
func (s *authService) verify(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		s.log.Debug().Err(err).Msg("token rejected")
		return nil, apperrors.ErrInvalidToken
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil || revoked {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) issue(user *model.User) (*Session, error) {
	token, _, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Token: token, User: user.WithoutPassword()}, nil
}
