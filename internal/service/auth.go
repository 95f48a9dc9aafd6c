package service

import (
	"context"
	"errors"
	"time"

	"github.com/contacthub/contacthub/internal/auth"
	"github.com/contacthub/contacthub/internal/domain/user"
	"github.com/contacthub/contacthub/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// UserStore is the persistence capability AuthService needs.
type UserStore interface {
	Create(ctx context.Context, email, username, passwordHash, role string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	SetVerified(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// UserCache is an optional cache-aside projection of users. Implementations
// never fail the request path: errors are misses.
type UserCache interface {
	Get(ctx context.Context, userID string) (user.User, bool)
	Set(ctx context.Context, u user.User, ttl time.Duration)
	Invalidate(ctx context.Context, userID string)
}

type AuthService struct {
	users    UserStore
	cache    UserCache
	jwt      *auth.Manager
	cacheTTL time.Duration
}

func NewAuthService(users UserStore, cache UserCache, jwtManager *auth.Manager, cacheTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		cache:    cache,
		jwt:      jwtManager,
		cacheTTL: cacheTTL,
	}
}

type RegisterRequest struct {
	Email    string
	Username string
	Password string
}

// Register creates the user and returns it along with an email-verification
// token. Delivering the token is the caller's concern.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (user.User, string, error) {
	hash, err := security.HashPassword(req.Password)

	if err != nil {
		return user.User{}, "", err
	}

	u, err := s.users.Create(ctx, req.Email, req.Username, hash, user.RoleUser)

	if err != nil {
		return user.User{}, "", err
	}

	verifyToken, err := s.jwt.GenerateEmailToken(u.ID, u.Email, auth.TypeVerify)

	if err != nil {
		return user.User{}, "", err
	}

	return u, verifyToken, nil
}

// Authenticate checks email+password and issues an access token. Every
// failure mode collapses to ErrInvalidCredentials so callers cannot probe
// which emails exist or which accounts are disabled.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)

	if err != nil {
		return "", ErrInvalidCredentials
	}

	if u.Disabled {
		return "", ErrInvalidCredentials
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
}

// Verify resolves a bearer token to its user. The token is validated first,
// so an expired token is rejected even when the user is still cached; on a
// cache miss the user comes from the store and is cached with a ttl no longer
// than the token's remaining lifetime.
func (s *AuthService) Verify(ctx context.Context, rawToken string) (user.User, error) {
	claims, err := s.jwt.VerifyAccessToken(rawToken)

	if err != nil {
		return user.User{}, ErrInvalidToken
	}

	if u, ok := s.cacheGet(ctx, claims.UserID); ok {
		if u.Disabled {
			return user.User{}, ErrInvalidToken
		}
		return u, nil
	}

	u, err := s.users.GetByID(ctx, claims.UserID)

	if err != nil {
		return user.User{}, ErrInvalidToken
	}

	if u.Disabled {
		return user.User{}, ErrInvalidToken
	}

	if s.cache != nil && claims.ExpiresAt != nil {
		ttl := s.cacheTTL
		if remaining := time.Until(claims.ExpiresAt.Time); remaining < ttl {
			ttl = remaining
		}
		s.cache.Set(ctx, u, ttl)
	}

	return u, nil
}

// ConfirmEmail marks the token's user as verified.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) error {
	claims, err := s.jwt.VerifyEmailToken(token, auth.TypeVerify)

	if err != nil {
		return ErrInvalidToken
	}

	if err := s.users.SetVerified(ctx, claims.Email); err != nil {
		return err
	}

	s.cacheInvalidate(ctx, claims.UserID)

	return nil
}

// RequestEmailVerification re-issues a verification token for an unverified
// account. Unknown emails, already-verified accounts, and disabled accounts
// all yield an empty token with no error so the handler answers identically
// either way.
func (s *AuthService) RequestEmailVerification(ctx context.Context, email string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	if u.Verified || u.Disabled {
		return "", nil
	}

	return s.jwt.GenerateEmailToken(u.ID, u.Email, auth.TypeVerify)
}

// RequestPasswordReset issues a reset token when the email is known. The
// empty-token success for unknown emails lets the handler answer identically
// either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	return s.jwt.GenerateEmailToken(u.ID, u.Email, auth.TypeReset)
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.jwt.VerifyEmailToken(token, auth.TypeReset)

	if err != nil {
		return ErrInvalidToken
	}

	hash, err := security.HashPassword(newPassword)

	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, claims.Email, hash); err != nil {
		return err
	}

	s.cacheInvalidate(ctx, claims.UserID)

	return nil
}

func (s *AuthService) cacheGet(ctx context.Context, userID string) (user.User, bool) {
	if s.cache == nil {
		return user.User{}, false
	}
	return s.cache.Get(ctx, userID)
}

func (s *AuthService) cacheInvalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
}
