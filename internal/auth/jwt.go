package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess = "access"
	TypeVerify = "verify"
	TypeReset  = "reset"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongType    = errors.New("invalid token type")
)

type Claims struct {
	UserID    string `json:"sub"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	JTI       string `json:"jti"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret    []byte
	accessTTL time.Duration
	emailTTL  time.Duration
}

func NewManager(secret string, accessTTL, emailTTL time.Duration) *Manager {
	return &Manager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		emailTTL:  emailTTL,
	}
}

func (m *Manager) GenerateAccessToken(userID, email, role string) (string, error) {
	return m.generate(userID, email, role, TypeAccess, m.accessTTL)
}

// GenerateEmailToken issues a verification or password-reset token. These
// live longer than access tokens and are single-purpose by type claim.
func (m *Manager) GenerateEmailToken(userID, email, tokenType string) (string, error) {
	if tokenType != TypeVerify && tokenType != TypeReset {
		return "", ErrWrongType
	}
	return m.generate(userID, email, "", tokenType, m.emailTTL)
}

func (m *Manager) generate(userID, email, role, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: tokenType,
		JTI:       uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) ParseAndValidate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) VerifyAccessToken(tokenStr string) (*Claims, error) {
	return m.verifyTyped(tokenStr, TypeAccess)
}

func (m *Manager) VerifyEmailToken(tokenStr, wantType string) (*Claims, error) {
	if wantType != TypeVerify && wantType != TypeReset {
		return nil, ErrWrongType
	}
	return m.verifyTyped(tokenStr, wantType)
}

func (m *Manager) verifyTyped(tokenStr, wantType string) (*Claims, error) {
	claims, err := m.ParseAndValidate(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongType
	}
	return claims, nil
}
