package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"earsip/internal/domain"
)

const sessionIssuer = "earsip"

var ErrInvalidSession = errors.New("invalid session")

// Sessions issues and verifies HS256 session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

type sessionClaims struct {
	jwt.RegisteredClaims
	FullName  string      `json:"name"`
	Role      domain.Role `json:"role"`
	LastLogin string      `json:"lastLogin,omitempty"`
}

func (s *Sessions) Issue(user domain.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		FullName:  user.FullName,
		Role:      user.Role,
		LastLogin: user.LastLogin,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *Sessions) Verify(token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, ErrInvalidSession
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return domain.User{}, ErrInvalidSession
	}

	return domain.User{
		Username:  claims.Subject,
		FullName:  claims.FullName,
		Role:      claims.Role,
		LastLogin: claims.LastLogin,
	}, nil
}
