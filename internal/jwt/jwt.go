package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired is returned when the token's expiry is at or before the current time.
	ErrExpired = errors.New("token has expired")
	// ErrMalformed is returned when the token cannot be parsed or its signature does not verify.
	ErrMalformed = errors.New("invalid token")
)

// DefaultIssuer is stamped into every token unless overridden.
const DefaultIssuer = "taskboard-be"

// Claims carries the subject user id plus the registered claims.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 identity tokens. It holds no per-token state.
type JWTService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option customises a JWTService.
type Option func(*JWTService)

// WithClock replaces time.Now, used by tests to pin the current instant.
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) {
		s.now = now
	}
}

// WithIssuer overrides DefaultIssuer.
func WithIssuer(issuer string) Option {
	return func(s *JWTService) {
		s.issuer = issuer
	}
}

// NewJWTService creates a token service signing with secret.
func NewJWTService(secret string, opts ...Option) *JWTService {
	s := &JWTService{
		secret: []byte(secret),
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints a token for userID that expires ttl from now.
func (s *JWTService) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user ID is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiryFor(now, ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// expiryFor rounds now+ttl up to a whole second. The exp claim carries whole seconds
// only, so truncating would end the token before its full ttl.
func expiryFor(now time.Time, ttl time.Duration) time.Time {
	expiresAt := now.Add(ttl)
	if whole := expiresAt.Truncate(time.Second); whole.Before(expiresAt) {
		return whole.Add(time.Second)
	}
	return expiresAt
}

// Verify checks the signature and expiry of tokenString and returns its subject.
func (s *JWTService) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrMalformed
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", ErrMalformed
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrMalformed
	}

	return claims.Subject, nil
}
