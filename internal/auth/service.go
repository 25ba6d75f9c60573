package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/buildwise/buildwise_api/internal/clock"
)

const issuer = "buildwise"

var (
	// ErrUnauthenticated is returned for any token that is missing, malformed,
	// signed with another key or algorithm, or expired.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidIdentity indicates the payload to sign lacks an email subject.
	ErrInvalidIdentity = errors.New("identity email is required")
)

// Identity is the payload a token is issued for.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Claims are the decoded contents of a verified access token.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Token is a signed access token and the instant it stops being accepted.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenService issues and verifies short lived HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewTokenService builds a token service. A nil clock uses the system clock.
func NewTokenService(secret string, ttl time.Duration, clk clock.Clock) *TokenService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, clock: clk}
}

// Issue signs a token for identity that expires ttl after now.
func (s *TokenService) Issue(identity Identity) (Token, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return Token{}, ErrInvalidIdentity
	}
	if len(s.secret) == 0 {
		return Token{}, errors.New("signing secret is not configured")
	}

	now := s.clock.Now()
	exp := now.Add(s.ttl)
	claims := Claims{
		Email: email,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: exp}, nil
}

// Verify checks the signature and expiry of token and returns its claims.
func (s *TokenService) Verify(token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: token expired", ErrUnauthenticated)
		}
		return Claims{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}
	if !parsed.Valid || claims.Email == "" || claims.Subject != claims.Email {
		return Claims{}, fmt.Errorf("%w: invalid claims", ErrUnauthenticated)
	}
	return claims, nil
}

// TTL reports the lifetime given to newly issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
