// Package authz holds the request-time access policies. Every policy is a
// plain function of its inputs so handlers and middleware can compose them.
package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/buildwise/buildwise_api/internal/auth"
	"github.com/buildwise/buildwise_api/internal/identity"
)

var (
	// ErrUnauthenticated is returned when no valid bearer token is presented.
	ErrUnauthenticated = auth.ErrUnauthenticated
	// ErrForbidden is returned when a valid identity lacks the required role or scope.
	ErrForbidden = errors.New("forbidden")
)

// Role is the capability an identity resolves to. A missing identity record
// and a stored role other than admin both resolve to RoleUser.
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "user"
}

// Principal is the authenticated subject of a request.
type Principal struct {
	Email     string
	Name      string
	TokenID   string
	ExpiresAt time.Time
}

// Verifier validates bearer tokens.
type Verifier interface {
	Verify(token string) (auth.Claims, error)
}

// IdentityLookup reads persisted identity records.
type IdentityLookup interface {
	FindByEmail(ctx context.Context, email string) (identity.User, error)
}

const bearerPrefix = "bearer "

// Authenticate extracts the bearer token from an Authorization header value
// and verifies it.
func Authenticate(header string, verifier Verifier) (Principal, error) {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return Principal{}, fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}
	claims, err := verifier.Verify(strings.TrimSpace(header[len(bearerPrefix):]))
	if err != nil {
		return Principal{}, err
	}
	p := Principal{Email: claims.Email, Name: claims.Name, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return p, nil
}

// ResolveRole maps the principal's identity record to a Role.
func ResolveRole(ctx context.Context, p Principal, lookup IdentityLookup) (Role, error) {
	user, err := lookup.FindByEmail(ctx, p.Email)
	if errors.Is(err, identity.ErrNotFound) {
		return RoleUser, nil
	}
	if err != nil {
		return RoleUser, fmt.Errorf("resolve role: %w", err)
	}
	if user.Role == identity.RoleAdmin {
		return RoleAdmin, nil
	}
	return RoleUser, nil
}

// RequireAdmin fails with ErrForbidden unless the principal resolves to RoleAdmin.
func RequireAdmin(ctx context.Context, p Principal, lookup IdentityLookup) error {
	role, err := ResolveRole(ctx, p, lookup)
	if err != nil {
		return err
	}
	if role != RoleAdmin {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}

// RequireSelf fails with ErrForbidden unless email names the principal.
func RequireSelf(p Principal, email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.EqualFold(email, p.Email) {
		return fmt.Errorf("%w: resource belongs to another identity", ErrForbidden)
	}
	return nil
}

// Policy is a single authorization requirement evaluated for a principal.
type Policy func(ctx context.Context, p Principal) error

// AdminOnly is the Policy form of RequireAdmin.
func AdminOnly(lookup IdentityLookup) Policy {
	return func(ctx context.Context, p Principal) error {
		return RequireAdmin(ctx, p, lookup)
	}
}

// SelfOnly is the Policy form of RequireSelf.
func SelfOnly(email string) Policy {
	return func(_ context.Context, p Principal) error {
		return RequireSelf(p, email)
	}
}

// Check evaluates policies in order and returns the first failure.
func Check(ctx context.Context, p Principal, policies ...Policy) error {
	for _, policy := range policies {
		if err := policy(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
