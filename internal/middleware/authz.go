package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/buildwise/buildwise_api/internal/authz"
	"github.com/buildwise/buildwise_api/internal/logging"
	"github.com/buildwise/buildwise_api/internal/metrics"
)

const principalLocal = "principal"

// Principal returns the authenticated subject attached by RequireAuth.
func Principal(c *fiber.Ctx) (authz.Principal, bool) {
	p, ok := c.Locals(principalLocal).(authz.Principal)
	return p, ok
}

// Guard adapts the authz policies to Fiber handlers.
type Guard struct {
	tokens  authz.Verifier
	lookup  authz.IdentityLookup
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewGuard builds a Guard. A nil recorder disables metrics.
func NewGuard(tokens authz.Verifier, lookup authz.IdentityLookup, rec metrics.Recorder, logger *slog.Logger) *Guard {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Guard{tokens: tokens, lookup: lookup, metrics: rec, logger: logger}
}

// RequireAuth verifies the bearer token and attaches the principal.
func (g *Guard) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := authz.Authenticate(c.Get(fiber.HeaderAuthorization), g.tokens)
		if err != nil {
			return g.deny(c, err)
		}
		c.Locals(principalLocal, p)
		return c.Next()
	}
}

// RequireAdmin lets the request through only for admin principals. It must
// run after RequireAuth.
func (g *Guard) RequireAdmin() fiber.Handler {
	return g.require(func(c *fiber.Ctx) authz.Policy {
		return authz.AdminOnly(g.lookup)
	})
}

// RequireSelfParam requires the named path parameter to equal the
// principal's email.
func (g *Guard) RequireSelfParam(param string) fiber.Handler {
	return g.require(func(c *fiber.Ctx) authz.Policy {
		return authz.SelfOnly(c.Params(param))
	})
}

// RequireSelfQuery requires the named query parameter to equal the
// principal's email.
func (g *Guard) RequireSelfQuery(key string) fiber.Handler {
	return g.require(func(c *fiber.Ctx) authz.Policy {
		return authz.SelfOnly(c.Query(key))
	})
}

func (g *Guard) require(build func(c *fiber.Ctx) authz.Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := Principal(c)
		if !ok {
			return g.deny(c, authz.ErrUnauthenticated)
		}
		if err := authz.Check(c.UserContext(), p, build(c)); err != nil {
			return g.deny(c, err)
		}
		return c.Next()
	}
}

func (g *Guard) deny(c *fiber.Ctx, err error) error {
	logger := logging.FromContext(c.UserContext(), g.logger)
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		g.metrics.RecordAuthDenial("unauthenticated")
		logger.Warn("unauthorized access", slog.String("path", c.Path()), slog.Any("error", err))
		return fiber.NewError(http.StatusUnauthorized, "unauthorized access")
	case errors.Is(err, authz.ErrForbidden):
		g.metrics.RecordAuthDenial("forbidden")
		logger.Warn("forbidden access", slog.String("path", c.Path()), slog.Any("error", err))
		return fiber.NewError(http.StatusForbidden, "forbidden access")
	default:
		g.metrics.RecordAuthDenial("error")
		logger.Error("authorization check failed", slog.String("path", c.Path()), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "authorization check failed")
	}
}
