package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/buildwise/buildwise_api/internal/authz"
	"github.com/buildwise/buildwise_api/internal/identity"
	"github.com/buildwise/buildwise_api/internal/middleware"
)

// RegisterIdentityRoutes wires user management. Registration is public; the
// rest requires a token, and everything but the admin probe requires the
// admin role.
func RegisterIdentityRoutes(r fiber.Router, g *middleware.Guard, h *identity.Handler, lookup authz.IdentityLookup) {
	r.Post("/users", h.Register)
	r.Get("/users", g.RequireAuth(), g.RequireAdmin(), h.List)
	r.Patch("/users/admin/:id", g.RequireAuth(), g.RequireAdmin(), h.PromoteToAdmin)
	r.Delete("/users/:id", g.RequireAuth(), g.RequireAdmin(), h.Delete)

	r.Get("/users/admin/:email", g.RequireAuth(), g.RequireSelfParam("email"), func(c *fiber.Ctx) error {
		p, _ := middleware.Principal(c)
		role, err := authz.ResolveRole(c.UserContext(), p, lookup)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, "failed to resolve role")
		}
		return c.JSON(fiber.Map{"admin": role == authz.RoleAdmin})
	})
}
