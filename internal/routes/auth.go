package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/buildwise/buildwise_api/internal/auth"
)

// RegisterAuthRoutes wires token issuance.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	if rateLimiter != nil {
		r.Post("/jwt", rateLimiter, h.Issue)
		return
	}
	r.Post("/jwt", h.Issue)
}
