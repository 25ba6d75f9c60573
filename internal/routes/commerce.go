package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/buildwise/buildwise_api/internal/cart"
	"github.com/buildwise/buildwise_api/internal/listing"
	"github.com/buildwise/buildwise_api/internal/middleware"
	"github.com/buildwise/buildwise_api/internal/payment"
)

// RegisterListingRoutes wires the public catalogue and announcements.
func RegisterListingRoutes(r fiber.Router, g *middleware.Guard, h *listing.Handler) {
	r.Get("/apartments", h.Apartments)
	r.Get("/apartmentCount", h.ApartmentCount)
	r.Get("/announcement", h.Announcements)
	r.Post("/announcement", g.RequireAuth(), g.RequireAdmin(), h.Announce)
}

// RegisterCartRoutes wires the caller's cart.
func RegisterCartRoutes(r fiber.Router, g *middleware.Guard, h *cart.Handler) {
	r.Post("/carts", g.RequireAuth(), h.Add)
	r.Get("/carts", g.RequireAuth(), g.RequireSelfQuery("email"), h.List)
	r.Delete("/carts/:id", g.RequireAuth(), h.Remove)
}

// RegisterPaymentRoutes wires charges, settlement and history. The
// idempotency middleware runs after authentication so keys are scoped to the
// payer.
func RegisterPaymentRoutes(r fiber.Router, g *middleware.Guard, h *payment.Handler, idempotency fiber.Handler) {
	r.Post("/create-payment-intent", g.RequireAuth(), h.CreateIntent)
	r.Post("/payments", g.RequireAuth(), idempotency, h.Record)
	r.Get("/payments/:email", g.RequireAuth(), g.RequireSelfParam("email"), h.History)
	r.Post("/admin/reconcile", g.RequireAuth(), g.RequireAdmin(), h.Reconcile)
}
