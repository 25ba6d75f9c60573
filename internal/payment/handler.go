package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/buildwise/buildwise_api/internal/authz"
	"github.com/buildwise/buildwise_api/internal/middleware"
)

// Handler exposes charge, settlement and history endpoints.
type Handler struct {
	coordinator *Coordinator
	reconciler  *Reconciler
}

// NewHandler builds a payment HTTP handler.
func NewHandler(coordinator *Coordinator, reconciler *Reconciler) *Handler {
	return &Handler{coordinator: coordinator, reconciler: reconciler}
}

type intentRequest struct {
	Price   json.RawMessage `json:"price"`
	CartIDs []string        `json:"cartIds"`
}

type settlementRequest struct {
	Email         string          `json:"email"`
	Price         json.RawMessage `json:"price"`
	Currency      string          `json:"currency"`
	TransactionID string          `json:"transactionId"`
	CartIDs       []string        `json:"cartIds"`
}

type paymentResponse struct {
	ID            string    `json:"_id"`
	Email         string    `json:"email"`
	Price         float64   `json:"price"`
	AmountMinor   int64     `json:"amount_minor"`
	Currency      string    `json:"currency"`
	TransactionID string    `json:"transactionId,omitempty"`
	CartIDs       []string  `json:"cartIds"`
	Date          time.Time `json:"date"`
}

func toResponse(p Payment) paymentResponse {
	ids := p.CartIDs
	if ids == nil {
		ids = []string{}
	}
	return paymentResponse{
		ID: p.ID, Email: p.Email, Price: p.Price(), AmountMinor: p.AmountMinor,
		Currency: p.Currency, TransactionID: p.TransactionID, CartIDs: ids, Date: p.CreatedAt,
	}
}

// CreateIntent returns the client secret for a card charge of the given price.
func (h *Handler) CreateIntent(c *fiber.Ctx) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized access")
	}
	var req intentRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	}
	price, err := ParsePrice(req.Price)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_amount", err.Error(), nil)
	}

	intent, err := h.coordinator.CreateChargeIntent(c.UserContext(), ChargeRequest{Price: price, Email: p.Email, CartIDs: req.CartIDs})
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidAmount):
		return writeError(c, http.StatusBadRequest, "invalid_amount", err.Error(), nil)
	case errors.Is(err, ErrCartMismatch):
		return writeError(c, http.StatusBadRequest, "cart_mismatch", err.Error(), nil)
	case errors.Is(err, ErrGatewayFailed):
		return writeError(c, http.StatusBadGateway, "gateway_failed", ErrGatewayFailed.Error(), nil)
	default:
		return writeError(c, http.StatusInternalServerError, "internal", "failed to create payment intent", nil)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"clientSecret": intent.ClientSecret,
		"amount":       intent.AmountMinor,
		"currency":     intent.Currency,
	})
}

// Record settles a completed charge for the authenticated payer.
func (h *Handler) Record(c *fiber.Ctx) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized access")
	}
	var req settlementRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	}
	if err := authz.RequireSelf(p, req.Email); err != nil {
		return fiber.NewError(http.StatusForbidden, "forbidden access")
	}
	price, err := ParsePrice(req.Price)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_amount", err.Error(), nil)
	}

	res, err := h.coordinator.RecordSettlement(c.UserContext(), Settlement{
		Email:         p.Email,
		Price:         price,
		Currency:      req.Currency,
		TransactionID: req.TransactionID,
		CartIDs:       req.CartIDs,
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidAmount):
		return writeError(c, http.StatusBadRequest, "invalid_amount", err.Error(), nil)
	case errors.Is(err, ErrInvalidSettlement):
		return writeError(c, http.StatusBadRequest, "invalid_settlement", err.Error(), nil)
	case errors.Is(err, ErrCleanupIncomplete):
		// The payment exists; a replay must not record it twice.
		middleware.KeepIdempotentResponse(c)
		return writeError(c, http.StatusInternalServerError, "cleanup_incomplete", ErrCleanupIncomplete.Error(), settlementBody(res))
	case errors.Is(err, ErrSettlementFailed):
		return writeError(c, http.StatusInternalServerError, "settlement_failed", ErrSettlementFailed.Error(), fiber.Map{"phase": res.Phase})
	default:
		return writeError(c, http.StatusInternalServerError, "internal", "failed to record payment", nil)
	}

	return c.Status(http.StatusOK).JSON(settlementBody(res))
}

// History lists the payments of the email in the route.
func (h *Handler) History(c *fiber.Ctx) error {
	payments, err := h.coordinator.ListForEmail(c.UserContext(), c.Params("email"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toResponse(p))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Reconcile runs one cleanup pass immediately.
func (h *Handler) Reconcile(c *fiber.Ctx) error {
	if h.reconciler == nil {
		return fiber.NewError(http.StatusServiceUnavailable, "reconciler disabled")
	}
	report, err := h.reconciler.RunOnce(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(report)
}

func settlementBody(res Result) fiber.Map {
	body := fiber.Map{
		"phase": res.Phase,
		"paymentResult": fiber.Map{
			"acknowledged": res.Payment.ID != "",
			"insertedId":   res.Payment.ID,
		},
	}
	if res.Payment.ID != "" {
		body["payment"] = toResponse(res.Payment)
	}
	if res.Phase == PhaseSettled {
		body["deleteResult"] = fiber.Map{"acknowledged": true, "deletedCount": res.Deleted}
	}
	return body
}

func writeError(c *fiber.Ctx, status int, kind, message string, extra fiber.Map) error {
	body := fiber.Map{"kind": kind, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}
