package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/buildwise/buildwise_api/internal/cart"
	"github.com/buildwise/buildwise_api/internal/clock"
	"github.com/buildwise/buildwise_api/internal/metrics"
	"github.com/buildwise/buildwise_api/internal/notification"
)

const (
	defaultCurrency     = "usd"
	defaultStoreTimeout = 10 * time.Second
	tracerName          = "github.com/buildwise/buildwise_api/internal/payment"
)

var (
	// ErrInvalidSettlement is returned when a settlement request is incomplete.
	ErrInvalidSettlement = errors.New("settlement requires an email, a positive price and at least one cart id")
	// ErrCartMismatch is returned when a charge names cart entries the payer does not own.
	ErrCartMismatch = errors.New("cart entries not found for payer")
	// ErrGatewayFailed is returned when the processor rejects or cannot create an intent.
	ErrGatewayFailed = errors.New("payment gateway unavailable")
	// ErrSettlementFailed means the payment record was not written. Nothing changed.
	ErrSettlementFailed = errors.New("payment could not be recorded")
	// ErrCleanupIncomplete means the payment is durable but cart entries remain.
	ErrCleanupIncomplete = errors.New("payment recorded but cart cleanup is incomplete")
)

// CartStore is the part of the cart store settlement depends on.
type CartStore interface {
	FindMany(ctx context.Context, owner string, ids []string) ([]cart.Entry, error)
	DeleteMany(ctx context.Context, owner string, ids []string) (int64, error)
}

// Deps groups the collaborators of a Coordinator. Payments, Carts and
// Gateway are required.
type Deps struct {
	Payments     Repository
	Carts        CartStore
	Gateway      Gateway
	Cleanup      CleanupQueue
	Notifier     notification.Notifier
	Metrics      metrics.Recorder
	Clock        clock.Clock
	Logger       *slog.Logger
	Currency     string
	StoreTimeout time.Duration
}

// Coordinator creates charge intents and records settlements so that a
// payment is always durable before any cart entry is removed.
type Coordinator struct {
	payments     Repository
	carts        CartStore
	gateway      Gateway
	cleanup      CleanupQueue
	notifier     notification.Notifier
	metrics      metrics.Recorder
	clock        clock.Clock
	logger       *slog.Logger
	currency     string
	storeTimeout time.Duration
	tracer       trace.Tracer
}

// NewCoordinator wires a Coordinator, filling optional collaborators with
// in-memory or no-op defaults.
func NewCoordinator(d Deps) (*Coordinator, error) {
	if d.Payments == nil || d.Carts == nil || d.Gateway == nil {
		return nil, fmt.Errorf("payment coordinator requires payments, carts and gateway")
	}
	c := &Coordinator{
		payments:     d.Payments,
		carts:        d.Carts,
		gateway:      d.Gateway,
		cleanup:      d.Cleanup,
		notifier:     d.Notifier,
		metrics:      d.Metrics,
		clock:        d.Clock,
		logger:       d.Logger,
		currency:     strings.ToLower(strings.TrimSpace(d.Currency)),
		storeTimeout: d.StoreTimeout,
		tracer:       otel.Tracer(tracerName),
	}
	if c.cleanup == nil {
		c.cleanup = NewMemoryCleanupQueue()
	}
	if c.metrics == nil {
		c.metrics = metrics.Noop{}
	}
	if c.clock == nil {
		c.clock = clock.NewSystem()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.currency == "" {
		c.currency = defaultCurrency
	}
	if c.storeTimeout <= 0 {
		c.storeTimeout = defaultStoreTimeout
	}
	return c, nil
}

// CreateChargeIntent converts price to minor units and asks the gateway for
// an intent. When cart ids are given they must all belong to req.Email.
func (c *Coordinator) CreateChargeIntent(ctx context.Context, req ChargeRequest) (ChargeIntent, error) {
	ctx, span := c.tracer.Start(ctx, "payment.CreateChargeIntent")
	defer span.End()

	amount, err := ToMinorUnits(req.Price)
	if err != nil {
		c.metrics.RecordChargeIntent("invalid_amount")
		return ChargeIntent{}, err
	}
	span.SetAttributes(attribute.Int64("payment.amount_minor", amount))

	if ids := uniqueIDs(req.CartIDs); len(ids) > 0 {
		entries, err := c.carts.FindMany(ctx, req.Email, ids)
		if err != nil {
			failSpan(span, err)
			c.metrics.RecordChargeIntent("error")
			return ChargeIntent{}, fmt.Errorf("load cart entries: %w", err)
		}
		if len(entries) != len(ids) {
			c.metrics.RecordChargeIntent("cart_mismatch")
			return ChargeIntent{}, ErrCartMismatch
		}
	}

	intent, err := c.gateway.CreateIntent(ctx, amount, c.currency)
	if err != nil {
		failSpan(span, err)
		c.metrics.RecordChargeIntent("gateway_error")
		c.logger.ErrorContext(ctx, "create charge intent", "amount_minor", amount, "error", err)
		return ChargeIntent{}, fmt.Errorf("%w: %w", ErrGatewayFailed, err)
	}

	c.metrics.RecordChargeIntent("created")
	return ChargeIntent{ClientSecret: intent.ClientSecret, AmountMinor: amount, Currency: c.currency}, nil
}

// RecordSettlement writes the payment and then removes the purchased cart
// entries owned by the payer. The returned Result is meaningful together
// with ErrCleanupIncomplete: the payment is durable in that case.
//
// Store calls ignore cancellation of ctx so that a client disconnect cannot
// split the two steps.
func (c *Coordinator) RecordSettlement(ctx context.Context, s Settlement) (Result, error) {
	ids := uniqueIDs(s.CartIDs)
	email := strings.TrimSpace(s.Email)
	if email == "" || len(ids) == 0 {
		return Result{Phase: PhaseNotSettled}, ErrInvalidSettlement
	}
	amount, err := ToMinorUnits(s.Price)
	if err != nil {
		return Result{Phase: PhaseNotSettled}, err
	}
	currency := strings.ToLower(strings.TrimSpace(s.Currency))
	if currency == "" {
		currency = c.currency
	}

	ctx, span := c.tracer.Start(ctx, "payment.RecordSettlement", trace.WithAttributes(
		attribute.Int("payment.cart_count", len(ids)),
		attribute.Int64("payment.amount_minor", amount),
	))
	defer span.End()

	detached := context.WithoutCancel(ctx)
	p := Payment{
		ID:            uuid.NewString(),
		Email:         email,
		AmountMinor:   amount,
		Currency:      currency,
		TransactionID: strings.TrimSpace(s.TransactionID),
		CartIDs:       ids,
		CreatedAt:     c.clock.Now(),
	}

	if err := c.insert(detached, p); err != nil {
		failSpan(span, err)
		c.metrics.RecordSettlement(string(PhaseNotSettled))
		c.logger.ErrorContext(ctx, "record payment", "email", email, "transaction_id", p.TransactionID, "error", err)
		return Result{Phase: PhaseNotSettled}, fmt.Errorf("%w: %w", ErrSettlementFailed, err)
	}

	deleted, err := c.deleteCarts(detached, email, ids)
	if err != nil {
		failSpan(span, err)
		c.metrics.RecordSettlement(string(PhaseCleanupPending))
		c.logger.ErrorContext(ctx, "remove purchased cart entries", "payment_id", p.ID, "email", email, "error", err)
		c.enqueueCleanup(detached, CleanupTask{
			PaymentID:  p.ID,
			Email:      email,
			CartIDs:    ids,
			LastError:  err.Error(),
			EnqueuedAt: c.clock.Now(),
		})
		return Result{Phase: PhaseCleanupPending, Payment: p}, fmt.Errorf("%w: %w", ErrCleanupIncomplete, err)
	}

	span.SetAttributes(attribute.Int64("payment.carts_deleted", deleted))
	c.metrics.RecordSettlement(string(PhaseSettled))
	c.notifySettled(detached, p)
	return Result{Phase: PhaseSettled, Payment: p, Deleted: deleted}, nil
}

// RetryCleanup re-runs the owner-scoped deletion for a pending task. Entries
// already removed are skipped, so repeating it is safe.
func (c *Coordinator) RetryCleanup(ctx context.Context, task CleanupTask) (int64, error) {
	if task.Email == "" || len(task.CartIDs) == 0 {
		return 0, nil
	}
	return c.deleteCarts(context.WithoutCancel(ctx), task.Email, task.CartIDs)
}

// ListForEmail returns the payment history of one payer, newest first.
func (c *Coordinator) ListForEmail(ctx context.Context, email string) ([]Payment, error) {
	payments, err := c.payments.ListByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (c *Coordinator) insert(ctx context.Context, p Payment) error {
	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	return c.payments.Insert(ctx, p)
}

func (c *Coordinator) deleteCarts(ctx context.Context, owner string, ids []string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	return c.carts.DeleteMany(ctx, owner, ids)
}

func (c *Coordinator) enqueueCleanup(ctx context.Context, task CleanupTask) {
	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	if err := c.cleanup.Push(ctx, task); err != nil {
		c.logger.ErrorContext(ctx, "queue cart cleanup", "payment_id", task.PaymentID, "cart_ids", task.CartIDs, "error", err)
	}
}

func (c *Coordinator) notifySettled(ctx context.Context, p Payment) {
	if c.notifier == nil {
		return
	}
	msg := notification.Message{
		Kind:        notification.KindPaymentSettled,
		Destination: p.Email,
		Reference:   p.ID,
		Body:        fmt.Sprintf("Payment of %.2f %s received for %d apartment(s)", p.Price(), strings.ToUpper(p.Currency), len(p.CartIDs)),
		Attributes: map[string]string{
			"amount_minor":   strconv.FormatInt(p.AmountMinor, 10),
			"currency":       p.Currency,
			"transaction_id": p.TransactionID,
		},
	}
	if err := c.notifier.Send(ctx, msg); err != nil {
		c.logger.WarnContext(ctx, "settlement notification", "payment_id", p.ID, "error", err)
	}
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// uniqueIDs trims ids and drops blanks and duplicates, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
