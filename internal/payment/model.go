package payment

import "time"

// Payment is an immutable record of a settled charge.
type Payment struct {
	ID            string
	Email         string
	AmountMinor   int64
	Currency      string
	TransactionID string
	CartIDs       []string
	CreatedAt     time.Time
}

// Price returns the amount in major currency units.
func (p Payment) Price() float64 {
	return float64(p.AmountMinor) / 100
}

// Phase is the outcome of a settlement attempt.
type Phase string

const (
	// PhaseSettled means the payment is durable and every listed cart entry is gone.
	PhaseSettled Phase = "settled"
	// PhaseCleanupPending means the payment is durable but cart removal failed
	// and was queued for reconciliation.
	PhaseCleanupPending Phase = "settled_cleanup_pending"
	// PhaseNotSettled means nothing was written; the whole operation may be retried.
	PhaseNotSettled Phase = "not_settled"
)

// Settlement is the request to record a completed charge.
type Settlement struct {
	Email         string
	Price         float64
	Currency      string
	TransactionID string
	CartIDs       []string
}

// Result reports what a settlement attempt achieved.
type Result struct {
	Phase   Phase
	Payment Payment
	Deleted int64
}

// ChargeRequest asks for a charge intent. CartIDs, when present, must all be
// owned by Email.
type ChargeRequest struct {
	Price   float64
	Email   string
	CartIDs []string
}

// ChargeIntent is what the client needs to confirm a charge with the gateway.
type ChargeIntent struct {
	ClientSecret string
	AmountMinor  int64
	Currency     string
}

// CleanupTask describes cart entries that still have to be removed after a
// durable payment.
type CleanupTask struct {
	PaymentID  string    `json:"payment_id"`
	Email      string    `json:"email"`
	CartIDs    []string  `json:"cart_ids"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`

	// receipt identifies a popped task to its queue for Ack.
	receipt string
}
