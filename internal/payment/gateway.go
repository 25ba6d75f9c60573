package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Gateway represents a connector to an external card processor.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (Intent, error)
}

// Intent is the processor's handle on a pending charge.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
}

// StripeGateway creates card payment intents through the Stripe API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a gateway authenticated with the given secret key.
func NewStripeGateway(secret string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secret, nil)
	return &StripeGateway{api: sc}
}

// CreateIntent requests a card payment intent for the given minor amount.
func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountMinor),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe payment intent: %w", err)
	}
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// StaticGateway simulates a processor that approves every intent.
type StaticGateway struct{}

// CreateIntent returns a synthetic intent.
func (StaticGateway) CreateIntent(_ context.Context, amountMinor int64, currency string) (Intent, error) {
	id := "pi_" + uuid.NewString()
	return Intent{ID: id, ClientSecret: id + "_secret", Amount: amountMinor, Currency: currency}, nil
}
