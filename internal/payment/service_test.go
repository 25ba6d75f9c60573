package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChargeIntentConvertsToMinorUnits(t *testing.T) {
	f := newFixture(t)

	intent, err := f.coordinator.CreateChargeIntent(context.Background(), ChargeRequest{Price: 10.00})
	require.NoError(t, err)
	assert.EqualValues(t, 1000, intent.AmountMinor)
	assert.Equal(t, "pi_test_secret", intent.ClientSecret)
	assert.Equal(t, []int64{1000}, f.gateway.amounts)
}

func TestCreateChargeIntentRejectsNonPositivePrice(t *testing.T) {
	f := newFixture(t)

	for _, price := range []float64{0, -5} {
		_, err := f.coordinator.CreateChargeIntent(context.Background(), ChargeRequest{Price: price})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Empty(t, f.gateway.amounts, "gateway must not be called")
}

func TestCreateChargeIntentValidatesCartOwnership(t *testing.T) {
	f := newFixture(t)
	f.addCart(t, "c1", "a@example.com", 10)
	f.addCart(t, "c2", "b@example.com", 10)

	_, err := f.coordinator.CreateChargeIntent(context.Background(), ChargeRequest{
		Price: 20, Email: "a@example.com", CartIDs: []string{"c1", "c2"},
	})
	assert.ErrorIs(t, err, ErrCartMismatch)
	assert.Empty(t, f.gateway.amounts)

	_, err = f.coordinator.CreateChargeIntent(context.Background(), ChargeRequest{
		Price: 10, Email: "a@example.com", CartIDs: []string{"c1", "c1"},
	})
	require.NoError(t, err)
}

func TestCreateChargeIntentWrapsGatewayErrors(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = errors.New("card_declined")

	_, err := f.coordinator.CreateChargeIntent(context.Background(), ChargeRequest{Price: 5})
	assert.ErrorIs(t, err, ErrGatewayFailed)
}

func TestRecordSettlementRemovesOnlyListedOwnedCarts(t *testing.T) {
	f := newFixture(t)
	f.addCart(t, "c1", "a@example.com", 7.5)
	f.addCart(t, "c2", "a@example.com", 7.5)
	f.addCart(t, "c3", "a@example.com", 3)
	f.addCart(t, "c4", "b@example.com", 3)

	res, err := f.coordinator.RecordSettlement(context.Background(), Settlement{
		Email: "a@example.com", Price: 15, TransactionID: "pi_1", CartIDs: []string{"c1", "c2", "c4"},
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseSettled, res.Phase)
	assert.EqualValues(t, 2, res.Deleted)
	assert.EqualValues(t, 1500, res.Payment.AmountMinor)
	assert.Equal(t, "usd", res.Payment.Currency)

	assert.Equal(t, []string{"c3"}, f.cartIDs(t, "a@example.com"))
	assert.Equal(t, []string{"c4"}, f.cartIDs(t, "b@example.com"), "other payers' carts are untouched")

	history, err := f.coordinator.ListForEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, res.Payment.ID, history[0].ID)

	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, "a@example.com", f.notifier.messages[0].Destination)
	assert.Equal(t, res.Payment.ID, f.notifier.messages[0].Reference)
	assert.Equal(t, "1500", f.notifier.messages[0].Attributes["amount_minor"])
}

func TestRecordSettlementInsertFailureTouchesNoCarts(t *testing.T) {
	f := newFixture(t)
	f.addCart(t, "c1", "a@example.com", 10)
	f.payments.fail.Store(true)

	res, err := f.coordinator.RecordSettlement(context.Background(), Settlement{
		Email: "a@example.com", Price: 10, CartIDs: []string{"c1"},
	})
	require.ErrorIs(t, err, ErrSettlementFailed)
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrCleanupIncomplete)
	assert.Equal(t, PhaseNotSettled, res.Phase)
	assert.Zero(t, f.carts.deletes.Load(), "delete must not run")
	assert.Equal(t, []string{"c1"}, f.cartIDs(t, "a@example.com"))

	history, err := f.coordinator.ListForEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, f.notifier.messages)
}

func TestRecordSettlementDeleteFailureKeepsPaymentAndQueuesCleanup(t *testing.T) {
	f := newFixture(t)
	f.addCart(t, "c1", "a@example.com", 10)
	f.carts.fail.Store(true)

	res, err := f.coordinator.RecordSettlement(context.Background(), Settlement{
		Email: "a@example.com", Price: 10, CartIDs: []string{"c1"},
	})
	require.ErrorIs(t, err, ErrCleanupIncomplete)
	assert.Equal(t, PhaseCleanupPending, res.Phase)
	assert.NotEmpty(t, res.Payment.ID)

	history, err := f.coordinator.ListForEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.Len(t, history, 1, "payment stays recorded")

	pending, err := f.queue.Len(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	task, ok, err := f.queue.Pop(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, res.Payment.ID, task.PaymentID)

	f.carts.fail.Store(false)
	n, err := f.coordinator.RetryCleanup(context.Background(), task)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Empty(t, f.cartIDs(t, "a@example.com"))

	n, err = f.coordinator.RetryCleanup(context.Background(), task)
	require.NoError(t, err)
	assert.Zero(t, n, "retry is idempotent")
}

func TestRecordSettlementUnknownCartIsNoop(t *testing.T) {
	f := newFixture(t)

	res, err := f.coordinator.RecordSettlement(context.Background(), Settlement{
		Email: "a@example.com", Price: 10, CartIDs: []string{"does-not-exist"},
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseSettled, res.Phase)
	assert.Zero(t, res.Deleted)
}

func TestRecordSettlementSurvivesCancelledRequest(t *testing.T) {
	f := newFixture(t)
	f.addCart(t, "c1", "a@example.com", 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.coordinator.RecordSettlement(ctx, Settlement{
		Email: "a@example.com", Price: 10, CartIDs: []string{"c1"},
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseSettled, res.Phase)
	assert.Empty(t, f.cartIDs(t, "a@example.com"))
}

func TestRecordSettlementValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coordinator.RecordSettlement(ctx, Settlement{Price: 10, CartIDs: []string{"c1"}})
	assert.ErrorIs(t, err, ErrInvalidSettlement)

	_, err = f.coordinator.RecordSettlement(ctx, Settlement{Email: "a@example.com", Price: 10, CartIDs: []string{" "}})
	assert.ErrorIs(t, err, ErrInvalidSettlement)

	_, err = f.coordinator.RecordSettlement(ctx, Settlement{Email: "a@example.com", Price: 0, CartIDs: []string{"c1"}})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Zero(t, f.payments.inserts.Load())
}
