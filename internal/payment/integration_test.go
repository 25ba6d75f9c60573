//go:build integration

package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwise/buildwise_api/internal/cart"
	"github.com/buildwise/buildwise_api/internal/logging"
	"github.com/buildwise/buildwise_api/internal/testutil/containers"
)

func TestSettlementAgainstPostgresAndRedis(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	cache := containers.NewRedisClient(t)
	ctx := context.Background()

	carts := cart.NewPostgresRepository(pg.Pool)
	now := time.Now().UTC()
	for _, e := range []cart.Entry{
		{ID: "c1", OwnerEmail: "a@example.com", ApartmentID: "apt-1", Price: 7.5, CreatedAt: now},
		{ID: "c2", OwnerEmail: "a@example.com", ApartmentID: "apt-2", Price: 7.5, CreatedAt: now},
		{ID: "c3", OwnerEmail: "b@example.com", ApartmentID: "apt-3", Price: 5, CreatedAt: now},
	} {
		require.NoError(t, carts.Insert(ctx, e))
	}

	c, err := NewCoordinator(Deps{
		Payments: NewPostgresRepository(pg.Pool),
		Carts:    carts,
		Gateway:  StaticGateway{},
		Cleanup:  NewRedisCleanupQueue(cache),
		Logger:   logging.Discard(),
	})
	require.NoError(t, err)

	res, err := c.RecordSettlement(ctx, Settlement{
		Email: "a@example.com", Price: 15, TransactionID: "pi_1", CartIDs: []string{"c1", "c2", "c3", "missing"},
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseSettled, res.Phase)
	assert.EqualValues(t, 2, res.Deleted)

	left, err := carts.ListByOwner(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Len(t, left, 1)

	history, err := c.ListForEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.EqualValues(t, 1500, history[0].AmountMinor)
	assert.Equal(t, []string{"c1", "c2", "c3", "missing"}, history[0].CartIDs)

	n, err := c.RetryCleanup(ctx, CleanupTask{Email: "a@example.com", CartIDs: []string{"c1", "c2"}})
	require.NoError(t, err)
	assert.Zero(t, n)
}
