package payment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/buildwise/buildwise_api/internal/cart"
	"github.com/buildwise/buildwise_api/internal/clock"
	"github.com/buildwise/buildwise_api/internal/logging"
	"github.com/buildwise/buildwise_api/internal/notification"
)

var errStoreDown = errors.New("store unavailable")

// failingPayments wraps a repository and fails inserts while fail is set.
type failingPayments struct {
	Repository
	fail    atomic.Bool
	inserts atomic.Int32
}

func (r *failingPayments) Insert(ctx context.Context, p Payment) error {
	r.inserts.Add(1)
	if r.fail.Load() {
		return errStoreDown
	}
	return r.Repository.Insert(ctx, p)
}

// flakyCarts fails DeleteMany while fail is set and records every call.
type flakyCarts struct {
	cart.Repository
	fail    atomic.Bool
	deletes atomic.Int32
}

func (r *flakyCarts) DeleteMany(ctx context.Context, owner string, ids []string) (int64, error) {
	r.deletes.Add(1)
	if r.fail.Load() {
		return 0, errStoreDown
	}
	return r.Repository.DeleteMany(ctx, owner, ids)
}

type recordingGateway struct {
	mu      sync.Mutex
	amounts []int64
	err     error
}

func (g *recordingGateway) CreateIntent(_ context.Context, amount int64, currency string) (Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return Intent{}, g.err
	}
	g.amounts = append(g.amounts, amount)
	return Intent{ID: "pi_test", ClientSecret: "pi_test_secret", Amount: amount, Currency: currency}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, m notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, m)
	return nil
}

type fixture struct {
	coordinator *Coordinator
	payments    *failingPayments
	carts       *flakyCarts
	gateway     *recordingGateway
	queue       *MemoryCleanupQueue
	notifier    *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		payments: &failingPayments{Repository: NewMemoryRepository()},
		carts:    &flakyCarts{Repository: cart.NewMemoryRepository()},
		gateway:  &recordingGateway{},
		queue:    NewMemoryCleanupQueue(),
		notifier: &recordingNotifier{},
	}
	c, err := NewCoordinator(Deps{
		Payments: f.payments,
		Carts:    f.carts,
		Gateway:  f.gateway,
		Cleanup:  f.queue,
		Notifier: f.notifier,
		Clock:    clock.NewManual(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
		Logger:   logging.Discard(),
	})
	require.NoError(t, err)
	f.coordinator = c
	return f
}

func (f *fixture) addCart(t *testing.T, id, owner string, price float64) {
	t.Helper()
	require.NoError(t, f.carts.Insert(context.Background(), cart.Entry{
		ID: id, OwnerEmail: owner, ApartmentID: "apt-" + id, Price: price, CreatedAt: time.Now(),
	}))
}

func (f *fixture) cartIDs(t *testing.T, owner string) []string {
	t.Helper()
	entries, err := f.carts.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}
