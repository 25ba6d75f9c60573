package payment

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists payment records. Records are never updated.
type Repository interface {
	Insert(ctx context.Context, p Payment) error
	ListByEmail(ctx context.Context, email string) ([]Payment, error)
}

// PostgresRepository stores payments in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, p Payment) error {
	ids := p.CartIDs
	if ids == nil {
		ids = []string{}
	}
	_, err := r.db.Exec(ctx, `INSERT INTO payments (id, email, amount_minor, currency, transaction_id, cart_ids, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Email, p.AmountMinor, p.Currency, p.TransactionID, ids, p.CreatedAt.UTC())
	return err
}

func (r *PostgresRepository) ListByEmail(ctx context.Context, email string) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, email, amount_minor, currency, transaction_id, cart_ids, created_at
        FROM payments WHERE lower(email) = lower($1) ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Email, &p.AmountMinor, &p.Currency, &p.TransactionID, &p.CartIDs, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MemoryRepository keeps payments in process memory for dev and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	payments []Payment
}

// NewMemoryRepository returns an empty in-memory payment store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(_ context.Context, p Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.CartIDs = append([]string(nil), p.CartIDs...)
	r.payments = append(r.payments, p)
	return nil
}

func (r *MemoryRepository) ListByEmail(_ context.Context, email string) ([]Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Payment
	for _, p := range r.payments {
		if strings.EqualFold(p.Email, email) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
