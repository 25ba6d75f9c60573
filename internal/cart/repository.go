package cart

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a cart entry does not exist for the owner.
var ErrNotFound = errors.New("cart entry not found")

// Repository persists cart entries. Deletions are idempotent: identifiers
// that do not exist, or belong to someone else, are skipped without error.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	ListByOwner(ctx context.Context, owner string) ([]Entry, error)
	FindMany(ctx context.Context, owner string, ids []string) ([]Entry, error)
	Delete(ctx context.Context, owner, id string) (int64, error)
	DeleteMany(ctx context.Context, owner string, ids []string) (int64, error)
}

// PostgresRepository stores cart entries in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const entryColumns = `id, owner_email, apartment_id, floor_no, block_name, apartment_no, price::float8, created_at`

func (r *PostgresRepository) Insert(ctx context.Context, e Entry) error {
	_, err := r.db.Exec(ctx, `INSERT INTO carts (id, owner_email, apartment_id, floor_no, block_name, apartment_no, price, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.OwnerEmail, e.ApartmentID, e.Floor, e.Block, e.ApartmentNo, e.Price, e.CreatedAt.UTC())
	return err
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, owner string) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM carts WHERE owner_email = $1 ORDER BY created_at`, owner)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *PostgresRepository) FindMany(ctx context.Context, owner string, ids []string) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM carts WHERE owner_email = $1 AND id = ANY($2)`, owner, ids)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *PostgresRepository) Delete(ctx context.Context, owner, id string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM carts WHERE owner_email = $1 AND id = $2`, owner, id)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// DeleteMany removes only the listed identifiers owned by owner.
func (r *PostgresRepository) DeleteMany(ctx context.Context, owner string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM carts WHERE owner_email = $1 AND id = ANY($2)`, owner, ids)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func collect(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e         Entry
			createdAt time.Time
		)
		if err := rows.Scan(&e.ID, &e.OwnerEmail, &e.ApartmentID, &e.Floor, &e.Block, &e.ApartmentNo, &e.Price, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = createdAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
