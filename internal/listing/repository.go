package listing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads apartments and stores announcements.
type Repository interface {
	ListApartments(ctx context.Context) ([]Apartment, error)
	CountApartments(ctx context.Context) (int64, error)
	InsertAnnouncement(ctx context.Context, a Announcement) error
	ListAnnouncements(ctx context.Context) ([]Announcement, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed listing repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListApartments(ctx context.Context) ([]Apartment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, image_url, floor_no, block_name, apartment_no, rent::float8, created_at
        FROM apartments ORDER BY block_name, floor_no, apartment_no`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Apartment, 0)
	for rows.Next() {
		var (
			a         Apartment
			id        uuid.UUID
			createdAt time.Time
		)
		if err := rows.Scan(&id, &a.ImageURL, &a.Floor, &a.Block, &a.ApartmentNo, &a.Rent, &createdAt); err != nil {
			return nil, err
		}
		a.ID = id.String()
		a.CreatedAt = createdAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CountApartments(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM apartments`).Scan(&n)
	return n, err
}

func (r *PostgresRepository) InsertAnnouncement(ctx context.Context, a Announcement) error {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO announcements (id, title, body, created_at) VALUES ($1, $2, $3, $4)`,
		id, a.Title, a.Body, a.CreatedAt.UTC())
	return err
}

func (r *PostgresRepository) ListAnnouncements(ctx context.Context) ([]Announcement, error) {
	rows, err := r.db.Query(ctx, `SELECT id, title, body, created_at FROM announcements ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Announcement, 0)
	for rows.Next() {
		var (
			a         Announcement
			id        uuid.UUID
			createdAt time.Time
		)
		if err := rows.Scan(&id, &a.Title, &a.Body, &createdAt); err != nil {
			return nil, err
		}
		a.ID = id.String()
		a.CreatedAt = createdAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

type memoryRepository struct {
	mu            sync.RWMutex
	apartments    []Apartment
	announcements []Announcement
}

// NewMemoryRepository returns an in-memory repository seeded with apartments.
func NewMemoryRepository(seed ...Apartment) Repository {
	return &memoryRepository{apartments: append([]Apartment(nil), seed...)}
}

func (r *memoryRepository) ListApartments(_ context.Context) ([]Apartment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Apartment{}, r.apartments...), nil
}

func (r *memoryRepository) CountApartments(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.apartments)), nil
}

func (r *memoryRepository) InsertAnnouncement(_ context.Context, a Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.announcements = append(r.announcements, a)
	return nil
}

func (r *memoryRepository) ListAnnouncements(_ context.Context) ([]Announcement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]Announcement{}, r.announcements...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
