package bookings

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists booking rows.
type Repository interface {
	Insert(ctx context.Context, b Booking) (Booking, error)
	ListForBusiness(ctx context.Context, q Query) ([]Booking, error)
}

type bookingsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores bookings in the relational database.
type PostgresRepository struct {
	db bookingsDB
}

// NewPostgresRepository creates a repository backed by pgx pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting mocks for tests.
func NewPostgresRepositoryWithDB(db bookingsDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert writes a booking row and returns it with id and timestamps set.
func (r *PostgresRepository) Insert(ctx context.Context, b Booking) (Booking, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	query := `
		INSERT INTO bookings (booking_id, sender_id, business_id, service_name, preferred_date_time, duration_minutes, event_id, confirmed, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		b.ID,
		b.SenderID,
		b.BusinessID,
		b.ServiceName,
		b.PreferredDateTime.UTC(),
		b.DurationMinutes,
		b.EventID,
		b.Confirmed,
		b.Notes,
	).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return Booking{}, fmt.Errorf("bookings: insert failed: %w", err)
	}
	return b, nil
}

// ListForBusiness returns bookings joined with the client's contact details,
// soonest first.
func (r *PostgresRepository) ListForBusiness(ctx context.Context, q Query) ([]Booking, error) {
	where := []string{"b.business_id = $1"}
	args := []any{q.BusinessID}
	if q.From != nil {
		args = append(args, q.From.UTC())
		where = append(where, fmt.Sprintf("b.preferred_date_time >= $%d", len(args)))
	}
	if q.To != nil {
		args = append(args, q.To.UTC())
		where = append(where, fmt.Sprintf("b.preferred_date_time <= $%d", len(args)))
	}
	query := `
		SELECT b.booking_id, b.sender_id, b.business_id, b.service_name, b.preferred_date_time,
			b.duration_minutes, COALESCE(b.event_id, ''), b.confirmed, COALESCE(b.notes, ''), b.created_at, b.updated_at,
			COALESCE(u.name, ''), COALESCE(u.phone_number, ''), COALESCE(u.email, '')
		FROM bookings b
		LEFT JOIN users u ON u.sender_id = b.sender_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY b.preferred_date_time ASC
	`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	defer rows.Close()

	out := []Booking{}
	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.SenderID, &b.BusinessID, &b.ServiceName, &b.PreferredDateTime,
			&b.DurationMinutes, &b.EventID, &b.Confirmed, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
			&b.ClientName, &b.PhoneNumber, &b.Email,
		); err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate: %w", err)
	}
	return out, nil
}

// MemoryRepository keeps bookings in process.
type MemoryRepository struct {
	mu       sync.Mutex
	bookings []Booking
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Insert appends the booking.
func (m *MemoryRepository) Insert(_ context.Context, b Booking) (Booking, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = append(m.bookings, b)
	return b, nil
}

// ListForBusiness filters stored bookings.
func (m *MemoryRepository) ListForBusiness(_ context.Context, q Query) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Booking{}
	for _, b := range m.bookings {
		if b.BusinessID != q.BusinessID {
			continue
		}
		if q.From != nil && b.PreferredDateTime.Before(*q.From) {
			continue
		}
		if q.To != nil && b.PreferredDateTime.After(*q.To) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Len reports how many bookings were inserted.
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}
