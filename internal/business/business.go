// Package business resolves the calendar, time zone and display name a
// business books against.
package business

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/tradeezy-assistant/internal/slots"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

var (
	// ErrNotFound is returned by repositories for unknown business ids.
	ErrNotFound = errors.New("business: not found")
	// ErrInvalidProfile rejects profile writes with missing or malformed fields.
	ErrInvalidProfile = errors.New("business: invalid profile")
)

// Business is a row of the businesses table. Calendar and time zone drive
// bookings; the rest is the profile shown in the client portal.
type Business struct {
	ID             string          `json:"business_id"`
	Name           string          `json:"name"`
	CalendarID     string          `json:"calendar_id"`
	TimeZone       string          `json:"timezone"`
	Address        string          `json:"address"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Description    string          `json:"description"`
	OperatingHours json.RawMessage `json:"operating_hours,omitempty"`
}

// Validate checks a profile before it is saved.
func (b Business) Validate() error {
	switch {
	case strings.TrimSpace(b.ID) == "":
		return fmt.Errorf("%w: business_id is required", ErrInvalidProfile)
	case strings.TrimSpace(b.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if b.TimeZone != "" {
		if _, err := time.LoadLocation(b.TimeZone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrInvalidProfile, b.TimeZone)
		}
	}
	if len(b.OperatingHours) > 0 && !json.Valid(b.OperatingHours) {
		return fmt.Errorf("%w: operating_hours must be JSON", ErrInvalidProfile)
	}
	return nil
}

// Location returns the business's zone, UTC when unset or unknown.
func (b Business) Location() *time.Location {
	return slots.Location(b.TimeZone)
}

// DisplayName falls back to the id when no name is stored.
func (b Business) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	return b.ID
}

// Repository loads business records.
type Repository interface {
	Get(ctx context.Context, businessID string) (Business, error)
}

// Store adds the profile writes of the client portal.
type Store interface {
	Repository
	// Save creates or replaces the profile. Blank calendar and time zone keep
	// the stored values.
	Save(ctx context.Context, b Business) (Business, error)
	Delete(ctx context.Context, businessID string) error
}

// Defaults fill blanks on stored records and stand in for unknown businesses.
type Defaults struct {
	CalendarID string
	TimeZone   string
}

// Directory looks businesses up and applies defaults.
type Directory struct {
	repo     Repository
	defaults Defaults
	logger   *logging.Logger
}

// NewDirectory builds a directory. A nil repo resolves every id to defaults.
func NewDirectory(repo Repository, defaults Defaults, logger *logging.Logger) *Directory {
	if logger == nil {
		logger = logging.Default()
	}
	return &Directory{repo: repo, defaults: defaults, logger: logger}
}

// Lookup returns the business record. Unknown ids resolve to the defaults so
// single-calendar deployments work without a businesses row; a store failure
// is returned as-is so a booking never lands on the wrong calendar.
func (d *Directory) Lookup(ctx context.Context, businessID string) (Business, error) {
	biz := Business{ID: businessID}
	if d.repo != nil {
		stored, err := d.repo.Get(ctx, businessID)
		switch {
		case err == nil:
			biz = stored
		case errors.Is(err, ErrNotFound):
			d.logger.Debug("business: using defaults", "business_id", businessID)
		default:
			return Business{}, fmt.Errorf("business: lookup %s: %w", businessID, err)
		}
	}
	if biz.CalendarID == "" {
		biz.CalendarID = d.defaults.CalendarID
	}
	if biz.TimeZone == "" {
		biz.TimeZone = d.defaults.TimeZone
	}
	return biz, nil
}

type businessDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const businessColumns = `business_id, COALESCE(name, ''), COALESCE(calendar_id, ''), COALESCE(timezone, ''),
	COALESCE(address, ''), COALESCE(phone, ''), COALESCE(email, ''), COALESCE(description, ''), operating_hours`

// PostgresRepository reads and writes the businesses table.
type PostgresRepository struct {
	db businessDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("business: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db businessDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get fetches one business.
func (r *PostgresRepository) Get(ctx context.Context, businessID string) (Business, error) {
	query := `SELECT ` + businessColumns + `
		FROM businesses
		WHERE business_id = $1
	`
	return scanBusiness(r.db.QueryRow(ctx, query, businessID), "get")
}

// Save upserts the profile and returns the stored row.
func (r *PostgresRepository) Save(ctx context.Context, b Business) (Business, error) {
	if err := b.Validate(); err != nil {
		return Business{}, err
	}
	query := `
		INSERT INTO businesses (business_id, name, calendar_id, timezone, address, phone, email, description, operating_hours)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9)
		ON CONFLICT (business_id) DO UPDATE SET
			name = EXCLUDED.name,
			calendar_id = COALESCE(EXCLUDED.calendar_id, businesses.calendar_id),
			timezone = COALESCE(EXCLUDED.timezone, businesses.timezone),
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			description = EXCLUDED.description,
			operating_hours = EXCLUDED.operating_hours,
			updated_at = NOW()
		RETURNING ` + businessColumns
	row := r.db.QueryRow(ctx, query, b.ID, strings.TrimSpace(b.Name), b.CalendarID, b.TimeZone,
		b.Address, b.Phone, b.Email, b.Description, hoursArg(b.OperatingHours))
	return scanBusiness(row, "save")
}

// Delete removes the business; its services go with it.
func (r *PostgresRepository) Delete(ctx context.Context, businessID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM businesses WHERE business_id = $1`, businessID)
	if err != nil {
		return fmt.Errorf("business: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// hoursArg sends absent operating hours as NULL rather than an empty document.
func hoursArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func scanBusiness(row pgx.Row, op string) (Business, error) {
	var b Business
	var hours []byte
	if err := row.Scan(&b.ID, &b.Name, &b.CalendarID, &b.TimeZone, &b.Address, &b.Phone, &b.Email, &b.Description, &hours); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Business{}, ErrNotFound
		}
		return Business{}, fmt.Errorf("business: %s: %w", op, err)
	}
	if len(hours) > 0 {
		b.OperatingHours = json.RawMessage(hours)
	}
	return b, nil
}

// MemoryRepository is an in-process repository.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]Business
}

// NewMemoryRepository seeds the repository.
func NewMemoryRepository(items ...Business) *MemoryRepository {
	r := &MemoryRepository{items: make(map[string]Business, len(items))}
	for _, b := range items {
		r.items[b.ID] = b
	}
	return r
}

// Get returns the stored business or ErrNotFound.
func (r *MemoryRepository) Get(_ context.Context, businessID string) (Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[businessID]
	if !ok {
		return Business{}, ErrNotFound
	}
	return b, nil
}

// Save stores the profile, keeping the stored calendar and time zone when the
// new ones are blank.
func (r *MemoryRepository) Save(_ context.Context, b Business) (Business, error) {
	if err := b.Validate(); err != nil {
		return Business{}, err
	}
	b.Name = strings.TrimSpace(b.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.items[b.ID]; ok {
		if b.CalendarID == "" {
			b.CalendarID = prev.CalendarID
		}
		if b.TimeZone == "" {
			b.TimeZone = prev.TimeZone
		}
	}
	r.items[b.ID] = b
	return b, nil
}

// Delete removes the business or returns ErrNotFound.
func (r *MemoryRepository) Delete(_ context.Context, businessID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[businessID]; !ok {
		return ErrNotFound
	}
	delete(r.items, businessID)
	return nil
}

var (
	_ Store = (*PostgresRepository)(nil)
	_ Store = (*MemoryRepository)(nil)
)
