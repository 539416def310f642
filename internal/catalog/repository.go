package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type catalogDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const serviceColumns = `service_id, business_id, service_name, COALESCE(description, ''), duration_minutes, price::float8`

// PostgresRepository reads the services table.
type PostgresRepository struct {
	db catalogDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db catalogDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByBusiness returns every service of the business ordered by name.
func (r *PostgresRepository) ListByBusiness(ctx context.Context, businessID string) ([]Service, error) {
	query := `SELECT ` + serviceColumns + `
		FROM services
		WHERE business_id = $1
		ORDER BY service_name
	`
	rows, err := r.db.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var svc Service
		if err := rows.Scan(&svc.ID, &svc.BusinessID, &svc.Name, &svc.Description, &svc.DurationMinutes, &svc.Price); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		out = append(out, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate services: %w", err)
	}
	return out, nil
}

// Get fetches one service of the business.
func (r *PostgresRepository) Get(ctx context.Context, businessID, serviceID string) (Service, error) {
	query := `SELECT ` + serviceColumns + `
		FROM services
		WHERE business_id = $1 AND service_id = $2
	`
	return scanService(r.db.QueryRow(ctx, query, businessID, serviceID), "get")
}

// Create inserts svc, assigning an id when it has none.
func (r *PostgresRepository) Create(ctx context.Context, svc Service) (Service, error) {
	svc.Name = strings.TrimSpace(svc.Name)
	if err := svc.ValidateNew(); err != nil {
		return Service{}, err
	}
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	query := `
		INSERT INTO services (service_id, business_id, service_name, description, duration_minutes, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	if _, err := r.db.Exec(ctx, query, svc.ID, svc.BusinessID, svc.Name, svc.Description, svc.DurationMinutes, svc.Price); err != nil {
		return Service{}, fmt.Errorf("catalog: create service: %w", err)
	}
	return svc, nil
}

// Update applies patch to one service of the business.
func (r *PostgresRepository) Update(ctx context.Context, businessID, serviceID string, patch ServicePatch) (Service, error) {
	if patch.Empty() {
		return Service{}, fmt.Errorf("%w: nothing to update", ErrInvalidService)
	}
	if err := patch.Validate(); err != nil {
		return Service{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	query := `
		UPDATE services SET
			service_name = COALESCE($3, service_name),
			description = COALESCE($4, description),
			duration_minutes = COALESCE($5, duration_minutes),
			price = COALESCE($6, price),
			updated_at = NOW()
		WHERE business_id = $1 AND service_id = $2
		RETURNING ` + serviceColumns
	row := r.db.QueryRow(ctx, query, businessID, serviceID, patch.Name, patch.Description, patch.DurationMinutes, patch.Price)
	return scanService(row, "update")
}

// Delete removes one service of the business.
func (r *PostgresRepository) Delete(ctx context.Context, businessID, serviceID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM services WHERE business_id = $1 AND service_id = $2`, businessID, serviceID)
	if err != nil {
		return fmt.Errorf("catalog: delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func scanService(row pgx.Row, op string) (Service, error) {
	var svc Service
	if err := row.Scan(&svc.ID, &svc.BusinessID, &svc.Name, &svc.Description, &svc.DurationMinutes, &svc.Price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Service{}, ErrServiceNotFound
		}
		return Service{}, fmt.Errorf("catalog: %s service: %w", op, err)
	}
	return svc, nil
}

// MemoryRepository keeps services in process, for local runs and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	services map[string][]Service
}

// NewMemoryRepository seeds the repository with services grouped by business.
func NewMemoryRepository(services ...Service) *MemoryRepository {
	repo := &MemoryRepository{services: make(map[string][]Service)}
	for _, svc := range services {
		repo.services[svc.BusinessID] = append(repo.services[svc.BusinessID], svc)
	}
	return repo
}

// Add registers another service.
func (r *MemoryRepository) Add(svc Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[svc.BusinessID] = append(r.services[svc.BusinessID], svc)
}

// ListByBusiness returns a copy of the business's services.
func (r *MemoryRepository) ListByBusiness(_ context.Context, businessID string) ([]Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Service(nil), r.services[businessID]...), nil
}

// Get returns one service or ErrServiceNotFound.
func (r *MemoryRepository) Get(_ context.Context, businessID, serviceID string) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, svc := range r.services[businessID] {
		if svc.ID == serviceID {
			return svc, nil
		}
	}
	return Service{}, ErrServiceNotFound
}

// Create stores svc, assigning an id when it has none.
func (r *MemoryRepository) Create(_ context.Context, svc Service) (Service, error) {
	svc.Name = strings.TrimSpace(svc.Name)
	if err := svc.ValidateNew(); err != nil {
		return Service{}, err
	}
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[svc.BusinessID] = append(r.services[svc.BusinessID], svc)
	return svc, nil
}

// Update applies patch in place.
func (r *MemoryRepository) Update(_ context.Context, businessID, serviceID string, patch ServicePatch) (Service, error) {
	if patch.Empty() {
		return Service{}, fmt.Errorf("%w: nothing to update", ErrInvalidService)
	}
	if err := patch.Validate(); err != nil {
		return Service{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, svc := range r.services[businessID] {
		if svc.ID == serviceID {
			svc = patch.Apply(svc)
			r.services[businessID][i] = svc
			return svc, nil
		}
	}
	return Service{}, ErrServiceNotFound
}

// Delete removes one service.
func (r *MemoryRepository) Delete(_ context.Context, businessID, serviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.services[businessID]
	for i, svc := range list {
		if svc.ID == serviceID {
			r.services[businessID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrServiceNotFound
}

var (
	_ Store = (*PostgresRepository)(nil)
	_ Store = (*MemoryRepository)(nil)
)
