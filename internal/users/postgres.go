package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

var usersTracer = otel.Tracer("tradeezy.internal.users")

type usersDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps profiles in the users table.
type PostgresStore struct {
	db     usersDB
	logger *logging.Logger
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool, logger *logging.Logger) *PostgresStore {
	if pool == nil {
		panic("users: pgx pool required")
	}
	return NewPostgresStoreWithDB(pool, logger)
}

// NewPostgresStoreWithDB allows injecting a mock database for testing.
func NewPostgresStoreWithDB(db usersDB, logger *logging.Logger) *PostgresStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

const selectProfile = `
	SELECT sender_id, COALESCE(name, ''), COALESCE(phone_number, ''), COALESCE(email, ''), created_at, updated_at
	FROM users
	WHERE sender_id = $1
`

// GetOrCreate inserts a blank row on first contact. Concurrent callers race on
// the primary key, never on duplicate rows.
func (s *PostgresStore) GetOrCreate(ctx context.Context, senderID string) (Profile, error) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return Profile{}, ErrSenderRequired
	}
	ctx, span := usersTracer.Start(ctx, "users.get_or_create")
	defer span.End()
	span.SetAttributes(attribute.String("tradeezy.sender_id", senderID))

	if _, err := s.db.Exec(ctx, `
		INSERT INTO users (sender_id, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		ON CONFLICT (sender_id) DO NOTHING
	`, senderID); err != nil {
		span.RecordError(err)
		return Profile{}, fmt.Errorf("users: insert blank profile: %w", err)
	}

	var p Profile
	if err := s.db.QueryRow(ctx, selectProfile, senderID).Scan(
		&p.SenderID, &p.Name, &p.PhoneNumber, &p.Email, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		span.RecordError(err)
		return Profile{}, fmt.Errorf("users: load profile: %w", err)
	}
	return p, nil
}

// MergeDetails upserts with COALESCE so absent fields keep their stored value.
func (s *PostgresStore) MergeDetails(ctx context.Context, senderID string, details Details) (MergeResult, error) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return MergeResult{}, ErrSenderRequired
	}
	if details.Empty() {
		s.logger.Info("users: merge skipped, no details supplied", "sender_id", senderID)
		p, err := s.GetOrCreate(ctx, senderID)
		return MergeResult{Profile: p, Action: ActionUnchanged}, err
	}
	ctx, span := usersTracer.Start(ctx, "users.merge_details")
	defer span.End()
	span.SetAttributes(attribute.String("tradeezy.sender_id", senderID))

	d := details.normalized()
	query := `
		INSERT INTO users (sender_id, name, phone_number, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (sender_id) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, users.name),
			phone_number = COALESCE(EXCLUDED.phone_number, users.phone_number),
			email = COALESCE(EXCLUDED.email, users.email),
			updated_at = NOW()
		RETURNING sender_id, COALESCE(name, ''), COALESCE(phone_number, ''), COALESCE(email, ''), created_at, updated_at, (xmax = 0)
	`
	var (
		p        Profile
		inserted bool
	)
	if err := s.db.QueryRow(ctx, query, senderID, d.Name, d.PhoneNumber, d.Email).Scan(
		&p.SenderID, &p.Name, &p.PhoneNumber, &p.Email, &p.CreatedAt, &p.UpdatedAt, &inserted,
	); err != nil {
		span.RecordError(err)
		return MergeResult{}, fmt.Errorf("users: merge details: %w", err)
	}
	action := ActionUpdated
	if inserted {
		action = ActionCreated
	}
	s.logger.Info("users: profile merged", "sender_id", senderID, "action", action)
	return MergeResult{Profile: p, Action: action}, nil
}
