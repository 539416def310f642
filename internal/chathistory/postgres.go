package chathistory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var historyTracer = otel.Tracer("tradeezy.internal.chathistory")

// PostgresStore persists turns in the chathistory table.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore creates a store over an open *sql.DB (pgx stdlib driver).
func NewPostgresStore(db *sql.DB) *PostgresStore {
	if db == nil {
		panic("chathistory: sql db required")
	}
	return &PostgresStore{db: db, now: time.Now}
}

// Append writes the turn and returns it with id and timestamp assigned.
func (s *PostgresStore) Append(ctx context.Context, turn Turn) (Turn, error) {
	turn, err := prepare(turn, s.now())
	if err != nil {
		return Turn{}, err
	}
	ctx, span := historyTracer.Start(ctx, "chathistory.append")
	defer span.End()
	span.SetAttributes(
		attribute.String("tradeezy.business_id", turn.BusinessID),
		attribute.String("tradeezy.role", string(turn.Role)),
	)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chathistory (id, business_id, sender_id, role, content, message_type, name, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, turn.ID, turn.BusinessID, turn.SenderID, string(turn.Role), turn.Content, string(turn.Kind), nullString(turn.Name), turn.Timestamp)
	if err != nil {
		span.RecordError(err)
		return Turn{}, fmt.Errorf("chathistory: insert turn: %w", err)
	}
	return turn, nil
}

// Recent loads the newest limit turns and returns them oldest first.
func (s *PostgresStore) Recent(ctx context.Context, businessID, senderID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		return nil, nil
	}
	ctx, span := historyTracer.Start(ctx, "chathistory.recent")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_id, sender_id, role, content, message_type, COALESCE(name, ''), timestamp
		FROM chathistory
		WHERE business_id = $1 AND sender_id = $2
		ORDER BY timestamp DESC, seq DESC
		LIMIT $3
	`, businessID, senderID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chathistory: query recent: %w", err)
	}
	turns, err := scanTurns(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// List pages through a business's history newest first.
func (s *PostgresStore) List(ctx context.Context, q Query) (Page, error) {
	q = q.normalized()
	ctx, span := historyTracer.Start(ctx, "chathistory.list")
	defer span.End()

	where := []string{"business_id = $1"}
	args := []any{q.BusinessID}
	if q.From != nil {
		args = append(args, q.From.UTC())
		where = append(where, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if q.To != nil {
		args = append(args, q.To.UTC())
		where = append(where, fmt.Sprintf("timestamp <= $%d", len(args)))
	}
	filter := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chathistory WHERE "+filter, args...).Scan(&total); err != nil {
		span.RecordError(err)
		return Page{}, fmt.Errorf("chathistory: count: %w", err)
	}

	pageArgs := append(append([]any(nil), args...), q.Limit, q.Offset)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, business_id, sender_id, role, content, message_type, COALESCE(name, ''), timestamp
		FROM chathistory
		WHERE %s
		ORDER BY timestamp DESC, seq DESC
		LIMIT $%d OFFSET $%d
	`, filter, len(args)+1, len(args)+2), pageArgs...)
	if err != nil {
		span.RecordError(err)
		return Page{}, fmt.Errorf("chathistory: list: %w", err)
	}
	turns, err := scanTurns(rows)
	if err != nil {
		span.RecordError(err)
		return Page{}, err
	}
	if turns == nil {
		turns = []Turn{}
	}
	return Page{Messages: turns, TotalCount: total}, nil
}

func scanTurns(rows *sql.Rows) ([]Turn, error) {
	defer rows.Close()
	var turns []Turn
	for rows.Next() {
		var (
			t          Turn
			role, kind string
		)
		if err := rows.Scan(&t.ID, &t.BusinessID, &t.SenderID, &role, &t.Content, &kind, &t.Name, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("chathistory: scan turn: %w", err)
		}
		t.Role = Role(role)
		t.Kind = Kind(kind)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chathistory: iterate turns: %w", err)
	}
	return turns, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
