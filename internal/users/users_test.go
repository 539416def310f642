package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

func TestMemoryGetOrCreateIsIdempotent(t *testing.T) {
	store := NewMemoryStore(logging.Discard())
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "u1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	second, err := store.GetOrCreate(ctx, "u1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if first != second {
		t.Fatalf("profiles differ: %+v vs %+v", first, second)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one row, got %d", store.Len())
	}
}

func TestMemoryMergeNeverClearsFields(t *testing.T) {
	store := NewMemoryStore(logging.Discard())
	ctx := context.Background()

	res, err := store.MergeDetails(ctx, "u1", Details{Name: StringPtr("Alice")})
	if err != nil {
		t.Fatalf("merge name: %v", err)
	}
	if res.Action != ActionCreated {
		t.Fatalf("expected created, got %s", res.Action)
	}
	res, err = store.MergeDetails(ctx, "u1", Details{PhoneNumber: StringPtr("555"), Name: StringPtr("  ")})
	if err != nil {
		t.Fatalf("merge phone: %v", err)
	}
	if res.Profile.Name != "Alice" || res.Profile.PhoneNumber != "555" {
		t.Fatalf("unexpected profile: %+v", res.Profile)
	}
	if res.Action != ActionUpdated {
		t.Fatalf("expected updated, got %s", res.Action)
	}

	res, err = store.MergeDetails(ctx, "u1", Details{})
	if err != nil {
		t.Fatalf("empty merge: %v", err)
	}
	if res.Action != ActionUnchanged || res.Profile.Name != "Alice" {
		t.Fatalf("empty merge should be a no-op: %+v", res)
	}
}

func TestProfileMissing(t *testing.T) {
	p := Profile{Name: "Alice"}
	missing := p.Missing()
	if len(missing) != 2 || missing[0] != "phone number" || missing[1] != "email" {
		t.Fatalf("unexpected missing fields: %v", missing)
	}
}

func TestSenderRequired(t *testing.T) {
	store := NewMemoryStore(logging.Discard())
	if _, err := store.GetOrCreate(context.Background(), " "); !errors.Is(err, ErrSenderRequired) {
		t.Fatalf("expected ErrSenderRequired, got %v", err)
	}
}

func TestPostgresGetOrCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectExec(`INSERT INTO users \(sender_id, created_at, updated_at\)`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`FROM users`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"sender_id", "name", "phone_number", "email", "created_at", "updated_at"}).
			AddRow("u1", "Alice", "", "", now, now))

	store := NewPostgresStoreWithDB(mock, logging.Discard())
	p, err := store.GetOrCreate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if p.Name != "Alice" || !p.CreatedAt.Equal(now) {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresMergeDetailsUsesCoalesce(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`ON CONFLICT \(sender_id\) DO UPDATE SET\s+name = COALESCE\(EXCLUDED.name, users.name\)`).
		WithArgs("u1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"sender_id", "name", "phone_number", "email", "created_at", "updated_at", "inserted"}).
			AddRow("u1", "Alice", "555", "", now, now, false))

	store := NewPostgresStoreWithDB(mock, logging.Discard())
	res, err := store.MergeDetails(context.Background(), "u1", Details{PhoneNumber: StringPtr("555")})
	if err != nil {
		t.Fatalf("MergeDetails: %v", err)
	}
	if res.Action != ActionUpdated || res.Profile.Name != "Alice" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresMergeEmptyDetailsSkipsUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectExec(`INSERT INTO users`).WithArgs("u1").WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`FROM users`).WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"sender_id", "name", "phone_number", "email", "created_at", "updated_at"}).
			AddRow("u1", "", "", "", now, now))

	store := NewPostgresStoreWithDB(mock, logging.Discard())
	res, err := store.MergeDetails(context.Background(), "u1", Details{Email: StringPtr("")})
	if err != nil {
		t.Fatalf("MergeDetails: %v", err)
	}
	if res.Action != ActionUnchanged {
		t.Fatalf("expected unchanged, got %s", res.Action)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
