package chathistory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendRejectsToolResultWithoutName(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Append(context.Background(), Turn{
		BusinessID: "b1", SenderID: "u1", Role: RoleToolResult, Content: `{"isAvailable":true}`,
	})
	require.ErrorIs(t, err, ErrMissingToolName)
	assert.Empty(t, store.All())
}

func TestAppendDefaultsKind(t *testing.T) {
	store := NewMemoryStore()
	tool, err := store.Append(context.Background(), Turn{BusinessID: "b1", SenderID: "u1", Role: RoleToolResult, Name: "checkSlot", Content: "{}"})
	require.NoError(t, err)
	assert.Equal(t, KindRaw, tool.Kind)
	assert.NotEmpty(t, tool.ID)
	assert.False(t, tool.Timestamp.IsZero())

	user, err := store.Append(context.Background(), Turn{BusinessID: "b1", SenderID: "u1", Role: RoleUser, Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, KindFormatted, user.Kind)
}

func TestMemoryRecentIsBoundedAndOrdered(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, content := range []string{"one", "two", "three"} {
		_, err := store.Append(ctx, Turn{BusinessID: "b1", SenderID: "u1", Role: RoleUser, Content: content})
		require.NoError(t, err)
	}
	_, err := store.Append(ctx, Turn{BusinessID: "b1", SenderID: "u2", Role: RoleUser, Content: "other"})
	require.NoError(t, err)

	turns, err := store.Recent(ctx, "b1", "u1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "two", turns[0].Content)
	assert.Equal(t, "three", turns[1].Content)
}

func TestMemoryListPaginates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := store.Append(ctx, Turn{BusinessID: "b1", SenderID: "u1", Role: RoleUser, Content: "m", Timestamp: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}
	from := base.Add(time.Hour)
	page, err := store.List(ctx, Query{BusinessID: "b1", From: &from, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, page.TotalCount)
	require.Len(t, page.Messages, 2)
	assert.True(t, page.Messages[0].Timestamp.Equal(base.Add(3*time.Hour)))
}

func TestPostgresAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO chathistory").
		WithArgs(sqlmock.AnyArg(), "b1", "u1", "tool_result", `{"services":[]}`, "raw", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewPostgresStore(db)
	turn, err := store.Append(context.Background(), Turn{
		BusinessID: "b1", SenderID: "u1", Role: RoleToolResult, Name: "getBusinessServices", Content: `{"services":[]}`,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, turn.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecentReturnsOldestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "business_id", "sender_id", "role", "content", "message_type", "name", "timestamp"}).
		AddRow("t3", "b1", "u1", "assistant", "Sure", "formatted", "", now).
		AddRow("t2", "b1", "u1", "tool_result", "{}", "raw", "checkSlot", now.Add(-time.Second)).
		AddRow("t1", "b1", "u1", "user", "Book me", "formatted", "", now.Add(-2*time.Second))
	mock.ExpectQuery("FROM chathistory").WithArgs("b1", "u1", 3).WillReturnRows(rows)

	store := NewPostgresStore(db)
	turns, err := store.Recent(context.Background(), "b1", "u1", 3)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "t1", turns[0].ID)
	assert.Equal(t, "checkSlot", turns[1].Name)
	assert.Equal(t, RoleToolResult, turns[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM chathistory WHERE business_id = \$1 AND timestamp >= \$2`).
		WithArgs("b1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(`LIMIT \$3 OFFSET \$4`).
		WithArgs("b1", sqlmock.AnyArg(), 20, 40).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "sender_id", "role", "content", "message_type", "name", "timestamp"}).
			AddRow("t1", "b1", "u1", "user", "hi", "formatted", "", from))

	store := NewPostgresStore(db)
	page, err := store.List(context.Background(), Query{BusinessID: "b1", From: &from, Offset: 40})
	require.NoError(t, err)
	assert.Equal(t, 42, page.TotalCount)
	assert.Len(t, page.Messages, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO chathistory").WillReturnError(errors.New("connection reset"))

	store := NewPostgresStore(db)
	_, err = store.Append(context.Background(), Turn{BusinessID: "b1", SenderID: "u1", Role: RoleUser, Content: "hi"})
	require.Error(t, err)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Hour, 3)
	ctx := context.Background()

	for _, content := range []string{"a", "b", "c", "d"} {
		_, err := store.Append(ctx, Turn{BusinessID: "b1", SenderID: "u1", Role: RoleUser, Content: content})
		require.NoError(t, err)
	}
	_, err := store.Append(ctx, Turn{BusinessID: "b1", SenderID: "u1", Role: RoleToolResult, Name: "checkSlot", Content: "{}"})
	require.NoError(t, err)

	turns, err := store.Recent(ctx, "b1", "u1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 3, "list is capped at maxLen")
	assert.Equal(t, "c", turns[0].Content)
	assert.Equal(t, "checkSlot", turns[2].Name)
	assert.True(t, mr.TTL("chathistory:b1:u1") > 0)
}
