package chathistory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultRedisTTL    = 30 * 24 * time.Hour
	defaultRedisMaxLen = 200
)

// RedisStore keeps each conversation as a capped Redis list.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
	maxLen int64
	now    func() time.Time
}

// NewRedisStore builds a Redis-backed store. ttl and maxLen fall back to
// 30 days and 200 turns when zero.
func NewRedisStore(client *redis.Client, ttl time.Duration, maxLen int) *RedisStore {
	if client == nil {
		panic("chathistory: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	if maxLen <= 0 {
		maxLen = defaultRedisMaxLen
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("tradeezy.internal.chathistory.redis"),
		ttl:    ttl,
		maxLen: int64(maxLen),
		now:    time.Now,
	}
}

// Append pushes the turn, trims the list and refreshes its TTL atomically.
func (s *RedisStore) Append(ctx context.Context, turn Turn) (Turn, error) {
	turn, err := prepare(turn, s.now())
	if err != nil {
		return Turn{}, err
	}
	ctx, span := s.tracer.Start(ctx, "chathistory.redis.append")
	defer span.End()

	data, err := json.Marshal(turn)
	if err != nil {
		span.RecordError(err)
		return Turn{}, fmt.Errorf("chathistory: marshal turn: %w", err)
	}
	key := historyKey(turn.BusinessID, turn.SenderID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -s.maxLen, -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return Turn{}, fmt.Errorf("chathistory: persist turn: %w", err)
	}
	return turn, nil
}

// Recent returns the last limit turns, oldest first.
func (s *RedisStore) Recent(ctx context.Context, businessID, senderID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		return nil, nil
	}
	ctx, span := s.tracer.Start(ctx, "chathistory.redis.recent")
	defer span.End()

	values, err := s.redis.LRange(ctx, historyKey(businessID, senderID), int64(-limit), -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chathistory: load turns: %w", err)
	}
	turns := make([]Turn, 0, len(values))
	for _, v := range values {
		var t Turn
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("chathistory: decode turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func historyKey(businessID, senderID string) string {
	return fmt.Sprintf("chathistory:%s:%s", businessID, senderID)
}
