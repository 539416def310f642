// Package chathistory keeps the append-only transcript of each
// (business, sender) conversation.
package chathistory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// Kind separates machine-readable payloads from text shown to the user.
type Kind string

const (
	KindRaw       Kind = "raw"
	KindFormatted Kind = "formatted"
)

var (
	ErrMissingToolName = errors.New("chathistory: tool_result turn requires a tool name")
	ErrInvalidTurn     = errors.New("chathistory: invalid turn")
)

// Turn is one stored message.
type Turn struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	SenderID   string    `json:"sender_id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Name       string    `json:"name,omitempty"`
	Kind       Kind      `json:"message_type"`
	Timestamp  time.Time `json:"timestamp"`
}

// Validate enforces the shape every stored turn must have.
func (t Turn) Validate() error {
	if strings.TrimSpace(t.BusinessID) == "" || strings.TrimSpace(t.SenderID) == "" {
		return fmt.Errorf("%w: business and sender ids required", ErrInvalidTurn)
	}
	switch t.Role {
	case RoleUser, RoleAssistant:
	case RoleToolResult:
		if strings.TrimSpace(t.Name) == "" {
			return ErrMissingToolName
		}
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidTurn, t.Role)
	}
	switch t.Kind {
	case KindRaw, KindFormatted:
	default:
		return fmt.Errorf("%w: unknown message type %q", ErrInvalidTurn, t.Kind)
	}
	return nil
}

// prepare fills id, timestamp and default kind before a write.
func prepare(t Turn, now time.Time) (Turn, error) {
	if t.Kind == "" {
		t.Kind = KindFormatted
		if t.Role == RoleToolResult {
			t.Kind = KindRaw
		}
	}
	if err := t.Validate(); err != nil {
		return Turn{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = now
	}
	t.Timestamp = t.Timestamp.UTC()
	return t, nil
}

// Store appends and reads back recent turns.
type Store interface {
	Append(ctx context.Context, turn Turn) (Turn, error)
	// Recent returns at most limit turns, oldest first.
	Recent(ctx context.Context, businessID, senderID string, limit int) ([]Turn, error)
}

// Query selects a business-wide page of history for the client portal.
type Query struct {
	BusinessID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// DefaultPageSize applies when a query leaves Limit unset.
const DefaultPageSize = 20

func (q Query) normalized() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// Page is one slice of history, newest first, with the unpaged total.
type Page struct {
	Messages   []Turn `json:"messages"`
	TotalCount int    `json:"totalCount"`
}

// Lister answers portal history queries.
type Lister interface {
	List(ctx context.Context, q Query) (Page, error)
}
