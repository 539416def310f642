// Package llm hides each chat-completion provider behind one tool-calling
// interface.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Role of a message in a completion request.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleTool carries a tool result. ToolName is always set; ToolCallID is set
	// when the result answers a call made earlier in the same request loop.
	RoleTool Role = "tool"
)

// ErrEmptyResponse is returned when a provider answers with neither text nor a tool call.
var ErrEmptyResponse = errors.New("llm: empty response")

// ToolCall is a model request to run a named tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Message is a provider-neutral conversation entry.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// Tool declares a callable function and its parameter schema.
type Tool struct {
	Name        string
	Description string
	Parameters  Schema
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type Request struct {
	Model       string
	System      []string
	Messages    []Message
	Tools       []Tool
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type Response struct {
	Text       string
	ToolCalls  []ToolCall
	Usage      TokenUsage
	StopReason string
}

// HasToolCall reports whether the model asked for a tool.
func (r Response) HasToolCall() bool {
	return len(r.ToolCalls) > 0
}

// Client completes one chat turn.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Named is implemented by clients that report a provider label for metrics.
type Named interface {
	Provider() string
}

// ProviderName returns c's provider label, or "unknown".
func ProviderName(c Client) string {
	if n, ok := c.(Named); ok {
		return n.Provider()
	}
	return "unknown"
}

// decodeArgs turns raw tool arguments into a map for providers that want
// structured input. Invalid JSON yields an empty map.
func decodeArgs(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

// toolResultText renders a tool result that has no live call id as plain
// context for providers without a free-standing tool role.
func toolResultText(m Message) string {
	return "[" + m.ToolName + " result] " + m.Content
}
