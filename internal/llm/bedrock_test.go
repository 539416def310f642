package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type fakeConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = params
	return f.out, f.err
}

func TestBedrockClientParsesToolUse(t *testing.T) {
	fake := &fakeConverse{out: &bedrockruntime.ConverseOutput{
		StopReason: brtypes.StopReasonToolUse,
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role: brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{
				&brtypes.ContentBlockMemberText{Value: "Let me check."},
				&brtypes.ContentBlockMemberToolUse{Value: brtypes.ToolUseBlock{
					ToolUseId: aws.String("tooluse-1"),
					Name:      aws.String("checkSlot"),
					Input:     document.NewLazyDocument(map[string]any{"service_name": "Massage"}),
				}},
			},
		}},
		Usage: &brtypes.TokenUsage{InputTokens: aws.Int32(10), OutputTokens: aws.Int32(4), TotalTokens: aws.Int32(14)},
	}}
	client := NewBedrockClient(fake, "anthropic.claude-test")

	resp, err := client.Complete(context.Background(), Request{
		System:   []string{"system prompt"},
		Messages: []Message{{Role: RoleUser, Content: "is 10am free?"}},
		Tools:    []Tool{{Name: "checkSlot", Description: "check", Parameters: Schema{Type: TypeObject}}},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Text != "Let me check." || resp.StopReason != "tool_use" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].ID != "tooluse-1" {
		t.Fatalf("tool calls = %+v", resp.ToolCalls)
	}
	var args map[string]string
	if err := json.Unmarshal(resp.ToolCalls[0].Arguments, &args); err != nil || args["service_name"] != "Massage" {
		t.Fatalf("arguments = %s (%v)", resp.ToolCalls[0].Arguments, err)
	}
	if resp.Usage.TotalTokens != 14 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if aws.ToString(fake.input.ModelId) != "anthropic.claude-test" {
		t.Fatalf("model id = %s", aws.ToString(fake.input.ModelId))
	}
	if fake.input.ToolConfig == nil || len(fake.input.ToolConfig.Tools) != 1 {
		t.Fatalf("tool config = %+v", fake.input.ToolConfig)
	}
	if fake.input.InferenceConfig != nil {
		t.Fatalf("expected nil inference config, got %+v", fake.input.InferenceConfig)
	}
}

func TestBedrockClientWrapsError(t *testing.T) {
	boom := errors.New("throttled")
	client := NewBedrockClient(&fakeConverse{err: boom}, "m")
	_, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestBedrockClientRequiresModel(t *testing.T) {
	client := NewBedrockClient(&fakeConverse{}, "")
	if _, err := client.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected model id error")
	}
}

func TestToBedrockMessagesAlternatesRoles(t *testing.T) {
	msgs := toBedrockMessages([]Message{
		{Role: RoleAssistant, Content: "Hi! How can I help?"},
		{Role: RoleUser, Content: "massage please"},
		{Role: RoleTool, ToolName: "getBusinessServices", Content: `{"services":[]}`},
		{Role: RoleUser, Content: "tomorrow 10am"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "t1", Name: "checkSlot", Arguments: json.RawMessage(`{"a":1}`)}}},
		{Role: RoleTool, ToolName: "checkSlot", ToolCallID: "t1", Content: `{"available":true}`},
	})
	if len(msgs) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(msgs))
	}
	if msgs[0].Role != brtypes.ConversationRoleUser || len(msgs[0].Content) != 3 {
		t.Fatalf("first turn = %+v", msgs[0])
	}
	if _, ok := msgs[1].Content[0].(*brtypes.ContentBlockMemberToolUse); !ok {
		t.Fatalf("expected tool use block, got %T", msgs[1].Content[0])
	}
	result, ok := msgs[2].Content[0].(*brtypes.ContentBlockMemberToolResult)
	if !ok || aws.ToString(result.Value.ToolUseId) != "t1" {
		t.Fatalf("expected tool result block, got %#v", msgs[2].Content[0])
	}
}
