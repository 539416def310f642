package llm

import (
	"encoding/json"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestToGeminiContentsMergesRoles(t *testing.T) {
	contents := toGeminiContents([]Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleTool, ToolName: "getBusinessServices", Content: "[]"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "gemini-call-1", Name: "checkSlot", Arguments: json.RawMessage(`{"duration_minutes":60}`)}}},
		{Role: RoleTool, ToolName: "checkSlot", ToolCallID: "gemini-call-1", Content: `{"available":true}`},
	})
	if len(contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(contents))
	}
	if contents[0].Role != "user" || len(contents[0].Parts) != 2 {
		t.Fatalf("first content = %+v", contents[0])
	}
	call, ok := contents[1].Parts[0].(genai.FunctionCall)
	if !ok || call.Name != "checkSlot" || call.Args["duration_minutes"] != float64(60) {
		t.Fatalf("function call part = %#v", contents[1].Parts[0])
	}
	if _, ok := contents[2].Parts[0].(genai.FunctionResponse); !ok {
		t.Fatalf("expected function response, got %T", contents[2].Parts[0])
	}
}

func TestFromGeminiPartsSynthesizesIDs(t *testing.T) {
	resp := fromGeminiParts([]genai.Part{
		genai.Text(" checking "),
		genai.FunctionCall{Name: "checkSlot", Args: map[string]any{"service_name": "Massage"}},
		genai.FunctionCall{Name: "getBusinessServices"},
	})
	if resp.Text != "checking" {
		t.Fatalf("text = %q", resp.Text)
	}
	if len(resp.ToolCalls) != 2 || resp.ToolCalls[0].ID != "gemini-call-1" || resp.ToolCalls[1].ID != "gemini-call-2" {
		t.Fatalf("tool calls = %+v", resp.ToolCalls)
	}
	if string(resp.ToolCalls[1].Arguments) != "{}" {
		t.Fatalf("empty args = %s", resp.ToolCalls[1].Arguments)
	}
}

func TestToGeminiSchema(t *testing.T) {
	s := toGeminiSchema(Schema{
		Type:       TypeObject,
		Properties: map[string]Schema{"fields": {Type: TypeArray, Items: &Schema{Type: TypeString}}},
		Required:   []string{"fields"},
	})
	if s.Type != genai.TypeObject || s.Properties["fields"].Type != genai.TypeArray || s.Properties["fields"].Items.Type != genai.TypeString {
		t.Fatalf("unexpected schema %+v", s)
	}
}
