package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// OpenAIClient talks to OpenAI or an Azure OpenAI deployment.
type OpenAIClient struct {
	api      *openai.Client
	model    string
	provider string
}

// OpenAIConfig configures the public OpenAI API or a compatible endpoint.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// NewOpenAIClient builds a client for api.openai.com or BaseURL.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: openai api key is required")
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		conf.HTTPClient = cfg.HTTPClient
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{api: openai.NewClientWithConfig(conf), model: model, provider: "openai"}, nil
}

// AzureConfig configures an Azure OpenAI deployment.
type AzureConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
	HTTPClient *http.Client
}

// NewAzureOpenAIClient builds a client routed to a single deployment.
func NewAzureOpenAIClient(cfg AzureConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: azure endpoint and api key are required")
	}
	conf := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	if cfg.APIVersion != "" {
		conf.APIVersion = cfg.APIVersion
	}
	deployment := cfg.Deployment
	conf.AzureModelMapperFunc = func(string) string { return deployment }
	if cfg.HTTPClient != nil {
		conf.HTTPClient = cfg.HTTPClient
	}
	return &OpenAIClient{api: openai.NewClientWithConfig(conf), model: deployment, provider: "azure"}, nil
}

// Provider implements Named.
func (c *OpenAIClient) Provider() string { return c.provider }

// Complete runs one chat completion with the tool catalog attached.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(req),
		Tools:       toOpenAITools(req.Tools),
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   int(req.MaxTokens),
	}

	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{}, fmt.Errorf("llm: %s completion failed: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, ErrEmptyResponse
	}
	choice := resp.Choices[0]
	out := Response{
		Text:       strings.TrimSpace(choice.Message.Content),
		StopReason: string(choice.FinishReason),
		Usage: TokenUsage{
			InputTokens:  int32(resp.Usage.PromptTokens),
			OutputTokens: int32(resp.Usage.CompletionTokens),
			TotalTokens:  int32(resp.Usage.TotalTokens),
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	if fc := choice.Message.FunctionCall; fc != nil && len(out.ToolCalls) == 0 {
		out.ToolCalls = append(out.ToolCalls, ToolCall{Name: fc.Name, Arguments: json.RawMessage(fc.Arguments)})
	}
	if out.Text == "" && len(out.ToolCalls) == 0 {
		return Response{}, ErrEmptyResponse
	}
	return out, nil
}

func toOpenAIMessages(req Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(strings.Join(req.System, "\n\n")); system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleUser:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		case RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
			for _, tc := range m.ToolCalls {
				if tc.ID == "" {
					msg.FunctionCall = &openai.FunctionCall{Name: tc.Name, Arguments: string(tc.Arguments)}
					continue
				}
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:       tc.ID,
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: tc.Name, Arguments: string(tc.Arguments)},
				})
			}
			msgs = append(msgs, msg)
		case RoleTool:
			if m.ToolCallID != "" {
				msgs = append(msgs, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    m.Content,
					ToolCallID: m.ToolCallID,
					Name:       m.ToolName,
				})
				continue
			}
			// Results replayed from history answer no live call.
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleFunction,
				Name:    m.ToolName,
				Content: m.Content,
			})
		}
	}
	return msgs
}

func toOpenAITools(tools []Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		params := toJSONSchema(t.Parameters)
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

func toJSONSchema(s Schema) jsonschema.Definition {
	def := jsonschema.Definition{
		Type:        jsonschema.DataType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
	}
	if s.Items != nil {
		items := toJSONSchema(*s.Items)
		def.Items = &items
	}
	if s.Type == TypeObject {
		def.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for name, prop := range s.Properties {
			def.Properties[name] = toJSONSchema(prop)
		}
		def.Required = s.Required
		def.AdditionalProperties = false
	}
	return def
}
