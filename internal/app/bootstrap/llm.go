package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/tradeezy-assistant/internal/config"
	"github.com/wolfman30/tradeezy-assistant/internal/llm"
	"github.com/wolfman30/tradeezy-assistant/internal/observability/metrics"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

// AWSConfigLoader loads shared AWS settings on first use.
type AWSConfigLoader func(ctx context.Context) (aws.Config, error)

// BuildLLMClient wires the primary provider, the optional fallback and the
// metrics wrapper. The returned closers release provider resources.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, m *metrics.AssistantMetrics, logger *logging.Logger) (llm.Client, []func() error, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var closers []func() error
	primary, closer, err := buildProvider(ctx, cfg.LLMProvider, cfg, loadAWS)
	if err != nil {
		return nil, nil, err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	var fallback llm.Client
	if name := cfg.LLMFallbackProvider; name != "" && name != cfg.LLMProvider {
		fallback, closer, err = buildProvider(ctx, name, cfg, loadAWS)
		if err != nil {
			logger.Warn("fallback LLM provider unavailable", "provider", name, "error", err)
			fallback = nil
		} else if closer != nil {
			closers = append(closers, closer)
		}
	}

	logger.Info("LLM client configured", "provider", cfg.LLMProvider, "fallback", cfg.LLMFallbackProvider)
	return llm.NewInstrumented(llm.NewFallbackClient(primary, fallback, logger), m), closers, nil
}

func buildProvider(ctx context.Context, name string, cfg *appconfig.Config, loadAWS AWSConfigLoader) (llm.Client, func() error, error) {
	httpClient := &http.Client{Timeout: cfg.OutboundTimeout}
	switch name {
	case appconfig.LLMProviderOpenAI:
		c, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			HTTPClient: httpClient,
		})
		return c, nil, err
	case appconfig.LLMProviderAzure:
		c, err := llm.NewAzureOpenAIClient(llm.AzureConfig{
			Endpoint:   cfg.AzureOpenAIEndpoint,
			APIKey:     cfg.AzureOpenAIAPIKey,
			Deployment: cfg.AzureOpenAIDeployment,
			APIVersion: cfg.AzureOpenAIAPIVersion,
			HTTPClient: httpClient,
		})
		return c, nil, err
	case appconfig.LLMProviderBedrock:
		if cfg.BedrockModelID == "" {
			return nil, nil, fmt.Errorf("bootstrap: BEDROCK_MODEL_ID is required")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		return llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), nil, nil
	case appconfig.LLMProviderGemini:
		c, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unsupported LLM provider %q", name)
	}
}
