package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLM providers understood by the bootstrap wiring.
const (
	LLMProviderOpenAI  = "openai"
	LLMProviderAzure   = "azure"
	LLMProviderBedrock = "bedrock"
	LLMProviderGemini  = "gemini"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	HistoryBackend     string
	HistoryTTL         time.Duration
	PortalJWTSecret    string

	// LLM configuration
	LLMProvider           string
	LLMFallbackProvider   string
	LLMTemperature        float32
	LLMTopP               float32
	LLMMaxTokens          int
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIModel           string
	AzureOpenAIEndpoint   string
	AzureOpenAIAPIKey     string
	AzureOpenAIDeployment string
	AzureOpenAIAPIVersion string
	BedrockModelID        string
	GeminiAPIKey          string
	GeminiModelID         string

	// Dispatcher tuning
	MaxToolRounds       int
	HistoryLimit        int
	FuzzyMatchThreshold int
	OutboundTimeout     time.Duration
	ToolEndpointBaseURL string
	RateLimitRPS        float64
	RateLimitBurst      int

	// Calendar
	CalendarProvider      string
	DefaultCalendarID     string
	DefaultTimezone       string
	GoogleCredentialsJSON string
	GoogleCredentialsFile string
	BookingLockTTL        time.Duration

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Booking confirmation email
	EmailProvider    string
	SendGridAPIKey   string
	EmailFromAddress string
	EmailFromName    string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		HistoryBackend:     strings.ToLower(getEnv("HISTORY_BACKEND", "postgres")),
		HistoryTTL:         getEnvAsDuration("HISTORY_TTL", 30*24*time.Hour),
		PortalJWTSecret:    getEnv("PORTAL_JWT_SECRET", ""),

		LLMProvider:           strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderOpenAI)),
		LLMFallbackProvider:   strings.ToLower(getEnv("LLM_FALLBACK_PROVIDER", "")),
		LLMTemperature:        float32(getEnvAsFloat("LLM_TEMPERATURE", 0.7)),
		LLMTopP:               float32(getEnvAsFloat("LLM_TOP_P", 0.95)),
		LLMMaxTokens:          getEnvAsInt("LLM_MAX_TOKENS", 800),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AzureOpenAIEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureOpenAIAPIKey:     getEnv("AZURE_OPENAI_API_KEY", ""),
		AzureOpenAIDeployment: getEnv("AZURE_OPENAI_DEPLOYMENT", "gpt-4o-mini"),
		AzureOpenAIAPIVersion: getEnv("AZURE_OPENAI_API_VERSION", "2024-08-01-preview"),
		BedrockModelID:        getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:         getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		MaxToolRounds:       getEnvAsInt("MAX_TOOL_ROUNDS", 3),
		HistoryLimit:        getEnvAsInt("HISTORY_LIMIT", 20),
		FuzzyMatchThreshold: getEnvAsInt("FUZZY_MATCH_THRESHOLD", 75),
		OutboundTimeout:     getEnvAsDuration("OUTBOUND_TIMEOUT", 30*time.Second),
		ToolEndpointBaseURL: strings.TrimRight(getEnv("TOOL_ENDPOINT_BASE_URL", ""), "/"),
		RateLimitRPS:        getEnvAsFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:      getEnvAsInt("RATE_LIMIT_BURST", 10),

		CalendarProvider:      strings.ToLower(getEnv("CALENDAR_PROVIDER", "google")),
		DefaultCalendarID:     getEnv("DEFAULT_CALENDAR_ID", ""),
		DefaultTimezone:       getEnv("DEFAULT_TIMEZONE", "Australia/Brisbane"),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		BookingLockTTL:        getEnvAsDuration("BOOKING_LOCK_TTL", 45*time.Second),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		EmailProvider:    strings.ToLower(getEnv("EMAIL_PROVIDER", "")),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Bookings"),
	}
}

// Validate reports settings that make the process unable to serve chat traffic.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case LLMProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case LLMProviderAzure:
		if c.AzureOpenAIEndpoint == "" || c.AzureOpenAIAPIKey == "" {
			errs = append(errs, errors.New("AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY are required for the azure provider"))
		}
	case LLMProviderBedrock:
		if c.BedrockModelID == "" {
			errs = append(errs, errors.New("BEDROCK_MODEL_ID is required for the bedrock provider"))
		}
	case LLMProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider))
	}
	if c.MaxToolRounds < 1 {
		errs = append(errs, errors.New("MAX_TOOL_ROUNDS must be at least 1"))
	}
	if c.HistoryLimit < 1 {
		errs = append(errs, errors.New("HISTORY_LIMIT must be at least 1"))
	}
	if c.FuzzyMatchThreshold < 1 || c.FuzzyMatchThreshold > 100 {
		errs = append(errs, errors.New("FUZZY_MATCH_THRESHOLD must be between 1 and 100"))
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_TIMEZONE %q: %w", c.DefaultTimezone, err))
	}
	if c.HistoryBackend == "redis" && c.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required when HISTORY_BACKEND=redis"))
	}
	return errors.Join(errs...)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
