package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	ClonesDir   string

	BrowserAPIURL         string
	BrowserAPIKey         string
	BrowserPoolSize       int
	BrowserAcquireTimeout time.Duration

	FetchTimeout        time.Duration
	FetchMaxRedirects   int
	FetchMaxStylesheets int

	CompletionProvider string
	AnthropicAPIKey    string
	AnthropicModel     string
	AnthropicBaseURL   string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	GenerationTimeout  time.Duration
	MaxPromptBytes     int

	CORSAllowedOrigins []string
	RateLimitPerMin    int
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ClonesDir:   getEnv("CLONES_DIR", "./data/clones"),

		BrowserAPIURL:         os.Getenv("BROWSER_API_URL"),
		BrowserAPIKey:         os.Getenv("BROWSER_API_KEY"),
		BrowserPoolSize:       getEnvInt("BROWSER_POOL_SIZE", 4),
		BrowserAcquireTimeout: time.Second * time.Duration(getEnvInt("BROWSER_ACQUIRE_TIMEOUT_SECONDS", 10)),

		FetchTimeout:        time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)),
		FetchMaxRedirects:   getEnvInt("FETCH_MAX_REDIRECTS", 5),
		FetchMaxStylesheets: getEnvInt("FETCH_MAX_STYLESHEETS", 8),

		CompletionProvider: getEnv("COMPLETION_PROVIDER", "anthropic"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:     getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest"),
		AnthropicBaseURL:   getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GenerationTimeout:  time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 120)),
		MaxPromptBytes:     getEnvInt("MAX_PROMPT_BYTES", 120*1024),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.BrowserAPIURL == "" {
		return nil, fmt.Errorf("BROWSER_API_URL is required")
	}

	switch cfg.CompletionProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when COMPLETION_PROVIDER=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when COMPLETION_PROVIDER=openai")
		}
	default:
		return nil, fmt.Errorf("unsupported COMPLETION_PROVIDER %q", cfg.CompletionProvider)
	}

	if cfg.BrowserPoolSize < 1 {
		return nil, fmt.Errorf("BROWSER_POOL_SIZE must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
