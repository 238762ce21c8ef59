package infra

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BROWSER_API_URL", "https://browser.example.com")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("COMPLETION_PROVIDER", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.CompletionProvider != "anthropic" {
		t.Fatalf("CompletionProvider = %q, want %q", cfg.CompletionProvider, "anthropic")
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Fatalf("FetchTimeout = %v, want %v", cfg.FetchTimeout, 30*time.Second)
	}
	if cfg.BrowserPoolSize != 4 {
		t.Fatalf("BrowserPoolSize = %d, want 4", cfg.BrowserPoolSize)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigRequiresBrowserURL(t *testing.T) {
	t.Setenv("BROWSER_API_URL", "")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig succeeded without BROWSER_API_URL")
	}
}

func TestLoadConfigRequiresProviderKey(t *testing.T) {
	t.Setenv("BROWSER_API_URL", "https://browser.example.com")
	t.Setenv("COMPLETION_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "unused")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig succeeded without OPENAI_API_KEY for openai provider")
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COMPLETION_PROVIDER", "oracle")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig accepted unsupported provider")
	}
}

func TestLoadConfigParsesList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.CORSAllowedOrigins) != len(want) {
		t.Fatalf("CORSAllowedOrigins = %#v, want %#v", cfg.CORSAllowedOrigins, want)
	}
	for i := range want {
		if cfg.CORSAllowedOrigins[i] != want[i] {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], want[i])
		}
	}
}
