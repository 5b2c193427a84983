package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
output_dir: ./docs
schedule: "06:30"
translator:
  api_key: test_api_key
sources:
  github:
    language: go
    since: weekly
  hackernews:
    item_delay: 250ms
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.OutputDir != "./docs" {
		t.Errorf("Expected output_dir './docs', got '%s'", cfg.OutputDir)
	}
	if cfg.Schedule != "06:30" {
		t.Errorf("Expected schedule '06:30', got '%s'", cfg.Schedule)
	}
	if cfg.Sources.GitHub.Language != "go" || cfg.Sources.GitHub.Since != "weekly" {
		t.Errorf("Unexpected github source config: %+v", cfg.Sources.GitHub)
	}
	if cfg.Sources.HackerNews.ItemDelay != 250*time.Millisecond {
		t.Errorf("Expected item_delay 250ms, got %v", cfg.Sources.HackerNews.ItemDelay)
	}
	if !cfg.Sources.ProductHunt.Enabled {
		t.Error("Expected producthunt to be enabled by default")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
translator:
  api_key: key
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.OutputDir != "./mkdocs" {
		t.Errorf("Expected default output_dir './mkdocs', got %q", cfg.OutputDir)
	}
	if cfg.Schedule != "05:00" {
		t.Errorf("Expected default schedule '05:00', got %q", cfg.Schedule)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.MaxAttempts != 3 {
		t.Errorf("Expected default max_attempts 3, got %d", cfg.HTTP.MaxAttempts)
	}
	if cfg.Translator.Type != "openai" || cfg.Translator.Model != "deepseek-chat" {
		t.Errorf("Expected openai/deepseek-chat translator, got %s/%s", cfg.Translator.Type, cfg.Translator.Model)
	}
	if cfg.Translator.BaseURL != "https://api.deepseek.com" {
		t.Errorf("Expected default base URL, got %q", cfg.Translator.BaseURL)
	}
	if cfg.Translator.SummaryMin != 10 || cfg.Translator.SummaryMax != 120 {
		t.Errorf("Expected summary window [10,120], got [%d,%d]", cfg.Translator.SummaryMin, cfg.Translator.SummaryMax)
	}
	if cfg.Sources.ProductHunt.PageLimit != 30 || cfg.Sources.ProductHunt.MaxProducts != 10 {
		t.Errorf("Unexpected producthunt limits: %+v", cfg.Sources.ProductHunt)
	}
	if len(cfg.Publisher.Types) != 1 || cfg.Publisher.Types[0] != "markdown" {
		t.Errorf("Expected default publisher [markdown], got %v", cfg.Publisher.Types)
	}
	if !cfg.RunOnStart {
		t.Error("Expected run_on_start to default to true")
	}
}

func TestLoadConfigExplicitFalse(t *testing.T) {
	path := writeConfig(t, `
run_on_start: false
translator:
  api_key: key
sources:
  producthunt:
    enabled: false
site:
  enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.RunOnStart {
		t.Error("Expected run_on_start false")
	}
	if cfg.Sources.ProductHunt.Enabled {
		t.Error("Expected producthunt disabled")
	}
	if cfg.Site.Enabled {
		t.Error("Expected site disabled")
	}
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	t.Setenv("TEST_DEEPSEEK_KEY", "sk-from-env")
	path := writeConfig(t, `
translator:
  api_key: ${TEST_DEEPSEEK_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Translator.APIKey != "sk-from-env" {
		t.Errorf("Expected expanded api key, got %q", cfg.Translator.APIKey)
	}
}

func TestLoadConfigEnvFallback(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-fallback")
	t.Setenv("PRODUCTHUNT_TOKEN", "ph-token")
	path := writeConfig(t, `
translator:
  api_key: ${SOME_UNSET_VARIABLE_FOR_TEST}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Translator.APIKey != "sk-fallback" {
		t.Errorf("Expected DEEPSEEK_API_KEY fallback, got %q", cfg.Translator.APIKey)
	}
	if cfg.Sources.ProductHunt.Token != "ph-token" {
		t.Errorf("Expected PRODUCTHUNT_TOKEN fallback, got %q", cfg.Sources.ProductHunt.Token)
	}
}

func TestLoadConfigAnthropicIgnoresDeepSeekEnv(t *testing.T) {
	t.Setenv("DEEPSEEK_BASE_URL", "https://api.deepseek.com")
	t.Setenv("DEEPSEEK_API_KEY", "sk-deepseek")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	path := writeConfig(t, `
translator:
  type: anthropic
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Translator.BaseURL != "" {
		t.Errorf("Expected empty base_url for anthropic, got %q", cfg.Translator.BaseURL)
	}
	if cfg.Translator.APIKey != "sk-ant" {
		t.Errorf("Expected ANTHROPIC_API_KEY fallback, got %q", cfg.Translator.APIKey)
	}
}

func TestLoadConfigDeepSeekBaseURLFallback(t *testing.T) {
	t.Setenv("DEEPSEEK_BASE_URL", "https://proxy.example.com")
	path := writeConfig(t, `
translator:
  api_key: key
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Translator.BaseURL != "https://proxy.example.com" {
		t.Errorf("Expected DEEPSEEK_BASE_URL fallback, got %q", cfg.Translator.BaseURL)
	}
}

func TestLoadConfigMissingAPIKey(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	path := writeConfig(t, `
output_dir: ./docs
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected error for missing api key")
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Errorf("Expected api_key error, got: %v", err)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad schedule", func(c *Config) { c.Schedule = "5am" }, "HH:MM"},
		{"hour out of range", func(c *Config) { c.Schedule = "24:00" }, "HH:MM"},
		{"bad translator", func(c *Config) { c.Translator.Type = "claude-cli" }, "unsupported translator"},
		{"bad since", func(c *Config) { c.Sources.GitHub.Since = "yearly" }, "since"},
		{"bad publisher", func(c *Config) { c.Publisher.Types = []string{"fax"} }, "unsupported publisher"},
		{"discord without webhook", func(c *Config) { c.Publisher.Types = []string{"discord"} }, "webhook_url"},
		{"email without host", func(c *Config) { c.Publisher.Types = []string{"email"} }, "smtp_host"},
		{"inverted summary window", func(c *Config) { c.Translator.SummaryMin, c.Translator.SummaryMax = 50, 20 }, "summary window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Translator.APIKey = "key"
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCronSpec(t *testing.T) {
	tests := []struct {
		schedule string
		want     string
	}{
		{"05:00", "0 5 * * *"},
		{"00:00", "0 0 * * *"},
		{"23:59", "59 23 * * *"},
		{"08:05", "5 8 * * *"},
	}
	for _, tt := range tests {
		cfg := &Config{Schedule: tt.schedule}
		if got := cfg.CronSpec(); got != tt.want {
			t.Errorf("CronSpec(%q) = %q, want %q", tt.schedule, got, tt.want)
		}
	}
}

func TestExpandEnvVarsLeavesUnknown(t *testing.T) {
	got := expandEnvVars("key: ${DEFINITELY_NOT_SET_12345}")
	if got != "key: ${DEFINITELY_NOT_SET_12345}" {
		t.Errorf("Expected unknown var to be left as-is, got %q", got)
	}
}

func TestReadSkipsValidation(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	path := writeConfig(t, `
output_dir: ./site-docs
`)

	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("Expected Read to ignore the missing api key, got %v", err)
	}
	if cfg.OutputDir != "./site-docs" {
		t.Errorf("Expected output_dir './site-docs', got %q", cfg.OutputDir)
	}
	if cfg.Site.Binary != "mkdocs" {
		t.Errorf("Expected defaults to be applied, got binary %q", cfg.Site.Binary)
	}
}
