package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no --config flag is given. Unlike an explicit
// path, a missing default file is not an error.
const DefaultPath = "config.yaml"

type Config struct {
	OutputDir  string           `yaml:"output_dir"`
	Schedule   string           `yaml:"schedule"`
	RunOnStart bool             `yaml:"run_on_start"`
	Logging    LoggingConfig    `yaml:"logging"`
	HTTP       HTTPConfig       `yaml:"http"`
	Sources    SourcesConfig    `yaml:"sources"`
	Translator TranslatorConfig `yaml:"translator"`
	Publisher  PublisherConfig  `yaml:"publisher"`
	Site       SiteConfig       `yaml:"site"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type HTTPConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	UserAgent   string        `yaml:"user_agent"`
}

type SourcesConfig struct {
	GitHub      GitHubConfig      `yaml:"github"`
	ProductHunt ProductHuntConfig `yaml:"producthunt"`
	HackerNews  HackerNewsConfig  `yaml:"hackernews"`
}

type GitHubConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Language string `yaml:"language"`
	Since    string `yaml:"since"`
	Token    string `yaml:"token"`
}

type ProductHuntConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Token        string `yaml:"token"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	MaxProducts  int    `yaml:"max_products"`
	PageLimit    int    `yaml:"page_limit"`
	DemoFallback bool   `yaml:"demo_fallback"`
}

type HackerNewsConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Candidates   int           `yaml:"candidates"`
	TopN         int           `yaml:"top_n"`
	ItemDelay    time.Duration `yaml:"item_delay"`
	ContentLimit int           `yaml:"content_limit"`
}

type TranslatorConfig struct {
	Type           string        `yaml:"type"`
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	Temperature    float64       `yaml:"temperature"`
	MaxTokens      int           `yaml:"max_tokens"`
	TargetLanguage string        `yaml:"target_language"`
	CallDelay      time.Duration `yaml:"call_delay"`
	Enrich         bool          `yaml:"enrich"`
	SummaryMin     int           `yaml:"summary_min"`
	SummaryMax     int           `yaml:"summary_max"`
}

type PublisherConfig struct {
	Types   []string      `yaml:"types"`
	Email   EmailConfig   `yaml:"email"`
	Discord DiscordConfig `yaml:"discord"`
}

type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type EmailConfig struct {
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

type SiteConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Binary     string `yaml:"binary"`
	ConfigFile string `yaml:"config_file"`
	SiteDir    string `yaml:"site_dir"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

var scheduleRegex = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// unexpanded reports whether s still holds a ${VAR} placeholder, i.e. the
// variable was not set.
func unexpanded(s string) bool {
	return envVarRegex.MatchString(s)
}

// base holds the boolean defaults, which setDefaults cannot tell apart from
// an explicit false once the file has been decoded.
func base() Config {
	return Config{
		RunOnStart: true,
		Sources: SourcesConfig{
			GitHub:      GitHubConfig{Enabled: true},
			ProductHunt: ProductHuntConfig{Enabled: true},
			HackerNews:  HackerNewsConfig{Enabled: true},
		},
		Site: SiteConfig{Enabled: true},
	}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := base()
	setDefaults(&cfg)
	return &cfg
}

func setDefaults(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./mkdocs"
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "05:00"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = 30 * time.Second
	}
	if cfg.HTTP.MaxAttempts == 0 {
		cfg.HTTP.MaxAttempts = 3
	}
	if cfg.HTTP.BaseDelay == 0 {
		cfg.HTTP.BaseDelay = time.Second
	}
	if cfg.Sources.GitHub.Language == "" {
		cfg.Sources.GitHub.Language = "any"
	}
	if cfg.Sources.GitHub.Since == "" {
		cfg.Sources.GitHub.Since = "daily"
	}
	if cfg.Sources.ProductHunt.MaxProducts == 0 {
		cfg.Sources.ProductHunt.MaxProducts = 10
	}
	if cfg.Sources.ProductHunt.PageLimit == 0 {
		cfg.Sources.ProductHunt.PageLimit = 30
	}
	if cfg.Sources.HackerNews.Candidates == 0 {
		cfg.Sources.HackerNews.Candidates = 15
	}
	if cfg.Sources.HackerNews.TopN == 0 {
		cfg.Sources.HackerNews.TopN = 10
	}
	if cfg.Sources.HackerNews.ItemDelay == 0 {
		cfg.Sources.HackerNews.ItemDelay = time.Second
	}
	if cfg.Sources.HackerNews.ContentLimit == 0 {
		cfg.Sources.HackerNews.ContentLimit = 5000
	}
	if cfg.Translator.Type == "" {
		cfg.Translator.Type = "openai"
	}
	if cfg.Translator.Model == "" {
		switch cfg.Translator.Type {
		case "gemini":
			cfg.Translator.Model = "gemini-2.5-flash-lite"
		case "anthropic":
			cfg.Translator.Model = "claude-sonnet-4-20250514"
		default:
			cfg.Translator.Model = "deepseek-chat"
		}
	}
	if cfg.Translator.Temperature == 0 {
		cfg.Translator.Temperature = 0.3
	}
	if cfg.Translator.MaxTokens == 0 {
		cfg.Translator.MaxTokens = 1000
	}
	if cfg.Translator.TargetLanguage == "" {
		cfg.Translator.TargetLanguage = "中文"
	}
	if cfg.Translator.CallDelay == 0 {
		cfg.Translator.CallDelay = time.Second
	}
	if cfg.Translator.SummaryMin == 0 {
		cfg.Translator.SummaryMin = 10
	}
	if cfg.Translator.SummaryMax == 0 {
		cfg.Translator.SummaryMax = 120
	}
	if len(cfg.Publisher.Types) == 0 {
		cfg.Publisher.Types = []string{"markdown"}
	}
	if cfg.Publisher.Email.SMTPPort == 0 {
		cfg.Publisher.Email.SMTPPort = 587
	}
	if cfg.Site.Binary == "" {
		cfg.Site.Binary = "mkdocs"
	}
	if cfg.Site.ConfigFile == "" {
		cfg.Site.ConfigFile = "mkdocs.yml"
	}
	if cfg.Site.SiteDir == "" {
		cfg.Site.SiteDir = "site"
	}
	if cfg.Site.Host == "" {
		cfg.Site.Host = "127.0.0.1"
	}
	if cfg.Site.Port == 0 {
		cfg.Site.Port = 8000
	}
}

// applyEnv fills credentials the file left empty (or left as an unset
// ${VAR}) from the conventional environment variables.
func applyEnv(cfg *Config) {
	fill := func(dst *string, key string) {
		if *dst != "" && !unexpanded(*dst) {
			return
		}
		*dst = os.Getenv(key)
	}
	switch cfg.Translator.Type {
	case "anthropic":
		fill(&cfg.Translator.APIKey, "ANTHROPIC_API_KEY")
	case "openai":
		fill(&cfg.Translator.APIKey, "DEEPSEEK_API_KEY")
		fill(&cfg.Translator.BaseURL, "DEEPSEEK_BASE_URL")
	default:
		fill(&cfg.Translator.APIKey, "DEEPSEEK_API_KEY")
	}
	fill(&cfg.Sources.GitHub.Token, "GITHUB_TOKEN")
	fill(&cfg.Sources.ProductHunt.Token, "PRODUCTHUNT_TOKEN")
	fill(&cfg.Sources.ProductHunt.ClientID, "PRODUCTHUNT_CLIENT_ID")
	fill(&cfg.Sources.ProductHunt.ClientSecret, "PRODUCTHUNT_CLIENT_SECRET")
	if cfg.Translator.BaseURL == "" && cfg.Translator.Type == "openai" {
		cfg.Translator.BaseURL = "https://api.deepseek.com"
	}
}

func validate(cfg *Config) error {
	if !scheduleRegex.MatchString(cfg.Schedule) {
		return fmt.Errorf("config: schedule %q must be HH:MM", cfg.Schedule)
	}
	switch cfg.Translator.Type {
	case "openai", "gemini", "anthropic":
	default:
		return fmt.Errorf("config: unsupported translator type %q (supported: openai, gemini, anthropic)", cfg.Translator.Type)
	}
	if cfg.Translator.APIKey == "" {
		return fmt.Errorf("config: translator.api_key is required (set DEEPSEEK_API_KEY env var)")
	}
	if cfg.Translator.SummaryMin < 0 || cfg.Translator.SummaryMax < cfg.Translator.SummaryMin {
		return fmt.Errorf("config: translator summary window [%d, %d] is invalid", cfg.Translator.SummaryMin, cfg.Translator.SummaryMax)
	}
	switch cfg.Sources.GitHub.Since {
	case "daily", "weekly", "monthly":
	default:
		return fmt.Errorf("config: sources.github.since %q must be daily, weekly or monthly", cfg.Sources.GitHub.Since)
	}
	for _, t := range cfg.Publisher.Types {
		switch t {
		case "markdown", "stdout":
		case "discord":
			if cfg.Publisher.Discord.WebhookURL == "" {
				return fmt.Errorf("config: publisher.discord.webhook_url is required for discord publisher")
			}
		case "email":
			if cfg.Publisher.Email.SMTPHost == "" {
				return fmt.Errorf("config: publisher.email.smtp_host is required for email publisher")
			}
			if len(cfg.Publisher.Email.To) == 0 {
				return fmt.Errorf("config: publisher.email.to is required for email publisher")
			}
			if cfg.Publisher.Email.From == "" {
				return fmt.Errorf("config: publisher.email.from is required for email publisher")
			}
		default:
			return fmt.Errorf("config: unsupported publisher type %q (supported: markdown, stdout, email, discord)", t)
		}
	}
	return nil
}

// Load reads the config file, expands environment variables, applies defaults,
// and validates the configuration. A .env file in the working directory is
// loaded first when present.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation. Commands that never reach the pipeline,
// such as the site commands, use it so a missing API key does not block them.
func Read(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == DefaultPath {
			cfg := Default()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	cfg := base()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	setDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// CronSpec converts the HH:MM schedule into a standard five-field cron
// expression firing once a day.
func (c *Config) CronSpec() string {
	m := scheduleRegex.FindStringSubmatch(c.Schedule)
	if m == nil {
		return "0 5 * * *"
	}
	hour := strings.TrimPrefix(m[1], "0")
	if hour == "" {
		hour = "0"
	}
	minute := strings.TrimPrefix(m[2], "0")
	if minute == "" {
		minute = "0"
	}
	return fmt.Sprintf("%s %s * * *", minute, hour)
}

// HasPublisher reports whether the named publisher type is enabled.
func (c *Config) HasPublisher(name string) bool {
	for _, t := range c.Publisher.Types {
		if t == name {
			return true
		}
	}
	return false
}
