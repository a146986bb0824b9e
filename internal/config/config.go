package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/forPelevin/viralscan/internal/ports"
	"github.com/forPelevin/viralscan/internal/ports/adapters/grok"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGrok   = "grok"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const (
	MinClipDuration     = 5
	MaxClipDuration     = 60
	DefaultClipDuration = 30
)

type Config struct {
	Provider     string         `yaml:"provider"`
	ClipDuration int            `yaml:"clip_duration"`
	Grok         GrokConfig     `yaml:"grok"`
	OpenAI       OpenAIConfig   `yaml:"openai"`
	Gemini       GeminiConfig   `yaml:"gemini"`
	Database     DatabaseConfig `yaml:"database"`
	Queue        QueueConfig    `yaml:"queue"`
	Watch        WatchConfig    `yaml:"watch"`
	Paths        PathsConfig    `yaml:"paths"`
	Logging      LoggingConfig  `yaml:"logging"`
}

type GrokConfig struct {
	APIKey         string   `yaml:"api_key"`
	BaseURL        string   `yaml:"base_url"`
	Model          string   `yaml:"model"`
	AllowedHosts   []string `yaml:"allowed_hosts"`
	MaxTokens      int      `yaml:"max_tokens"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type DatabaseConfig struct {
	// URL is optional; when empty, moments are not persisted.
	URL string `yaml:"url"`
}

type QueueConfig struct {
	URL      string `yaml:"url"`
	Jobs     string `yaml:"jobs"`
	Results  string `yaml:"results"`
	Prefetch int    `yaml:"prefetch"`
}

type WatchConfig struct {
	Inbox         string `yaml:"inbox"`
	Output        string `yaml:"output"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

type PathsConfig struct {
	Output string `yaml:"output"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the optional YAML file at path, applies environment overrides
// and defaults, and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Provider, "VIRALSCAN_PROVIDER")
	setString(&c.Grok.APIKey, "GROK_API_KEY")
	setString(&c.Grok.BaseURL, "GROK_API_URL")
	setString(&c.Grok.Model, "GROK_MODEL")
	if v := strings.TrimSpace(os.Getenv("GROK_ALLOWED_HOSTS")); v != "" {
		c.Grok.AllowedHosts = strings.Split(v, ",")
	}
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Gemini.Model, "GEMINI_MODEL")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Queue.URL, "RABBITMQ_URL")
	setString(&c.Logging.Level, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate fills defaults and checks the provider selection. It does not
// require queue or watch settings; the commands that use them check those.
func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderGrok
	}
	if c.ClipDuration == 0 {
		c.ClipDuration = DefaultClipDuration
	}
	if err := ValidateClipDuration(c.ClipDuration); err != nil {
		return err
	}

	switch c.Provider {
	case ProviderGrok:
		if c.Grok.APIKey == "" {
			return fmt.Errorf("%w: GROK_API_KEY is required (set it in .env)", ports.ErrConfiguration)
		}
		if err := grok.ValidateBaseURL(c.Grok.BaseURL, c.Grok.AllowedHosts); err != nil {
			return fmt.Errorf("%w: %w", ports.ErrConfiguration, err)
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required", ports.ErrConfiguration)
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required", ports.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q (want grok, openai or gemini)", ports.ErrConfiguration, c.Provider)
	}

	if c.Paths.Output == "" {
		c.Paths.Output = "out"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Queue.Jobs == "" {
		c.Queue.Jobs = "viralscan.jobs"
	}
	if c.Queue.Results == "" {
		c.Queue.Results = "viralscan.results"
	}
	if c.Queue.Prefetch <= 0 {
		c.Queue.Prefetch = 1
	}
	if c.Watch.MaxConcurrent <= 0 {
		c.Watch.MaxConcurrent = 2
	}
	return nil
}

// ValidateClipDuration enforces the accepted request range for clip length.
func ValidateClipDuration(sec int) error {
	if sec < MinClipDuration || sec > MaxClipDuration {
		return fmt.Errorf("%w: clip duration must be between %d and %d seconds, got %d",
			ports.ErrConfiguration, MinClipDuration, MaxClipDuration, sec)
	}
	return nil
}

var errNoInbox = errors.New("watch.inbox is required")

// ValidateWatch checks the settings the watch command needs.
func (c *Config) ValidateWatch() error {
	if c.Watch.Inbox == "" {
		return fmt.Errorf("%w: %w", ports.ErrConfiguration, errNoInbox)
	}
	if c.Watch.Output == "" {
		c.Watch.Output = c.Watch.Inbox
	}
	return nil
}

// ValidateQueue checks the settings the worker command needs.
func (c *Config) ValidateQueue() error {
	if c.Queue.URL == "" {
		return fmt.Errorf("%w: RABBITMQ_URL is required", ports.ErrConfiguration)
	}
	return nil
}
