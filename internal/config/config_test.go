package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forPelevin/viralscan/internal/ports"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"VIRALSCAN_PROVIDER", "GROK_API_KEY", "GROK_API_URL", "GROK_MODEL", "GROK_ALLOWED_HOSTS",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "GEMINI_API_KEY", "GEMINI_MODEL",
		"DATABASE_URL", "RABBITMQ_URL", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "grok defaults",
			config: Config{Grok: GrokConfig{APIKey: "k"}},
		},
		{
			name:    "missing grok key",
			config:  Config{},
			wantErr: "GROK_API_KEY is required",
		},
		{
			name:    "grok http base url",
			config:  Config{Grok: GrokConfig{APIKey: "k", BaseURL: "http://api.x.ai"}},
			wantErr: "https is required",
		},
		{
			name: "grok proxy on allow list",
			config: Config{Grok: GrokConfig{
				APIKey:       "k",
				BaseURL:      "https://proxy.internal",
				AllowedHosts: []string{" proxy.internal "},
			}},
		},
		{
			name:   "openai",
			config: Config{Provider: "OpenAI", OpenAI: OpenAIConfig{APIKey: "k"}},
		},
		{
			name:    "gemini without key",
			config:  Config{Provider: "gemini"},
			wantErr: "GEMINI_API_KEY is required",
		},
		{
			name:    "unknown provider",
			config:  Config{Provider: "claude", Grok: GrokConfig{APIKey: "k"}},
			wantErr: `unknown provider "claude"`,
		},
		{
			name:    "clip too short",
			config:  Config{ClipDuration: 4, Grok: GrokConfig{APIKey: "k"}},
			wantErr: "between 5 and 60",
		},
		{
			name:    "clip too long",
			config:  Config{ClipDuration: 61, Grok: GrokConfig{APIKey: "k"}},
			wantErr: "between 5 and 60",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %q", err, tt.wantErr)
			}
			if !errors.Is(err, ports.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{Grok: GrokConfig{APIKey: "k"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Provider != ProviderGrok || cfg.ClipDuration != 30 || cfg.Paths.Output != "out" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Queue.Jobs != "viralscan.jobs" || cfg.Queue.Prefetch != 1 || cfg.Watch.MaxConcurrent != 2 {
		t.Fatalf("unexpected queue/watch defaults: %+v %+v", cfg.Queue, cfg.Watch)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "viralscan.yaml")
	content := `
provider: grok
clip_duration: 45
grok:
  api_key: "from-file"
  model: "grok-3"
watch:
  inbox: "data/inbox"
  max_concurrent: 4
logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ClipDuration != 45 || cfg.Grok.APIKey != "from-file" || cfg.Grok.Model != "grok-3" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Watch.Inbox != "data/inbox" || cfg.Watch.MaxConcurrent != 4 || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "viralscan.yaml")
	if err := os.WriteFile(path, []byte("grok:\n  api_key: from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GROK_API_KEY", "from-env")
	t.Setenv("GROK_ALLOWED_HOSTS", "proxy.internal,api.x.ai")
	t.Setenv("GROK_API_URL", "https://proxy.internal/v1")
	t.Setenv("DATABASE_URL", "postgres://localhost/viralscan")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Grok.APIKey != "from-env" {
		t.Fatalf("APIKey = %q, want from-env", cfg.Grok.APIKey)
	}
	if len(cfg.Grok.AllowedHosts) != 2 || cfg.Database.URL == "" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIRALSCAN_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Fatalf("Provider = %q", cfg.Provider)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	if _, err := Load("nonexistent.yaml"); err == nil {
		t.Fatal("Load() should return error for nonexistent file")
	}
}

func TestValidateWatchAndQueue(t *testing.T) {
	cfg := Config{}
	if err := cfg.ValidateWatch(); !errors.Is(err, ports.ErrConfiguration) {
		t.Fatalf("ValidateWatch() error = %v", err)
	}
	cfg.Watch.Inbox = "inbox"
	if err := cfg.ValidateWatch(); err != nil || cfg.Watch.Output != "inbox" {
		t.Fatalf("ValidateWatch() = %v, output %q", err, cfg.Watch.Output)
	}
	if err := cfg.ValidateQueue(); err == nil {
		t.Fatal("ValidateQueue() should require RABBITMQ_URL")
	}
}

func TestLoadExampleFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROK_API_KEY", "k")

	cfg, err := Load(filepath.Join("..", "..", "viralscan.example.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Grok.TimeoutSeconds != 60 || cfg.Queue.Results != "viralscan.results" || cfg.Watch.Output != "data/moments" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
