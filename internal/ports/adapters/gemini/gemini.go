package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/forPelevin/viralscan/internal/ports"
)

const (
	DefaultModel     = "gemini-2.5-flash"
	DefaultMaxTokens = 3000
	DefaultTimeout   = 120 * time.Second

	// lower than the other providers; Gemini drifts from the JSON format above this
	temperature = 0.3
	pingTimeout = 10 * time.Second
)

type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// BaseURL overrides the Gemini API endpoint; used by tests and proxies.
	BaseURL string
}

type Adapter struct {
	client    *genai.Client
	model     string
	maxTokens int32
	timeout   time.Duration
}

func New(ctx context.Context, cfg Config) (*Adapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is required", ports.ErrConfiguration)
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %v", ports.ErrConfiguration, err)
	}

	a := &Adapter{
		client:    client,
		model:     cfg.Model,
		maxTokens: int32(cfg.MaxTokens),
		timeout:   cfg.Timeout,
	}
	if a.model == "" {
		a.model = DefaultModel
	}
	if a.maxTokens <= 0 {
		a.maxTokens = DefaultMaxTokens
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	return a, nil
}

func (a *Adapter) Complete(ctx context.Context, system, user string) (string, error) {
	return a.generate(ctx, user, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](temperature),
		MaxOutputTokens:   a.maxTokens,
	}, a.timeout)
}

func (a *Adapter) Ping(ctx context.Context) error {
	_, err := a.generate(ctx, "Test connection. Reply with 'ok' only.", &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0),
		MaxOutputTokens: 10,
	}, pingTimeout)
	return err
}

func (a *Adapter) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig, timeout time.Duration) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := a.client.Models.GenerateContent(reqCtx, a.model, genai.Text(prompt), cfg)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: gemini timeout after %s (model=%s)", ports.ErrUpstreamRequest, timeout, a.model)
		}
		return "", fmt.Errorf("%w: gemini: %v", ports.ErrUpstreamRequest, err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty response from gemini", ports.ErrUpstreamResponse)
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
