package grok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/forPelevin/viralscan/internal/ports"
)

const (
	DefaultModel     = "grok-3-mini"
	DefaultMaxTokens = 2000
	DefaultTimeout   = 60 * time.Second

	temperature = 0.7
	pingTimeout = 10 * time.Second
)

type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// Timeout bounds a single completion call; zero means DefaultTimeout.
	Timeout time.Duration

	HTTPClient *http.Client
}

type Adapter struct {
	key       string
	model     string
	baseURL   string
	maxTokens int
	timeout   time.Duration
	client    *http.Client
}

func New(cfg Config) (*Adapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: GROK_API_KEY is required", ports.ErrConfiguration)
	}
	a := &Adapter{
		key:       cfg.APIKey,
		model:     cfg.Model,
		baseURL:   normalizeBaseURL(cfg.BaseURL),
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		client:    cfg.HTTPClient,
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
	if a.client == nil {
		a.client = &http.Client{Timeout: 5 * time.Minute}
	}
	return a, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// Complete returns the text content of the first choice.
func (a *Adapter) Complete(ctx context.Context, system, user string) (string, error) {
	return a.chat(ctx, chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   a.maxTokens,
	}, a.timeout)
}

// Ping issues a tiny completion to verify credentials and reachability.
func (a *Adapter) Ping(ctx context.Context) error {
	_, err := a.chat(ctx, chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a test assistant."},
			{Role: "user", Content: "Test connection. Reply with 'ok' only."},
		},
		Temperature: 0,
		MaxTokens:   10,
	}, pingTimeout)
	return err
}

func (a *Adapter) chat(ctx context.Context, payload chatRequest, timeout time.Duration) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	url := a.baseURL + "/v1/chat/completions"

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrUpstreamRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: grok timeout after %s (model=%s)", ports.ErrUpstreamRequest, timeout, a.model)
		}
		return "", fmt.Errorf("%w: %s", ports.ErrUpstreamRequest, redactSecrets(err.Error(), a.key))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("%w: grok status %d and read body failed: %v", ports.ErrUpstreamRequest, resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("%w: grok status %d: %s", ports.ErrUpstreamRequest, resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: grok timeout after %s reading body (model=%s)", ports.ErrUpstreamRequest, timeout, a.model)
		}
		return "", fmt.Errorf("%w: decode envelope: %v", ports.ErrUpstreamResponse, err)
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ports.ErrUpstreamResponse)
	}
	return messageContentToString(raw.Choices[0].Message.Content)
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		return b.String(), nil
	case nil:
		return "", fmt.Errorf("%w: choice has no message content", ports.ErrUpstreamResponse)
	default:
		return "", fmt.Errorf("%w: unexpected content type %T", ports.ErrUpstreamResponse, v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
