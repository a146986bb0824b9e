package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/forPelevin/viralscan/internal/ports"
)

const (
	DefaultModel     = openai.GPT4oMini
	DefaultMaxTokens = 2000
	DefaultTimeout   = 60 * time.Second

	temperature = 0.7
	pingTimeout = 10 * time.Second
)

type Config struct {
	APIKey string
	// BaseURL includes the version segment, e.g. https://api.openai.com/v1.
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration

	HTTPClient *http.Client
}

// Adapter talks to any OpenAI-compatible chat endpoint through go-openai.
type Adapter struct {
	cli       *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

func New(cfg Config) (*Adapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is required", ports.ErrConfiguration)
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if u := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); u != "" {
		oc.BaseURL = u
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}

	a := &Adapter{
		cli:       openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
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
	return a.chat(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   a.maxTokens,
	}, a.timeout)
}

func (a *Adapter) Ping(ctx context.Context) error {
	_, err := a.chat(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a test assistant."},
			{Role: openai.ChatMessageRoleUser, Content: "Test connection. Reply with 'ok' only."},
		},
		MaxTokens: 10,
	}, pingTimeout)
	return err
}

func (a *Adapter) chat(ctx context.Context, req openai.ChatCompletionRequest, timeout time.Duration) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := a.cli.CreateChatCompletion(reqCtx, req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: openai timeout after %s (model=%s)", ports.ErrUpstreamRequest, timeout, a.model)
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: openai status %d: %s", ports.ErrUpstreamRequest, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %v", ports.ErrUpstreamRequest, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ports.ErrUpstreamResponse)
	}
	msg := resp.Choices[0].Message
	if msg.Content != "" {
		return msg.Content, nil
	}
	if len(msg.MultiContent) == 0 {
		return "", fmt.Errorf("%w: choice has no message content", ports.ErrUpstreamResponse)
	}
	var b strings.Builder
	for _, part := range msg.MultiContent {
		if part.Type == openai.ChatMessagePartTypeText {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
