// Package llm is a minimal OpenAI chat-completions client. The completion
// entry point is a plain function type so callers can inject a synthetic
// implementation in tests or disable the LLM entirely.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/retry"
)

const defaultBaseURL = "https://api.openai.com/v1"

// CompletionFunc produces the assistant message content for a system/user
// prompt pair. Implementations must honor ctx cancellation.
type CompletionFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

// Options configure the client. Zero values fall back to sane defaults.
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration // per attempt
	MaxRetries  int
	RetryDelay  time.Duration
}

type Client struct {
	opts   Options
	http   *http.Client
	policy retry.Policy
	logger *slog.Logger
}

func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		opts: opts,
		http: &http.Client{},
		policy: retry.Policy{
			MaxAttempts: opts.MaxRetries,
			BackoffBase: opts.RetryDelay,
			MaxBackoff:  30 * time.Second,
			Jitter:      true,
			IsTransient: transientLLM,
		},
		logger: logger,
	}
}

// Enabled reports whether the client has credentials to make real calls.
func (c *Client) Enabled() bool { return c.opts.APIKey != "" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one chat completion, retrying transient failures. Each
// attempt carries its own timeout derived from ctx.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.Enabled() {
		return "", apperr.E(apperr.ErrAI, "llm.Complete", "no API key configured")
	}
	return retry.DoValue(ctx, c.policy, func() (string, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
		return c.completeOnce(attemptCtx, systemPrompt, userPrompt)
	})
}

func (c *Client) completeOnce(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.ErrInternal, "llm.Complete", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(apperr.ErrInternal, "llm.Complete", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrTransient, "llm.Complete", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperr.Wrap(apperr.ErrTransient, "llm.Complete", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", apperr.Ef(apperr.ErrTransient, "llm.Complete", "status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperr.Ef(apperr.ErrAI, "llm.Complete", "status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apperr.Wrap(apperr.ErrAI, "llm.Complete", err)
	}
	if parsed.Error != nil {
		return "", apperr.Ef(apperr.ErrAI, "llm.Complete", "%s: %s", parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", apperr.E(apperr.ErrAI, "llm.Complete", "empty choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}

func transientLLM(err error) bool {
	if errors.Is(err, apperr.ErrTransient) {
		return true
	}
	return retry.TransientNetwork(err)
}

// StripFences removes a surrounding triple-backtick fence (with optional
// language hint) from an LLM response so the JSON inside can be parsed.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		first := strings.TrimSpace(s[:i])
		if first == "json" || first == "" {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
