// Package llmclient implements the External LLM Client (C10): a single
// HTTP chat-completion contract shared by every stage that calls out to an
// LLM (§4.10). It wraps `hashicorp/go-retryablehttp` the way the teacher's
// `pkg/llm/client.go` wraps its gRPC connection — one long-lived client,
// config loaded once at construction, a narrow method surface.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/errs"
)

// Client is the sole entry point for LLM calls across the pipeline.
// Internally stateless beyond its HTTP transport (§5 "The LLM client is
// shared and internally stateless").
type Client struct {
	http      *retryablehttp.Client
	baseURL   string
	apiKey    string
	model     string
	timeout   time.Duration
	log       *slog.Logger
}

// Options are the per-call overrides to complete/complete_json/chat_completion.
type Options struct {
	MaxTokens   int32
	Temperature float32
}

// New builds a Client from the LLM config section. apiKey is resolved by
// the caller from cfg.APIKeyEnv (§6: "No secret ever appears in logs" —
// this package never logs apiKey).
func New(cfg *config.LLMYAMLConfig, apiKey string) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = cfg.MaxRetries
	hc.Logger = nil // the default retryablehttp logger would print request bodies

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second // §5 "hard timeout (default 120s)"
	}
	hc.HTTPClient.Timeout = timeout

	return &Client{
		http:    hc,
		baseURL: cfg.BaseURL,
		apiKey:  apiKey,
		model:   cfg.Model,
		timeout: timeout,
		log:     slog.With("component", "llmclient"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int32         `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete issues a single system+user turn and returns the post-edited
// response text (§4.10 "complete(system, user, {max_tokens, temperature})
// → string").
func (c *Client) Complete(ctx context.Context, system, user string, opts Options) (string, error) {
	return c.chatCompletion(ctx, []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, opts)
}

// ChatCompletion is the multi-turn form of Complete (§4.10 chat_completion).
func (c *Client) ChatCompletion(ctx context.Context, messages []Message, opts Options) (string, error) {
	raw := make([]chatMessage, len(messages))
	for i, m := range messages {
		raw[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}
	return c.chatCompletion(ctx, raw, opts)
}

func (c *Client) chatCompletion(ctx context.Context, messages []chatMessage, opts Options) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("llmclient: marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llmclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errs.NewTransientError("llmclient: request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.NewTransientError("llmclient: read response", err)
	}

	if resp.StatusCode >= 500 {
		return "", errs.NewTransientError("llmclient: server error", fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 300)))
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("llmclient: request rejected: status %d: %s", resp.StatusCode, truncate(respBody, 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("llmclient: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llmclient: no choices in response")
	}

	return postEdit(parsed.Choices[0].Message.Content), nil
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Message is one turn of a multi-turn conversation (§4.10 chat_completion).
type Message struct {
	Role    Role
	Content string
}

// Role names a conversation turn's speaker.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)
