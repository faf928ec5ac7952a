// Package ai provides the code-suggestion collaborator: an OpenAI-backed
// client plus an asynchronous assistant that turns model responses into
// proposed patches. The editing core never initiates or awaits the network
// call itself; it only consumes the resulting ProposedPatch.
package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ashkett/quill/internal/config"
	"github.com/ashkett/quill/internal/logger"
)

var (
	// ErrNoAPIKey reports that no API key could be resolved.
	ErrNoAPIKey = errors.New("no API key configured")
	// ErrEmptyPrompt reports a blank instruction.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

// Client wraps the OpenAI chat-completion API. Configuration is an
// explicitly-passed object, never ambient state.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient resolves the API key (configured env var first, then
// OPENAI_API_KEY) and builds a client.
func NewClient(cfg config.AIConfig) (*Client, error) {
	apiKey := ""
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(strings.TrimPrefix(cfg.APIKeyEnv, "$"))
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = config.DefaultAIModel
	}
	return &Client{api: &client, model: model}, nil
}

// Generate sends one system+user exchange and returns the assistant text.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	request := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	}

	logger.Debugf("AI: sending completion request (model=%s)", c.model)
	resp, err := c.api.Chat.Completions.New(ctx, request)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if resp == nil || len(resp.Choices) != 1 {
		return "", fmt.Errorf("unexpected completion response shape")
	}

	choice := resp.Choices[0]
	if role := string(choice.Message.Role); role != "assistant" {
		return "", fmt.Errorf("unexpected role of response message: %s", role)
	}
	text := choice.Message.Content
	if text == "" {
		text = choice.Message.Refusal
	}
	logger.Debugf("AI: received %d byte(s), finish=%s", len(text), choice.FinishReason)
	return text, nil
}
