package automation

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ncobase/weibo-agent/config"
	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You review social media posts and answer strictly with the JSON object requested."

// ChatCompleter calls an OpenAI compatible chat completion endpoint.
type ChatCompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewChatCompleter creates a completer for cfg.
func NewChatCompleter(cfg *config.LLM) *ChatCompleter {
	c := openai.DefaultConfig(cfg.APIKey)
	c.BaseURL = cfg.BaseURL
	c.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &ChatCompleter{
		client:      openai.NewClientWithConfig(c),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Complete implements Completer.
func (c *ChatCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", context.Cause(ctx)
		}
		return "", fmt.Errorf("%w: %v", ErrCompletion, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}
