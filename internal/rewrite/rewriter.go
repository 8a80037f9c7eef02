// Package rewrite wraps the OpenAI chat-completions API behind the single
// Summarize call the workflow consumes.
package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/newsdesk/deskbot/internal/config"
)

// DefaultInstruction is used when the reviewer asks for a plain rewrite
// without a custom prompt.
const DefaultInstruction = "Rewrite this news item as a short, neutral editorial summary. Keep the source link on its own final line."

// Rewriter is the rewrite surface consumed by the workflow.
type Rewriter interface {
	Summarize(ctx context.Context, content, instruction, model string) (string, error)
}

// OpenAIRewriter calls the OpenAI chat-completions API.
type OpenAIRewriter struct {
	client  *openai.Client
	timeout time.Duration
	logger  *slog.Logger
}

var _ Rewriter = (*OpenAIRewriter)(nil)

// New constructs a rewriter from configuration.
func New(cfg config.RewriteConfig, logger *slog.Logger) *OpenAIRewriter {
	return &OpenAIRewriter{
		client:  openai.NewClient(cfg.APIKey),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Summarize rewrites content under the given instruction with the given
// model. A failure here is soft for the workflow: the reviewer keeps the
// original message and can retry.
func (r *OpenAIRewriter) Summarize(ctx context.Context, content, instruction, model string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat completion returned no content")
	}

	r.logger.Debug("rewrite completed",
		"model", model,
		"duration", time.Since(start),
		"tokens", resp.Usage.TotalTokens)

	return resp.Choices[0].Message.Content, nil
}
