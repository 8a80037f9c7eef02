// Package dispatch is the sole path for outbound chat traffic. Every other
// component sends through the Dispatcher so rate-limit backoff behavior is
// uniform.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/newsdesk/deskbot/internal/chat"
)

// ErrDeliveryFailed marks a delivery abandoned after the retry budget was
// exhausted.
var ErrDeliveryFailed = errors.New("delivery failed")

// Policy defines the retry budget for one delivery.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultPolicy returns the standard delivery policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
	}
}

// Retrier tracks retry activity. Satisfied by metrics.PipelineCollector.
type Retrier interface {
	SendRetried()
}

// Dispatcher wraps the transport with rate-limit retry and exponential
// backoff. Only rate-limit errors are retried; anything else is assumed
// non-transient and fails immediately.
type Dispatcher struct {
	api     chat.API
	policy  Policy
	logger  *slog.Logger
	retries Retrier
}

// New constructs a Dispatcher. retries may be nil.
func New(api chat.API, policy Policy, logger *slog.Logger, retries Retrier) *Dispatcher {
	return &Dispatcher{
		api:     api,
		policy:  policy,
		logger:  logger,
		retries: retries,
	}
}

// SendMessage delivers a message to a chat, retrying rate limits.
func (d *Dispatcher) SendMessage(ctx context.Context, chatID int64, text string, opts chat.SendOptions) (chat.Message, error) {
	var msg chat.Message
	err := d.deliver(ctx, "sendMessage", func() error {
		var sendErr error
		msg, sendErr = d.api.SendMessage(ctx, chatID, text, opts)
		return sendErr
	})
	return msg, err
}

// EditMessageText edits a message's text, retrying rate limits.
func (d *Dispatcher) EditMessageText(ctx context.Context, chatID, messageID int64, text string, opts chat.SendOptions) error {
	return d.deliver(ctx, "editMessageText", func() error {
		return d.api.EditMessageText(ctx, chatID, messageID, text, opts)
	})
}

// EditReplyMarkup edits (or strips) a message's keyboard, retrying rate limits.
func (d *Dispatcher) EditReplyMarkup(ctx context.Context, chatID, messageID int64, keyboard *chat.Keyboard) error {
	return d.deliver(ctx, "editMessageReplyMarkup", func() error {
		return d.api.EditReplyMarkup(ctx, chatID, messageID, keyboard)
	})
}

// AnswerCallback acknowledges a button click, retrying rate limits.
func (d *Dispatcher) AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error {
	return d.deliver(ctx, "answerCallbackQuery", func() error {
		return d.api.AnswerCallback(ctx, callbackID, text, showAlert)
	})
}

// deliver runs one transport call under the retry policy. The wait before
// each retry is max(server retry-after, current backoff); the backoff then
// doubles for the next round.
func (d *Dispatcher) deliver(ctx context.Context, method string, fn func() error) error {
	backoff := d.policy.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var rateLimit *chat.RateLimitError
		if !errors.As(err, &rateLimit) {
			return err
		}

		if attempt == d.policy.MaxAttempts {
			break
		}

		wait := backoff
		if rateLimit.RetryAfter > wait {
			wait = rateLimit.RetryAfter
		}
		backoff = wait * 2

		d.logger.Warn("rate limited, backing off",
			"method", method,
			"attempt", attempt,
			"wait", wait)
		if d.retries != nil {
			d.retries.SendRetried()
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("delivery cancelled: %w", ctx.Err())
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("%s after %d attempts: %w: %w", method, d.policy.MaxAttempts, ErrDeliveryFailed, lastErr)
}
