// Package chat defines the transport surface the workflow talks to and the
// Telegram Bot API client implementing it.
package chat

import (
	"context"
	"fmt"
	"time"
)

// User identifies a chat participant.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// ChatRef identifies a chat a message belongs to.
type ChatRef struct {
	ID int64 `json:"id"`
}

// Message is an inbound or sent chat message.
type Message struct {
	MessageID int64   `json:"message_id"`
	Chat      ChatRef `json:"chat"`
	From      *User   `json:"from,omitempty"`
	Text      string  `json:"text,omitempty"`
}

// CallbackQuery is a button-click event.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// Update is one inbound event from long polling.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Button is a single inline keyboard control.
type Button struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

// Keyboard is the inline keyboard markup attached to a message.
type Keyboard struct {
	InlineKeyboard [][]Button `json:"inline_keyboard"`
}

// SendOptions carries optional send/edit parameters.
type SendOptions struct {
	ParseMode      string
	Keyboard       *Keyboard
	DisablePreview bool
}

// API is the outbound transport surface consumed by the workflow. Callers do
// not use it directly for deliveries; the dispatch package wraps it with
// retry behavior.
type API interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) (Message, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, opts SendOptions) error
	EditReplyMarkup(ctx context.Context, chatID, messageID int64, keyboard *Keyboard) error
	AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error
}

// RateLimitError signals a transient per-chat rate limit from the transport.
// RetryAfter carries the server-specified wait when present.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %v)", e.RetryAfter)
	}
	return "rate limited"
}
