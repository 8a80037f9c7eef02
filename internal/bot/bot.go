// Package bot runs the single sequential event stream: it long-polls the
// transport for updates and dispatches each one to completion before the
// next begins.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/newsdesk/deskbot/internal/chat"
	"github.com/newsdesk/deskbot/internal/config"
	"github.com/newsdesk/deskbot/internal/workflow"
)

// UpdateSource is the inbound side of the transport.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]chat.Update, error)
}

// Bot consumes the update stream and applies the allow-list before handing
// events to the workflow router.
type Bot struct {
	source    UpdateSource
	router    *workflow.Router
	sender    workflow.Sender
	cfg       config.TelegramConfig
	logger    *slog.Logger
	scrapeNow func()
}

// New wires the update loop. scrapeNow may be nil.
func New(source UpdateSource, router *workflow.Router, sender workflow.Sender, cfg config.TelegramConfig, logger *slog.Logger, scrapeNow func()) *Bot {
	return &Bot{
		source:    source,
		router:    router,
		sender:    sender,
		cfg:       cfg,
		logger:    logger,
		scrapeNow: scrapeNow,
	}
}

// Run long-polls for updates until the context is cancelled. Updates are
// processed in order, each handler run to completion before the next.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("starting update loop")
	var offset int64

	for {
		updates, err := b.source.GetUpdates(ctx, offset, b.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				b.logger.Info("update loop stopped")
				return nil
			}
			b.logger.Error("failed to fetch updates", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update chat.Update) {
	switch {
	case update.CallbackQuery != nil:
		q := *update.CallbackQuery
		if !b.cfg.Allowed(q.From.ID) {
			b.logger.Warn("callback from unauthorized user", "user", q.From.ID)
			// Still answered so the client UI never hangs on a click.
			if err := b.sender.AnswerCallback(ctx, q.ID, "Not authorized.", false); err != nil {
				b.logger.Warn("failed to answer unauthorized callback", "error", err)
			}
			return
		}
		b.router.HandleCallback(ctx, q)

	case update.Message != nil:
		msg := *update.Message
		if msg.From == nil || !b.cfg.Allowed(msg.From.ID) {
			return
		}
		b.handleMessage(ctx, msg)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg chat.Message) {
	if strings.HasPrefix(msg.Text, "/") {
		b.handleCommand(ctx, msg)
		return
	}

	// A pending prompt conversation takes precedence over ingestion.
	if b.router.HandlePromptText(ctx, msg) {
		return
	}

	// Any other text in the review chat is a forwarded/direct candidate
	// item: post it back with the review keyboard.
	if msg.Chat.ID == b.cfg.ReviewChatID && strings.TrimSpace(msg.Text) != "" {
		if err := b.router.PostReviewItem(ctx, b.cfg.ReviewChatID, msg.Text, ""); err != nil {
			b.logger.Error("failed to ingest forwarded item", "error", err)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg chat.Message) {
	command := strings.Fields(msg.Text)[0]
	// Commands in groups may carry a @botname suffix.
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}

	switch command {
	case "/scrape":
		if b.scrapeNow != nil {
			go b.scrapeNow()
		}
	case "/model":
		b.router.SendModelMenu(ctx, msg.Chat.ID)
	case "/support":
		b.router.SendSupport(ctx, msg.Chat.ID)
	default:
		b.logger.Debug("ignoring unknown command", "command", command)
	}
}
