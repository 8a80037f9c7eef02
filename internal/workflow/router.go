// Package workflow is the interactive review engine: it tracks per-item
// state across chat messages and button clicks, drives the rewrite and
// custom-prompt flows, and guarantees at most one publish per item.
package workflow

import (
	"context"
	"log/slog"

	"github.com/newsdesk/deskbot/internal/chat"
	"github.com/newsdesk/deskbot/internal/rewrite"
	"github.com/newsdesk/deskbot/internal/session"
)

// Sender is the outbound delivery surface the workflow uses. Satisfied by
// dispatch.Dispatcher; callers never talk to the transport directly.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts chat.SendOptions) (chat.Message, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, opts chat.SendOptions) error
	EditReplyMarkup(ctx context.Context, chatID, messageID int64, keyboard *chat.Keyboard) error
	AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error
}

// Meter tracks workflow activity. Satisfied by metrics.PipelineCollector.
type Meter interface {
	CallbackAction(action string)
	Rewrite(outcome string)
	Published()
	ItemPosted()
}

// RouterConfig holds the routing parameters of the review workflow.
type RouterConfig struct {
	PublishChatID int64
	DefaultModel  string
	ModelOptions  []string
	SupportText   string
}

// Router resolves inbound button clicks to workflow transitions.
type Router struct {
	store     *Store
	sessions  *session.Store
	sender    Sender
	rewriter  rewrite.Rewriter
	cfg       RouterConfig
	logger    *slog.Logger
	meter     Meter
	scrapeNow func()
}

// NewRouter wires the workflow engine. meter may be nil.
func NewRouter(store *Store, sessions *session.Store, sender Sender, rewriter rewrite.Rewriter, cfg RouterConfig, logger *slog.Logger, meter Meter) *Router {
	return &Router{
		store:    store,
		sessions: sessions,
		sender:   sender,
		rewriter: rewriter,
		cfg:      cfg,
		logger:   logger,
		meter:    meter,
	}
}

// SetScrapeTrigger registers the detached ad-hoc scrape hook.
func (r *Router) SetScrapeTrigger(fn func()) {
	r.scrapeNow = fn
}

// HandleCallback processes one button click. Every click receives exactly
// one acknowledgement; malformed or unrecognized payloads are answered
// explicitly so the client UI never hangs.
func (r *Router) HandleCallback(ctx context.Context, q chat.CallbackQuery) {
	cb, err := ParseCallback(q.Data)
	if err != nil || cb.Kind == KindUnknown {
		r.logger.Warn("unrecognized callback payload", "data", q.Data)
		r.answer(ctx, q.ID, "Unknown action.")
		return
	}

	if r.meter != nil {
		r.meter.CallbackAction(cb.Kind.String())
	}

	switch cb.Kind {
	case KindPublish:
		r.handlePublish(ctx, q, cb.Token)
	case KindRewrite:
		r.handleRewrite(ctx, q, cb.Token)
	case KindCustomPrompt:
		r.handlePromptEntry(ctx, q, cb.Token)
	case KindCancelPrompt:
		r.handlePromptCancel(ctx, q, cb.Token)
	case KindSelectModel:
		r.handleModelSelect(ctx, q, cb.Literal)
	case KindCancelModelSelect:
		r.answer(ctx, q.ID, "Cancelled.")
		r.stripKeyboard(ctx, q.Message)
	case KindStartScrape:
		r.answer(ctx, q.ID, "Scrape started.")
		if r.scrapeNow != nil {
			go r.scrapeNow()
		}
	case KindSupport:
		r.answer(ctx, q.ID, "")
		if q.Message != nil {
			r.notify(ctx, q.Message.Chat.ID, r.cfg.SupportText)
		}
	}
}

// PostReviewItem creates a Posted context for the given texts and delivers
// the review message with its action keyboard. On delivery failure the
// context is removed again so the token never leaks into a dead keyboard.
func (r *Router) PostReviewItem(ctx context.Context, chatID int64, original, rewritten string) error {
	token := r.store.Create(Context{
		ChatID:        chatID,
		OriginalText:  original,
		RewrittenText: rewritten,
		Stage:         StagePosted,
	})
	keyboard := ReviewKeyboard(token)

	wc, _ := r.store.Get(token)
	msg, err := r.sender.SendMessage(ctx, chatID, wc.DisplayText(), chat.SendOptions{
		Keyboard:       keyboard,
		DisablePreview: true,
	})
	if err != nil {
		r.store.Delete(token)
		return err
	}

	wc.MessageID = msg.MessageID
	wc.Buttons = keyboard
	r.store.Update(token, wc)

	if r.meter != nil {
		r.meter.ItemPosted()
	}
	return nil
}

// SendSupport posts the static support text.
func (r *Router) SendSupport(ctx context.Context, chatID int64) {
	r.notify(ctx, chatID, r.cfg.SupportText)
}

// SendModelMenu posts the sticky-default-model selection keyboard.
func (r *Router) SendModelMenu(ctx context.Context, chatID int64) {
	_, err := r.sender.SendMessage(ctx, chatID, "Pick the default rewrite model:", chat.SendOptions{
		Keyboard: ModelKeyboard(r.cfg.ModelOptions),
	})
	if err != nil {
		r.logger.Error("failed to send model menu", "error", err)
	}
}

func (r *Router) handlePublish(ctx context.Context, q chat.CallbackQuery, token string) {
	wc, ok := r.resolveContext(ctx, q, token)
	if !ok {
		return
	}

	// Provisional acknowledgement before the slow delivery.
	r.answer(ctx, q.ID, "Publishing...")

	_, err := r.sender.SendMessage(ctx, r.cfg.PublishChatID, wc.DisplayText(), chat.SendOptions{})
	if err != nil {
		r.logger.Error("publish delivery failed", "token", token, "error", err)
		r.notify(ctx, wc.ChatID, "Failed to publish the item, try again.")
		return
	}

	// Deleting the context enforces at-most-once: a duplicate click finds
	// no context and degrades via the expired path.
	r.store.Delete(token)
	if r.meter != nil {
		r.meter.Published()
	}

	if err := r.sender.EditMessageText(ctx, wc.ChatID, wc.MessageID, wc.DisplayText()+"\n\nPublished.", chat.SendOptions{}); err != nil {
		r.logger.Warn("failed to mark review message published", "token", token, "error", err)
	}
}

func (r *Router) handleRewrite(ctx context.Context, q chat.CallbackQuery, token string) {
	wc, ok := r.resolveContext(ctx, q, token)
	if !ok {
		return
	}

	// Provisional acknowledgement: the rewrite call is slow.
	r.answer(ctx, q.ID, "Rewriting...")

	wc.Stage = StageRewriteRequested
	r.store.Update(token, wc)

	text, err := r.rewriter.Summarize(ctx, wc.DisplayText(), rewrite.DefaultInstruction, r.modelFor(q.From.ID))
	if err != nil || text == "" {
		r.logger.Warn("rewrite failed", "token", token, "error", err)
		if r.meter != nil {
			r.meter.Rewrite("failure")
		}
		// Soft failure: the original keyboard stays usable.
		wc.Stage = StagePosted
		r.store.Update(token, wc)
		r.notify(ctx, wc.ChatID, "Rewrite failed, the original item is still available.")
		return
	}

	if r.meter != nil {
		r.meter.Rewrite("success")
	}

	// The rewrite result gets a fresh Posted context; the original is left
	// orphaned with its keyboard intact.
	wc.Stage = StagePosted
	r.store.Update(token, wc)
	if err := r.PostReviewItem(ctx, wc.ChatID, wc.DisplayText(), text); err != nil {
		r.logger.Error("failed to post rewritten item", "token", token, "error", err)
		r.notify(ctx, wc.ChatID, "Could not deliver the rewritten item.")
	}
}

func (r *Router) handleModelSelect(ctx context.Context, q chat.CallbackQuery, model string) {
	r.sessions.SetPreferredModel(q.From.ID, model)
	r.answer(ctx, q.ID, "Default model set to "+model)
	if q.Message != nil {
		if err := r.sender.EditMessageText(ctx, q.Message.Chat.ID, q.Message.MessageID, "Default rewrite model: "+model, chat.SendOptions{}); err != nil {
			r.logger.Warn("failed to update model menu", "error", err)
		}
	}
}

// resolveContext looks up a token, handling the stale/missing case: answer
// with an expired notice and make a best-effort attempt to strip the dead
// keyboard.
func (r *Router) resolveContext(ctx context.Context, q chat.CallbackQuery, token string) (Context, bool) {
	wc, ok := r.store.Get(token)
	if ok {
		return wc, true
	}

	r.logger.Info("callback for unknown context", "token", token)
	r.answer(ctx, q.ID, "This item has expired.")
	r.stripKeyboard(ctx, q.Message)
	return Context{}, false
}

func (r *Router) stripKeyboard(ctx context.Context, msg *chat.Message) {
	if msg == nil {
		return
	}
	if err := r.sender.EditReplyMarkup(ctx, msg.Chat.ID, msg.MessageID, nil); err != nil {
		r.logger.Warn("failed to strip keyboard", "chat", msg.Chat.ID, "message", msg.MessageID, "error", err)
	}
}

func (r *Router) answer(ctx context.Context, callbackID, text string) {
	if err := r.sender.AnswerCallback(ctx, callbackID, text, false); err != nil {
		r.logger.Warn("failed to answer callback", "callback", callbackID, "error", err)
	}
}

func (r *Router) notify(ctx context.Context, chatID int64, text string) {
	if _, err := r.sender.SendMessage(ctx, chatID, text, chat.SendOptions{}); err != nil {
		r.logger.Error("failed to send notice", "chat", chatID, "error", err)
	}
}

func (r *Router) modelFor(userID int64) string {
	if sess := r.sessions.Get(userID); sess.PreferredModel != "" {
		return sess.PreferredModel
	}
	return r.cfg.DefaultModel
}
