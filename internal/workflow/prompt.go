package workflow

// The prompt conversation: a short-lived dialogue scoped to one chat/user
// pair and one context token. The suspension is the session's single
// pending-prompt slot, resolved by either the next text message from that
// user in that chat or the cancel control. Every exit path clears the slot.

import (
	"context"

	"github.com/newsdesk/deskbot/internal/chat"
)

const promptInputText = "Send your rewrite instruction as a reply message."

// handlePromptEntry turns the review message into a prompt input and parks
// the token in the user's pending-prompt slot.
func (r *Router) handlePromptEntry(ctx context.Context, q chat.CallbackQuery, token string) {
	wc, ok := r.resolveContext(ctx, q, token)
	if !ok {
		return
	}

	// Outcome is known up front: acknowledge first.
	r.answer(ctx, q.ID, "Waiting for your instruction.")

	r.sessions.SetPendingPrompt(q.From.ID, token, wc.ChatID)

	wc.Stage = StageAwaitingPrompt
	r.store.Update(token, wc)

	if err := r.sender.EditMessageText(ctx, wc.ChatID, wc.MessageID, promptInputText, chat.SendOptions{
		Keyboard: PromptKeyboard(token),
	}); err != nil {
		r.logger.Warn("failed to render prompt input", "token", token, "error", err)
	}
}

// handlePromptCancel restores the review message and clears the slot
// unconditionally.
func (r *Router) handlePromptCancel(ctx context.Context, q chat.CallbackQuery, token string) {
	r.answer(ctx, q.ID, "Cancelled.")
	r.sessions.ClearPendingPrompt(q.From.ID)

	wc, ok := r.store.Get(token)
	if !ok {
		r.stripKeyboard(ctx, q.Message)
		return
	}

	wc.Stage = StagePosted
	r.store.Update(token, wc)

	if err := r.sender.EditMessageText(ctx, wc.ChatID, wc.MessageID, wc.DisplayText(), chat.SendOptions{
		Keyboard: wc.Buttons,
	}); err != nil {
		r.logger.Warn("failed to restore review message", "token", token, "error", err)
	}
}

// HandlePromptText resolves a pending prompt conversation with the user's
// text message. It reports whether the message was consumed as a prompt;
// text from a chat other than the conversation's is never consumed, so it
// falls through to normal handling.
func (r *Router) HandlePromptText(ctx context.Context, msg chat.Message) bool {
	if msg.From == nil {
		return false
	}

	token, ok := r.sessions.TakePendingPrompt(msg.From.ID, msg.Chat.ID)
	if !ok {
		return false
	}

	wc, ok := r.store.Get(token)
	if !ok {
		r.notify(ctx, msg.Chat.ID, "That item has expired, the instruction was discarded.")
		return true
	}

	text, err := r.rewriter.Summarize(ctx, wc.DisplayText(), msg.Text, r.modelFor(msg.From.ID))
	if err != nil || text == "" {
		r.logger.Warn("custom-prompt rewrite failed", "token", token, "error", err)
		if r.meter != nil {
			r.meter.Rewrite("failure")
		}
		wc.Stage = StagePosted
		r.store.Update(token, wc)
		if editErr := r.sender.EditMessageText(ctx, wc.ChatID, wc.MessageID, wc.DisplayText(), chat.SendOptions{
			Keyboard: wc.Buttons,
		}); editErr != nil {
			r.logger.Warn("failed to restore review message", "token", token, "error", editErr)
		}
		r.notify(ctx, wc.ChatID, "Rewrite failed, the original item is still available.")
		return true
	}

	if r.meter != nil {
		r.meter.Rewrite("success")
	}

	// The original message becomes an inert dead end; the result gets a
	// fresh Posted context below it.
	wc.Stage = StagePosted
	r.store.Update(token, wc)
	if err := r.sender.EditMessageText(ctx, wc.ChatID, wc.MessageID, wc.DisplayText()+"\n\n(rewritten below)", chat.SendOptions{}); err != nil {
		r.logger.Warn("failed to retire original message", "token", token, "error", err)
	}

	if err := r.PostReviewItem(ctx, wc.ChatID, wc.DisplayText(), text); err != nil {
		r.logger.Error("failed to post rewritten item", "token", token, "error", err)
		r.notify(ctx, wc.ChatID, "Could not deliver the rewritten item.")
	}
	return true
}
