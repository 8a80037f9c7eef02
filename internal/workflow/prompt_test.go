package workflow

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/newsdesk/deskbot/internal/chat"
)

func promptText(from int64, text string) chat.Message {
	return chat.Message{
		MessageID: 50,
		Chat:      chat.ChatRef{ID: reviewChat},
		From:      &chat.User{ID: from},
		Text:      text,
	}
}

func TestPromptEntrySetsSlotAndRendersInput(t *testing.T) {
	sender := &fakeSender{}
	router, store, sessions := newTestRouter(sender, &fakeRewriter{})
	token, wc := postItem(t, router, store, sender, "Original text")

	router.HandleCallback(context.Background(), click("prompt:"+token, msgRef(wc)))

	if got := sessions.Get(reviewer).PendingPromptToken; got != token {
		t.Errorf("pending slot = %q, want %q", got, token)
	}

	got, _ := store.Get(token)
	if got.Stage != StageAwaitingPrompt {
		t.Errorf("stage = %v, want awaiting_prompt", got.Stage)
	}

	if len(sender.edits) != 1 {
		t.Fatalf("expected the review message edited into a prompt input, got %d edits", len(sender.edits))
	}
	edit := sender.edits[0]
	if edit.opts.Keyboard == nil || edit.opts.Keyboard.InlineKeyboard[0][0].CallbackData != "cancelprompt:"+token {
		t.Error("prompt input must carry the cancel control with the same token")
	}
}

func TestPromptCancelRestoresExactButtonLayout(t *testing.T) {
	sender := &fakeSender{}
	router, store, sessions := newTestRouter(sender, &fakeRewriter{})
	token, wc := postItem(t, router, store, sender, "Original text")
	layoutBefore := wc.Buttons

	router.HandleCallback(context.Background(), click("prompt:"+token, msgRef(wc)))
	router.HandleCallback(context.Background(), click("cancelprompt:"+token, msgRef(wc)))

	if sessions.Get(reviewer).PendingPromptToken != "" {
		t.Error("cancel must clear the pending slot")
	}

	got, _ := store.Get(token)
	if got.Stage != StagePosted {
		t.Errorf("stage = %v, want posted", got.Stage)
	}

	restore := sender.edits[len(sender.edits)-1]
	if restore.text != wc.DisplayText() {
		t.Errorf("restored text = %q, want the original", restore.text)
	}
	if !reflect.DeepEqual(restore.opts.Keyboard, layoutBefore) {
		t.Error("cancel must restore the exact button layout present before the conversation")
	}
}

func TestPromptCancelOnExpiredContextStripsKeyboard(t *testing.T) {
	sender := &fakeSender{}
	router, _, sessions := newTestRouter(sender, &fakeRewriter{})

	ghost := "123e4567-e89b-12d3-a456-426614174000"
	sessions.SetPendingPrompt(reviewer, ghost, reviewChat)
	router.HandleCallback(context.Background(), click("cancelprompt:"+ghost, &chat.Message{MessageID: 8, Chat: chat.ChatRef{ID: reviewChat}}))

	if sessions.Get(reviewer).PendingPromptToken != "" {
		t.Error("slot must be cleared even when the context is gone")
	}
	if len(sender.markupEdits) != 1 {
		t.Error("expected a best-effort keyboard strip")
	}
	if len(sender.answers) != 1 {
		t.Errorf("expected exactly one answer, got %d", len(sender.answers))
	}
}

func TestPromptTextResolvesConversation(t *testing.T) {
	sender := &fakeSender{}
	rw := &fakeRewriter{result: "Shorter version."}
	router, store, _ := newTestRouter(sender, rw)
	token, wc := postItem(t, router, store, sender, "Item B text")

	router.HandleCallback(context.Background(), click("prompt:"+token, msgRef(wc)))

	consumed := router.HandlePromptText(context.Background(), promptText(reviewer, "make it shorter"))
	if !consumed {
		t.Fatal("text message should resolve the pending conversation")
	}

	if rw.instruction != "make it shorter" {
		t.Errorf("instruction = %q", rw.instruction)
	}
	if rw.content != wc.DisplayText() {
		t.Errorf("rewrite content = %q, want the reviewed text", rw.content)
	}

	// A new context exists for the result, distinct from B's.
	if store.Len() != 2 {
		t.Fatalf("expected 2 contexts, got %d", store.Len())
	}

	// The original message was retired to an inert dead end: its last edit
	// carries no keyboard.
	lastEdit := sender.edits[len(sender.edits)-1]
	if lastEdit.messageID != wc.MessageID {
		// The rewritten item is a fresh send, so the last edit targets the
		// original message.
		t.Fatalf("expected final edit on the original message, got message %d", lastEdit.messageID)
	}
	if lastEdit.opts.Keyboard != nil {
		t.Error("retired original must not keep an interactive keyboard")
	}
}

func TestPromptTextFromOtherChatNotConsumed(t *testing.T) {
	sender := &fakeSender{}
	rw := &fakeRewriter{result: "Rewritten."}
	router, store, sessions := newTestRouter(sender, rw)
	token, wc := postItem(t, router, store, sender, "Item text")

	router.HandleCallback(context.Background(), click("prompt:"+token, msgRef(wc)))

	// The same user writes in an unrelated chat; that text is not the
	// instruction and the conversation keeps waiting in the review chat.
	elsewhere := chat.Message{
		MessageID: 60,
		Chat:      chat.ChatRef{ID: 999},
		From:      &chat.User{ID: reviewer},
		Text:      "hello from an unrelated chat",
	}
	if router.HandlePromptText(context.Background(), elsewhere) {
		t.Fatal("text from another chat must not resolve the conversation")
	}
	if rw.instruction != "" {
		t.Fatalf("rewriter received %q from the wrong chat", rw.instruction)
	}
	if sessions.Get(reviewer).PendingPromptToken != token {
		t.Fatal("conversation must stay pending in its originating chat")
	}

	// The next review-chat message still resolves it.
	if !router.HandlePromptText(context.Background(), promptText(reviewer, "make it shorter")) {
		t.Fatal("review-chat text should resolve the pending conversation")
	}
	if rw.instruction != "make it shorter" {
		t.Errorf("instruction = %q", rw.instruction)
	}
}

func TestPromptTextNotConsumedWithoutPendingSlot(t *testing.T) {
	sender := &fakeSender{}
	router, _, _ := newTestRouter(sender, &fakeRewriter{})

	if router.HandlePromptText(context.Background(), promptText(reviewer, "hello")) {
		t.Error("text without a pending conversation must not be consumed")
	}
}

func TestPromptTextOnExpiredContextInformsUser(t *testing.T) {
	sender := &fakeSender{}
	router, _, sessions := newTestRouter(sender, &fakeRewriter{})

	ghost := "123e4567-e89b-12d3-a456-426614174000"
	sessions.SetPendingPrompt(reviewer, ghost, reviewChat)

	if !router.HandlePromptText(context.Background(), promptText(reviewer, "instruction")) {
		t.Fatal("message should be consumed even when the context expired")
	}
	if sessions.Get(reviewer).PendingPromptToken != "" {
		t.Error("slot must be cleared")
	}
	if len(sender.sent) == 0 {
		t.Fatal("expected an expiry notice")
	}
}

func TestPromptRewriteFailureRestoresKeyboard(t *testing.T) {
	sender := &fakeSender{}
	rw := &fakeRewriter{err: errors.New("timeout")}
	router, store, sessions := newTestRouter(sender, rw)
	token, wc := postItem(t, router, store, sender, "Item text")

	router.HandleCallback(context.Background(), click("prompt:"+token, msgRef(wc)))
	router.HandlePromptText(context.Background(), promptText(reviewer, "rework it"))

	if sessions.Get(reviewer).PendingPromptToken != "" {
		t.Error("slot must be cleared on the failure path")
	}
	if store.Len() != 1 {
		t.Errorf("failed rewrite must not create a context, store has %d", store.Len())
	}

	// Keyboard restored for retry.
	var restored bool
	for _, edit := range sender.edits {
		if edit.messageID == wc.MessageID && reflect.DeepEqual(edit.opts.Keyboard, wc.Buttons) {
			restored = true
		}
	}
	if !restored {
		t.Error("original keyboard must be restored after a failed custom rewrite")
	}
}
