package session

import "testing"

func TestZeroSessionForUnknownUser(t *testing.T) {
	store := NewStore()

	sess := store.Get(42)
	if sess.PreferredModel != "" || sess.PendingPromptToken != "" {
		t.Errorf("expected zero session, got %+v", sess)
	}
}

func TestPreferredModelSticks(t *testing.T) {
	store := NewStore()

	store.SetPreferredModel(42, "gpt-4o")
	if got := store.Get(42).PreferredModel; got != "gpt-4o" {
		t.Errorf("expected gpt-4o, got %s", got)
	}

	// Other users are unaffected.
	if got := store.Get(43).PreferredModel; got != "" {
		t.Errorf("expected empty model for other user, got %s", got)
	}
}

func TestPendingPromptSingleSlot(t *testing.T) {
	store := NewStore()

	store.SetPendingPrompt(42, "token-a", -100)
	store.SetPendingPrompt(42, "token-b", -100)

	token, ok := store.TakePendingPrompt(42, -100)
	if !ok || token != "token-b" {
		t.Fatalf("expected token-b, got %q ok=%t", token, ok)
	}

	// The slot is cleared by the take.
	if _, ok := store.TakePendingPrompt(42, -100); ok {
		t.Error("slot should be empty after take")
	}
}

func TestPendingPromptScopedToChat(t *testing.T) {
	store := NewStore()

	store.SetPendingPrompt(42, "token-a", -100)

	// A take from another chat misses and leaves the slot intact.
	if _, ok := store.TakePendingPrompt(42, 999); ok {
		t.Fatal("take from a different chat must not consume the slot")
	}

	token, ok := store.TakePendingPrompt(42, -100)
	if !ok || token != "token-a" {
		t.Fatalf("conversation should still be pending in its chat, got %q ok=%t", token, ok)
	}
}

func TestClearPendingPromptKeepsModel(t *testing.T) {
	store := NewStore()

	store.SetPreferredModel(42, "gpt-4o")
	store.SetPendingPrompt(42, "token-a", -100)
	store.ClearPendingPrompt(42)

	sess := store.Get(42)
	if sess.PendingPromptToken != "" {
		t.Error("pending prompt should be cleared")
	}
	if sess.PreferredModel != "gpt-4o" {
		t.Error("clearing the prompt slot must not touch the model preference")
	}
}
