// Package session holds per-user state that survives between updates:
// the sticky default rewrite model and the single pending-prompt slot.
package session

import "sync"

// Session is the per-user state. Zero value is a valid fresh session.
type Session struct {
	PreferredModel string
	// PendingPromptToken and PendingPromptChat together scope an awaited
	// custom-prompt instruction: only text from that chat resolves it.
	PendingPromptToken string
	PendingPromptChat  int64
}

// Store maps user identifiers to their sessions. Everything is in-memory and
// lost on restart.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]Session)}
}

// Get returns the user's session, or a zero session if none exists yet.
func (s *Store) Get(userID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

// SetPreferredModel records the sticky default model for the user.
func (s *Store) SetPreferredModel(userID int64, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[userID]
	sess.PreferredModel = model
	s.sessions[userID] = sess
}

// SetPendingPrompt marks the token awaiting a custom prompt from the user in
// the given chat. A single slot: setting it replaces any previous pending
// conversation.
func (s *Store) SetPendingPrompt(userID int64, token string, chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[userID]
	sess.PendingPromptToken = token
	sess.PendingPromptChat = chatID
	s.sessions[userID] = sess
}

// TakePendingPrompt returns and clears the pending-prompt token, but only for
// the chat the conversation was started in. Text from any other chat leaves
// the slot untouched so the conversation keeps waiting where it began.
func (s *Store) TakePendingPrompt(userID, chatID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[userID]
	token := sess.PendingPromptToken
	if token == "" || sess.PendingPromptChat != chatID {
		return "", false
	}
	sess.PendingPromptToken = ""
	sess.PendingPromptChat = 0
	s.sessions[userID] = sess
	return token, true
}

// ClearPendingPrompt empties the pending-prompt slot.
func (s *Store) ClearPendingPrompt(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[userID]
	sess.PendingPromptToken = ""
	sess.PendingPromptChat = 0
	s.sessions[userID] = sess
}
