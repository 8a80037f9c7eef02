package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newsdesk/deskbot/internal/chat"
)

// Stage is the lifecycle position of a review item.
type Stage int

const (
	// StagePosted: the item is shown in the review chat with its action
	// buttons.
	StagePosted Stage = iota
	// StageRewriteRequested: a rewrite call is in flight for the item.
	StageRewriteRequested
	// StageAwaitingPrompt: the item's message was turned into a prompt
	// input and a custom instruction is awaited.
	StageAwaitingPrompt
)

func (s Stage) String() string {
	switch s {
	case StagePosted:
		return "posted"
	case StageRewriteRequested:
		return "rewrite_requested"
	case StageAwaitingPrompt:
		return "awaiting_prompt"
	default:
		return "unknown"
	}
}

// Context tracks one reviewable item through its approval lifecycle. It is
// owned exclusively by the Store; everything else holds only the token.
type Context struct {
	Token         string
	ChatID        int64
	MessageID     int64
	OriginalText  string
	RewrittenText string
	// Buttons is the keyboard currently rendered for the item, kept so a
	// cancelled sub-flow can restore the reviewer-facing message.
	Buttons   *chat.Keyboard
	Stage     Stage
	CreatedAt time.Time
}

// DisplayText is the reviewer-facing (and publishable) text of the item.
func (c Context) DisplayText() string {
	if c.RewrittenText != "" {
		return c.RewrittenText
	}
	return c.OriginalText
}

// Store maps tokens to workflow contexts. The scraper schedule and the chat
// update loop access it concurrently, so all operations are guarded.
//
// Contexts are removed on successful publication; abandoned ones are retained
// for the process lifetime.
type Store struct {
	mu       sync.Mutex
	contexts map[string]Context
}

// NewStore creates an empty context store.
func NewStore() *Store {
	return &Store{contexts: make(map[string]Context)}
}

// Create stores the context under a freshly generated token and returns the
// token. Tokens are never reused.
func (s *Store) Create(c Context) string {
	token := uuid.NewString()
	c.Token = token
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[token] = c
	return token
}

// Get returns the context for a token. A missing token is not an error: it
// signals "expired or never existed" and callers degrade gracefully.
func (s *Store) Get(token string) (Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contexts[token]
	return c, ok
}

// Update replaces the stored context for a token. Updating an unknown token
// is a no-op.
func (s *Store) Update(token string, c Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contexts[token]; !ok {
		return
	}
	c.Token = token
	s.contexts[token] = c
}

// Delete removes the context for a token.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, token)
}

// Len returns the number of live contexts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contexts)
}
