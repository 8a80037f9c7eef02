package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// NewsItem is one candidate item produced by an ingestion adapter. It is
// immutable once constructed and consumed exactly once by the workflow.
type NewsItem struct {
	Title      string
	SourceLink string
	Summary    string
	FetchedAt  time.Time
}

// ShortForm renders the item without its summary. This is the text hashed for
// the cheap pre-scrape dedup check.
func (n NewsItem) ShortForm() string {
	return strings.TrimSpace(n.Title) + "\n\n" + n.SourceLink
}

// FullForm renders the complete reviewer-facing message text. Its fingerprint
// is the authoritative dedup key, so a re-scrape with revised summary text is
// treated as a distinct item.
func (n NewsItem) FullForm() string {
	if n.Summary == "" {
		return n.ShortForm()
	}
	return strings.TrimSpace(n.Title) + "\n\n" + strings.TrimSpace(n.Summary) + "\n\n" + n.SourceLink
}

// Fingerprint derives the dedup key for a formatted message text.
func Fingerprint(formatted string) string {
	hash := sha256.Sum256([]byte(formatted))
	return hex.EncodeToString(hash[:])
}
