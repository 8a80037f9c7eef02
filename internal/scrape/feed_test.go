package scrape

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/newsdesk/deskbot/internal/dedup"
	"github.com/newsdesk/deskbot/internal/models"
)

type fakeFetcher struct {
	headlines []Headline
	indexErr  error
	bodies    map[string]string
	bodyErrs  map[string]error
	fetched   []string
}

func (f *fakeFetcher) FetchHeadlines(ctx context.Context) ([]Headline, error) {
	return f.headlines, f.indexErr
}

func (f *fakeFetcher) FetchArticle(ctx context.Context, link string) (string, error) {
	f.fetched = append(f.fetched, link)
	if err, ok := f.bodyErrs[link]; ok {
		return "", err
	}
	return f.bodies[link], nil
}

type fakePoster struct {
	posted []string
	err    error
}

func (f *fakePoster) PostReviewItem(ctx context.Context, chatID int64, original, rewritten string) error {
	if f.err != nil {
		return f.err
	}
	f.posted = append(f.posted, original)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunCyclePostsNewItems(t *testing.T) {
	fetcher := &fakeFetcher{
		headlines: []Headline{{Title: "A", Link: "https://x/a"}},
		bodies:    map[string]string{"https://x/a": "Body A"},
	}
	poster := &fakePoster{}
	index := dedup.NewIndex()
	feed := NewFeed(fetcher, index, poster, -100, discard(), nil)

	if err := feed.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}

	if len(poster.posted) != 1 {
		t.Fatalf("expected 1 posted item, got %d", len(poster.posted))
	}

	item := models.NewsItem{Title: "A", SourceLink: "https://x/a", Summary: "Body A"}
	if poster.posted[0] != item.FullForm() {
		t.Errorf("posted %q, want full form", poster.posted[0])
	}
	if !index.Contains(models.Fingerprint(item.ShortForm())) || !index.Contains(models.Fingerprint(item.FullForm())) {
		t.Error("both fingerprints should be recorded after delivery")
	}
}

func TestRunCycleSkipsDuplicatesAcrossCycles(t *testing.T) {
	fetcher := &fakeFetcher{
		headlines: []Headline{{Title: "A", Link: "https://x/a"}},
		bodies:    map[string]string{"https://x/a": "Body A"},
	}
	poster := &fakePoster{}
	index := dedup.NewIndex()
	feed := NewFeed(fetcher, index, poster, -100, discard(), nil)

	for i := 0; i < 3; i++ {
		if err := feed.RunCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d returned error: %v", i, err)
		}
	}

	if len(poster.posted) != 1 {
		t.Fatalf("item delivered %d times, want at most once", len(poster.posted))
	}
	// The short-form pre-check also saves the article fetches.
	if len(fetcher.fetched) != 1 {
		t.Errorf("expected 1 article fetch, got %d", len(fetcher.fetched))
	}
}

func TestRunCycleFullFingerprintCatchesSummaryDuplicates(t *testing.T) {
	fetcher := &fakeFetcher{
		headlines: []Headline{{Title: "A", Link: "https://x/a"}},
		bodies:    map[string]string{"https://x/a": "Body A"},
	}
	poster := &fakePoster{}
	index := dedup.NewIndex()
	feed := NewFeed(fetcher, index, poster, -100, discard(), nil)

	// Simulate a pre-populated full fingerprint without the short one, as
	// after a restart of the short index or an out-of-band mark.
	item := models.NewsItem{Title: "A", SourceLink: "https://x/a", Summary: "Body A"}
	index.Add(models.Fingerprint(item.FullForm()))

	if err := feed.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}
	if len(poster.posted) != 0 {
		t.Error("full-form duplicate must be skipped after the article fetch")
	}
}

func TestRunCycleDeliveryFailureDoesNotMarkSeen(t *testing.T) {
	fetcher := &fakeFetcher{
		headlines: []Headline{{Title: "A", Link: "https://x/a"}},
		bodies:    map[string]string{"https://x/a": "Body A"},
	}
	poster := &fakePoster{err: errors.New("rate limited for good")}
	index := dedup.NewIndex()
	feed := NewFeed(fetcher, index, poster, -100, discard(), nil)

	if err := feed.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}

	if index.Size() != 0 {
		t.Error("a failed delivery must not mark the item as seen")
	}

	// The next cycle retries the item.
	poster.err = nil
	if err := feed.RunCycle(context.Background()); err != nil {
		t.Fatalf("retry cycle returned error: %v", err)
	}
	if len(poster.posted) != 1 {
		t.Errorf("expected the item delivered on retry, got %d", len(poster.posted))
	}
}

func TestRunCycleArticleFailureSkipsJustThatArticle(t *testing.T) {
	fetcher := &fakeFetcher{
		headlines: []Headline{
			{Title: "A", Link: "https://x/a"},
			{Title: "B", Link: "https://x/b"},
		},
		bodies:   map[string]string{"https://x/b": "Body B"},
		bodyErrs: map[string]error{"https://x/a": errors.New("timeout")},
	}
	poster := &fakePoster{}
	feed := NewFeed(fetcher, dedup.NewIndex(), poster, -100, discard(), nil)

	if err := feed.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}
	if len(poster.posted) != 1 {
		t.Fatalf("expected only B posted, got %d", len(poster.posted))
	}
}

func TestRunCycleIndexFailureAborts(t *testing.T) {
	fetcher := &fakeFetcher{indexErr: errors.New("index unreachable")}
	poster := &fakePoster{}
	feed := NewFeed(fetcher, dedup.NewIndex(), poster, -100, discard(), nil)

	if err := feed.RunCycle(context.Background()); err == nil {
		t.Fatal("expected error when the index page fails")
	}
	if len(poster.posted) != 0 {
		t.Error("aborted cycle must not post")
	}
}
