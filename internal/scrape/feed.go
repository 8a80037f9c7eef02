package scrape

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/newsdesk/deskbot/internal/dedup"
	"github.com/newsdesk/deskbot/internal/models"
)

// Fetcher is the scraping surface the feed consumes.
type Fetcher interface {
	FetchHeadlines(ctx context.Context) ([]Headline, error)
	FetchArticle(ctx context.Context, link string) (string, error)
}

// Poster delivers a candidate item to the review chat. Satisfied by
// workflow.Router.
type Poster interface {
	PostReviewItem(ctx context.Context, chatID int64, original, rewritten string) error
}

// Meter tracks feed activity. Satisfied by metrics.PipelineCollector.
type Meter interface {
	DedupSkip(phase string)
	ScrapeCycle(outcome string)
}

// Feed runs scrape cycles: headlines through the two-phase dedup check into
// the review workflow.
type Feed struct {
	fetcher      Fetcher
	index        *dedup.Index
	poster       Poster
	reviewChatID int64
	logger       *slog.Logger
	meter        Meter
}

// NewFeed wires the scrape feed. meter may be nil.
func NewFeed(fetcher Fetcher, index *dedup.Index, poster Poster, reviewChatID int64, logger *slog.Logger, meter Meter) *Feed {
	return &Feed{
		fetcher:      fetcher,
		index:        index,
		poster:       poster,
		reviewChatID: reviewChatID,
		logger:       logger,
		meter:        meter,
	}
}

// RunCycle executes one scrape cycle. A failure on the index page aborts the
// cycle; a failure on a single article skips just that article. Items are
// marked seen only after successful delivery.
func (f *Feed) RunCycle(ctx context.Context) error {
	headlines, err := f.fetcher.FetchHeadlines(ctx)
	if err != nil {
		if f.meter != nil {
			f.meter.ScrapeCycle("error")
		}
		return fmt.Errorf("scrape cycle: %w", err)
	}

	posted := 0
	for _, headline := range headlines {
		item := models.NewsItem{Title: headline.Title, SourceLink: headline.Link}

		// Cheap pre-check on title+link saves the article fetch.
		shortFP := models.Fingerprint(item.ShortForm())
		if f.index.Contains(shortFP) {
			if f.meter != nil {
				f.meter.DedupSkip("short")
			}
			continue
		}

		body, err := f.fetcher.FetchArticle(ctx, headline.Link)
		if err != nil {
			f.logger.Warn("skipping article", "link", headline.Link, "error", err)
			continue
		}
		item.Summary = body

		// Authoritative check on the full formatted text.
		fullFP := models.Fingerprint(item.FullForm())
		if f.index.Contains(fullFP) {
			if f.meter != nil {
				f.meter.DedupSkip("full")
			}
			continue
		}

		if err := f.poster.PostReviewItem(ctx, f.reviewChatID, item.FullForm(), ""); err != nil {
			// Not marked seen: the item is retried on a later cycle.
			f.logger.Error("failed to deliver item for review", "link", headline.Link, "error", err)
			continue
		}

		f.index.Add(shortFP)
		f.index.Add(fullFP)
		posted++
	}

	f.logger.Info("scrape cycle finished", "headlines", len(headlines), "posted", posted)
	if f.meter != nil {
		f.meter.ScrapeCycle("ok")
	}
	return nil
}
