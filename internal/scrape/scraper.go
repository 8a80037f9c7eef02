// Package scrape produces candidate news items from a configured index page
// and feeds them through the two-phase dedup check into the review workflow.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/newsdesk/deskbot/internal/config"
)

// maxSummaryChars bounds the extracted article body so review messages stay
// within the transport's message size limit.
const maxSummaryChars = 1500

// Headline is one index-page entry: title and link, no body yet.
type Headline struct {
	Title string
	Link  string
}

// Scraper fetches the index page and individual articles.
type Scraper struct {
	http   *http.Client
	cfg    config.ScrapeConfig
	logger *slog.Logger
}

// New constructs a scraper from configuration.
func New(cfg config.ScrapeConfig, logger *slog.Logger) *Scraper {
	return &Scraper{
		http:   &http.Client{Timeout: 30 * time.Second},
		cfg:    cfg,
		logger: logger,
	}
}

// FetchHeadlines loads the index page and extracts up to MaxItems headlines.
// An error here aborts the whole cycle; per-article errors do not.
func (s *Scraper) FetchHeadlines(ctx context.Context) ([]Headline, error) {
	doc, base, err := s.fetchDocument(ctx, s.cfg.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}

	var headlines []Headline
	doc.Find(s.cfg.ItemSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Text())
		href, ok := sel.Attr("href")
		if title == "" || !ok {
			return true
		}

		link, err := resolveLink(base, href)
		if err != nil {
			s.logger.Debug("skipping unresolvable link", "href", href, "error", err)
			return true
		}

		headlines = append(headlines, Headline{Title: title, Link: link})
		return len(headlines) < s.cfg.MaxItems
	})

	return headlines, nil
}

// FetchArticle loads one article page and extracts its body text.
func (s *Scraper) FetchArticle(ctx context.Context, link string) (string, error) {
	doc, _, err := s.fetchDocument(ctx, link)
	if err != nil {
		return "", fmt.Errorf("fetch article: %w", err)
	}

	var paragraphs []string
	total := 0
	doc.Find(s.cfg.BodySelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return true
		}
		paragraphs = append(paragraphs, text)
		total += len(text)
		return total < maxSummaryChars
	})

	if len(paragraphs) == 0 {
		return "", fmt.Errorf("no article body found at %s", link)
	}

	body := strings.Join(paragraphs, "\n\n")
	if len(body) > maxSummaryChars {
		body = strings.TrimSpace(body[:maxSummaryChars]) + "…"
	}
	return body, nil
}

func (s *Scraper) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	return doc, resp.Request.URL, nil
}

func resolveLink(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", resolved.Scheme)
	}
	return resolved.String(), nil
}
