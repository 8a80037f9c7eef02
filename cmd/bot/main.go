package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/newsdesk/deskbot/internal/bot"
	"github.com/newsdesk/deskbot/internal/chat"
	"github.com/newsdesk/deskbot/internal/config"
	"github.com/newsdesk/deskbot/internal/dedup"
	"github.com/newsdesk/deskbot/internal/dispatch"
	"github.com/newsdesk/deskbot/internal/logging"
	"github.com/newsdesk/deskbot/internal/metrics"
	"github.com/newsdesk/deskbot/internal/rewrite"
	"github.com/newsdesk/deskbot/internal/scheduler"
	"github.com/newsdesk/deskbot/internal/scrape"
	"github.com/newsdesk/deskbot/internal/server"
	"github.com/newsdesk/deskbot/internal/session"
	"github.com/newsdesk/deskbot/internal/workflow"
	"log/slog"
)

const supportText = "deskbot routes scraped and forwarded news items through editorial review. " +
	"Use the buttons under each item, /scrape for an ad-hoc cycle, /model to pick the default rewrite model."

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting deskbot")

	collector, err := metrics.NewPipelineCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	client := chat.NewClient(cfg.Telegram.BotToken)
	dispatcher := dispatch.New(client, dispatch.DefaultPolicy(), logger, collector)

	store := workflow.NewStore()
	sessions := session.NewStore()
	index := dedup.NewIndex()
	rewriter := rewrite.New(cfg.Rewrite, logger)

	router := workflow.NewRouter(store, sessions, dispatcher, rewriter, workflow.RouterConfig{
		PublishChatID: cfg.Telegram.PublishChatID,
		DefaultModel:  cfg.Rewrite.DefaultModel,
		ModelOptions:  []string{"gpt-4o", "gpt-4o-mini"},
		SupportText:   supportText,
	}, logger, collector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var scrapeNow func()
	if cfg.Scrape.IndexURL != "" {
		scraper := scrape.New(cfg.Scrape, logger)
		feed := scrape.NewFeed(scraper, index, router, cfg.Telegram.ReviewChatID, logger, collector)

		scrapeNow = func() {
			if err := feed.RunCycle(ctx); err != nil {
				logger.Error("ad-hoc scrape cycle failed", "error", err)
			}
		}
		router.SetScrapeTrigger(scrapeNow)

		sched := scheduler.NewScrapeScheduler(feed, cfg.Scrape.Interval, logger)
		go sched.Start(ctx)
	} else {
		logger.Warn("SCRAPE_INDEX_URL not set, running without the periodic scraper")
	}

	ops := server.New(cfg.Server, logger, collector.Handler())
	go func() {
		if err := ops.Start(); err != nil {
			logger.Error("ops server failed", "error", err)
		}
	}()

	b := bot.New(client, router, dispatcher, cfg.Telegram, logger, scrapeNow)
	if err := b.Run(ctx); err != nil {
		logger.Error("update loop failed", "error", err)
	}

	if err := ops.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shut down ops server", "error", err)
	}
	logger.Info("deskbot stopped")
}
