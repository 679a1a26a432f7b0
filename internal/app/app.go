// Package app wires configuration into the pipeline adapters and owns the
// process lifecycle for single and recurring runs.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"newswatch/internal/config"
	"newswatch/internal/infrastructure/browser"
	"newswatch/internal/infrastructure/llm"
	"newswatch/internal/infrastructure/scheduler"
	"newswatch/internal/infrastructure/scrape"
	"newswatch/internal/infrastructure/sheets"
	"newswatch/internal/infrastructure/telegram"
	"newswatch/internal/listing"
	"newswatch/internal/pipeline"
	"newswatch/internal/ports"
	"newswatch/internal/retry"
)

// Application wires configs to the pipeline runner and lifecycle.
type Application struct {
	cfg      config.Config
	runner   *pipeline.Runner
	notifier ports.Notifier
	logger   *slog.Logger
}

// New builds a fully wired application. Construction fails fast on anything
// that would doom every run: unreachable store, missing prompt files,
// unknown portal.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Application, error) {
	registry := listing.NewRegistry()
	registry.Register(browser.NewYahooSearch(cfg.Search, logger.With("component", "search.yahoo")))

	source, err := registry.Resolve(cfg.Search.Portal)
	if err != nil {
		return nil, fmt.Errorf("resolve portal: %w", err)
	}

	store, err := sheets.NewStore(ctx, cfg.Sheet, logger)
	if err != nil {
		return nil, fmt.Errorf("open row store: %w", err)
	}

	prompt, err := llm.LoadPromptTemplate(cfg.Gemini)
	if err != nil {
		return nil, fmt.Errorf("load prompt template: %w", err)
	}

	// The classification prompt scores against the whole keyword set at once.
	keyword := strings.Join(cfg.Keywords, "、")
	classifier := llm.NewGeminiClient(cfg.Gemini, keyword, prompt)

	analyzeRetry := retry.DefaultConfig()
	if cfg.Gemini.RetryAttempts > 0 {
		analyzeRetry.MaxAttempts = cfg.Gemini.RetryAttempts
	}

	fetcher := scrapeFetcher(cfg, logger)
	enricher := pipeline.NewEnricher(fetcher, logger.With("component", "enricher"))
	analyzer := pipeline.NewAnalyzer(classifier, analyzeRetry, cfg.Gemini.MaxCharacters,
		logger.With("component", "analyzer"))

	runner := pipeline.NewRunner(pipeline.RunnerDeps{
		Listing:   source,
		Store:     store,
		Enricher:  enricher,
		Analyzer:  analyzer,
		Planner:   pipeline.NewPlanner(cfg.Pipeline.RecencyWindow()),
		Direction: pipeline.ParseDirection(cfg.Pipeline.SortDirection),
		Keywords:  cfg.Keywords,
		Throttles: pipeline.Throttles{
			Keyword: cfg.Fetch.Throttle.Std(),
			Fetch:   cfg.Fetch.Throttle.Std(),
			Analyze: cfg.Gemini.Throttle.Std(),
		},
		Logger: logger.With("component", "pipeline"),
	})

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	return &Application{cfg: cfg, runner: runner, notifier: notifier, logger: logger}, nil
}

// Run performs a single pipeline execution and publishes the run report.
// The run error is returned after the report goes out, so an aborted run
// still notifies the operator.
func (a *Application) Run(ctx context.Context) error {
	report, err := a.runner.Run(ctx)

	a.logger.Info("run finished",
		"keywords", report.Keywords,
		"discovered", report.Discovered,
		"appended", report.Appended,
		"enriched", report.Enriched,
		"analyzed", report.Analyzed,
		"aborted", report.Aborted,
	)

	if a.notifier != nil {
		if pubErr := a.notifier.PublishReport(ctx, formatReport(report, err)); pubErr != nil {
			a.logger.Warn("report delivery failed", "error", pubErr)
		}
	}

	return err
}

// RunScheduled repeats Run on the configured interval until the context is
// cancelled. With no interval configured it degrades to a single run.
func (a *Application) RunScheduled(ctx context.Context) error {
	interval := a.cfg.Scheduler.Interval.Std()
	if interval <= 0 {
		return a.Run(ctx)
	}

	sched := scheduler.NewIntervalScheduler(interval)
	if err := sched.Start(ctx, func() {
		if err := a.Run(ctx); err != nil {
			a.logger.Error("scheduled run failed", "error", err)
		}
	}); err != nil {
		return err
	}

	<-ctx.Done()
	return sched.Stop(context.Background())
}

func scrapeFetcher(cfg config.Config, logger *slog.Logger) ports.ArticleFetcher {
	return scrape.NewArticleFetcher(nil, cfg.Fetch, cfg.Search.UserAgent,
		logger.With("component", "fetcher"))
}

func formatReport(report pipeline.Report, runErr error) string {
	var b strings.Builder
	b.WriteString("*News pipeline run*\n")
	fmt.Fprintf(&b, "keywords: %d\n", report.Keywords)
	fmt.Fprintf(&b, "discovered: %d, appended: %d\n", report.Discovered, report.Appended)
	fmt.Fprintf(&b, "enriched: %d, analyzed: %d\n", report.Enriched, report.Analyzed)
	switch {
	case report.Aborted:
		b.WriteString("aborted: LLM quota exhausted, labels resume next run")
	case runErr != nil:
		fmt.Fprintf(&b, "failed: %v", runErr)
	default:
		b.WriteString("completed")
	}
	return b.String()
}
