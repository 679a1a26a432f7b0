package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newswatch/internal/datetext"
	"newswatch/internal/domain"
	"newswatch/internal/ports"
)

// Throttles are the mandatory sleeps between consecutive upstream calls.
type Throttles struct {
	Keyword time.Duration
	Fetch   time.Duration
	Analyze time.Duration
}

// RunnerDeps wires all driven adapters into the run orchestration.
type RunnerDeps struct {
	Listing   ports.ListingSource
	Store     ports.RowStore
	Enricher  *Enricher
	Analyzer  *Analyzer
	Planner   Planner
	Direction Direction
	Keywords  []string
	Throttles Throttles
	Logger    *slog.Logger
	Now       func() time.Time
}

// Runner sequences one pipeline run:
// Discover -> Append -> CompleteDetails -> Sort -> Analyze -> Done.
// A quota failure during Analyze aborts the run; everything committed by
// earlier stages, and the label updates flushed so far, stay in the store.
type Runner struct {
	deps RunnerDeps
}

// Report summarizes one run for logs and the operator notification.
type Report struct {
	Keywords   int
	Discovered int
	Appended   int
	Enriched   int
	Analyzed   int
	Aborted    bool
}

// NewRunner constructs the orchestration component.
func NewRunner(deps RunnerDeps) *Runner {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Runner{deps: deps}
}

// Run executes the full stage sequence. The returned error is non-nil only
// for run-fatal conditions; per-row failures degrade to stored sentinels.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	report := Report{Keywords: len(r.deps.Keywords)}

	if len(r.deps.Keywords) == 0 {
		r.deps.Logger.Warn("no keywords configured, nothing to do")
		return report, nil
	}

	if err := r.discoverAndAppend(ctx, &report); err != nil {
		return report, err
	}
	if err := r.completeDetails(ctx, &report); err != nil {
		return report, err
	}
	if err := r.sortStore(ctx); err != nil {
		return report, err
	}
	if err := r.analyze(ctx, &report); err != nil {
		report.Aborted = errors.Is(err, domain.ErrQuotaExhausted)
		return report, err
	}

	return report, nil
}

// discoverAndAppend runs discovery and append fully interleaved per keyword,
// so a failure partway through the keyword list still leaves earlier
// keywords' results persisted.
func (r *Runner) discoverAndAppend(ctx context.Context, report *Report) error {
	for i, keyword := range r.deps.Keywords {
		if i > 0 {
			if err := sleep(ctx, r.deps.Throttles.Keyword); err != nil {
				return err
			}
		}

		listings, err := r.deps.Listing.Search(ctx, keyword)
		if err != nil {
			return fmt.Errorf("search %q: %w", keyword, err)
		}
		report.Discovered += len(listings)
		r.deps.Logger.Info("keyword searched", "keyword", keyword, "listings", len(listings))

		// Existing keys are re-read per keyword so repeated discoveries
		// within one run cannot double-append.
		existing, err := r.deps.Store.ListRows(ctx)
		if err != nil {
			return fmt.Errorf("list rows: %w", err)
		}

		fresh := FilterNew(listings, CollectURLs(existing))
		if len(fresh) == 0 {
			r.deps.Logger.Info("no new rows for keyword", "keyword", keyword)
			continue
		}

		rows := make([]domain.Row, 0, len(fresh))
		now := r.deps.Now()
		for _, listing := range fresh {
			rows = append(rows, newRow(listing, now))
		}

		if err := r.deps.Store.AppendRows(ctx, rows); err != nil {
			return fmt.Errorf("append rows for %q: %w", keyword, err)
		}
		report.Appended += len(rows)
		r.deps.Logger.Info("rows appended", "keyword", keyword, "count", len(rows))
	}

	return nil
}

// completeDetails fills body, comment count and backfilled post dates for
// every row the planner says is incomplete, writing one batch at stage end.
func (r *Runner) completeDetails(ctx context.Context, report *Report) error {
	rows, err := r.deps.Store.ListRows(ctx)
	if err != nil {
		return fmt.Errorf("list rows: %w", err)
	}

	now := r.deps.Now()
	var updates []ports.RowUpdate

	for i, row := range rows {
		if row.URL == "" {
			continue
		}

		plan := r.deps.Planner.Decide(row, now)
		if !plan.NeedsBodyFetch && !plan.CommentOnlyRefresh {
			continue
		}

		if len(updates) > 0 {
			if err := sleep(ctx, r.deps.Throttles.Fetch); err != nil {
				return err
			}
		}

		updated, err := r.deps.Enricher.Enrich(ctx, row, plan, now)
		if err != nil {
			return fmt.Errorf("enrich %s: %w", row.URL, err)
		}
		if updated == row {
			continue
		}

		updates = append(updates, ports.RowUpdate{Index: i, Row: updated})
	}

	if len(updates) == 0 {
		r.deps.Logger.Info("no rows needed detail completion")
		return nil
	}

	if err := r.deps.Store.UpdateDetails(ctx, updates); err != nil {
		return fmt.Errorf("write details: %w", err)
	}
	report.Enriched = len(updates)
	r.deps.Logger.Info("details completed", "rows", len(updates))
	return nil
}

// sortStore re-sorts the entire working set and writes it back in full.
func (r *Runner) sortStore(ctx context.Context) error {
	rows, err := r.deps.Store.ListRows(ctx)
	if err != nil {
		return fmt.Errorf("list rows: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	SortRows(rows, r.deps.Direction, r.deps.Now())

	if err := r.deps.Store.WriteAll(ctx, rows); err != nil {
		return fmt.Errorf("write sorted rows: %w", err)
	}
	return nil
}

// analyze labels every unlabeled row. The first quota error flushes the
// updates accumulated so far and aborts; earlier rows keep their labels.
func (r *Runner) analyze(ctx context.Context, report *Report) error {
	rows, err := r.deps.Store.ListRows(ctx)
	if err != nil {
		return fmt.Errorf("list rows: %w", err)
	}

	now := r.deps.Now()
	var updates []ports.RowUpdate

	flush := func() error {
		if len(updates) == 0 {
			return nil
		}
		if err := r.deps.Store.UpdateDetails(ctx, updates); err != nil {
			return fmt.Errorf("write labels: %w", err)
		}
		report.Analyzed += len(updates)
		return nil
	}

	for i, row := range rows {
		if row.URL == "" {
			continue
		}
		if !r.deps.Planner.Decide(row, now).NeedsAnalysis {
			continue
		}

		labels, err := r.deps.Analyzer.Analyze(ctx, row.Body.Value())
		if err != nil {
			if errors.Is(err, domain.ErrQuotaExhausted) {
				r.deps.Logger.Error("quota exhausted, aborting run", "row", i+1)
				if flushErr := flush(); flushErr != nil {
					r.deps.Logger.Error("flushing labels during abort failed", "error", flushErr)
				}
				return err
			}
			// Transient budget spent: leave the row unlabeled for the
			// next run instead of failing everything behind it.
			r.deps.Logger.Warn("analysis failed, leaving row unlabeled", "url", row.URL, "error", err)
			continue
		}

		row.Labels = labels
		updates = append(updates, ports.RowUpdate{Index: i, Row: row})

		if err := sleep(ctx, r.deps.Throttles.Analyze); err != nil {
			return err
		}
	}

	if err := flush(); err != nil {
		return err
	}
	r.deps.Logger.Info("analysis complete", "rows", report.Analyzed)
	return nil
}

// newRow converts a discovered listing into a stored row, normalizing the
// raw timestamp through the canonical formatter when it parses.
func newRow(listing domain.Listing, now time.Time) domain.Row {
	postedAt := domain.Unavailable
	if listing.RawPostedAt != "" {
		if t, ok := datetext.Parse(listing.RawPostedAt, now); ok {
			postedAt = datetext.Format(t)
		} else if cleaned := datetext.Clean(listing.RawPostedAt); cleaned != "" {
			postedAt = cleaned
		}
	}

	source := listing.RawSource
	if source == "" {
		source = domain.Unavailable
	}

	return domain.Row{
		URL:      listing.URL,
		Title:    listing.Title,
		PostedAt: postedAt,
		Source:   source,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
