package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"newswatch/internal/datetext"
	"newswatch/internal/domain"
	"newswatch/internal/ports"
)

// Enricher runs the fetch operations a plan calls for and merges results
// back into the row without destroying previously valid values.
type Enricher struct {
	fetcher ports.ArticleFetcher
	logger  *slog.Logger
}

// NewEnricher wires the article fetcher adapter.
func NewEnricher(fetcher ports.ArticleFetcher, logger *slog.Logger) *Enricher {
	return &Enricher{fetcher: fetcher, logger: logger}
}

// Enrich completes the row's missing detail fields according to the plan.
// Fetch failures degrade to stored sentinels instead of failing the run;
// only context cancellation propagates as an error.
func (e *Enricher) Enrich(ctx context.Context, row domain.Row, plan Plan, now time.Time) (domain.Row, error) {
	if !plan.NeedsBodyFetch && !plan.CommentOnlyRefresh {
		return row, nil
	}

	result, err := e.fetcher.Fetch(ctx, row.URL)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return row, err
		}
		e.logger.Warn("article fetch failed", "url", row.URL, "error", err)
		result = domain.FetchResult{CommentCount: -1}
	}

	if plan.CommentOnlyRefresh {
		// Body is immutable once present; only the volatile counter moves.
		if count := domain.CountOf(result.CommentCount); count.Set() {
			row.Comments = count
		}
		return row, nil
	}

	if result.Body == "" {
		// Attempted and nothing extractable: mark the body permanently
		// unavailable, leave the counter unset so a real zero stays
		// distinguishable from this failure.
		row.Body = domain.UnavailableText()
	} else {
		row.Body = domain.TextOf(result.Body)
		if count := domain.CountOf(result.CommentCount); count.Set() && !row.Comments.Set() {
			row.Comments = count
		}
	}

	row = backfillPostedAt(row, result.ExtractedDateRaw, now)
	return row, nil
}

// backfillPostedAt fills an empty or unavailable post date from the fragment
// extracted out of the body's lead paragraph. An unparseable fragment is
// still written in cleaned form so the field stabilizes instead of carrying
// the sentinel forever.
func backfillPostedAt(row domain.Row, extracted string, now time.Time) domain.Row {
	if !row.PostedAtMissing() || extracted == "" {
		return row
	}

	if t, ok := datetext.Parse(extracted, now); ok {
		row.PostedAt = datetext.Format(t)
	} else if cleaned := datetext.Clean(extracted); cleaned != "" {
		row.PostedAt = cleaned
	}
	return row
}
