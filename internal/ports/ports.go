package ports

import (
	"context"

	"newswatch/internal/domain"
)

// ListingSource discovers candidate article rows for one search keyword.
// Zero results is not an error; malformed entries are skipped upstream.
type ListingSource interface {
	Search(ctx context.Context, keyword string) ([]domain.Listing, error)
}

// ArticleFetcher retrieves the full body, comment count and lead-paragraph
// date fragment for a single article URL.
type ArticleFetcher interface {
	Fetch(ctx context.Context, url string) (domain.FetchResult, error)
}

// Classifier produces the sentiment/category/relevance triple for one body
// text. A quota failure surfaces as a typed error the caller must not retry.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Labels, error)
}

// RowUpdate addresses one data row (0-based, header excluded) to rewrite.
type RowUpdate struct {
	Index int
	Row   domain.Row
}

// RowStore is the tabular store that owns row persistence. Reads and writes
// are whole-stage batches; the store preserves row identity through updates.
type RowStore interface {
	ListRows(ctx context.Context) ([]domain.Row, error)
	AppendRows(ctx context.Context, rows []domain.Row) error
	UpdateDetails(ctx context.Context, updates []RowUpdate) error
	WriteAll(ctx context.Context, rows []domain.Row) error
}

// Notifier delivers the post-run summary to an operator channel.
type Notifier interface {
	PublishReport(ctx context.Context, report string) error
}

// Scheduler controls when recurring pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func()) error
	Stop(ctx context.Context) error
}
