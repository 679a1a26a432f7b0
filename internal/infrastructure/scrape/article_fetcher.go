// Package scrape fetches article pages over plain HTTP and extracts the
// body text, comment count and lead-paragraph delivery timestamp.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newswatch/internal/config"
	"newswatch/internal/domain"
	"newswatch/internal/ports"
	"newswatch/internal/retry"
)

// ErrNotFound marks a permanently missing article. It is never retried;
// the caller records the unavailable sentinel so future runs skip the URL.
var ErrNotFound = errors.New("article not found")

var (
	// deliveryExpr matches the lead-paragraph fragment like
	// "10/15(水)19:10配信" or "10/15(水) 19:10配信".
	deliveryExpr = regexp.MustCompile(`(\d{1,2}/\d{1,2})\([月火水木金土日]\)\s*(\d{1,2}:\d{2})配信`)
	countExpr    = regexp.MustCompile(`(\d+)`)
)

// leadParagraphs is how many opening paragraphs are scanned for the
// delivery timestamp fragment.
const leadParagraphs = 3

// ArticleFetcher retrieves article pages with bounded retries, following
// multi-page articles by incrementing the page query parameter.
type ArticleFetcher struct {
	client    *http.Client
	retrier   *retry.Retrier
	maxPages  int
	userAgent string
	logger    *slog.Logger
}

var _ ports.ArticleFetcher = (*ArticleFetcher)(nil)

// NewArticleFetcher wires an HTTP client; a nil client gets the configured
// timeout applied to a fresh one.
func NewArticleFetcher(client *http.Client, cfg config.FetchConfig, userAgent string, logger *slog.Logger) *ArticleFetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout.Std()}
	}

	retryConfig := retry.DefaultConfig()
	if cfg.RetryAttempts > 0 {
		retryConfig.MaxAttempts = cfg.RetryAttempts
	}
	retriable := func(err error) bool {
		return !errors.Is(err, ErrNotFound)
	}

	maxPages := cfg.MaxBodyPages
	if maxPages < 1 {
		maxPages = 1
	}

	return &ArticleFetcher{
		client:    client,
		retrier:   retry.New(retryConfig, retriable, logger),
		maxPages:  maxPages,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch pulls every continuation page of the article until a page yields no
// body content or the page cap is reached. A 404 on the first page is an
// immediate non-retryable miss; the caller receives an empty result and
// ErrNotFound is swallowed into it, because a gone article is a data state,
// not a pipeline failure.
func (f *ArticleFetcher) Fetch(ctx context.Context, articleURL string) (domain.FetchResult, error) {
	result := domain.FetchResult{CommentCount: -1}
	var bodyParts []string

	for page := 1; page <= f.maxPages; page++ {
		doc, err := f.fetchDocument(ctx, pageURL(articleURL, page))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				break
			}
			if page == 1 {
				return result, fmt.Errorf("fetch %s: %w", articleURL, err)
			}
			// Continuation fetch failures keep what the earlier pages
			// already yielded.
			f.logger.Warn("continuation page fetch failed", "url", articleURL, "page", page, "error", err)
			break
		}

		pageBody := extractBody(doc)
		if pageBody == "" {
			break
		}
		bodyParts = append(bodyParts, pageBody)

		if page == 1 {
			result.ExtractedDateRaw = extractDeliveryDate(doc)
			if count, ok := extractCommentCount(doc); ok {
				result.CommentCount = count
			}
		}
	}

	result.Body = strings.Join(bodyParts, "\n")
	return result, nil
}

func (f *ArticleFetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var doc *goquery.Document

	err := f.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("request document: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %s", resp.Status)
		}

		parsed, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return fmt.Errorf("parse document: %w", err)
		}

		doc = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// extractBody joins the non-empty paragraphs inside the article element.
func extractBody(doc *goquery.Document) string {
	var paragraphs []string
	doc.Find("article p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n")
}

// extractDeliveryDate scans the opening paragraphs for the delivery
// timestamp and returns it as "MM/DD HH:MM", or empty when absent.
func extractDeliveryDate(doc *goquery.Document) string {
	var lead []string
	doc.Find("article p").EachWithBreak(func(i int, p *goquery.Selection) bool {
		if text := strings.TrimSpace(p.Text()); text != "" {
			lead = append(lead, text)
		}
		return len(lead) < leadParagraphs
	})

	match := deliveryExpr.FindStringSubmatch(strings.Join(lead, " "))
	if match == nil {
		return ""
	}
	return match[1] + " " + match[2]
}

// extractCommentCount reads the comment button's counter. The accessible
// hidden span holds the unabbreviated number when present.
func extractCommentCount(doc *goquery.Document) (int, bool) {
	button := doc.Find("button[data-cl-params*='cmtmod']").First()
	if button.Length() == 0 {
		return 0, false
	}

	text := button.Find("div.riff-VisuallyHidden__root").First().Text()
	if strings.TrimSpace(text) == "" {
		text = button.Text()
	}
	text = strings.ReplaceAll(text, ",", "")

	match := countExpr.FindString(text)
	if match == "" {
		return 0, false
	}

	count, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return count, true
}

// pageURL appends the continuation page parameter; page 1 is the bare URL.
func pageURL(articleURL string, page int) string {
	if page <= 1 {
		return articleURL
	}

	parsed, err := url.Parse(articleURL)
	if err != nil {
		return articleURL
	}
	query := parsed.Query()
	query.Set("page", strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
