// Package browser implements the headless-browser listing scrape for the
// Yahoo! News search portal. The result list is rendered client-side, so a
// plain HTTP fetch sees an empty shell; chromedp drives a real renderer and
// goquery extracts rows from the settled DOM.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"newswatch/internal/config"
	"newswatch/internal/domain"
	"newswatch/internal/listing"
)

const articleURLPrefix = "https://news.yahoo.co.jp/articles/"

// Result rows, titles and source blocks carry generated class fragments that
// survive portal redeploys better than full class names.
const (
	itemSelector   = "li[class*='sc-1u4589e-0']"
	titleSelector  = "div[class*='sc-3ls169-0']"
	sourceSelector = "div[class*='sc-n3vj8g-0']"
	sourceInner    = "div[class*='sc-110wjhy-8']"
)

// YahooSearch drives a headless Chrome against the news search page.
type YahooSearch struct {
	cfg    config.SearchConfig
	logger *slog.Logger
}

var _ listing.Strategy = (*YahooSearch)(nil)

// NewYahooSearch wires the search configuration.
func NewYahooSearch(cfg config.SearchConfig, logger *slog.Logger) *YahooSearch {
	return &YahooSearch{cfg: cfg, logger: logger}
}

// Name identifies the strategy inside the registry.
func (y *YahooSearch) Name() string {
	return "yahoo"
}

// Search renders the result page for one keyword and extracts candidate
// rows. It waits for the result container with a bounded timeout and falls
// back to a fixed sleep when the wait expires; malformed entries are skipped
// and zero results is a valid outcome.
func (y *YahooSearch) Search(ctx context.Context, keyword string) ([]domain.Listing, error) {
	html, err := y.renderSearchPage(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("render search page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	listings := parseListings(doc)
	y.logger.Info("search page parsed", "keyword", keyword, "listings", len(listings))
	return listings, nil
}

func (y *YahooSearch) renderSearchPage(ctx context.Context, keyword string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", y.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(1280, 1024),
		chromedp.UserAgent(y.cfg.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(y.searchURL(keyword)),
		y.waitForResults(),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}

	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return "", err
	}
	return html, nil
}

// waitForResults waits for the result container up to the configured
// timeout, then falls back to a hard sleep so a slow page is still parsed
// on a best-effort basis instead of failing the keyword.
func (y *YahooSearch) waitForResults() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, y.cfg.WaitTimeout.Std())
		defer cancel()

		if err := chromedp.WaitVisible(itemSelector, chromedp.ByQuery).Do(waitCtx); err == nil {
			return nil
		}

		y.logger.Warn("result list slow to appear, using fallback wait",
			"fallback", y.cfg.FallbackWait.Std())
		return chromedp.Sleep(y.cfg.FallbackWait.Std()).Do(ctx)
	})
}

func (y *YahooSearch) searchURL(keyword string) string {
	query := url.Values{}
	query.Set("p", keyword)
	query.Set("ei", "utf-8")
	query.Set("categories", y.cfg.Categories)
	return y.cfg.BaseURL + "?" + query.Encode()
}

// parseListings extracts candidate rows from a rendered search page.
// Entries missing a title or a proper article URL are dropped silently.
func parseListings(doc *goquery.Document) []domain.Listing {
	var listings []domain.Listing

	doc.Find(itemSelector).Each(func(_ int, item *goquery.Selection) {
		title := strings.TrimSpace(item.Find(titleSelector).First().Text())

		href, _ := item.Find("a[href]").First().Attr("href")
		if title == "" || !strings.HasPrefix(href, articleURLPrefix) {
			return
		}

		listings = append(listings, domain.Listing{
			URL:         href,
			Title:       title,
			RawPostedAt: extractPostedAt(item),
			RawSource:   extractSource(item),
		})
	})

	return listings
}

func extractPostedAt(item *goquery.Selection) string {
	timeTag := item.Find("time").First()
	if timeTag.Length() == 0 {
		timeTag = item.Find(sourceSelector).First().Find("time").First()
	}
	return strings.TrimSpace(timeTag.Text())
}

// extractSource digs the publisher name out of the source block, skipping
// the numeric comment-count badge that shares the same container.
func extractSource(item *goquery.Selection) string {
	inner := item.Find(sourceSelector).First().Find(sourceInner).First()

	var source string
	inner.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		candidate := strings.TrimSpace(span.Text())
		if candidate == "" || isDigits(candidate) {
			return true
		}
		source = candidate
		return false
	})

	return source
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
