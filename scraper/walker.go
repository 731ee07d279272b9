package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aprilianr/go-scrape-fashion/models"
)

// Walker drives the fetcher and extractor across catalog pages. The walk is
// strictly sequential: one page completes before the next URL is computed.
type Walker struct {
	fetcher *Fetcher
	metrics *Metrics
}

// NewWalker builds a walker over the given fetcher.
func NewWalker(fetcher *Fetcher, metrics *Metrics) *Walker {
	return &Walker{fetcher: fetcher, metrics: metrics}
}

// Walk fetches the base URL, then follows the numbered pagination template
// from startPage until the navigation control disappears, sleeping delay
// between pages. Continuation is decided from the just-fetched page's
// markup, not from whether it held any item cards: a page with zero cards
// but a next link keeps the walk going. A fetch failure on a numbered page
// leaves no markup to inspect, so the walk stops there; a failure on the
// base URL only skips that page's extraction. The accumulated records are
// returned regardless of how many pages failed.
func (w *Walker) Walk(ctx context.Context, baseURL, paginationURL string, startPage int, delay time.Duration) ([]models.RawProduct, models.WalkReport) {
	var records []models.RawProduct
	var report models.WalkReport

	slog.Info("starting walk", slog.String("base_url", baseURL), slog.Int("start_page", startPage))

	body, err := w.fetcher.Fetch(baseURL)
	if err != nil {
		report.ErrorCount++
		report.FailedURLs = append(report.FailedURLs, baseURL)
	} else {
		report.PageCount++
		records = append(records, w.extractPage(body, baseURL)...)
	}

	page := startPage
	for ctx.Err() == nil {
		pageURL := fmt.Sprintf(paginationURL, page)
		slog.Info("walking page", slog.Int("page", page), slog.String("url", pageURL))

		body, err := w.fetcher.Fetch(pageURL)
		if err != nil {
			report.ErrorCount++
			report.FailedURLs = append(report.FailedURLs, pageURL)
			break
		}
		report.PageCount++

		doc, perr := ParseDocument(body)
		if perr != nil {
			slog.Error("unreadable page markup", slog.String("url", pageURL), slog.Any("error", perr))
			report.ErrorCount++
			report.FailedURLs = append(report.FailedURLs, pageURL)
			break
		}

		records = append(records, w.extractDocument(doc, pageURL)...)

		if !HasNextPage(doc) {
			slog.Info("no more pages to walk", slog.Int("last_page", page))
			break
		}
		page++
		if !sleepContext(ctx, delay) {
			break
		}
	}

	w.metrics.AddItemsExtracted(len(records))
	return records, report
}

// extractPage parses and extracts one page. Used for the base URL, where a
// parse failure only costs that page's records.
func (w *Walker) extractPage(body []byte, pageURL string) []models.RawProduct {
	doc, err := ParseDocument(body)
	if err != nil {
		slog.Error("unreadable page markup", slog.String("url", pageURL), slog.Any("error", err))
		return nil
	}
	return w.extractDocument(doc, pageURL)
}

// extractDocument runs extraction behind a failure boundary: a defective
// page loses only its own records, never the ones already collected.
func (w *Walker) extractDocument(doc *goquery.Document, pageURL string) []models.RawProduct {
	records, err := extractSafe(doc)
	if err != nil {
		slog.Error("page extraction failed", slog.String("url", pageURL), slog.Any("error", err))
		return nil
	}
	return records
}

func extractSafe(doc *goquery.Document) (records []models.RawProduct, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extraction panic: %v", r)
		}
	}()
	return ExtractProducts(doc)
}

// sleepContext waits for d or until ctx is done, reporting whether the full
// delay elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
