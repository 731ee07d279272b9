// Package scraper implements the extraction half of the ETL run: a bounded
// page fetcher, the item-card extractor, and the pagination walker that
// drives both.
package scraper

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aprilianr/go-scrape-fashion/config"
	"github.com/gocolly/colly/v2"
)

const captureKey = "capture"

// capture collects the outcome of a single collector request. The collector
// runs in synchronous mode, so there is exactly one writer per request.
type capture struct {
	body   []byte
	status int
}

// Fetcher performs one bounded GET per catalog page. Failures come back as
// a *FetchError value; the walk decides what to do with them.
type Fetcher struct {
	collector *colly.Collector
	headers   http.Header
	metrics   *Metrics
}

// NewFetcher builds a fetcher restricted to the catalog host.
func NewFetcher(cfg *config.Config, metrics *Metrics) (*Fetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	headers := http.Header{}
	headers.Set("User-Agent", cfg.UserAgent)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Language", "en-US,en;q=0.9")

	f := &Fetcher{
		collector: collector,
		headers:   headers,
		metrics:   metrics,
	}

	collector.OnResponse(func(r *colly.Response) {
		if capt, ok := r.Request.Ctx.GetAny(captureKey).(*capture); ok {
			capt.body = r.Body
			capt.status = r.StatusCode
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r == nil || r.Request == nil {
			return
		}
		if capt, ok := r.Request.Ctx.GetAny(captureKey).(*capture); ok {
			capt.status = r.StatusCode
		}
	})

	return f, nil
}

// Fetch issues a single GET for pageURL. On any transport error or
// non-success status it returns a *FetchError carrying the triggering
// condition, after emitting one structured log entry. No retries.
func (f *Fetcher) Fetch(pageURL string) ([]byte, error) {
	capt := &capture{}
	requestCtx := colly.NewContext()
	requestCtx.Put(captureKey, capt)

	start := time.Now()
	err := f.collector.Request(http.MethodGet, pageURL, nil, requestCtx, cloneHeader(f.headers))
	f.metrics.ObserveFetchDuration(time.Since(start))

	if err != nil {
		classified := classifyError(err, capt.status)
		ferr := &FetchError{
			URL:      pageURL,
			Status:   capt.status,
			Category: errorTypeLabel(classified),
			Err:      classified,
		}
		slog.Error("fetch failed",
			slog.String("url", pageURL),
			slog.String("category", ferr.Category),
			slog.Int("status", ferr.Status),
			slog.Any("error", err),
		)
		f.metrics.IncFetchError(ferr.Category)
		return nil, ferr
	}

	if capt.body == nil {
		ferr := &FetchError{
			URL:      pageURL,
			Status:   capt.status,
			Category: "other",
			Err:      fmt.Errorf("empty response"),
		}
		slog.Error("fetch returned no content", slog.String("url", pageURL))
		f.metrics.IncFetchError(ferr.Category)
		return nil, ferr
	}

	f.metrics.IncPageFetched()
	return capt.body, nil
}

func cloneHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		values := make([]string, len(v))
		copy(values, v)
		out[k] = values
	}
	return out
}
