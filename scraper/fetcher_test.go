package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/aprilianr/go-scrape-fashion/config"
	"github.com/jarcoal/httpmock"
)

func newTestFetcher(t *testing.T, transport http.RoundTripper) *Fetcher {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://example.test/"
	cfg.PaginationURL = "http://example.test/page%d"

	f, err := NewFetcher(cfg, NewMetrics())
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	f.collector.WithTransport(transport)
	return f
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func TestFetcherSuccess(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.test/", htmlResponder("<html><body>ok</body></html>"))

	f := newTestFetcher(t, transport)
	body, err := f.Fetch("http://example.test/")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(body) == 0 {
		t.Fatalf("expected page content")
	}
}

func TestFetcherStatusClassification(t *testing.T) {
	tests := []struct {
		status   int
		category string
	}{
		{status: http.StatusNotFound, category: "not_found"},
		{status: http.StatusForbidden, category: "forbidden"},
		{status: http.StatusTooManyRequests, category: "rate_limited"},
		{status: http.StatusInternalServerError, category: "other"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("GET", "http://example.test/",
				httpmock.NewStringResponder(tt.status, ""))

			f := newTestFetcher(t, transport)
			body, err := f.Fetch("http://example.test/")
			if body != nil {
				t.Fatalf("expected no content for status %d", tt.status)
			}

			var ferr *FetchError
			if !errors.As(err, &ferr) {
				t.Fatalf("error = %T, want *FetchError", err)
			}
			if ferr.Status != tt.status {
				t.Errorf("status = %d, want %d", ferr.Status, tt.status)
			}
			if ferr.Category != tt.category {
				t.Errorf("category = %q, want %q", ferr.Category, tt.category)
			}
		})
	}
}

func TestFetcherConnectionFailure(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.test/",
		httpmock.NewErrorResponder(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}))

	f := newTestFetcher(t, transport)
	_, err := f.Fetch("http://example.test/")

	var ferr *FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("error = %T, want *FetchError", err)
	}
	if ferr.Category != "connection" {
		t.Errorf("category = %q, want connection", ferr.Category)
	}
}

func TestFetcherDisallowedDomain(t *testing.T) {
	transport := httpmock.NewMockTransport()
	f := newTestFetcher(t, transport)

	if _, err := f.Fetch("http://other.test/"); err == nil {
		t.Fatalf("expected failure for URL outside the catalog host")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeLabel(classifyError(tt.err, tt.statusCode)); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}
