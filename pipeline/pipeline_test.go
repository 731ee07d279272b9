package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aprilianr/go-scrape-fashion/config"
	"github.com/aprilianr/go-scrape-fashion/models"
	"github.com/aprilianr/go-scrape-fashion/scraper"
	"github.com/aprilianr/go-scrape-fashion/transform"
)

type stubSource struct {
	records []models.RawProduct
	report  models.WalkReport
}

func (s *stubSource) Walk(_ context.Context, _, _ string, _ int, _ time.Duration) ([]models.RawProduct, models.WalkReport) {
	return s.records, s.report
}

type stubSink struct {
	name    string
	err     error
	calls   int
	lastLen int
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Persist(_ context.Context, records []models.CleanProduct) error {
	s.calls++
	s.lastLen = len(records)
	return s.err
}

type failingNormalizer struct{}

func (failingNormalizer) Normalize([]models.RawProduct) ([]models.CleanProduct, transform.BatchStats, error) {
	return nil, transform.BatchStats{}, errors.New("normalize batch: boom")
}

func strPtr(s string) *string { return &s }

func testRaw(title string) models.RawProduct {
	return models.RawProduct{
		Title:     title,
		Price:     strPtr("$10.00"),
		Rating:    strPtr("⭐ 4.0 / 5"),
		Colors:    strPtr("3 Colors"),
		Size:      strPtr("M"),
		Gender:    strPtr("Men"),
		Timestamp: "2024-01-01 10:00:00.000",
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.OutputFile = "out.csv"
	return cfg
}

func TestPipelineRun(t *testing.T) {
	source := &stubSource{
		records: []models.RawProduct{testRaw("Cool Jacket"), testRaw("Denim Pants")},
		report:  models.WalkReport{PageCount: 2},
	}
	sink := &stubSink{name: "csv"}

	p := New(source, transform.New(16000, 1000), []Sink{sink}, scraper.NewMetrics(), testConfig())
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.RawCount != 2 || result.CleanCount != 2 {
		t.Errorf("counts = %d raw / %d clean, want 2/2", result.RawCount, result.CleanCount)
	}
	if result.PageCount != 2 {
		t.Errorf("pages = %d, want 2", result.PageCount)
	}
	if sink.calls != 1 || sink.lastLen != 2 {
		t.Errorf("sink calls=%d len=%d, want 1/2", sink.calls, sink.lastLen)
	}
}

func TestPipelineSinkFailureDoesNotAbortOthers(t *testing.T) {
	source := &stubSource{records: []models.RawProduct{testRaw("Cool Jacket")}}
	failing := &stubSink{name: "spreadsheet", err: errors.New("quota exceeded")}
	healthy := &stubSink{name: "csv"}

	p := New(source, transform.New(16000, 1000), []Sink{failing, healthy}, scraper.NewMetrics(), testConfig())
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run should not fail on a sink error: %v", err)
	}

	if healthy.calls != 1 {
		t.Errorf("healthy sink was not attempted after the failure")
	}
	if len(result.SinkFailures) != 1 || result.SinkFailures[0] != "spreadsheet" {
		t.Errorf("sink failures = %v", result.SinkFailures)
	}
}

func TestPipelineNormalizationFailureDiscardsBatch(t *testing.T) {
	source := &stubSource{records: []models.RawProduct{testRaw("Cool Jacket")}}
	sink := &stubSink{name: "csv"}

	p := New(source, failingNormalizer{}, []Sink{sink}, scraper.NewMetrics(), testConfig())
	result, err := p.Run(context.Background())
	if err == nil {
		t.Fatalf("expected the batch failure to surface")
	}
	if sink.calls != 0 {
		t.Errorf("no sink should run after a batch failure")
	}
	if result.CleanCount != 0 {
		t.Errorf("clean count = %d, want 0", result.CleanCount)
	}
}

func TestPipelineEmptyWalk(t *testing.T) {
	source := &stubSource{report: models.WalkReport{ErrorCount: 1, FailedURLs: []string{"http://example.test/"}}}
	sink := &stubSink{name: "csv"}

	p := New(source, transform.New(16000, 1000), []Sink{sink}, scraper.NewMetrics(), testConfig())
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.RawCount != 0 || result.CleanCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", result.RawCount, result.CleanCount)
	}
	if sink.calls != 1 || sink.lastLen != 0 {
		t.Errorf("sinks still receive the (empty) table: calls=%d len=%d", sink.calls, sink.lastLen)
	}
}
