package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the ETL run.
type Metrics struct {
	Registry            *prometheus.Registry
	PagesFetchedTotal   prometheus.Counter
	FetchDuration       prometheus.Histogram
	FetchErrorsTotal    *prometheus.CounterVec
	ItemsExtractedTotal prometheus.Counter
	RecordsDroppedTotal *prometheus.CounterVec
	SinkFailuresTotal   *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pagesFetched := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pages_fetched_total",
			Help: "Total catalog pages fetched successfully.",
		},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_fetch_duration_seconds",
			Help:    "HTTP fetch latency per catalog page.",
			Buckets: prometheus.DefBuckets,
		},
	)
	fetchErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_fetch_errors_total",
			Help: "Total fetch failures by category.",
		},
		[]string{"category"},
	)
	itemsExtracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_items_extracted_total",
			Help: "Total item cards extracted from catalog pages.",
		},
	)
	recordsDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_records_dropped_total",
			Help: "Total records removed during the cleaning pass by reason.",
		},
		[]string{"reason"},
	)
	sinkFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_sink_failures_total",
			Help: "Total persistence failures by sink.",
		},
		[]string{"sink"},
	)

	registry.MustRegister(pagesFetched, fetchDuration, fetchErrors, itemsExtracted, recordsDropped, sinkFailures)

	return &Metrics{
		Registry:            registry,
		PagesFetchedTotal:   pagesFetched,
		FetchDuration:       fetchDuration,
		FetchErrorsTotal:    fetchErrors,
		ItemsExtractedTotal: itemsExtracted,
		RecordsDroppedTotal: recordsDropped,
		SinkFailuresTotal:   sinkFailures,
	}
}

// IncPageFetched increments the fetched pages counter.
func (m *Metrics) IncPageFetched() {
	if m == nil {
		return
	}
	m.PagesFetchedTotal.Inc()
}

// ObserveFetchDuration records one page fetch duration.
func (m *Metrics) ObserveFetchDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncFetchError increments the fetch error counter for a category label.
func (m *Metrics) IncFetchError(category string) {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.WithLabelValues(category).Inc()
}

// AddItemsExtracted adds to the extracted items counter.
func (m *Metrics) AddItemsExtracted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ItemsExtractedTotal.Add(float64(n))
}

// AddRecordsDropped adds to the dropped records counter for a reason label.
func (m *Metrics) AddRecordsDropped(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsDroppedTotal.WithLabelValues(reason).Add(float64(n))
}

// IncSinkFailure increments the sink failure counter for a sink label.
func (m *Metrics) IncSinkFailure(sink string) {
	if m == nil {
		return
	}
	m.SinkFailuresTotal.WithLabelValues(sink).Inc()
}
