// Package models defines data structures for the ETL run.
package models

import "time"

// TimestampLayout is the capture-time format stamped onto raw products,
// millisecond precision, fixed width.
const TimestampLayout = "2006-01-02 15:04:05.000"

// RawProduct is one item card as scraped, before cleaning. Every field
// except Title and Timestamp is nullable: a nil pointer means the source
// markup had no value for it.
type RawProduct struct {
	Title     string
	Price     *string
	Rating    *string
	Colors    *string
	Size      *string
	Gender    *string
	Timestamp string
}

// CleanProduct is one product after the cleaning pass. The raw Price field
// is gone, replaced by the two derived currency columns. Rating, Colors and
// Timestamp stay nullable: a non-sentinel value that fails its typed parse
// comes through as nil rather than dropping the row.
type CleanProduct struct {
	Title       string     `csv:"Title" json:"Title"`
	Rating      *float64   `csv:"Rating" json:"Rating"`
	Colors      *int       `csv:"Colors" json:"Colors"`
	Size        string     `csv:"Size" json:"Size"`
	Gender      string     `csv:"Gender" json:"Gender"`
	PriceDollar float64    `csv:"Price_in_dolar" json:"Price_in_dolar"`
	PriceRupiah float64    `csv:"Price_in_rupiah" json:"Price_in_rupiah"`
	Timestamp   *time.Time `csv:"Timestamp" json:"Timestamp"`
}

// WalkReport summarises one pagination walk.
type WalkReport struct {
	PageCount  int
	ErrorCount int
	FailedURLs []string
}

// RunResult holds the overall outcome of one ETL run.
type RunResult struct {
	StartTime    time.Time
	EndTime      time.Time
	PageCount    int
	ErrorCount   int
	FailedURLs   []string
	RawCount     int
	CleanCount   int
	Duplicates   int
	Incomplete   int
	SinkFailures []string
}
