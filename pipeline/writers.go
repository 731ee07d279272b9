package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aprilianr/go-scrape-fashion/models"
)

// Column order of the clean table, shared by every sink.
var columns = []string{"Title", "Rating", "Colors", "Size", "Gender", "Price_in_dolar", "Price_in_rupiah", "Timestamp"}

// CSVSink writes the clean table to a delimited file under a directory.
type CSVSink struct {
	Filename  string
	Directory string
}

// NewCSVSink builds the flat-file sink.
func NewCSVSink(filename, directory string) *CSVSink {
	return &CSVSink{Filename: filename, Directory: directory}
}

func (s *CSVSink) Name() string { return "csv" }

// Persist writes the header row and one row per record.
func (s *CSVSink) Persist(_ context.Context, records []models.CleanProduct) error {
	if s.Directory != "" {
		if err := os.MkdirAll(s.Directory, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", s.Directory, err)
		}
	}

	path := filepath.Join(s.Directory, s.Filename)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(columns); err != nil {
		f.Close()
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range records {
		if err := writer.Write(csvRow(r)); err != nil {
			f.Close()
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush csv records: %w", err)
	}
	return f.Close()
}

func csvRow(r models.CleanProduct) []string {
	rating := ""
	if r.Rating != nil {
		rating = strconv.FormatFloat(*r.Rating, 'f', -1, 64)
	}
	colors := ""
	if r.Colors != nil {
		colors = strconv.Itoa(*r.Colors)
	}
	timestamp := ""
	if r.Timestamp != nil {
		timestamp = r.Timestamp.Format(time.RFC3339)
	}
	return []string{
		r.Title,
		rating,
		colors,
		r.Size,
		r.Gender,
		strconv.FormatFloat(r.PriceDollar, 'f', -1, 64),
		strconv.FormatFloat(r.PriceRupiah, 'f', -1, 64),
		timestamp,
	}
}
