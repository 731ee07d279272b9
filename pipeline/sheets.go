package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/aprilianr/go-scrape-fashion/models"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSink uploads the clean table into a Google Sheets range using a
// service-account credentials file.
type SheetsSink struct {
	SpreadsheetID   string
	CredentialsPath string
	Range           string
}

// NewSheetsSink builds the spreadsheet sink.
func NewSheetsSink(spreadsheetID, credentialsPath, rangeSpec string) *SheetsSink {
	return &SheetsSink{
		SpreadsheetID:   spreadsheetID,
		CredentialsPath: credentialsPath,
		Range:           rangeSpec,
	}
}

func (s *SheetsSink) Name() string { return "spreadsheet" }

// Persist writes every record into the configured range with RAW input.
// Cell values must be JSON-serializable, so datetimes go up as text.
func (s *SheetsSink) Persist(ctx context.Context, records []models.CleanProduct) error {
	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(s.CredentialsPath),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return fmt.Errorf("create sheets service: %w", err)
	}

	body := &sheets.ValueRange{Values: sheetRows(records)}
	_, err = service.Spreadsheets.Values.
		Update(s.SpreadsheetID, s.Range, body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update spreadsheet values: %w", err)
	}
	return nil
}

func sheetRows(records []models.CleanProduct) [][]interface{} {
	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		var rating interface{}
		if r.Rating != nil {
			rating = *r.Rating
		}
		var colors interface{}
		if r.Colors != nil {
			colors = *r.Colors
		}
		var timestamp interface{}
		if r.Timestamp != nil {
			timestamp = r.Timestamp.Format(time.RFC3339)
		}
		rows = append(rows, []interface{}{
			r.Title,
			rating,
			colors,
			r.Size,
			r.Gender,
			r.PriceDollar,
			r.PriceRupiah,
			timestamp,
		})
	}
	return rows
}
