package pipeline

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aprilianr/go-scrape-fashion/models"
	_ "modernc.org/sqlite"
)

const productsTable = "fashionproducts"

const createProductsTable = `CREATE TABLE IF NOT EXISTS ` + productsTable + ` (
	Title TEXT NOT NULL,
	Rating REAL,
	Colors INTEGER,
	Size TEXT,
	Gender TEXT,
	Price_in_dolar REAL,
	Price_in_rupiah REAL,
	Timestamp TIMESTAMP
)`

// SQLSink appends the clean table into a fixed relational table.
type SQLSink struct {
	ConnectionURL string
}

// NewSQLSink builds the relational sink for the given DSN.
func NewSQLSink(connectionURL string) *SQLSink {
	return &SQLSink{ConnectionURL: connectionURL}
}

func (s *SQLSink) Name() string { return "sql" }

// Persist appends every record, creating the table on first use. The whole
// batch goes in one transaction.
func (s *SQLSink) Persist(ctx context.Context, records []models.CleanProduct) error {
	db, err := sql.Open("sqlite", s.ConnectionURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createProductsTable); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+productsTable+
		` (Title, Rating, Colors, Size, Gender, Price_in_dolar, Price_in_rupiah, Timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Title, r.Rating, r.Colors, r.Size, r.Gender,
			r.PriceDollar, r.PriceRupiah, r.Timestamp,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert record %q: %w", r.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
