package pipeline

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestSQLSinkPersist(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "run.db")
	sink := NewSQLSink(dsn)

	if err := sink.Persist(context.Background(), cleanFixture()); err != nil {
		t.Fatalf("persist: %v", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM fashionproducts`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 2 {
		t.Fatalf("rows=%d, want 2", count)
	}

	var title string
	var rating sql.NullFloat64
	var colors sql.NullInt64
	var priceDollar, priceRupiah float64
	err = db.QueryRow(`SELECT Title, Rating, Colors, Price_in_dolar, Price_in_rupiah
		FROM fashionproducts WHERE Title = 'Cool Jacket'`).
		Scan(&title, &rating, &colors, &priceDollar, &priceRupiah)
	if err != nil {
		t.Fatalf("select row: %v", err)
	}
	if !rating.Valid || rating.Float64 != 4.5 {
		t.Errorf("Rating = %v", rating)
	}
	if !colors.Valid || colors.Int64 != 5 {
		t.Errorf("Colors = %v", colors)
	}
	if priceDollar != 100 || priceRupiah != 1600000 {
		t.Errorf("prices = %v / %v", priceDollar, priceRupiah)
	}

	err = db.QueryRow(`SELECT Rating FROM fashionproducts WHERE Title = 'Odd Product'`).Scan(&rating)
	if err != nil {
		t.Fatalf("select null row: %v", err)
	}
	if rating.Valid {
		t.Errorf("Rating should be NULL for the unrated record")
	}
}

func TestSQLSinkAppends(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "run.db")
	sink := NewSQLSink(dsn)

	if err := sink.Persist(context.Background(), cleanFixture()); err != nil {
		t.Fatalf("first persist: %v", err)
	}
	if err := sink.Persist(context.Background(), cleanFixture()); err != nil {
		t.Fatalf("second persist: %v", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM fashionproducts`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 4 {
		t.Fatalf("rows=%d, want 4 (append, not replace)", count)
	}
}
