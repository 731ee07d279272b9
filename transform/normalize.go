// Package transform implements the batch cleaning pass that turns raw
// scraped products into typed, deduplicated records.
package transform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aprilianr/go-scrape-fashion/models"
	"github.com/araddon/dateparse"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Sentinel strings the source site uses for "no real value". They are
// scrubbed to null before the completeness check.
var (
	titleSentinels  = []string{"Unknown Product"}
	ratingSentinels = []string{"⭐ Invalid Rating / 5", "Not Rated"}
	priceSentinels  = []string{"Price Unavailable"}
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// BatchStats summarises one cleaning pass.
type BatchStats struct {
	Input      int
	Duplicates int
	Incomplete int
	Output     int
}

// Normalizer runs the cleaning pipeline over a full batch of raw products.
type Normalizer struct {
	ExchangeRate  float64
	DedupeMaxSize int
}

// New builds a normalizer with the given dollar-to-rupiah rate and dedupe
// capacity.
func New(exchangeRate float64, dedupeMaxSize int) *Normalizer {
	if dedupeMaxSize <= 0 {
		dedupeMaxSize = 1
	}
	return &Normalizer{ExchangeRate: exchangeRate, DedupeMaxSize: dedupeMaxSize}
}

// Normalize cleans a batch: structural dedupe, sentinel scrub, strict drop
// of incomplete records, then per-field typing (price split, rating, colors,
// timestamp). The pass is all-or-nothing: any panic inside it discards the
// whole batch and surfaces as the returned error, with no partial output.
func (n *Normalizer) Normalize(records []models.RawProduct) (out []models.CleanProduct, stats BatchStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			stats = BatchStats{}
			err = fmt.Errorf("normalize batch: %v", r)
		}
	}()

	stats.Input = len(records)

	deduped, duplicates, derr := dedupe(records, n.DedupeMaxSize)
	if derr != nil {
		return nil, BatchStats{}, derr
	}
	stats.Duplicates = duplicates

	// A column whose value is nil in every record of the batch is treated
	// as absent from the batch: the scrub, completeness check and typed
	// parse skip it, mirroring per-column presence semantics.
	cols := detectColumns(deduped)

	for _, r := range deduped {
		title := r.Title
		if contains(titleSentinels, title) {
			stats.Incomplete++
			continue
		}

		rating := r.Rating
		if cols.rating {
			rating = scrub(rating, ratingSentinels)
			if rating == nil {
				stats.Incomplete++
				continue
			}
		}

		price := r.Price
		if cols.price {
			price = scrub(price, priceSentinels)
			if price == nil {
				stats.Incomplete++
				continue
			}
		}

		if (cols.colors && r.Colors == nil) ||
			(cols.size && r.Size == nil) ||
			(cols.gender && r.Gender == nil) {
			stats.Incomplete++
			continue
		}

		clean := models.CleanProduct{Title: title}
		if r.Size != nil {
			clean.Size = *r.Size
		}
		if r.Gender != nil {
			clean.Gender = *r.Gender
		}

		if cols.price {
			clean.PriceDollar = parsePrice(*price)
		}
		clean.PriceRupiah = clean.PriceDollar * n.ExchangeRate

		if cols.rating {
			clean.Rating = parseRating(*rating)
		}
		if cols.colors {
			clean.Colors = parseColors(*r.Colors)
		}
		clean.Timestamp = parseTimestamp(r.Timestamp)

		out = append(out, clean)
	}

	stats.Output = len(out)
	return out, stats, nil
}

// dedupe removes structurally identical records, keeping the first
// occurrence in order. The seen-set is a bounded LRU so a pathological
// batch cannot grow it without limit.
func dedupe(records []models.RawProduct, maxSize int) ([]models.RawProduct, int, error) {
	seen, err := lru.New[string, struct{}](maxSize)
	if err != nil {
		return nil, 0, fmt.Errorf("dedupe cache: %w", err)
	}

	out := make([]models.RawProduct, 0, len(records))
	duplicates := 0
	for _, r := range records {
		key := recordKey(r)
		if seen.Contains(key) {
			duplicates++
			continue
		}
		seen.Add(key, struct{}{})
		out = append(out, r)
	}
	return out, duplicates, nil
}

func recordKey(r models.RawProduct) string {
	var b strings.Builder
	b.WriteString(r.Title)
	for _, field := range []*string{r.Price, r.Rating, r.Colors, r.Size, r.Gender} {
		b.WriteByte(0)
		if field == nil {
			b.WriteByte(1)
		} else {
			b.WriteString(*field)
		}
	}
	b.WriteByte(0)
	b.WriteString(r.Timestamp)
	return b.String()
}

type columnSet struct {
	price  bool
	rating bool
	colors bool
	size   bool
	gender bool
}

func detectColumns(records []models.RawProduct) columnSet {
	var cols columnSet
	for _, r := range records {
		cols.price = cols.price || r.Price != nil
		cols.rating = cols.rating || r.Rating != nil
		cols.colors = cols.colors || r.Colors != nil
		cols.size = cols.size || r.Size != nil
		cols.gender = cols.gender || r.Gender != nil
	}
	return cols
}

func scrub(value *string, sentinels []string) *string {
	if value == nil || contains(sentinels, *value) {
		return nil
	}
	return value
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// parsePrice extracts the first numeric substring (integer or decimal) from
// the raw price text. No numeric substring yields 0.
func parsePrice(raw string) float64 {
	match := numberPattern.FindString(raw)
	if match == "" {
		return 0
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return value
}

// parseRating takes the second whitespace token of the raw rating text
// ("⭐ 4.5 / 5" style) when it is a non-negative decimal.
func parseRating(raw string) *float64 {
	tokens := strings.Fields(raw)
	if len(tokens) < 2 || !isNonNegativeDecimal(tokens[1]) {
		return nil
	}
	value, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		return nil
	}
	return &value
}

// parseColors takes the leading whitespace token of the raw colors text
// ("5 Colors" style) when it is a non-negative integer literal.
func parseColors(raw string) *int {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 || !isDigits(tokens[0]) {
		return nil
	}
	value, err := strconv.Atoi(tokens[0])
	if err != nil {
		return nil
	}
	return &value
}

func parseTimestamp(raw string) *time.Time {
	parsed, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil
	}
	return &parsed
}

// isNonNegativeDecimal reports whether s is digits with at most one dot,
// no sign, and at least one digit.
func isNonNegativeDecimal(s string) bool {
	s = strings.Replace(s, ".", "", 1)
	return isDigits(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
