package scraper

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aprilianr/go-scrape-fashion/models"
)

const itemCardSelector = "div.collection-card"

var labelPattern = regexp.MustCompile(`^(Rating|Size|Gender):\s*`)

// ParseDocument parses raw page markup into a queryable document.
func ParseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page markup: %w", err)
	}
	return doc, nil
}

// HasNextPage reports whether the page's navigation control links to
// another page. The anchor is only rendered while more pages exist.
func HasNextPage(doc *goquery.Document) bool {
	return doc.Find("li.next a").Length() > 0
}

// ExtractProducts parses every item card on the page into a RawProduct.
// A card without a title is a defect in the upstream markup and fails the
// whole page's extraction.
func ExtractProducts(doc *goquery.Document) ([]models.RawProduct, error) {
	var products []models.RawProduct
	var defect error

	doc.Find(itemCardSelector).EachWithBreak(func(i int, card *goquery.Selection) bool {
		product, err := extractCard(card, time.Now())
		if err != nil {
			defect = fmt.Errorf("item card %d: %w", i, err)
			return false
		}
		products = append(products, product)
		return true
	})

	if defect != nil {
		return nil, defect
	}
	return products, nil
}

// extractCard reads one item card. The price lives in a dedicated element;
// the remaining descriptive lines carry rating, colors, size and gender.
// Lines with a label prefix are assigned by label, unlabeled lines fill the
// remaining slots in order.
func extractCard(card *goquery.Selection, capturedAt time.Time) (models.RawProduct, error) {
	title := strings.TrimSpace(card.Find("h3").First().Text())
	if title == "" {
		return models.RawProduct{}, fmt.Errorf("missing title")
	}

	var price *string
	if sel := card.Find("span.price"); sel.Length() > 0 {
		text := strings.TrimSpace(sel.First().Text())
		price = &text
	}

	type line struct {
		label string
		value string
	}
	var lines []line
	card.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		label := ""
		if m := labelPattern.FindStringSubmatch(text); m != nil {
			label = m[1]
		}
		lines = append(lines, line{label: label, value: labelPattern.ReplaceAllString(text, "")})
	})

	// Without a price element the first descriptive line is the price
	// placeholder, not product data.
	if price == nil && len(lines) > 0 {
		lines = lines[1:]
	}

	slots := map[string]**string{}
	var rating, colors, size, gender *string
	slots["Rating"] = &rating
	slots["Size"] = &size
	slots["Gender"] = &gender

	positional := []**string{&rating, &colors, &size, &gender}
	for _, l := range lines {
		value := l.value
		if l.label != "" {
			if slot := slots[l.label]; *slot == nil {
				*slot = &value
				continue
			}
		}
		for _, slot := range positional {
			if *slot == nil {
				*slot = &value
				break
			}
		}
	}

	return models.RawProduct{
		Title:     title,
		Price:     price,
		Rating:    rating,
		Colors:    colors,
		Size:      size,
		Gender:    gender,
		Timestamp: capturedAt.Format(models.TimestampLayout),
	}, nil
}
