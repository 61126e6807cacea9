// Package extract reads expert identities from ranking listing pages.
package extract

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ffbrank/ffbrank/internal/domain/model"
)

// Selectors for the listing markup. A row qualifies only when it holds the
// selectable-expert checkbox.
const (
	rowSelector    = "tr"
	markerSelector = "input.expert"
)

// Result is the outcome of one listing page.
type Result struct {
	Experts []model.ExpertIdentity
	// Skipped counts qualifying rows that were malformed.
	Skipped int
}

// Extract walks the listing rows of doc in document order. Rows without
// the marker are ignored silently; rows with the marker but missing a
// name, site or numeric id are skipped and counted. A nil doc yields an
// empty result.
func Extract(doc *goquery.Document, observedAt time.Time) Result {
	res := Result{Experts: []model.ExpertIdentity{}}
	if doc == nil {
		return res
	}
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		marker := row.Find(markerSelector).First()
		if marker.Length() == 0 {
			return
		}
		e, err := parseRow(row, marker)
		if err != nil {
			res.Skipped++
			return
		}
		e.ObservedAt = observedAt
		res.Experts = append(res.Experts, e)
	})
	return res
}

// ExtractReader parses an HTML document from r and extracts it.
func ExtractReader(r io.Reader, observedAt time.Time) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("parse listing: %w", err)
	}
	return Extract(doc, observedAt), nil
}

func parseRow(row, marker *goquery.Selection) (model.ExpertIdentity, error) {
	links := row.Find("a")
	if links.Length() < 2 {
		return model.ExpertIdentity{}, fmt.Errorf("row has %d links, want name and site", links.Length())
	}
	name := strings.TrimSpace(links.Eq(0).Text())
	site := strings.TrimSpace(links.Eq(1).Text())
	if name == "" {
		return model.ExpertIdentity{}, fmt.Errorf("row without expert name")
	}

	value, ok := marker.Attr("value")
	if !ok {
		return model.ExpertIdentity{}, fmt.Errorf("marker without value")
	}
	id, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || id < 0 {
		return model.ExpertIdentity{}, fmt.Errorf("bad expert id %q", value)
	}

	updated := ""
	if cells := row.Find("td"); cells.Length() > 0 {
		updated = strings.TrimSpace(cells.Last().Text())
	}

	return model.ExpertIdentity{
		ExpertID:   id,
		ExpertName: name,
		Site:       site,
		Included:   isChecked(marker),
		Updated:    updated,
	}, nil
}

// isChecked accepts the boolean attribute form and checked="checked".
func isChecked(marker *goquery.Selection) bool {
	v, ok := marker.Attr("checked")
	if !ok {
		return false
	}
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "checked")
}
