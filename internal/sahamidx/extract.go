package sahamidx

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sahamlab/idxca/internal/normalize"
	"github.com/sahamlab/idxca/internal/types"
)

const cancelledMarker = "Dibatalkan"

// Cell is one <td> of a listing row: its full text and, when the cell wraps
// a link, the link text (instrument codes are rendered as links).
type Cell struct {
	Text     string
	LinkText string
}

// extractFunc turns the cells of one row into a candidate record and the
// primary comparison date for that row.
//
// The record is nil when the row is skipped silently (instrument not in the
// allow-list). The primary date is reported whenever it parsed, even for
// skipped rows, so the orchestrator can still apply its window policy to
// them. A non-nil error means the row is malformed (missing cells, required
// date unparseable) and should be logged and skipped.
type extractFunc func(cells []Cell, allowed map[string]struct{}) (types.Record, time.Time, error)

func extractorFor(cat types.Category) (extractFunc, error) {
	switch cat.Name {
	case types.Rups.Name:
		return extractRups, nil
	case types.Bonus.Name:
		return extractBonus, nil
	case types.Warrant.Name:
		return extractWarrant, nil
	case types.Right.Name:
		return extractRight, nil
	}
	return nil, fmt.Errorf("no extractor for category %q", cat.Name)
}

func collectCells(row *goquery.Selection) []Cell {
	var cells []Cell
	row.ChildrenFiltered("td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, Cell{
			Text:     strings.TrimSpace(td.Text()),
			LinkText: strings.TrimSpace(td.Find("a").First().Text()),
		})
	})
	return cells
}

// cellAt indexes cells with Python-style negative offsets; the page layout
// anchors some columns from the right edge of the table.
func cellAt(cells []Cell, i int) (Cell, error) {
	idx := i
	if idx < 0 {
		idx += len(cells)
	}
	if idx < 0 || idx >= len(cells) {
		return Cell{}, fmt.Errorf("cell %d out of range (row has %d cells)", i, len(cells))
	}
	return cells[idx], nil
}

// requiredDate parses a date cell that must be present for the row to be
// usable at all.
func requiredDate(cells []Cell, i int, field string) (string, time.Time, error) {
	c, err := cellAt(cells, i)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	t, ok := normalize.DateTime(c.Text)
	if !ok {
		return "", time.Time{}, fmt.Errorf("%s: could not parse date %q", field, c.Text)
	}
	return t.Format(types.DateFormat), t, nil
}

// dateValue parses an optional date cell, degrading to absent.
func dateValue(cells []Cell, i int) any {
	c, err := cellAt(cells, i)
	if err != nil {
		return nil
	}
	if v, ok := normalize.Date(c.Text); ok {
		return v
	}
	return nil
}

// numericValue parses an optional numeric cell, degrading to absent.
func numericValue(cells []Cell, i int) any {
	c, err := cellAt(cells, i)
	if err != nil {
		return nil
	}
	if v, ok := normalize.Numeric(c.Text); ok {
		return v
	}
	return nil
}

// symbol reads the instrument code from the designated cell's link text,
// checks its root against the allow-list and appends the market suffix.
// An unknown root returns ok=false with no error: the row is skipped quietly.
func symbol(cells []Cell, i int, allowed map[string]struct{}) (string, bool, error) {
	c, err := cellAt(cells, i)
	if err != nil {
		return "", false, err
	}
	if c.LinkText == "" {
		return "", false, fmt.Errorf("symbol cell %d has no link text", i)
	}
	if _, ok := allowed[types.SymbolRoot(c.LinkText)]; !ok {
		return "", false, nil
	}
	return c.LinkText + types.SymbolSuffix, true, nil
}

func extractRups(cells []Cell, allowed map[string]struct{}) (types.Record, time.Time, error) {
	recordingStr, recording, err := requiredDate(cells, -2, "recording_date")
	if err != nil {
		return nil, time.Time{}, err
	}

	rupsDate, _, err := requiredDate(cells, 3, "rups_date")
	if err != nil {
		return nil, recording, err
	}

	sym, ok, err := symbol(cells, 1, allowed)
	if err != nil {
		return nil, recording, err
	}
	if !ok {
		return nil, recording, nil
	}

	rec := types.Record{
		"symbol":         sym,
		"recording_date": recordingStr,
		"rups_date":      rupsDate,
	}

	// A cancelled meeting carries a short marker note instead of a venue.
	if place, cerr := cellAt(cells, -3); cerr == nil && strings.Contains(place.Text, cancelledMarker) {
		note := place.Text
		if len(note) > 10 {
			note = note[:10]
		}
		rec["rups_place_ket"] = note
	}

	return rec, recording, nil
}

func extractBonus(cells []Cell, allowed map[string]struct{}) (types.Record, time.Time, error) {
	recordingStr, recording, err := requiredDate(cells, -3, "recording_date")
	if err != nil {
		return nil, time.Time{}, err
	}

	cumDate, _, err := requiredDate(cells, 5, "cum_date")
	if err != nil {
		return nil, recording, err
	}
	exDate, _, err := requiredDate(cells, 6, "ex_date")
	if err != nil {
		return nil, recording, err
	}
	paymentDate, _, err := requiredDate(cells, -2, "payment_date")
	if err != nil {
		return nil, recording, err
	}

	sym, ok, err := symbol(cells, 1, allowed)
	if err != nil {
		return nil, recording, err
	}
	if !ok {
		return nil, recording, nil
	}

	return types.Record{
		"symbol":         sym,
		"old_ratio":      numericValue(cells, 3),
		"new_ratio":      numericValue(cells, 4),
		"cum_date":       cumDate,
		"ex_date":        exDate,
		"payment_date":   paymentDate,
		"recording_date": recordingStr,
	}, recording, nil
}

func extractWarrant(cells []Cell, allowed map[string]struct{}) (types.Record, time.Time, error) {
	tradingStartStr, tradingStart, err := requiredDate(cells, 6, "trading_period_start")
	if err != nil {
		return nil, time.Time{}, err
	}

	sym, ok, err := symbol(cells, 1, allowed)
	if err != nil {
		return nil, tradingStart, err
	}
	if !ok {
		return nil, tradingStart, nil
	}

	return types.Record{
		"symbol":               sym,
		"old_ratio":            numericValue(cells, 3),
		"new_ratio":            numericValue(cells, 4),
		"price":                numericValue(cells, 5),
		"ex_per_start":         dateValue(cells, -4),
		"ex_per_end":           dateValue(cells, -3),
		"maturity_date":        dateValue(cells, -2),
		"ex_date_tunai":        dateValue(cells, -5),
		"trading_period_start": tradingStartStr,
		"trading_period_end":   dateValue(cells, 7),
	}, tradingStart, nil
}

func extractRight(cells []Cell, allowed map[string]struct{}) (types.Record, time.Time, error) {
	recordingStr, recording, err := requiredDate(cells, -5, "recording_date")
	if err != nil {
		return nil, time.Time{}, err
	}

	cumDate, _, err := requiredDate(cells, 6, "cum_date")
	if err != nil {
		return nil, recording, err
	}
	exDate, _, err := requiredDate(cells, 7, "ex_date")
	if err != nil {
		return nil, recording, err
	}
	tradingStart, _, err := requiredDate(cells, -4, "trading_period_start")
	if err != nil {
		return nil, recording, err
	}
	tradingEnd, _, err := requiredDate(cells, -3, "trading_period_end")
	if err != nil {
		return nil, recording, err
	}
	subscriptionDate, _, err := requiredDate(cells, -2, "subscription_date")
	if err != nil {
		return nil, recording, err
	}

	sym, ok, err := symbol(cells, 1, allowed)
	if err != nil {
		return nil, recording, err
	}
	if !ok {
		return nil, recording, nil
	}

	return types.Record{
		"symbol":               sym,
		"old_ratio":            numericValue(cells, 3),
		"new_ratio":            numericValue(cells, 4),
		"price":                numericValue(cells, 5),
		"cum_date":             cumDate,
		"ex_date":              exDate,
		"trading_period_start": tradingStart,
		"trading_period_end":   tradingEnd,
		"subscription_date":    subscriptionDate,
		"recording_date":       recordingStr,
	}, recording, nil
}
