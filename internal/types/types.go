/*
Package types defines the corporate-action categories scraped from sahamidx.com
and the record shape shared by the scraper, the sync engine and the store.
*/
package types

import (
	"fmt"
	"time"
)

const (
	// DateFormat is the column format used by the store for all date fields.
	DateFormat = "2006-01-02"

	// SymbolSuffix is appended to every scraped instrument code. All records
	// target the Jakarta exchange.
	SymbolSuffix = ".JK"

	symbolRootLen = 4
)

// Record maps a store column to its value. Values are strings (symbol and
// dates in DateFormat), float64 (ratios and prices) or nil, the explicit
// marker for an absent field.
type Record map[string]any

// StopReason describes why a scraping run stopped paginating.
type StopReason string

const (
	StopCutoffReached StopReason = "cutoff-reached"
	StopEmptyPage     StopReason = "empty-page"
	StopFetchError    StopReason = "fetch-error"
	StopExhausted     StopReason = "exhausted"
)

// Category fixes everything that varies per corporate-action kind: the
// sahamidx listing to request, the target relation, the column layout and
// natural key for upserts, and the default cutoff lookback.
type Category struct {
	Name       string
	View       string
	SortField  string
	Relation   string
	Columns    []string
	KeyColumns []string
	// CutoffDays is the lookback applied when the caller supplies no cutoff.
	CutoffDays int
}

var (
	Rups = Category{
		Name:       "rups",
		View:       "Stock.Rups",
		SortField:  "recording_date",
		Relation:   "idx_rups",
		Columns:    []string{"symbol", "recording_date", "rups_date", "rups_place_ket"},
		KeyColumns: []string{"symbol", "recording_date"},
		CutoffDays: 1,
	}

	Bonus = Category{
		Name:       "bonus",
		View:       "Stock.Bonus",
		SortField:  "recording_date",
		Relation:   "idx_ca_bonus",
		Columns:    []string{"symbol", "old_ratio", "new_ratio", "cum_date", "ex_date", "payment_date", "recording_date"},
		KeyColumns: []string{"symbol", "recording_date"},
		CutoffDays: 7,
	}

	Warrant = Category{
		Name:      "warrant",
		View:      "Stock.Warrant",
		SortField: "trading_start",
		Relation:  "idx_warrant",
		Columns: []string{
			"symbol", "old_ratio", "new_ratio", "price",
			"ex_per_start", "ex_per_end", "maturity_date", "ex_date_tunai",
			"trading_period_start", "trading_period_end",
		},
		KeyColumns: []string{"symbol", "trading_period_start"},
		CutoffDays: 7,
	}

	Right = Category{
		Name:      "right",
		View:      "Stock.Rights",
		SortField: "recording_date",
		Relation:  "idx_right_issue",
		Columns: []string{
			"symbol", "old_ratio", "new_ratio", "price",
			"cum_date", "ex_date", "trading_period_start", "trading_period_end",
			"subscription_date", "recording_date",
		},
		KeyColumns: []string{"symbol", "recording_date"},
		CutoffDays: 7,
	}
)

// Categories returns every scrapeable category.
func Categories() []Category {
	return []Category{Rups, Bonus, Warrant, Right}
}

// ParseCategory resolves a category by name. It fails on unknown names so the
// CLI can reject bad input before any network or store call.
func ParseCategory(name string) (Category, error) {
	for _, c := range Categories() {
		if c.Name == name {
			return c, nil
		}
	}
	return Category{}, fmt.Errorf("unknown category %q (expected one of: rups, bonus, warrant, right)", name)
}

// SymbolRoot truncates an instrument identifier to its fixed-length root,
// stripping market suffixes and variants ("BBCA.JK" -> "BBCA").
func SymbolRoot(symbol string) string {
	if len(symbol) > symbolRootLen {
		return symbol[:symbolRootLen]
	}
	return symbol
}

// Result is the standardized outcome of one scraping run.
type Result struct {
	Records    []Record
	Cutoff     time.Time
	StopReason StopReason
	Pages      int
}
