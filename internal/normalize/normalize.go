/*
Package normalize converts raw text cells from sahamidx listing pages into
typed values. The site's formatting is inconsistent across categories and over
time, so every conversion degrades to "field unknown" instead of failing.
*/
package normalize

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sahamlab/idxca/internal/types"
)

// siteDateFormat is the day-month-year format used on sahamidx listing pages,
// e.g. "05-Jun-2025".
const siteDateFormat = "02-Jan-2006"

// Date converts site date text to the store's YYYY-MM-DD format. Empty or
// malformed input reports absent, never an error.
func Date(text string) (string, bool) {
	t, ok := DateTime(text)
	if !ok {
		return "", false
	}
	return t.Format(types.DateFormat), true
}

// DateTime parses site date text into a time value for window comparisons.
func DateTime(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(siteDateFormat, text)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Numeric strips thousands separators and whitespace and parses the residue
// as a float. Empty input is absent; non-numeric residue logs a warning and
// is absent.
func Numeric(text string) (float64, bool) {
	cleaned := strings.ReplaceAll(text, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		slog.Warn("could not convert value to float", "value", text)
		return 0, false
	}
	return v, true
}
