/*
Package notify renders and emails a digest of the records synced by a
scraping run.
*/
package notify

import (
	"fmt"

	"github.com/sahamlab/idxca/internal/ai"
	"github.com/sahamlab/idxca/internal/types"
)

// Digest carries everything the renderer needs for one run's email.
type Digest struct {
	Category   types.Category
	RunDate    string
	Cutoff     string
	Affected   int64
	Records    []types.Record
	Commentary *ai.Commentary
}

// DigestRow is one record flattened into displayable fields in column order.
type DigestRow struct {
	Symbol string
	Fields []DigestField
}

type DigestField struct {
	Name  string
	Value string
}

// Rows flattens the digest records for templating. Absent values render
// as "n/a".
func (d Digest) Rows() []DigestRow {
	rows := make([]DigestRow, 0, len(d.Records))
	for _, rec := range d.Records {
		row := DigestRow{}
		for _, col := range d.Category.Columns {
			v := rec[col]
			if col == "symbol" {
				if s, ok := v.(string); ok {
					row.Symbol = s
				}
				continue
			}
			val := "n/a"
			switch t := v.(type) {
			case string:
				val = t
			case float64:
				val = trimFloat(t)
			}
			row.Fields = append(row.Fields, DigestField{Name: col, Value: val})
		}
		rows = append(rows, row)
	}
	return rows
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.4f", f)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
