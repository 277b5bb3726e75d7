/*
Package syncer collapses duplicate candidate records by their natural key and
upserts the resulting batch into the category's target relation.
*/
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sahamlab/idxca/internal/types"
)

// Upserter is the slice of the store the sync engine needs.
type Upserter interface {
	Upsert(ctx context.Context, relation string, columns, keyColumns []string, records []types.Record) (int64, error)
}

// Dedup removes records sharing a natural key, keeping the first occurrence.
// Pagination is newest-first, so first means most recently scraped. The
// operation is idempotent.
func Dedup(records []types.Record, keyColumns []string) []types.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]types.Record, 0, len(records))
	for _, rec := range records {
		k := naturalKey(rec, keyColumns)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// Sync deduplicates a scraped batch and upserts it into the category's
// relation. Absent fields are materialized as explicit nulls so the store
// never sees a sentinel string. An empty batch skips the store call entirely.
// A store failure is wrapped and returned; there is no retry.
func Sync(ctx context.Context, up Upserter, cat types.Category, records []types.Record, logger *slog.Logger) (int64, error) {
	records = Dedup(records, cat.KeyColumns)

	for _, rec := range records {
		for _, col := range cat.Columns {
			if _, ok := rec[col]; !ok {
				rec[col] = nil
			}
		}
	}

	if len(records) == 0 {
		logger.Info("no records to upsert", "relation", cat.Relation)
		return 0, nil
	}

	affected, err := up.Upsert(ctx, cat.Relation, cat.Columns, cat.KeyColumns, records)
	if err != nil {
		return affected, fmt.Errorf("failed to sync %s records: %w", cat.Name, err)
	}

	logger.Info("upserted records",
		"relation", cat.Relation,
		"batch", len(records),
		"affected", affected)

	return affected, nil
}

func naturalKey(rec types.Record, keyColumns []string) string {
	parts := make([]string, 0, len(keyColumns))
	for _, col := range keyColumns {
		parts = append(parts, fmt.Sprintf("%v", rec[col]))
	}
	return strings.Join(parts, "\x1f")
}
