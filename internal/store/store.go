/*
Package store is the Postgres client for corporate-action relations: the
instrument allow-list query and batched upserts keyed by each relation's
natural key.
*/
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sahamlab/idxca/internal/types"
)

const profileRelation = "idx_company_profile"

// DB wraps a connection pool. A handle is constructed per run and passed to
// every component that needs the store; there is no process-wide client.
type DB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (db *DB) Close() {
	db.pool.Close()
}

// AllowedSymbols returns the set of known instrument roots from the company
// profile relation. Scraping must not proceed without it, so any failure here
// is returned as-is for the caller to abort on.
func (db *DB) AllowedSymbols(ctx context.Context) (map[string]struct{}, error) {
	rows, err := db.pool.Query(ctx, fmt.Sprintf(`SELECT symbol FROM %s`, profileRelation))
	if err != nil {
		return nil, fmt.Errorf("failed to query allowed symbols: %w", err)
	}
	defer rows.Close()

	allowed := make(map[string]struct{})
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("failed to scan symbol row: %w", err)
		}
		allowed[types.SymbolRoot(sym)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read allowed symbols: %w", err)
	}

	db.logger.Info("fetched allowed symbols", "count", len(allowed))
	return allowed, nil
}

// Upsert writes one batch of records into a relation with insert-or-update
// semantics on the key columns. It returns the number of affected rows.
// Relation and column names come from static category metadata, never from
// user input.
func (db *DB) Upsert(ctx context.Context, relation string, columns, keyColumns []string, records []types.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	sql := buildUpsertSQL(relation, columns, keyColumns)

	b := &pgx.Batch{}
	for _, rec := range records {
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = rec[col]
		}
		b.Queue(sql, args...)
	}

	br := db.pool.SendBatch(ctx, b)
	var affected int64
	for range records {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return affected, fmt.Errorf("upsert into %s failed: %w", relation, err)
		}
		affected += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return affected, fmt.Errorf("failed to close upsert batch for %s: %w", relation, err)
	}

	return affected, nil
}

// Insert writes a single record without conflict handling.
func (db *DB) Insert(ctx context.Context, relation string, columns []string, rec types.Record) error {
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = rec[col]
	}

	sql := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)`,
		relation,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := db.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert into %s failed: %w", relation, err)
	}
	return nil
}

// Select returns all rows of a relation as generic records.
func (db *DB) Select(ctx context.Context, relation string) ([]types.Record, error) {
	rows, err := db.pool.Query(ctx, fmt.Sprintf(`SELECT * FROM %s`, relation))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", relation, err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", relation, err)
	}

	records := make([]types.Record, 0, len(maps))
	for _, m := range maps {
		records = append(records, types.Record(m))
	}
	return records, nil
}

func buildUpsertSQL(relation string, columns, keyColumns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	keys := make(map[string]struct{}, len(keyColumns))
	for _, k := range keyColumns {
		keys[k] = struct{}{}
	}
	var updates []string
	for _, col := range columns {
		if _, isKey := keys[col]; isKey {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	conflict := fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", strings.Join(keyColumns, ", "))
	if len(updates) > 0 {
		conflict = fmt.Sprintf(
			"ON CONFLICT (%s) DO UPDATE SET %s",
			strings.Join(keyColumns, ", "),
			strings.Join(updates, ", "),
		)
	}

	return fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) %s`,
		relation,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		conflict,
	)
}
