package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// FillUpdateConfig defines a bulk fill-only update: target rows are matched
// by key and each listed column is written only where it is currently null
// or empty.
type FillUpdateConfig struct {
	Table   string   // target table
	Key     string   // join column (e.g. "id")
	Columns []string // columns to fill
}

// BulkFillUpdate applies a bounded batch of fill-only updates via a temp
// table:
//  1. creates a temp table with the key and fill columns
//  2. COPYs the batch into it
//  3. UPDATE ... FROM temp guarded by COALESCE/NULLIF so existing values win
//
// Rows must be [key, col1, col2, ...] in the order of cfg.Columns.
func BulkFillUpdate(ctx context.Context, pool Pool, cfg FillUpdateConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if cfg.Key == "" || len(cfg.Columns) == 0 {
		return 0, eris.New("db: fill update: key and columns are required")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: fill update: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tempTable := fmt.Sprintf("_tmp_fill_%s", strings.ReplaceAll(cfg.Table, ".", "_"))
	allCols := append([]string{cfg.Key}, cfg.Columns...)

	// Only the key and fill columns: deriving the temp table from the full
	// target schema would carry its NOT NULL constraints into the COPY.
	colList := make([]string, len(allCols))
	for i, c := range allCols {
		colList[i] = pgx.Identifier{c}.Sanitize()
	}
	createSQL := fmt.Sprintf(
		"CREATE TEMP TABLE %s ON COMMIT DROP AS SELECT %s FROM %s WITH NO DATA",
		pgx.Identifier{tempTable}.Sanitize(),
		strings.Join(colList, ", "),
		sanitizeTable(cfg.Table),
	)
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return 0, eris.Wrapf(err, "db: fill update: create temp table for %s", cfg.Table)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{tempTable}, allCols, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: fill update: COPY into temp table for %s", cfg.Table)
	}

	var setClauses, fillable []string
	for _, col := range cfg.Columns {
		c := pgx.Identifier{col}.Sanitize()
		setClauses = append(setClauses,
			fmt.Sprintf("%s = COALESCE(NULLIF(t.%s, ''), src.%s)", c, c, c))
		fillable = append(fillable,
			fmt.Sprintf("t.%s IS NULL OR t.%s = ''", c, c))
	}

	// The fillable guard keeps RowsAffected an honest count of rows that
	// actually gained a value.
	key := pgx.Identifier{cfg.Key}.Sanitize()
	updateSQL := fmt.Sprintf(
		"UPDATE %s t SET %s FROM %s src WHERE t.%s = src.%s AND (%s)",
		sanitizeTable(cfg.Table),
		strings.Join(setClauses, ", "),
		pgx.Identifier{tempTable}.Sanitize(),
		key, key,
		strings.Join(fillable, " OR "),
	)

	tag, err := tx.Exec(ctx, updateSQL)
	if err != nil {
		return 0, eris.Wrapf(err, "db: fill update: UPDATE for %s", cfg.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: fill update: commit tx")
	}
	return tag.RowsAffected(), nil
}

// sanitizeTable handles schema-qualified table names.
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}
