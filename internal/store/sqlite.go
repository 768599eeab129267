package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/annuaire-pro/enrich-cli/internal/model"
)

// SQLiteStore implements RecordStore using modernc.org/sqlite for local runs
// and tests.
type SQLiteStore struct {
	db        *sql.DB
	batchSize int
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, batchSize int) (*SQLiteStore, error) {
	sdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sdb.Exec(pragma); err != nil {
			sdb.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sdb, batchSize: normalizeBatchSize(batchSize)}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS records (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	street       TEXT,
	city         TEXT,
	postal_code  TEXT,
	department   TEXT,
	trade        TEXT,
	phone        TEXT,
	website      TEXT,
	rating       REAL,
	review_count INTEGER,
	enriched_at  DATETIME
);

CREATE INDEX IF NOT EXISTS idx_records_department ON records(department);
`

// Migrate creates the records table when missing.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteSelectColumns = `id, name, COALESCE(street, ''), COALESCE(city, ''), COALESCE(postal_code, ''),
	COALESCE(department, ''), COALESCE(trade, ''), COALESCE(phone, ''), COALESCE(website, ''), rating, review_count`

// SelectEnrichable returns records in a department missing at least one
// enrichable field, in ascending id order. The order must stay stable across
// re-queries: a resumed run re-selects and skips to its saved id cursor.
func (s *SQLiteStore) SelectEnrichable(ctx context.Context, dept string, limit, offset int) ([]model.BusinessRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+sqliteSelectColumns+`
FROM records
WHERE department = ?
  AND (phone IS NULL OR phone = '' OR website IS NULL OR website = '' OR rating IS NULL)
ORDER BY id ASC
LIMIT ? OFFSET ?`, dept, limit, offset)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: select enrichable dept=%s", dept)
	}
	defer rows.Close() //nolint:errcheck
	return scanSQLRecords(rows)
}

// SelectMissingPhone returns all records in a department without a phone.
func (s *SQLiteStore) SelectMissingPhone(ctx context.Context, dept string) ([]model.BusinessRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+sqliteSelectColumns+`
FROM records
WHERE department = ? AND (phone IS NULL OR phone = '')
ORDER BY id ASC`, dept)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: select missing phone dept=%s", dept)
	}
	defer rows.Close() //nolint:errcheck
	return scanSQLRecords(rows)
}

func scanSQLRecords(rows *sql.Rows) ([]model.BusinessRecord, error) {
	var out []model.BusinessRecord
	for rows.Next() {
		var r model.BusinessRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Street, &r.City, &r.PostalCode,
			&r.Department, &r.Trade, &r.Phone, &r.Website, &r.Rating, &r.ReviewCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ApplyEnrichment writes a scrape result with fill-only semantics.
func (s *SQLiteStore) ApplyEnrichment(ctx context.Context, id int64, res model.EnrichmentResult) error {
	var reviewCount *int
	if res.Rating != nil {
		reviewCount = &res.ReviewCount
	}

	_, err := s.db.ExecContext(ctx, `
UPDATE records SET
	phone        = COALESCE(NULLIF(phone, ''), NULLIF(?, '')),
	website      = COALESCE(NULLIF(website, ''), NULLIF(?, '')),
	rating       = COALESCE(rating, ?),
	review_count = COALESCE(review_count, ?),
	enriched_at  = datetime('now')
WHERE id = ?`, res.Phone, res.Website, res.Rating, reviewCount, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: apply enrichment id=%d", id)
	}
	return nil
}

// AssignPhone fills one record's phone if still empty.
func (s *SQLiteStore) AssignPhone(ctx context.Context, id int64, phone string) (bool, error) {
	tag, err := s.db.ExecContext(ctx, `
UPDATE records SET phone = ?, enriched_at = datetime('now')
WHERE id = ? AND (phone IS NULL OR phone = '')`, phone, id)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: assign phone id=%d", id)
	}
	n, err := tag.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

// BulkAssignPhones applies assignments in bounded transactions; a failed
// transaction degrades to row-by-row application.
func (s *SQLiteStore) BulkAssignPhones(ctx context.Context, assignments []model.MatchAssignment) (int64, error) {
	var written int64
	for start := 0; start < len(assignments); start += s.batchSize {
		end := min(start+s.batchSize, len(assignments))
		batch := assignments[start:end]

		n, err := s.assignBatch(ctx, batch)
		if err == nil {
			written += n
			continue
		}

		zap.L().Warn("sqlite bulk phone batch failed, falling back to row-by-row",
			zap.Int("batch_start", start),
			zap.Error(err),
		)
		for _, a := range batch {
			ok, rowErr := s.AssignPhone(ctx, a.RecordID, a.Phone)
			if rowErr != nil {
				zap.L().Warn("phone assignment failed",
					zap.Int64("record_id", a.RecordID),
					zap.Error(rowErr),
				)
				continue
			}
			if ok {
				written++
			}
		}
	}
	return written, nil
}

func (s *SQLiteStore) assignBatch(ctx context.Context, batch []model.MatchAssignment) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var written int64
	for _, a := range batch {
		tag, err := tx.ExecContext(ctx, `
UPDATE records SET phone = ?, enriched_at = datetime('now')
WHERE id = ? AND (phone IS NULL OR phone = '')`, a.Phone, a.RecordID)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: batch assign id=%d", a.RecordID)
		}
		if n, err := tag.RowsAffected(); err == nil {
			written += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return written, nil
}

// Counts reports coverage statistics.
func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COALESCE(SUM(CASE WHEN phone IS NULL OR phone = '' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN website IS NULL OR website = '' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN rating IS NULL THEN 1 ELSE 0 END), 0)
FROM records`).Scan(&c.Total, &c.MissingPhone, &c.MissingWebsite, &c.MissingRating)
	if err != nil {
		return Counts{}, eris.Wrap(err, "sqlite: counts")
	}
	return c, nil
}

// InsertRecord adds a record; used by local imports and tests.
func (s *SQLiteStore) InsertRecord(ctx context.Context, r *model.BusinessRecord) error {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO records (name, street, city, postal_code, department, trade, phone, website, rating, review_count)
VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?)`,
		r.Name, r.Street, r.City, r.PostalCode, r.Department, r.Trade,
		r.Phone, r.Website, r.Rating, r.ReviewCount)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert record")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: last insert id")
	}
	r.ID = id
	return nil
}
