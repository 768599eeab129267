package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/annuaire-pro/enrich-cli/internal/db"
	"github.com/annuaire-pro/enrich-cli/internal/model"
	"github.com/annuaire-pro/enrich-cli/internal/resilience"
)

// PostgresStore implements RecordStore using pgxpool.
type PostgresStore struct {
	pool      db.Pool
	batchSize int
	closeFn   func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a bounded connection pool. No
// worker ever holds a long-lived transaction, so pool exhaustion throttles
// throughput rather than deadlocking.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig, batchSize int) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns, minConns := int32(10), int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{
		pool:      pool,
		batchSize: normalizeBatchSize(batchSize),
		closeFn:   pool.Close,
	}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool, batchSize int) *PostgresStore {
	return &PostgresStore{pool: pool, batchSize: normalizeBatchSize(batchSize)}
}

func normalizeBatchSize(n int) int {
	if n <= 0 {
		return 200
	}
	return n
}

const pgMigration = `
CREATE TABLE IF NOT EXISTS records (
	id           BIGSERIAL PRIMARY KEY,
	name         TEXT NOT NULL,
	street       TEXT,
	city         TEXT,
	postal_code  TEXT,
	department   TEXT,
	trade        TEXT,
	phone        TEXT,
	website      TEXT,
	rating       DOUBLE PRECISION,
	review_count INTEGER,
	enriched_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_records_department ON records(department);
CREATE INDEX IF NOT EXISTS idx_records_missing_phone ON records(department) WHERE phone IS NULL OR phone = '';
`

// Migrate creates the records table and indexes when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pgMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const selectColumns = `id, name, COALESCE(street, ''), COALESCE(city, ''), COALESCE(postal_code, ''),
	COALESCE(department, ''), COALESCE(trade, ''), COALESCE(phone, ''), COALESCE(website, ''), rating, review_count`

const selectEnrichableSQL = `
SELECT ` + selectColumns + `
FROM records
WHERE department = $1
  AND (phone IS NULL OR phone = '' OR website IS NULL OR website = '' OR rating IS NULL)
ORDER BY id ASC
LIMIT $2 OFFSET $3`

// SelectEnrichable returns records in a department missing at least one
// enrichable field, in ascending id order. The order must stay stable across
// re-queries: a resumed run re-selects and skips to its saved id cursor.
func (s *PostgresStore) SelectEnrichable(ctx context.Context, dept string, limit, offset int) ([]model.BusinessRecord, error) {
	rows, err := s.pool.Query(ctx, selectEnrichableSQL, dept, limit, offset)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: select enrichable dept=%s", dept)
	}
	defer rows.Close()
	return scanRecords(rows)
}

const selectMissingPhoneSQL = `
SELECT ` + selectColumns + `
FROM records
WHERE department = $1 AND (phone IS NULL OR phone = '')
ORDER BY id ASC`

// SelectMissingPhone returns all records in a department without a phone.
func (s *PostgresStore) SelectMissingPhone(ctx context.Context, dept string) ([]model.BusinessRecord, error) {
	rows, err := s.pool.Query(ctx, selectMissingPhoneSQL, dept)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: select missing phone dept=%s", dept)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]model.BusinessRecord, error) {
	var out []model.BusinessRecord
	for rows.Next() {
		var r model.BusinessRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Street, &r.City, &r.PostalCode,
			&r.Department, &r.Trade, &r.Phone, &r.Website, &r.Rating, &r.ReviewCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const applyEnrichmentSQL = `
UPDATE records SET
	phone        = COALESCE(NULLIF(phone, ''), NULLIF($2, '')),
	website      = COALESCE(NULLIF(website, ''), NULLIF($3, '')),
	rating       = COALESCE(rating, $4),
	review_count = COALESCE(review_count, $5),
	enriched_at  = now()
WHERE id = $1`

// ApplyEnrichment writes a scrape result with fill-only semantics in a single
// statement. Applying the same result twice never changes an already-filled
// field.
func (s *PostgresStore) ApplyEnrichment(ctx context.Context, id int64, res model.EnrichmentResult) error {
	var reviewCount *int
	if res.Rating != nil {
		reviewCount = &res.ReviewCount
	}

	err := resilience.Do(ctx, resilience.DefaultRetryConfig(), "apply enrichment", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, applyEnrichmentSQL, id, res.Phone, res.Website, res.Rating, reviewCount)
		return err
	})
	if err != nil {
		return eris.Wrapf(err, "postgres: apply enrichment id=%d", id)
	}
	return nil
}

const assignPhoneSQL = `
UPDATE records SET phone = $2, enriched_at = now()
WHERE id = $1 AND (phone IS NULL OR phone = '')`

// AssignPhone fills one record's phone if still empty.
func (s *PostgresStore) AssignPhone(ctx context.Context, id int64, phone string) (bool, error) {
	tag, err := s.pool.Exec(ctx, assignPhoneSQL, id, phone)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: assign phone id=%d", id)
	}
	return tag.RowsAffected() > 0, nil
}

// BulkAssignPhones commits assignments in bounded batches through a temp
// table. A failed batch degrades to row-by-row application so one malformed
// row cannot void the rest.
func (s *PostgresStore) BulkAssignPhones(ctx context.Context, assignments []model.MatchAssignment) (int64, error) {
	var written int64
	for start := 0; start < len(assignments); start += s.batchSize {
		end := min(start+s.batchSize, len(assignments))
		batch := assignments[start:end]

		rows := make([][]any, 0, len(batch))
		for _, a := range batch {
			rows = append(rows, []any{a.RecordID, a.Phone})
		}

		n, err := db.BulkFillUpdate(ctx, s.pool, db.FillUpdateConfig{
			Table:   "records",
			Key:     "id",
			Columns: []string{"phone"},
		}, rows)
		if err == nil {
			written += n
			continue
		}

		zap.L().Warn("bulk phone batch failed, falling back to row-by-row",
			zap.Int("batch_start", start),
			zap.Int("batch_len", len(batch)),
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

const countsSQL = `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE phone IS NULL OR phone = ''),
	COUNT(*) FILTER (WHERE website IS NULL OR website = ''),
	COUNT(*) FILTER (WHERE rating IS NULL)
FROM records`

// Counts reports coverage statistics.
func (s *PostgresStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.pool.QueryRow(ctx, countsSQL).
		Scan(&c.Total, &c.MissingPhone, &c.MissingWebsite, &c.MissingRating)
	if err != nil {
		return Counts{}, eris.Wrap(err, "postgres: counts")
	}
	return c, nil
}
