// Package store persists business records and applies fill-only enrichment
// writes. Postgres backs production runs; SQLite backs local runs and tests.
package store

import (
	"context"

	"github.com/annuaire-pro/enrich-cli/internal/model"
)

// Counts summarizes enrichment coverage across the record table.
type Counts struct {
	Total          int64 `json:"total"`
	MissingPhone   int64 `json:"missing_phone"`
	MissingWebsite int64 `json:"missing_website"`
	MissingRating  int64 `json:"missing_rating"`
}

// RecordStore is the persistence interface shared by both engines. All writes
// are fill-only: a non-empty value is never overwritten.
type RecordStore interface {
	// SelectEnrichable returns records in a department still missing at
	// least one enrichable field, in ascending id order. The order is
	// stable across re-queries so a resumed run can skip to its saved
	// id cursor without losing never-processed records.
	SelectEnrichable(ctx context.Context, dept string, limit, offset int) ([]model.BusinessRecord, error)

	// SelectMissingPhone returns all records in a department without a
	// phone, ordered by id.
	SelectMissingPhone(ctx context.Context, dept string) ([]model.BusinessRecord, error)

	// ApplyEnrichment writes a scrape result to one record with a single
	// conditional statement per field.
	ApplyEnrichment(ctx context.Context, id int64, res model.EnrichmentResult) error

	// AssignPhone fills a single record's phone if still empty. Reports
	// whether a row was changed.
	AssignPhone(ctx context.Context, id int64, phone string) (bool, error)

	// BulkAssignPhones commits match assignments in bounded batches,
	// falling back to row-by-row application when a batch fails. Returns
	// the number of rows written.
	BulkAssignPhones(ctx context.Context, assignments []model.MatchAssignment) (int64, error)

	// Counts reports coverage statistics.
	Counts(ctx context.Context) (Counts, error)

	// Migrate creates the schema when missing.
	Migrate(ctx context.Context) error

	Close() error
}
