package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/annuaire-pro/enrich-cli/internal/store"
)

// openStore builds the configured record store and runs migrations.
func openStore(ctx context.Context) (store.RecordStore, error) {
	var (
		s   store.RecordStore
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		s, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool, cfg.Store.BatchSize)
	case "sqlite":
		s, err = store.NewSQLite(cfg.Store.SQLitePath, cfg.Store.BatchSize)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// splitDepartments merges the single and comma-separated department flags.
func splitDepartments(single, list string) []string {
	var out []string
	if single != "" {
		out = append(out, strings.TrimSpace(single))
	}
	for _, d := range strings.Split(list, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}
