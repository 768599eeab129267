// Package audit appends one JSON line per enrichment decision so a run can be
// reviewed or reverted after the fact.
package audit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/annuaire-pro/enrich-cli/internal/model"
)

// Trail writes enrichment and match events to audit-<instance>.jsonl.
type Trail struct {
	logger *zap.Logger
	file   *os.File
	runID  string
}

// Open creates or appends to the instance's audit file under dir.
func Open(dir, instance, runID string) (*Trail, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "audit: create dir")
	}
	path := filepath.Join(dir, fmt.Sprintf("audit-%s.jsonl", instance))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "audit: open %s", path)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.MessageKey = "event"
	encCfg.LevelKey = ""
	encCfg.CallerKey = ""

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.InfoLevel)
	return &Trail{
		logger: zap.New(core).With(zap.String("run_id", runID)),
		file:   f,
		runID:  runID,
	}, nil
}

// RunID returns the identifier stamped on every event.
func (t *Trail) RunID() string {
	return t.runID
}

// Enrichment records a scrape result applied to a record.
func (t *Trail) Enrichment(recordID int64, name, query string, res model.EnrichmentResult) {
	fields := []zap.Field{
		zap.Int64("record_id", recordID),
		zap.String("name", name),
		zap.String("query", query),
	}
	if res.Phone != "" {
		fields = append(fields, zap.String("phone", res.Phone))
	}
	if res.Website != "" {
		fields = append(fields, zap.String("website", res.Website))
	}
	if res.Rating != nil {
		fields = append(fields,
			zap.Float64("rating", *res.Rating),
			zap.Int("review_count", res.ReviewCount),
		)
	}
	t.logger.Info("enrichment", fields...)
}

// Match records a phone assignment produced by the linkage engine.
func (t *Trail) Match(a model.MatchAssignment) {
	t.logger.Info("match",
		zap.Int64("record_id", a.RecordID),
		zap.String("phone", a.Phone),
		zap.String("strategy", a.Strategy),
		zap.Float64("score", a.Score),
		zap.String("source_name", a.SourceName),
		zap.String("matched_name", a.MatchedName),
	)
}

// Rejection records a candidate link refused by assignment tracking.
func (t *Trail) Rejection(a model.MatchAssignment, reason string) {
	t.logger.Info("rejection",
		zap.Int64("record_id", a.RecordID),
		zap.String("phone", a.Phone),
		zap.String("strategy", a.Strategy),
		zap.Float64("score", a.Score),
		zap.String("reason", reason),
	)
}

// Block records a scrape block signal and the cooldown taken.
func (t *Trail) Block(dept string, cooldownSeconds float64, totalBlocks int) {
	t.logger.Info("block",
		zap.String("department", dept),
		zap.Float64("cooldown_seconds", cooldownSeconds),
		zap.Int("total_blocks", totalBlocks),
	)
}

// Close flushes and closes the underlying file.
func (t *Trail) Close() error {
	_ = t.logger.Sync()
	return t.file.Close()
}
