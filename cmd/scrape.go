package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/annuaire-pro/enrich-cli/internal/audit"
	"github.com/annuaire-pro/enrich-cli/internal/checkpoint"
	"github.com/annuaire-pro/enrich-cli/internal/fetcher"
	"github.com/annuaire-pro/enrich-cli/internal/scrape"
	"github.com/annuaire-pro/enrich-cli/internal/throttle"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Enrich records from live search results",
	Long: `Scrape search result pages to fill missing phone, website and rating
fields. Work is partitioned by department, checkpointed periodically, and
resumable with --resume. Concurrent runs over disjoint departments can share
a database by using distinct --instance identifiers.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		resume, _ := cmd.Flags().GetBool("resume")
		maxWorkers, _ := cmd.Flags().GetInt("max-workers")
		department, _ := cmd.Flags().GetString("department")
		departments, _ := cmd.Flags().GetString("departments")
		instance, _ := cmd.Flags().GetString("instance")
		limit, _ := cmd.Flags().GetInt("limit")

		log := zap.L().With(zap.String("command", "scrape"))

		records, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer records.Close() //nolint:errcheck

		trail, err := audit.Open(cfg.Audit.Dir, instance, uuid.NewString())
		if err != nil {
			return err
		}
		defer trail.Close() //nolint:errcheck

		search := fetcher.NewHTTPSearchFetcher(fetcher.HTTPOptions{
			BaseURL:     cfg.Search.BaseURL,
			APIKey:      cfg.Search.APIKey,
			Locale:      cfg.Search.Locale,
			ResultCount: cfg.Search.ResultCount,
			Timeout:     time.Duration(cfg.Search.TimeoutSecs) * time.Second,
			MaxRetries:  cfg.Search.MaxRetries,
			RateLimit:   rate.Limit(cfg.Search.RequestsPerS),
			Burst:       cfg.Search.Burst,
		})

		thr := throttle.New(
			time.Duration(cfg.Scrape.CooldownBaseSecs)*time.Second,
			time.Duration(cfg.Scrape.CooldownMaxSecs)*time.Second,
		)

		if maxWorkers <= 0 {
			maxWorkers = cfg.Scrape.MaxWorkers
		}
		if limit <= 0 {
			limit = cfg.Scrape.Limit
		}
		engine := scrape.NewEngine(scrape.EngineConfig{
			Departments:     splitDepartments(department, departments),
			Limit:           limit,
			CheckpointEvery: cfg.Scrape.CheckpointEvery,
			Resume:          resume,
			ShutdownGrace:   time.Duration(cfg.Scrape.ShutdownGraceSecs) * time.Second,
			Pool: scrape.PoolOptions{
				InitialWorkers: cfg.Scrape.InitialWorkers,
				MaxWorkers:     maxWorkers,
				QueueCap:       cfg.Scrape.QueueCap,
				DelayMin:       time.Duration(cfg.Scrape.DelayMinSecs * float64(time.Second)),
				DelayMax:       time.Duration(cfg.Scrape.DelayMaxSecs * float64(time.Second)),
				ScaleInterval:  time.Duration(cfg.Scrape.ScaleIntervalSecs) * time.Second,
			},
		}, records, search, thr, checkpoint.NewStore(cfg.Checkpoint.Dir, instance), trail)

		log.Info("starting scrape run",
			zap.Bool("resume", resume),
			zap.String("instance", instance),
			zap.Int("max_workers", maxWorkers),
		)

		stats, err := engine.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "scrape")
		}

		log.Info("scrape run finished",
			zap.Int("processed", stats.Processed),
			zap.Int("new_phones", stats.NewPhones),
			zap.Int("new_websites", stats.NewWebsites),
			zap.Int("new_ratings", stats.NewRatings),
			zap.Int("errors", stats.Errors),
			zap.Int("blocked", stats.Blocked),
		)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().Bool("resume", false, "resume from the instance's saved checkpoint")
	scrapeCmd.Flags().Int("max-workers", 0, "worker pool cap (default from config)")
	scrapeCmd.Flags().String("department", "", "single department code to process")
	scrapeCmd.Flags().String("departments", "", "comma-separated department codes")
	scrapeCmd.Flags().String("instance", "default", "instance identifier namespacing checkpoint and audit files")
	scrapeCmd.Flags().Int("limit", 0, "max records per department (default from config)")
	rootCmd.AddCommand(scrapeCmd)
}
