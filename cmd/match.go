package main

import (
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/annuaire-pro/enrich-cli/internal/audit"
	"github.com/annuaire-pro/enrich-cli/internal/match"
	"github.com/annuaire-pro/enrich-cli/internal/scrape"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Link offline directory listings to phoneless records",
	Long: `Run the strategy cascade over per-department listing files and assign
each matched listing's phone to exactly one record. Assignments are
fill-only; --dry-run reports what would be written without touching the
store.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("match"); err != nil {
			return err
		}

		department, _ := cmd.Flags().GetString("department")
		departments, _ := cmd.Flags().GetString("departments")
		listingsDir, _ := cmd.Flags().GetString("listings-dir")
		geoExpand, _ := cmd.Flags().GetBool("geo-expand")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		instance, _ := cmd.Flags().GetString("instance")

		log := zap.L().With(zap.String("command", "match"))

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

		if listingsDir == "" {
			listingsDir = cfg.Match.ListingsDir
		}
		depts := splitDepartments(department, departments)
		if len(depts) == 0 {
			depts = scrape.DefaultDepartments
		}

		engine := match.NewEngine(match.EngineConfig{
			Departments:     depts,
			ListingsDir:     listingsDir,
			GeoExpand:       geoExpand,
			DryRun:          dryRun,
			MaxLoaded:       cfg.Match.MaxLoaded,
			Thresholds:      cfg.Match.Thresholds,
			DisableInitials: !cfg.Match.EnableInitials,
		}, records, trail)

		log.Info("starting match run",
			zap.String("listings_dir", listingsDir),
			zap.Bool("geo_expand", geoExpand),
			zap.Bool("dry_run", dryRun),
		)

		summary, err := engine.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "match")
		}

		log.Info("match run finished",
			zap.Int("candidates", summary.Candidates),
			zap.Int64("assigned", summary.Assigned),
			zap.Int("rejected", summary.Rejected),
			zap.Any("by_strategy", summary.ByStrategy),
		)
		return nil
	},
}

func init() {
	matchCmd.Flags().String("department", "", "single department code to process")
	matchCmd.Flags().String("departments", "", "comma-separated department codes")
	matchCmd.Flags().String("listings-dir", "", "directory of per-department listing JSON files (default from config)")
	matchCmd.Flags().Bool("geo-expand", false, "retry unmatched records against adjacent departments")
	matchCmd.Flags().Bool("dry-run", false, "compute assignments without writing them")
	matchCmd.Flags().String("instance", "default", "instance identifier namespacing the audit file")
	rootCmd.AddCommand(matchCmd)
}
