package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/annuaire-pro/enrich-cli/internal/checkpoint"
	"github.com/annuaire-pro/enrich-cli/internal/model"
	"github.com/annuaire-pro/enrich-cli/internal/store"
)

type statusReport struct {
	Instance            string         `json:"instance"`
	CheckpointPath      string         `json:"checkpoint_path"`
	SavedAt             *time.Time     `json:"saved_at,omitempty"`
	CompletedPartitions []string       `json:"completed_partitions"`
	Stats               model.RunStats `json:"stats"`
	Counts              store.Counts   `json:"counts"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print checkpoint progress and coverage counters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		instance, _ := cmd.Flags().GetString("instance")

		records, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer records.Close() //nolint:errcheck

		counts, err := records.Counts(ctx)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		ckpt := checkpoint.NewStore(cfg.Checkpoint.Dir, instance)
		cp, err := ckpt.Load(true)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		report := statusReport{
			Instance:            instance,
			CheckpointPath:      ckpt.Path(),
			CompletedPartitions: cp.CompletedPartitions,
			Stats:               cp.Stats,
			Counts:              counts,
		}
		if !cp.SavedAt.IsZero() {
			report.SavedAt = &cp.SavedAt
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "status: encode report")
		}
		if len(cp.CompletedPartitions) == 0 && cp.SavedAt.IsZero() {
			fmt.Fprintln(os.Stderr, "no checkpoint found for instance", instance)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().String("instance", "default", "instance identifier")
	rootCmd.AddCommand(statusCmd)
}
