package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesforge/shopfloor/internal/oee"
	"github.com/mesforge/shopfloor/internal/repository/postgres"
)

var oeeCmd = &cobra.Command{
	Use:   "oee",
	Short: "Shift summary and OEE reconciliation",
}

var oeeComputeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Trigger C6 reconciliation for every machine",
	Long: `oee compute recomputes the current ShiftSummary row (§4.6) for every
machine in one pass. --since overrides the reference instant used to resolve
the active shift window; it defaults to now.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, _ := cmd.Flags().GetString("since")

		at := time.Now()
		if since != "" {
			parsed, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since %q: %w", since, err)
			}
			at = parsed
		}

		ctx := context.Background()

		db, err := postgres.New(cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		repo := postgres.NewDatabase(db)
		updater := oee.NewUpdater(repo, shiftManagerFromConfig(), log)

		machines, err := repo.MachineRepository().ListAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to list machines: %w", err)
		}

		failed := 0
		for _, m := range machines {
			if err := updater.Update(ctx, at, m.ID); err != nil {
				log.Warn().Err(err).Str("machine_id", m.ID.String()).Msg("OEE reconcile failed")
				failed++
				continue
			}
		}

		log.Info().Int("machines", len(machines)).Int("failed", failed).Msg("OEE reconciliation completed")
		if failed > 0 {
			return fmt.Errorf("%d of %d machines failed to reconcile", failed, len(machines))
		}
		return nil
	},
}

func init() {
	oeeCmd.AddCommand(oeeComputeCmd)
	oeeComputeCmd.Flags().String("since", "", "Reference instant (RFC3339) for shift resolution; defaults to now")
}
