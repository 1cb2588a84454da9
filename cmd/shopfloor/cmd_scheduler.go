package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/mesforge/shopfloor/internal/job"
	"github.com/mesforge/shopfloor/internal/oee"
	"github.com/mesforge/shopfloor/internal/pdc"
	"github.com/mesforge/shopfloor/internal/repository/postgres"
	"github.com/mesforge/shopfloor/internal/rescheduler"
	"github.com/mesforge/shopfloor/internal/scheduler"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Batch scheduling operations",
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one synchronous batch-schedule pass over every active order",
	Long: `scheduler run invokes the C3 batch scheduler once and exits: 0 on
success, non-zero on a hard error. Per-part scheduling problems are never
fatal; they accumulate as diagnostics written to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		db, err := postgres.New(cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		repo := postgres.NewDatabase(db)
		generator := scheduler.NewGenerator(repo, log)

		result, err := generator.Generate(ctx)
		if err != nil {
			return fmt.Errorf("schedule generation failed: %w", err)
		}

		for _, msg := range result.Messages {
			fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", msg.Severity, msg.Code, msg.Text)
		}

		if result.HasErrors() {
			return fmt.Errorf("schedule generation completed with %d error(s)", result.ErrorCount())
		}

		log.Info().Int("warnings", result.WarningCount()).Msg("schedule generation completed")
		return nil
	},
}

var schedulerWorkerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the long-lived asynq worker and periodic task manager",
	Long: `scheduler worker hosts the job handlers for dynamic-reschedule
triggers, OEE reconciliation sweeps and PDC cache warm-up, plus the
cron-driven periodic schedule that enqueues them (§11). It blocks until
SIGINT/SIGTERM, shutting down gracefully.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := postgres.New(cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		repo := postgres.NewDatabase(db)

		generator := scheduler.NewGenerator(repo, log)
		reschedulerSvc := rescheduler.NewRescheduler(repo, log)
		oeeUpdater := oee.NewUpdater(repo, shiftManagerFromConfig(), log)
		cache := pdc.NewCache(pdcCacheTTL)
		projector := pdc.NewProjector(repo, cache, log)

		handlers := job.NewJobHandlers(generator, reschedulerSvc, oeeUpdater, projector, repo.MachineRepository(), log)

		mux := asynq.NewServeMux()
		handlers.RegisterHandlers(mux)

		periodicMgr, err := job.NewPeriodicManager(cfg.RedisAddr, job.DefaultPeriodicSchedules)
		if err != nil {
			return fmt.Errorf("failed to start periodic task manager: %w", err)
		}
		if err := periodicMgr.Start(); err != nil {
			return fmt.Errorf("failed to start periodic task manager: %w", err)
		}
		defer periodicMgr.Shutdown()

		srv := asynq.NewServer(
			asynq.RedisClientOpt{Addr: cfg.RedisAddr},
			asynq.Config{Concurrency: 10},
		)

		log.Info().Str("redis_addr", cfg.RedisAddr).Msg("starting job worker")
		if err := srv.Run(mux); err != nil {
			return fmt.Errorf("job worker stopped: %w", err)
		}

		return nil
	},
}

func init() {
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerWorkerCmd)
}
