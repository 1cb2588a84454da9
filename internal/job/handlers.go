package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/mesforge/shopfloor/internal/oee"
	"github.com/mesforge/shopfloor/internal/pdc"
	"github.com/mesforge/shopfloor/internal/repository"
	"github.com/mesforge/shopfloor/internal/rescheduler"
	"github.com/mesforge/shopfloor/internal/scheduler"
)

// JobHandlers dispatches Asynq tasks to the MES domain components.
type JobHandlers struct {
	generator   *scheduler.Generator
	rescheduler *rescheduler.Rescheduler
	oeeUpdater  *oee.Updater
	projector   *pdc.Projector
	machines    repository.MachineRepository
	log         zerolog.Logger
}

// NewJobHandlers creates a new job handlers instance.
func NewJobHandlers(
	generator *scheduler.Generator,
	rescheduler *rescheduler.Rescheduler,
	oeeUpdater *oee.Updater,
	projector *pdc.Projector,
	machines repository.MachineRepository,
	log zerolog.Logger,
) *JobHandlers {
	return &JobHandlers{
		generator:   generator,
		rescheduler: rescheduler,
		oeeUpdater:  oeeUpdater,
		projector:   projector,
		machines:    machines,
		log:         log.With().Str("component", "job").Logger(),
	}
}

// RegisterHandlers registers all job handlers with the Asynq mux.
func (h *JobHandlers) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeGenerateSchedule, h.HandleGenerateSchedule)
	mux.HandleFunc(TypeReschedule, h.HandleReschedule)
	mux.HandleFunc(TypeOEEReconcile, h.HandleOEEReconcile)
	mux.HandleFunc(TypePDCWarm, h.HandlePDCWarm)
}

// HandleGenerateSchedule runs the batch scheduler over every active
// production order.
func (h *JobHandlers) HandleGenerateSchedule(ctx context.Context, t *asynq.Task) error {
	result, err := h.generator.Generate(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("schedule generation failed")
		return fmt.Errorf("schedule generation failed: %w", err)
	}
	if result.HasErrors() {
		h.log.Warn().Int("errors", result.ErrorCount()).Int("warnings", result.WarningCount()).Msg("schedule generation completed with errors")
	} else {
		h.log.Info().Int("warnings", result.WarningCount()).Msg("schedule generation completed")
	}
	return nil
}

// HandleReschedule runs the dynamic rescheduler pass.
func (h *JobHandlers) HandleReschedule(ctx context.Context, t *asynq.Task) error {
	result, err := h.rescheduler.Reschedule(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("reschedule pass failed")
		return fmt.Errorf("reschedule pass failed: %w", err)
	}
	h.log.Info().Int("warnings", result.WarningCount()).Int("errors", result.ErrorCount()).Msg("reschedule pass completed")
	return nil
}

// HandleOEEReconcile refreshes the shift summary for one machine. With no
// payload (a zero-value MachineID), it refreshes every machine instead.
func (h *JobHandlers) HandleOEEReconcile(ctx context.Context, t *asynq.Task) error {
	var payload OEEReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
		}
	}

	if payload.At.IsZero() {
		payload.At = time.Now()
	}

	if payload.MachineID != uuid.Nil {
		if err := h.oeeUpdater.Update(ctx, payload.At, payload.MachineID); err != nil {
			h.log.Error().Err(err).Str("machine_id", payload.MachineID.String()).Msg("OEE reconcile failed")
			return fmt.Errorf("OEE reconcile failed: %w", err)
		}
		return nil
	}

	machines, err := h.machines.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list machines: %w", err)
	}
	for _, m := range machines {
		if err := h.oeeUpdater.Update(ctx, payload.At, m.ID); err != nil {
			h.log.Warn().Err(err).Str("machine_id", m.ID.String()).Msg("OEE reconcile failed for machine, continuing")
		}
	}
	return nil
}

// HandlePDCWarm recomputes the PDC projector's snapshot for every active
// order, populating the cache ahead of the next read.
func (h *JobHandlers) HandlePDCWarm(ctx context.Context, t *asynq.Task) error {
	estimates, err := h.projector.Compute(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("PDC warm-up failed")
		return fmt.Errorf("PDC warm-up failed: %w", err)
	}
	h.log.Info().Int("orders", len(estimates)).Msg("PDC cache warmed")
	return nil
}
