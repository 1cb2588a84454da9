package scheduler

import (
	"context"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesforge/shopfloor/internal/calendar"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/metrics"
	"github.com/mesforge/shopfloor/internal/repository"
	"github.com/mesforge/shopfloor/internal/validation"
)

// Generator runs the batch scheduling pass over every active production
// order and writes PlannedScheduleItem/ScheduleVersion rows.
type Generator struct {
	db  repository.Database
	log zerolog.Logger

	// SortByPriorityFirst swaps the canonical (activation, priority, ...) part
	// ordering for (priority, activation, ...). Default false.
	SortByPriorityFirst bool
}

// NewGenerator builds a Generator against db, logging through log.
func NewGenerator(db repository.Database, log zerolog.Logger) *Generator {
	return &Generator{db: db, log: log.With().Str("component", "scheduler").Logger()}
}

type candidatePart struct {
	order      *entity.Order
	activation entity.Time
	quantity   int
}

// Generate schedules every active part's remaining quantity and returns a
// diagnostics accumulator. It never aborts on a single part's bad data;
// problems are recorded as validation messages and scheduling continues.
func (g *Generator) Generate(ctx context.Context) (*validation.Result, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SchedulerRunDuration)

	result := validation.NewResult()
	defer recordDiagnostics(result)

	tx, err := g.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	orders, err := tx.OrderRepository().ListActive(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidatePart, 0, len(orders))
	for _, order := range orders {
		remaining := order.RequiredQuantity - order.LaunchedQuantity
		if remaining <= 0 {
			result.AddInfo(validation.CodeQuantityExceeded,
				"PO "+order.ProductionOrder+" has no remaining quantity to schedule")
			continue
		}

		status, err := tx.PartScheduleStatusRepository().GetByProductionOrder(ctx, order.ProductionOrder)
		if err != nil || status.State != entity.PartStateActive {
			result.AddWarning(validation.CodePartNotActivated,
				"PO "+order.ProductionOrder+" has no activation timestamp, skipped")
			continue
		}

		candidates = append(candidates, candidatePart{
			order:      order,
			activation: status.ActivationTimestamp,
			quantity:   remaining,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if g.SortByPriorityFirst {
			if a.order.Priority != b.order.Priority {
				return a.order.Priority < b.order.Priority
			}
			if !a.activation.Equal(b.activation) {
				return a.activation.Before(b.activation)
			}
		} else {
			if !a.activation.Equal(b.activation) {
				return a.activation.Before(b.activation)
			}
			if a.order.Priority != b.order.Priority {
				return a.order.Priority < b.order.Priority
			}
		}
		if a.order.PartNumber != b.order.PartNumber {
			return a.order.PartNumber < b.order.PartNumber
		}
		return a.order.ProductionOrder < b.order.ProductionOrder
	})

	for _, c := range candidates {
		g.scheduleOrder(ctx, tx, c, result)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *Generator) scheduleOrder(ctx context.Context, tx repository.Transaction, c candidatePart, result *validation.Result) {
	ops, err := tx.OperationRepository().ListByOrder(ctx, c.order.ID)
	if err != nil {
		result.AddError(validation.CodeMissingOperationDef,
			"failed to load operations for PO "+c.order.ProductionOrder+": "+err.Error())
		return
	}

	cursor := calendar.AdjustToShift(c.activation)

	for _, op := range ops {
		machine, err := tx.MachineRepository().GetByID(ctx, op.MachineID)
		if err != nil {
			result.AddWarning(validation.CodeSentinelMachine,
				"operation seq "+strconv.Itoa(op.OperationNumber)+" of PO "+c.order.ProductionOrder+" references an unknown machine, skipped")
			continue
		}
		if machine.IsSentinel() {
			result.AddInfo(validation.CodeSentinelMachine,
				"operation seq "+strconv.Itoa(op.OperationNumber)+" of PO "+c.order.ProductionOrder+" assigned to sentinel machine, skipped")
			continue
		}

		wc, err := tx.WorkCenterRepository().GetByID(ctx, op.WorkCenterID)
		if err != nil || !wc.IsSchedulable {
			result.AddInfo(validation.CodeNonSchedulableWC,
				"operation seq "+strconv.Itoa(op.OperationNumber)+" of PO "+c.order.ProductionOrder+" belongs to a non-schedulable work center, skipped")
			continue
		}

		setupMinutes := op.SetupMinutes
		cycleMinutes := op.IdealCycleMinutes
		if setupMinutes <= 0 || cycleMinutes <= 0 {
			setupMinutes = entity.DefaultSetupMinutes
			cycleMinutes = entity.DefaultCycleMinutes
			result.AddWarning(validation.CodeMissingOperationDef,
				"no operation timing for PO "+c.order.ProductionOrder+" seq "+strconv.Itoa(op.OperationNumber)+", using defaults")
		}

		cursor = calendar.AdjustToShift(cursor)
		setupFragments, afterSetup := SetupFragments(cursor, setupMinutes)
		productionFragments, afterProduction := ProductionFragments(afterSetup, cycleMinutes, c.quantity)
		cursor = afterProduction

		fragmentErr := false
		for _, frag := range setupFragments {
			if err := g.upsertFragment(ctx, tx, c.order.ID, op.ID, machine.ID, frag, result); err != nil {
				result.AddError(validation.CodeDuplicateScheduleRow,
					"failed to persist setup fragment for PO "+c.order.ProductionOrder+" seq "+strconv.Itoa(op.OperationNumber)+": "+err.Error())
				fragmentErr = true
				break
			}
		}
		if fragmentErr {
			return
		}
		for _, frag := range productionFragments {
			if err := g.upsertFragment(ctx, tx, c.order.ID, op.ID, machine.ID, frag, result); err != nil {
				result.AddError(validation.CodeDuplicateScheduleRow,
					"failed to persist production fragment for PO "+c.order.ProductionOrder+" seq "+strconv.Itoa(op.OperationNumber)+": "+err.Error())
				return
			}
		}
	}
}

// upsertFragment persists one emitted shift-fragment as its own
// PlannedScheduleItem/ScheduleVersion, per §4.3's per-fragment tuple
// (Order, Operation, Machine, TotalQuantity, start, end). An exact repeat
// of a prior generation run short-circuits to a no-op. A fragment sharing
// (Order, Operation, Machine, TotalQuantity, QuantityLabel) but a
// different start time is the same logical fragment rescheduled by a
// later run, and the stale copy is invalidated.
func (g *Generator) upsertFragment(ctx context.Context, tx repository.Transaction, orderID, operationID, machineID uuid.UUID, frag Fragment, result *validation.Result) error {
	items := tx.PlannedScheduleItemRepository()
	versions := tx.ScheduleVersionRepository()

	start, end := entity.Time(frag.Start), entity.Time(frag.End)

	if _, err := items.FindDuplicate(ctx, orderID, operationID, machineID, frag.TotalQuantity, start, end); err == nil {
		result.AddInfo(validation.CodeDuplicateScheduleRow,
			"schedule fragment "+frag.Label+" for order "+orderID.String()+" already present, left unchanged")
		return nil
	} else if !repository.IsNotFound(err) {
		return err
	}

	if stale, err := items.FindStaleFragment(ctx, orderID, operationID, machineID, frag.TotalQuantity, frag.Label, start); err == nil {
		stale.Status = entity.ItemInvalidated
		if err := items.Update(ctx, stale); err != nil {
			return err
		}
	} else if !repository.IsNotFound(err) {
		return err
	}

	item := &entity.PlannedScheduleItem{
		ID:                uuid.New(),
		OrderID:           orderID,
		OperationID:       operationID,
		MachineID:         machineID,
		TotalQuantity:     frag.TotalQuantity,
		InitialStartTime:  start,
		InitialEndTime:    end,
		QuantityLabel:     frag.Label,
		RemainingQuantity: frag.TotalQuantity - frag.CompletedQuantity,
		Status:            entity.ItemScheduled,
		CurrentVersion:    1,
		CreatedAt:         entity.Now(),
		UpdatedAt:         entity.Now(),
	}
	if err := items.Create(ctx, item); err != nil {
		return err
	}
	metrics.SchedulerItemsPlanned.Inc()

	version := &entity.ScheduleVersion{
		ID:                uuid.New(),
		ItemID:            item.ID,
		VersionNumber:     1,
		PlannedStartTime:  start,
		PlannedEndTime:    end,
		PlannedQuantity:   frag.TotalQuantity,
		CompletedQuantity: frag.CompletedQuantity,
		RemainingQuantity: frag.TotalQuantity - frag.CompletedQuantity,
		IsActive:          true,
		CreatedAt:         entity.Now(),
	}
	return versions.Create(ctx, version)
}

// recordDiagnostics exports every message in result as a labeled counter
// increment, so dashboards can alert on a rising rate of a specific code.
func recordDiagnostics(result *validation.Result) {
	for _, msg := range result.Messages {
		metrics.SchedulerDiagnostics.WithLabelValues(string(msg.Severity), msg.Code).Inc()
	}
}

