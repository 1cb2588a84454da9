// Package rescheduler implements the dynamic rescheduler (C4): it reconciles
// production logs against active schedule versions, re-versions remaining
// quantity, and cascades the resulting time shift to downstream operations.
package rescheduler

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesforge/shopfloor/internal/calendar"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/metrics"
	"github.com/mesforge/shopfloor/internal/repository"
	"github.com/mesforge/shopfloor/internal/scheduler"
	"github.com/mesforge/shopfloor/internal/validation"
)

// Rescheduler re-versions active schedule items from production logs and
// cascades the change to downstream operations.
type Rescheduler struct {
	db  repository.Database
	log zerolog.Logger
}

// NewRescheduler builds a Rescheduler against db.
func NewRescheduler(db repository.Database, log zerolog.Logger) *Rescheduler {
	return &Rescheduler{db: db, log: log.With().Str("component", "rescheduler").Logger()}
}

// advance tracks, per order, how far the re-plan has pushed the schedule so
// the cascade pass knows where to start the next downstream operation.
type advance struct {
	lastOperationNumber int
	cascadeStart        time.Time
}

// Reschedule runs one full pass per §4.4 and returns a diagnostics
// accumulator; it never aborts on a single group's bad data.
func (r *Rescheduler) Reschedule(ctx context.Context) (*validation.Result, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RescheduleRunDuration)

	result := validation.NewResult()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	orders, err := tx.OrderRepository().ListActive(ctx)
	if err != nil {
		return nil, err
	}

	touchedItems := make(map[uuid.UUID]bool)
	advances := make(map[uuid.UUID]advance)

	for _, order := range orders {
		ops, err := tx.OperationRepository().ListByOrder(ctx, order.ID)
		if err != nil {
			result.AddError(validation.CodeMissingOperationDef,
				"failed to load operations for PO "+order.ProductionOrder+": "+err.Error())
			continue
		}

		for _, op := range ops {
			groupEnd, replanned, err := r.replanGroup(ctx, tx, order, op, result)
			if err != nil {
				result.AddError(validation.CodeDuplicateScheduleRow,
					"failed to replan PO "+order.ProductionOrder+" seq "+strconv.Itoa(op.OperationNumber)+": "+err.Error())
				continue
			}
			if !replanned {
				continue
			}
			prev, ok := advances[order.ID]
			if !ok || op.OperationNumber > prev.lastOperationNumber {
				advances[order.ID] = advance{lastOperationNumber: op.OperationNumber, cascadeStart: groupEnd}
			}
		}
	}

	for _, order := range orders {
		adv, ok := advances[order.ID]
		if !ok {
			continue
		}
		r.cascade(ctx, tx, order, adv, touchedItems, result)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// replanGroup implements §4.4 steps 2-6 for one operation's group of items.
// It returns the end time of the (possibly split) replan and whether any
// version was actually written.
func (r *Rescheduler) replanGroup(ctx context.Context, tx repository.Transaction, order *entity.Order, op *entity.Operation, result *validation.Result) (time.Time, bool, error) {
	items, err := tx.PlannedScheduleItemRepository().ListByOperation(ctx, op.ID)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(items) == 0 {
		return time.Time{}, false, nil
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	item := items[len(items)-1]

	activeVersion, err := tx.ScheduleVersionRepository().GetActiveByItem(ctx, item.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}

	logs, err := tx.ProductionLogRepository().ListByOperation(ctx, op.ID)
	if err != nil {
		return time.Time{}, false, err
	}
	var validLogs []*entity.ProductionLog
	for _, l := range logs {
		if l.Closed() {
			validLogs = append(validLogs, l)
		}
	}
	if len(validLogs) == 0 {
		return time.Time{}, false, nil
	}

	actualCompleted := 0
	groupStart := validLogs[0].StartTime
	groupEnd := *validLogs[0].EndTime
	for _, l := range validLogs {
		actualCompleted += l.QuantityCompleted
		if l.StartTime.Before(groupStart) {
			groupStart = l.StartTime
		}
		if l.EndTime.After(groupEnd) {
			groupEnd = *l.EndTime
		}
	}
	if actualCompleted > item.TotalQuantity {
		actualCompleted = item.TotalQuantity
	}
	remaining := item.TotalQuantity - actualCompleted
	if remaining < 0 {
		remaining = 0
	}

	versionNumber := activeVersion.VersionNumber
	currentActiveID := activeVersion.ID

	if actualCompleted > 0 {
		versionNumber++
		if err := tx.ScheduleVersionRepository().Deactivate(ctx, currentActiveID); err != nil {
			return time.Time{}, false, err
		}
		completedID := uuid.New()
		if err := tx.ScheduleVersionRepository().Create(ctx, &entity.ScheduleVersion{
			ID: completedID, ItemID: item.ID, VersionNumber: versionNumber,
			PlannedStartTime: groupStart, PlannedEndTime: groupEnd,
			PlannedQuantity: actualCompleted, CompletedQuantity: actualCompleted,
			RemainingQuantity: 0, IsActive: true, CreatedAt: entity.Now(),
		}); err != nil {
			return time.Time{}, false, err
		}
		metrics.RescheduleVersionsCreated.Inc()
		currentActiveID = completedID
		item.Status = entity.ItemScheduled
		if remaining == 0 {
			item.Status = entity.ItemCompleted
		}
		item.RemainingQuantity = remaining
		item.CurrentVersion = versionNumber
		item.UpdatedAt = entity.Now()
	}

	if remaining > 0 {
		remainingStart := calendar.AdjustToShift(groupEnd)
		remainingEnd := scheduler.Advance(remainingStart, op.SetupMinutes+op.IdealCycleMinutes*float64(remaining))

		if err := tx.ScheduleVersionRepository().Deactivate(ctx, currentActiveID); err != nil {
			return time.Time{}, false, err
		}
		versionNumber++
		if err := tx.ScheduleVersionRepository().Create(ctx, &entity.ScheduleVersion{
			ID: uuid.New(), ItemID: item.ID, VersionNumber: versionNumber,
			PlannedStartTime: remainingStart, PlannedEndTime: remainingEnd,
			PlannedQuantity: remaining, CompletedQuantity: 0,
			RemainingQuantity: remaining, IsActive: true, CreatedAt: entity.Now(),
		}); err != nil {
			return time.Time{}, false, err
		}
		metrics.RescheduleVersionsCreated.Inc()
		item.Status = entity.ItemScheduled
		item.RemainingQuantity = remaining
		item.CurrentVersion = versionNumber
		item.UpdatedAt = entity.Now()
		groupEnd = remainingEnd
	}

	if err := tx.PlannedScheduleItemRepository().Update(ctx, item); err != nil {
		return time.Time{}, false, err
	}

	return groupEnd, true, nil
}

// cascade implements §4.4 step 7: re-plan every downstream, schedulable
// operation of order starting from adv.cascadeStart, chaining each
// replanned operation's end time into the next one's start.
func (r *Rescheduler) cascade(ctx context.Context, tx repository.Transaction, order *entity.Order, adv advance, touched map[uuid.UUID]bool, result *validation.Result) {
	downstream, err := tx.OperationRepository().ListDownstream(ctx, order.ID, adv.lastOperationNumber)
	if err != nil {
		result.AddError(validation.CodeMissingOperationDef,
			"failed to load downstream operations for PO "+order.ProductionOrder+": "+err.Error())
		return
	}

	cascadeStart := adv.cascadeStart
	for _, op := range downstream {
		wc, err := tx.WorkCenterRepository().GetByID(ctx, op.WorkCenterID)
		if err != nil || !wc.IsSchedulable {
			result.AddInfo(validation.CodeNonSchedulableWC,
				"downstream seq "+strconv.Itoa(op.OperationNumber)+" of PO "+order.ProductionOrder+" belongs to a non-schedulable work center, skipped")
			metrics.RescheduleCascadesSkipped.WithLabelValues("non_schedulable_work_center").Inc()
			continue
		}

		items, err := tx.PlannedScheduleItemRepository().ListByOperation(ctx, op.ID)
		if err != nil || len(items) == 0 {
			continue
		}
		sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
		item := items[len(items)-1]
		if touched[item.ID] {
			continue
		}

		activeVersion, err := tx.ScheduleVersionRepository().GetActiveByItem(ctx, item.ID)
		if err != nil {
			continue
		}

		start := cascadeStart
		live, err := tx.MachineRawLiveRepository().Get(ctx, item.MachineID)
		if err == nil && live.Status == entity.StatusOff {
			result.AddWarning(validation.CodeDownstreamMachineOff,
				"downstream seq "+strconv.Itoa(op.OperationNumber)+" of PO "+order.ProductionOrder+" skipped, machine off indefinitely")
			metrics.RescheduleCascadesSkipped.WithLabelValues("machine_off").Inc()
			continue
		}

		start = calendar.AdjustToShift(start)
		end := scheduler.Advance(start, op.SetupMinutes+op.IdealCycleMinutes*float64(item.TotalQuantity))

		if err := tx.ScheduleVersionRepository().Deactivate(ctx, activeVersion.ID); err != nil {
			result.AddError(validation.CodeDuplicateScheduleRow, "failed to deactivate version for PO "+order.ProductionOrder+": "+err.Error())
			continue
		}
		newVersionNumber := activeVersion.VersionNumber + 1
		if err := tx.ScheduleVersionRepository().Create(ctx, &entity.ScheduleVersion{
			ID: uuid.New(), ItemID: item.ID, VersionNumber: newVersionNumber,
			PlannedStartTime: start, PlannedEndTime: end,
			PlannedQuantity: item.TotalQuantity, CompletedQuantity: 0,
			RemainingQuantity: item.TotalQuantity, IsActive: true, CreatedAt: entity.Now(),
		}); err != nil {
			result.AddError(validation.CodeDuplicateScheduleRow, "failed to create cascade version for PO "+order.ProductionOrder+": "+err.Error())
			continue
		}
		metrics.RescheduleVersionsCreated.Inc()

		item.Status = entity.ItemScheduled
		item.RemainingQuantity = item.TotalQuantity
		item.CurrentVersion = newVersionNumber
		item.UpdatedAt = entity.Now()
		if err := tx.PlannedScheduleItemRepository().Update(ctx, item); err != nil {
			result.AddError(validation.CodeDuplicateScheduleRow, "failed to persist cascade update for PO "+order.ProductionOrder+": "+err.Error())
			continue
		}

		touched[item.ID] = true
		cascadeStart = end
	}
}
