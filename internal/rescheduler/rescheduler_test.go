package rescheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
	"github.com/mesforge/shopfloor/internal/repository/memory"
	"github.com/mesforge/shopfloor/internal/validation"
)

func ist(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, entity.IST)
}

func seedActiveOrder(t *testing.T, ctx context.Context, db repository.Database, order *entity.Order) {
	t.Helper()
	require.NoError(t, db.OrderRepository().Create(ctx, order))
	require.NoError(t, db.PartScheduleStatusRepository().Upsert(ctx, &entity.PartScheduleStatus{
		ProductionOrder:     order.ProductionOrder,
		State:               entity.PartStateActive,
		ActivationTimestamp: entity.Now(),
		UpdatedAt:           entity.Now(),
	}))
}

func seedWorkCenterAndMachine(t *testing.T, ctx context.Context, db repository.Database, schedulable bool) (*entity.WorkCenter, *entity.Machine) {
	t.Helper()
	wc := &entity.WorkCenter{ID: uuid.New(), Name: "WC-1", IsSchedulable: schedulable}
	require.NoError(t, db.WorkCenterRepository().Create(ctx, wc))
	m := &entity.Machine{ID: uuid.New(), Name: "M-1", WorkCenterID: wc.ID}
	require.NoError(t, db.MachineRepository().Create(ctx, m))
	return wc, m
}

// seedScheduledItem creates an Operation with one active ScheduleVersion, as
// if the batch scheduler had already laid it out.
func seedScheduledItem(t *testing.T, ctx context.Context, db repository.Database, order *entity.Order, seq int, machineID uuid.UUID, workCenterID uuid.UUID, qty int, start, end time.Time) (*entity.Operation, *entity.PlannedScheduleItem) {
	t.Helper()
	op := &entity.Operation{
		ID: uuid.New(), OrderID: order.ID, OperationNumber: seq,
		MachineID: machineID, WorkCenterID: workCenterID,
		SetupMinutes: 10, IdealCycleMinutes: 2,
	}
	require.NoError(t, db.OperationRepository().Create(ctx, op))

	item := &entity.PlannedScheduleItem{
		ID: uuid.New(), OrderID: order.ID, OperationID: op.ID, MachineID: machineID,
		TotalQuantity: qty, InitialStartTime: start, InitialEndTime: end,
		RemainingQuantity: qty, Status: entity.ItemScheduled, CurrentVersion: 1,
		CreatedAt: entity.Now(), UpdatedAt: entity.Now(),
	}
	require.NoError(t, db.PlannedScheduleItemRepository().Create(ctx, item))

	version := &entity.ScheduleVersion{
		ID: uuid.New(), ItemID: item.ID, VersionNumber: 1,
		PlannedStartTime: start, PlannedEndTime: end,
		PlannedQuantity: qty, RemainingQuantity: qty, IsActive: true, CreatedAt: entity.Now(),
	}
	require.NoError(t, db.ScheduleVersionRepository().Create(ctx, version))

	return op, item
}

func TestRescheduleCreatesCompletedVersionFromFullProductionLog(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase(memory.NewMemoryRepository())
	_, machine := seedWorkCenterAndMachine(t, ctx, db, true)

	order := &entity.Order{ID: uuid.New(), PartNumber: "PN-1", ProductionOrder: "PO-1", RequiredQuantity: 10, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	seedActiveOrder(t, ctx, db, order)

	start := ist(2026, time.January, 6, 6, 0)
	end := ist(2026, time.January, 6, 7, 0)
	op, item := seedScheduledItem(t, ctx, db, order, 1, machine.ID, machine.WorkCenterID, 10, start, end)

	logEnd := ist(2026, time.January, 6, 6, 45)
	require.NoError(t, db.ProductionLogRepository().Create(ctx, &entity.ProductionLog{
		ID: uuid.New(), OperationID: op.ID, StartTime: start, EndTime: &logEnd, QuantityCompleted: 10,
	}))

	rs := NewRescheduler(db, zerolog.Nop())
	result, err := rs.Reschedule(ctx)
	require.NoError(t, err)
	assert.False(t, result.HasErrors())

	updated, err := db.PlannedScheduleItemRepository().GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ItemCompleted, updated.Status)
	assert.Equal(t, 0, updated.RemainingQuantity)

	versions, err := db.ScheduleVersionRepository().ListByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	active, err := db.ScheduleVersionRepository().GetActiveByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, active.CompletedQuantity)
	assert.True(t, active.PlannedEndTime.Equal(logEnd))
}

func TestRescheduleSplitsPartialCompletionIntoCompletedAndRemainingVersions(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase(memory.NewMemoryRepository())
	_, machine := seedWorkCenterAndMachine(t, ctx, db, true)

	order := &entity.Order{ID: uuid.New(), PartNumber: "PN-2", ProductionOrder: "PO-2", RequiredQuantity: 10, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	seedActiveOrder(t, ctx, db, order)

	start := ist(2026, time.January, 6, 6, 0)
	end := ist(2026, time.January, 6, 7, 0)
	op, item := seedScheduledItem(t, ctx, db, order, 1, machine.ID, machine.WorkCenterID, 10, start, end)

	logEnd := ist(2026, time.January, 6, 6, 30)
	require.NoError(t, db.ProductionLogRepository().Create(ctx, &entity.ProductionLog{
		ID: uuid.New(), OperationID: op.ID, StartTime: start, EndTime: &logEnd, QuantityCompleted: 4,
	}))

	rs := NewRescheduler(db, zerolog.Nop())
	result, err := rs.Reschedule(ctx)
	require.NoError(t, err)
	assert.False(t, result.HasErrors())

	updated, err := db.PlannedScheduleItemRepository().GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ItemScheduled, updated.Status)
	assert.Equal(t, 6, updated.RemainingQuantity)

	versions, err := db.ScheduleVersionRepository().ListByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3, "original + completed-portion + remaining-portion")

	active, err := db.ScheduleVersionRepository().GetActiveByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, active.PlannedQuantity)
	assert.True(t, active.PlannedStartTime.Equal(logEnd), "the remaining portion starts where the log left off")
}

func TestRescheduleCascadesToDownstreamSchedulableOperation(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase(memory.NewMemoryRepository())
	_, machine := seedWorkCenterAndMachine(t, ctx, db, true)

	order := &entity.Order{ID: uuid.New(), PartNumber: "PN-3", ProductionOrder: "PO-3", RequiredQuantity: 10, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	seedActiveOrder(t, ctx, db, order)

	start := ist(2026, time.January, 6, 6, 0)
	end := ist(2026, time.January, 6, 7, 0)
	op1, _ := seedScheduledItem(t, ctx, db, order, 1, machine.ID, machine.WorkCenterID, 10, start, end)

	downStart := ist(2026, time.January, 6, 7, 0)
	downEnd := ist(2026, time.January, 6, 8, 0)
	_, downItem := seedScheduledItem(t, ctx, db, order, 2, machine.ID, machine.WorkCenterID, 10, downStart, downEnd)

	logEnd := ist(2026, time.January, 6, 6, 45)
	require.NoError(t, db.ProductionLogRepository().Create(ctx, &entity.ProductionLog{
		ID: uuid.New(), OperationID: op1.ID, StartTime: start, EndTime: &logEnd, QuantityCompleted: 10,
	}))

	require.NoError(t, db.MachineRawLiveRepository().Upsert(ctx, &entity.MachineRawLive{
		MachineID: machine.ID, Status: entity.StatusProduction, SampleTime: entity.Now(),
	}))

	rs := NewRescheduler(db, zerolog.Nop())
	result, err := rs.Reschedule(ctx)
	require.NoError(t, err)
	assert.False(t, result.HasErrors())

	active, err := db.ScheduleVersionRepository().GetActiveByItem(ctx, downItem.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, active.VersionNumber)
	assert.True(t, active.PlannedStartTime.Equal(logEnd) || active.PlannedStartTime.After(logEnd),
		"cascaded start must not precede the predecessor's new completion time")
}

func TestRescheduleSkipsCascadeWhenDownstreamMachineIsOff(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase(memory.NewMemoryRepository())
	_, machine := seedWorkCenterAndMachine(t, ctx, db, true)

	order := &entity.Order{ID: uuid.New(), PartNumber: "PN-4", ProductionOrder: "PO-4", RequiredQuantity: 10, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	seedActiveOrder(t, ctx, db, order)

	start := ist(2026, time.January, 6, 6, 0)
	end := ist(2026, time.January, 6, 7, 0)
	op1, _ := seedScheduledItem(t, ctx, db, order, 1, machine.ID, machine.WorkCenterID, 10, start, end)

	downStart := ist(2026, time.January, 6, 7, 0)
	downEnd := ist(2026, time.January, 6, 8, 0)
	_, downItem := seedScheduledItem(t, ctx, db, order, 2, machine.ID, machine.WorkCenterID, 10, downStart, downEnd)

	logEnd := ist(2026, time.January, 6, 6, 45)
	require.NoError(t, db.ProductionLogRepository().Create(ctx, &entity.ProductionLog{
		ID: uuid.New(), OperationID: op1.ID, StartTime: start, EndTime: &logEnd, QuantityCompleted: 10,
	}))

	require.NoError(t, db.MachineRawLiveRepository().Upsert(ctx, &entity.MachineRawLive{
		MachineID: machine.ID, Status: entity.StatusOff, SampleTime: entity.Now(),
	}))

	rs := NewRescheduler(db, zerolog.Nop())
	result, err := rs.Reschedule(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, result.MessagesByCode(validation.CodeDownstreamMachineOff))

	active, err := db.ScheduleVersionRepository().GetActiveByItem(ctx, downItem.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, active.VersionNumber, "the downstream item must not be re-versioned while its machine is off")
}

func TestRescheduleIgnoresNonSchedulableDownstreamWorkCenter(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase(memory.NewMemoryRepository())
	_, machine := seedWorkCenterAndMachine(t, ctx, db, true)
	nonSchedulableWC, nonSchedulableMachine := seedWorkCenterAndMachine(t, ctx, db, false)

	order := &entity.Order{ID: uuid.New(), PartNumber: "PN-5", ProductionOrder: "PO-5", RequiredQuantity: 10, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	seedActiveOrder(t, ctx, db, order)

	start := ist(2026, time.January, 6, 6, 0)
	end := ist(2026, time.January, 6, 7, 0)
	op1, _ := seedScheduledItem(t, ctx, db, order, 1, machine.ID, machine.WorkCenterID, 10, start, end)

	downStart := ist(2026, time.January, 6, 7, 0)
	downEnd := ist(2026, time.January, 6, 8, 0)
	_, downItem := seedScheduledItem(t, ctx, db, order, 2, nonSchedulableMachine.ID, nonSchedulableWC.ID, 10, downStart, downEnd)

	logEnd := ist(2026, time.January, 6, 6, 45)
	require.NoError(t, db.ProductionLogRepository().Create(ctx, &entity.ProductionLog{
		ID: uuid.New(), OperationID: op1.ID, StartTime: start, EndTime: &logEnd, QuantityCompleted: 10,
	}))

	rs := NewRescheduler(db, zerolog.Nop())
	result, err := rs.Reschedule(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, result.MessagesByCode(validation.CodeNonSchedulableWC))

	active, err := db.ScheduleVersionRepository().GetActiveByItem(ctx, downItem.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, active.VersionNumber)
}
