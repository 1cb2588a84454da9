package scheduler

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesforge/shopfloor/internal/calendar"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
	"github.com/mesforge/shopfloor/internal/repository/memory"
)

func ist(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, entity.IST)
}

func seedMachine(t *testing.T, ctx context.Context, db repository.Database, schedulable bool) (*entity.WorkCenter, *entity.Machine) {
	t.Helper()
	wc := &entity.WorkCenter{ID: uuid.New(), Name: "WC-1", IsSchedulable: schedulable}
	require.NoError(t, db.WorkCenterRepository().Create(ctx, wc))
	m := &entity.Machine{ID: uuid.New(), Name: "M-1", WorkCenterID: wc.ID}
	require.NoError(t, db.MachineRepository().Create(ctx, m))
	return wc, m
}

func TestGenerateSchedulesSingleOperationWithinShift(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase(memory.NewMemoryRepository())
	_, machine := seedMachine(t, ctx, db, true)

	order := &entity.Order{
		ID:               uuid.New(),
		PartNumber:       "PN-1",
		ProductionOrder:  "PO-1",
		RequiredQuantity: 10,
		Priority:         1,
		CreatedAt:        entity.Now(),
		UpdatedAt:        entity.Now(),
	}
	require.NoError(t, db.OrderRepository().Create(ctx, order))

	op := &entity.Operation{
		ID:                   uuid.New(),
		OrderID:              order.ID,
		OperationNumber:      1,
		OperationDescription: "Mill",
		MachineID:            machine.ID,
		WorkCenterID:         machine.WorkCenterID,
		SetupMinutes:         30,
		IdealCycleMinutes:    5,
	}
	require.NoError(t, db.OperationRepository().Create(ctx, op))

	activation := ist(2026, time.January, 6, 8, 0)
	require.NoError(t, db.PartScheduleStatusRepository().Upsert(ctx, &entity.PartScheduleStatus{
		ProductionOrder:     order.ProductionOrder,
		State:               entity.PartStateActive,
		ActivationTimestamp: activation,
		UpdatedAt:           entity.Now(),
	}))

	gen := NewGenerator(db, zerolog.Nop())
	result, err := gen.Generate(ctx)
	require.NoError(t, err)
	assert.False(t, result.HasErrors())

	items, err := db.PlannedScheduleItemRepository().ListByOperation(ctx, op.ID)
	require.NoError(t, err)
	require.Len(t, items, 2, "one fragment for the setup interval, one for the production interval")

	setupItem, productionItem := items[0], items[1]
	assert.Equal(t, 1, setupItem.TotalQuantity)
	assert.Equal(t, "Setup(30min)", setupItem.QuantityLabel)
	assert.True(t, setupItem.InitialStartTime.Equal(activation))
	assert.True(t, setupItem.InitialEndTime.Equal(activation.Add(30*time.Minute)))

	assert.Equal(t, 10, productionItem.TotalQuantity)
	assert.Equal(t, "Process(10/10pcs)", productionItem.QuantityLabel)
	assert.True(t, productionItem.InitialStartTime.Equal(activation.Add(30*time.Minute)))
	expectedEnd := activation.Add(30 * time.Minute).Add(50 * time.Minute)
	assert.True(t, productionItem.InitialEndTime.Equal(expectedEnd))

	versions, err := db.ScheduleVersionRepository().ListByItem(ctx, productionItem.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.True(t, versions[0].IsActive)
	assert.Equal(t, 10, versions[0].PlannedQuantity)
}

func TestGenerateSkipsSentinelMachine(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase(memory.NewMemoryRepository())
	wc := &entity.WorkCenter{ID: uuid.New(), Name: "WC-1", IsSchedulable: true}
	require.NoError(t, db.WorkCenterRepository().Create(ctx, wc))
	sentinel := &entity.Machine{ID: uuid.New(), Name: entity.SentinelMachineName, WorkCenterID: wc.ID}
	require.NoError(t, db.MachineRepository().Create(ctx, sentinel))

	order := &entity.Order{ID: uuid.New(), PartNumber: "PN-2", ProductionOrder: "PO-2", RequiredQuantity: 5}
	require.NoError(t, db.OrderRepository().Create(ctx, order))
	op := &entity.Operation{ID: uuid.New(), OrderID: order.ID, OperationNumber: 1, MachineID: sentinel.ID, WorkCenterID: wc.ID, SetupMinutes: 10, IdealCycleMinutes: 2}
	require.NoError(t, db.OperationRepository().Create(ctx, op))
	require.NoError(t, db.PartScheduleStatusRepository().Upsert(ctx, &entity.PartScheduleStatus{
		ProductionOrder:     order.ProductionOrder,
		State:               entity.PartStateActive,
		ActivationTimestamp: ist(2026, time.January, 6, 8, 0),
	}))

	gen := NewGenerator(db, zerolog.Nop())
	_, err := gen.Generate(ctx)
	require.NoError(t, err)

	items, err := db.PlannedScheduleItemRepository().ListByOperation(ctx, op.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGenerateSkipsInactiveParts(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase(memory.NewMemoryRepository())

	order := &entity.Order{ID: uuid.New(), PartNumber: "PN-3", ProductionOrder: "PO-3", RequiredQuantity: 5}
	require.NoError(t, db.OrderRepository().Create(ctx, order))

	gen := NewGenerator(db, zerolog.Nop())
	result, err := gen.Generate(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, result.MessagesBySeverity("WARNING"))
}

func TestAdvanceSplitsAcrossShiftBoundary(t *testing.T) {
	start := calendar.ShiftEnd(ist(2026, time.January, 6, 0, 0)).Add(-10 * time.Minute)
	end := Advance(start, 30)
	assert.Equal(t, 6, end.In(entity.IST).Hour())
	assert.Equal(t, 20, end.In(entity.IST).Minute())
}

func TestPartOrderingRespectsSortByPriorityFirstFlag(t *testing.T) {
	// Part A activates first but has worse (higher) priority; part B
	// activates later but has better (lower) priority.
	a := candidatePart{order: &entity.Order{PartNumber: "PN-A", ProductionOrder: "PO-A", Priority: 9}, activation: ist(2026, time.January, 6, 8, 0)}
	b := candidatePart{order: &entity.Order{PartNumber: "PN-B", ProductionOrder: "PO-B", Priority: 1}, activation: ist(2026, time.January, 6, 9, 0)}

	canonical := []candidatePart{b, a}
	sort.SliceStable(canonical, func(i, j int) bool {
		x, y := canonical[i], canonical[j]
		if !x.activation.Equal(y.activation) {
			return x.activation.Before(y.activation)
		}
		return x.order.Priority < y.order.Priority
	})
	assert.Equal(t, "PO-A", canonical[0].order.ProductionOrder, "canonical order schedules by activation time first")

	priorityFirst := []candidatePart{b, a}
	sort.SliceStable(priorityFirst, func(i, j int) bool {
		x, y := priorityFirst[i], priorityFirst[j]
		if x.order.Priority != y.order.Priority {
			return x.order.Priority < y.order.Priority
		}
		return x.activation.Before(y.activation)
	})
	assert.Equal(t, "PO-B", priorityFirst[0].order.ProductionOrder, "SortByPriorityFirst schedules the higher-priority part first")
}
