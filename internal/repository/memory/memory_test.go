package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase() repository.Database {
	return NewDatabase(NewMemoryRepository())
}

func TestOrderCreateGetAndListActive(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()

	o := &entity.Order{
		ID:              uuid.New(),
		PartNumber:      "PN-100",
		ProductionOrder: "PO-1001",
		Priority:        5,
		CreatedAt:       entity.Now(),
		UpdatedAt:       entity.Now(),
	}
	require.NoError(t, db.OrderRepository().Create(ctx, o))

	got, err := db.OrderRepository().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "PO-1001", got.ProductionOrder)

	_, err = db.OrderRepository().GetByID(ctx, uuid.New())
	assert.True(t, repository.IsNotFound(err))

	require.NoError(t, db.PartScheduleStatusRepository().Upsert(ctx, &entity.PartScheduleStatus{
		ProductionOrder: "PO-1001",
		State:           entity.PartStateActive,
		UpdatedAt:       entity.Now(),
	}))

	active, err := db.OrderRepository().ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "PO-1001", active[0].ProductionOrder)
}

func TestOperationListByOrderOrdersBySequence(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	orderID := uuid.New()

	for _, n := range []int{3, 1, 2} {
		require.NoError(t, db.OperationRepository().Create(ctx, &entity.Operation{
			ID:              uuid.New(),
			OrderID:         orderID,
			OperationNumber: n,
		}))
	}

	ops, err := db.OperationRepository().ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, 1, ops[0].OperationNumber)
	assert.Equal(t, 2, ops[1].OperationNumber)
	assert.Equal(t, 3, ops[2].OperationNumber)
}

func TestScheduleVersionDeactivateIsExclusive(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	itemID := uuid.New()

	v1 := &entity.ScheduleVersion{ID: uuid.New(), ItemID: itemID, VersionNumber: 1, IsActive: true}
	v2 := &entity.ScheduleVersion{ID: uuid.New(), ItemID: itemID, VersionNumber: 2, IsActive: false}
	require.NoError(t, db.ScheduleVersionRepository().Create(ctx, v1))
	require.NoError(t, db.ScheduleVersionRepository().Create(ctx, v2))

	require.NoError(t, db.ScheduleVersionRepository().Deactivate(ctx, v1.ID))
	v2.IsActive = true
	require.NoError(t, db.ScheduleVersionRepository().Update(ctx, v2))

	active, err := db.ScheduleVersionRepository().GetActiveByItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, active.ID)
}

func TestMachineDowntimeOpenAndClose(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	machineID := uuid.New()

	d := &entity.MachineDowntime{ID: uuid.New(), MachineID: machineID, OpenDT: entity.Now()}
	require.NoError(t, db.MachineDowntimeRepository().Create(ctx, d))

	open, err := db.MachineDowntimeRepository().GetOpen(ctx, machineID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, open.ID)

	require.NoError(t, db.MachineDowntimeRepository().Close(ctx, d.ID, entity.Now().Add(time.Hour)))

	_, err = db.MachineDowntimeRepository().GetOpen(ctx, machineID)
	assert.True(t, repository.IsNotFound(err))
}

func TestProductionLogSumQuantityCompleted(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	opID := uuid.New()

	for _, qty := range []int{10, 15, 5} {
		require.NoError(t, db.ProductionLogRepository().Create(ctx, &entity.ProductionLog{
			ID:                uuid.New(),
			OperationID:       opID,
			StartTime:         entity.Now(),
			QuantityCompleted: qty,
		}))
	}

	sum, err := db.ProductionLogRepository().SumQuantityCompleted(ctx, opID)
	require.NoError(t, err)
	assert.Equal(t, 30, sum)
}

func TestShiftSummaryGetOrCreateThenUpsert(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()
	machineID := uuid.New()
	shiftStart := entity.Now()

	s, err := db.ShiftSummaryRepository().GetOrCreate(ctx, machineID, 1, shiftStart)
	require.NoError(t, err)
	assert.Equal(t, 0, s.TotalParts)

	s.TotalParts = 42
	require.NoError(t, db.ShiftSummaryRepository().Upsert(ctx, s))

	again, err := db.ShiftSummaryRepository().GetOrCreate(ctx, machineID, 1, shiftStart)
	require.NoError(t, err)
	assert.Equal(t, 42, again.TotalParts)
}

func TestBeginTxReturnsUsableTransaction(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase()

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)

	o := &entity.Order{ID: uuid.New(), PartNumber: "PN-1", ProductionOrder: "PO-1"}
	require.NoError(t, tx.OrderRepository().Create(ctx, o))
	require.NoError(t, tx.Commit())

	got, err := db.OrderRepository().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "PO-1", got.ProductionOrder)
}
