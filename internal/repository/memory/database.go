package memory

import (
	"context"

	"github.com/mesforge/shopfloor/internal/repository"
)

// database adapts a MemoryRepository into repository.Database. Unlike the
// Postgres implementation there is no real transaction isolation: BeginTx
// hands back a transaction view over the same maps, and Commit/Rollback are
// no-ops. This is adequate for the unit tests and local dry-runs the memory
// store exists for; anything needing real atomicity runs against Postgres.
type database struct {
	store *MemoryRepository
}

// NewDatabase adapts a MemoryRepository into the repository.Database interface.
func NewDatabase(store *MemoryRepository) repository.Database {
	return &database{store: store}
}

func (d *database) BeginTx(ctx context.Context) (repository.Transaction, error) {
	return &transaction{store: d.store}, nil
}

func (d *database) OrderRepository() repository.OrderRepository { return &orderRepository{store: d.store} }
func (d *database) OperationRepository() repository.OperationRepository {
	return &operationRepository{store: d.store}
}
func (d *database) WorkCenterRepository() repository.WorkCenterRepository {
	return &workCenterRepository{store: d.store}
}
func (d *database) MachineRepository() repository.MachineRepository {
	return &machineRepository{store: d.store}
}
func (d *database) PartScheduleStatusRepository() repository.PartScheduleStatusRepository {
	return &partScheduleStatusRepository{store: d.store}
}
func (d *database) PlannedScheduleItemRepository() repository.PlannedScheduleItemRepository {
	return &plannedScheduleItemRepository{store: d.store}
}
func (d *database) ScheduleVersionRepository() repository.ScheduleVersionRepository {
	return &scheduleVersionRepository{store: d.store}
}
func (d *database) ProductionLogRepository() repository.ProductionLogRepository {
	return &productionLogRepository{store: d.store}
}
func (d *database) MachineRawLiveRepository() repository.MachineRawLiveRepository {
	return &machineRawLiveRepository{store: d.store}
}
func (d *database) MachineRawRepository() repository.MachineRawRepository {
	return &machineRawRepository{store: d.store}
}
func (d *database) ShiftSummaryRepository() repository.ShiftSummaryRepository {
	return &shiftSummaryRepository{store: d.store}
}
func (d *database) MachineDowntimeRepository() repository.MachineDowntimeRepository {
	return &machineDowntimeRepository{store: d.store}
}
func (d *database) ConfigInfoRepository() repository.ConfigInfoRepository {
	return &configInfoRepository{store: d.store}
}

func (d *database) Close() error { return nil }
func (d *database) Health(ctx context.Context) error { return nil }

type transaction struct {
	store *MemoryRepository
}

func (t *transaction) Commit() error   { return nil }
func (t *transaction) Rollback() error { return nil }

func (t *transaction) OrderRepository() repository.OrderRepository { return &orderRepository{store: t.store} }
func (t *transaction) OperationRepository() repository.OperationRepository {
	return &operationRepository{store: t.store}
}
func (t *transaction) WorkCenterRepository() repository.WorkCenterRepository {
	return &workCenterRepository{store: t.store}
}
func (t *transaction) MachineRepository() repository.MachineRepository {
	return &machineRepository{store: t.store}
}
func (t *transaction) PartScheduleStatusRepository() repository.PartScheduleStatusRepository {
	return &partScheduleStatusRepository{store: t.store}
}
func (t *transaction) PlannedScheduleItemRepository() repository.PlannedScheduleItemRepository {
	return &plannedScheduleItemRepository{store: t.store}
}
func (t *transaction) ScheduleVersionRepository() repository.ScheduleVersionRepository {
	return &scheduleVersionRepository{store: t.store}
}
func (t *transaction) ProductionLogRepository() repository.ProductionLogRepository {
	return &productionLogRepository{store: t.store}
}
func (t *transaction) MachineRawLiveRepository() repository.MachineRawLiveRepository {
	return &machineRawLiveRepository{store: t.store}
}
func (t *transaction) MachineRawRepository() repository.MachineRawRepository {
	return &machineRawRepository{store: t.store}
}
func (t *transaction) ShiftSummaryRepository() repository.ShiftSummaryRepository {
	return &shiftSummaryRepository{store: t.store}
}
func (t *transaction) MachineDowntimeRepository() repository.MachineDowntimeRepository {
	return &machineDowntimeRepository{store: t.store}
}
func (t *transaction) ConfigInfoRepository() repository.ConfigInfoRepository {
	return &configInfoRepository{store: t.store}
}
