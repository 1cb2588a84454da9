package postgres

import (
	"context"
	"database/sql"

	"github.com/mesforge/shopfloor/internal/repository"
)

// database implements repository.Database over a *DB connection pool,
// constructing one querier (DB or *sql.Tx) per call and wrapping it in the
// per-entity repository structs below.
type database struct {
	db *DB
}

// NewDatabase adapts a connected DB into the repository.Database interface.
func NewDatabase(db *DB) repository.Database {
	return &database{db: db}
}

func (d *database) BeginTx(ctx context.Context) (repository.Transaction, error) {
	tx, err := d.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &transaction{tx: tx}, nil
}

func (d *database) OrderRepository() repository.OrderRepository { return &orderRepository{q: d.db.DB} }
func (d *database) OperationRepository() repository.OperationRepository {
	return &operationRepository{q: d.db.DB}
}
func (d *database) WorkCenterRepository() repository.WorkCenterRepository {
	return &workCenterRepository{q: d.db.DB}
}
func (d *database) MachineRepository() repository.MachineRepository {
	return &machineRepository{q: d.db.DB}
}
func (d *database) PartScheduleStatusRepository() repository.PartScheduleStatusRepository {
	return &partScheduleStatusRepository{q: d.db.DB}
}
func (d *database) PlannedScheduleItemRepository() repository.PlannedScheduleItemRepository {
	return &plannedScheduleItemRepository{q: d.db.DB}
}
func (d *database) ScheduleVersionRepository() repository.ScheduleVersionRepository {
	return &scheduleVersionRepository{q: d.db.DB}
}
func (d *database) ProductionLogRepository() repository.ProductionLogRepository {
	return &productionLogRepository{q: d.db.DB}
}
func (d *database) MachineRawLiveRepository() repository.MachineRawLiveRepository {
	return &machineRawLiveRepository{q: d.db.DB}
}
func (d *database) MachineRawRepository() repository.MachineRawRepository {
	return &machineRawRepository{q: d.db.DB}
}
func (d *database) ShiftSummaryRepository() repository.ShiftSummaryRepository {
	return &shiftSummaryRepository{q: d.db.DB}
}
func (d *database) MachineDowntimeRepository() repository.MachineDowntimeRepository {
	return &machineDowntimeRepository{q: d.db.DB}
}
func (d *database) ConfigInfoRepository() repository.ConfigInfoRepository {
	return &configInfoRepository{q: d.db.DB}
}

func (d *database) Close() error                       { return d.db.Close() }
func (d *database) Health(ctx context.Context) error    { return d.db.Health(ctx) }

// transaction implements repository.Transaction over a *sql.Tx, handing out
// the same per-entity repository structs constructed against the tx instead
// of the pool, so every statement in a batch-scheduler or rescheduler run
// shares one atomic unit of work.
type transaction struct {
	tx *sql.Tx
}

func (t *transaction) Commit() error   { return t.tx.Commit() }
func (t *transaction) Rollback() error { return t.tx.Rollback() }

func (t *transaction) OrderRepository() repository.OrderRepository { return &orderRepository{q: t.tx} }
func (t *transaction) OperationRepository() repository.OperationRepository {
	return &operationRepository{q: t.tx}
}
func (t *transaction) WorkCenterRepository() repository.WorkCenterRepository {
	return &workCenterRepository{q: t.tx}
}
func (t *transaction) MachineRepository() repository.MachineRepository {
	return &machineRepository{q: t.tx}
}
func (t *transaction) PartScheduleStatusRepository() repository.PartScheduleStatusRepository {
	return &partScheduleStatusRepository{q: t.tx}
}
func (t *transaction) PlannedScheduleItemRepository() repository.PlannedScheduleItemRepository {
	return &plannedScheduleItemRepository{q: t.tx}
}
func (t *transaction) ScheduleVersionRepository() repository.ScheduleVersionRepository {
	return &scheduleVersionRepository{q: t.tx}
}
func (t *transaction) ProductionLogRepository() repository.ProductionLogRepository {
	return &productionLogRepository{q: t.tx}
}
func (t *transaction) MachineRawLiveRepository() repository.MachineRawLiveRepository {
	return &machineRawLiveRepository{q: t.tx}
}
func (t *transaction) MachineRawRepository() repository.MachineRawRepository {
	return &machineRawRepository{q: t.tx}
}
func (t *transaction) ShiftSummaryRepository() repository.ShiftSummaryRepository {
	return &shiftSummaryRepository{q: t.tx}
}
func (t *transaction) MachineDowntimeRepository() repository.MachineDowntimeRepository {
	return &machineDowntimeRepository{q: t.tx}
}
func (t *transaction) ConfigInfoRepository() repository.ConfigInfoRepository {
	return &configInfoRepository{q: t.tx}
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting every
// per-entity repository below run unmodified whether it was constructed
// from the pool or from an in-flight transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}
