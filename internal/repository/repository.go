package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
)

// Database provides access to all repositories
type Database interface {
	// Transaction management
	BeginTx(ctx context.Context) (Transaction, error)

	// Repository accessors
	OrderRepository() OrderRepository
	OperationRepository() OperationRepository
	WorkCenterRepository() WorkCenterRepository
	MachineRepository() MachineRepository
	PartScheduleStatusRepository() PartScheduleStatusRepository
	PlannedScheduleItemRepository() PlannedScheduleItemRepository
	ScheduleVersionRepository() ScheduleVersionRepository
	ProductionLogRepository() ProductionLogRepository
	MachineRawLiveRepository() MachineRawLiveRepository
	MachineRawRepository() MachineRawRepository
	ShiftSummaryRepository() ShiftSummaryRepository
	MachineDowntimeRepository() MachineDowntimeRepository
	ConfigInfoRepository() ConfigInfoRepository

	// Connection management
	Close() error
	Health(ctx context.Context) error
}

// Transaction represents a database transaction. The batch scheduler and
// dynamic rescheduler each hold exactly one of these for the duration of a
// generation/reschedule run and commit or roll back on return.
type Transaction interface {
	Commit() error
	Rollback() error

	OrderRepository() OrderRepository
	OperationRepository() OperationRepository
	WorkCenterRepository() WorkCenterRepository
	MachineRepository() MachineRepository
	PartScheduleStatusRepository() PartScheduleStatusRepository
	PlannedScheduleItemRepository() PlannedScheduleItemRepository
	ScheduleVersionRepository() ScheduleVersionRepository
	ProductionLogRepository() ProductionLogRepository
	MachineRawLiveRepository() MachineRawLiveRepository
	MachineRawRepository() MachineRawRepository
	ShiftSummaryRepository() ShiftSummaryRepository
	MachineDowntimeRepository() MachineDowntimeRepository
	ConfigInfoRepository() ConfigInfoRepository
}

// OrderRepository defines data access operations for production orders.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetByKey(ctx context.Context, partNumber, productionOrder string) (*entity.Order, error)
	ListActive(ctx context.Context) ([]*entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	Count(ctx context.Context) (int64, error)
}

// OperationRepository defines data access operations for operations.
type OperationRepository interface {
	Create(ctx context.Context, op *entity.Operation) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Operation, error)
	GetByOrderAndSequence(ctx context.Context, orderID uuid.UUID, operationNumber int) (*entity.Operation, error)
	// ListByOrder returns operations ordered by ascending OperationNumber.
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.Operation, error)
	ListDownstream(ctx context.Context, orderID uuid.UUID, afterOperationNumber int) ([]*entity.Operation, error)
	Update(ctx context.Context, op *entity.Operation) error
}

// WorkCenterRepository defines data access operations for work centers.
type WorkCenterRepository interface {
	Create(ctx context.Context, wc *entity.WorkCenter) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.WorkCenter, error)
}

// MachineRepository defines data access operations for machines.
type MachineRepository interface {
	Create(ctx context.Context, m *entity.Machine) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Machine, error)
	ListByWorkCenter(ctx context.Context, workCenterID uuid.UUID) ([]*entity.Machine, error)
	ListAll(ctx context.Context) ([]*entity.Machine, error)
}

// PartScheduleStatusRepository defines data access operations for
// activation state, keyed by production_order.
type PartScheduleStatusRepository interface {
	GetByProductionOrder(ctx context.Context, productionOrder string) (*entity.PartScheduleStatus, error)
	Upsert(ctx context.Context, status *entity.PartScheduleStatus) error
	ListActive(ctx context.Context) ([]*entity.PartScheduleStatus, error)
}

// PlannedScheduleItemRepository defines data access operations for schedule
// items.
type PlannedScheduleItemRepository interface {
	Create(ctx context.Context, item *entity.PlannedScheduleItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.PlannedScheduleItem, error)
	// FindDuplicate returns an existing item matching the exact dedup key
	// (Order, Operation, Machine, TotalQuantity, start, end) per §4.3's
	// per-fragment persistence tuple, used by the batch scheduler's
	// idempotent-write check.
	FindDuplicate(ctx context.Context, orderID, operationID, machineID uuid.UUID, totalQuantity int, start, end time.Time) (*entity.PlannedScheduleItem, error)
	// FindStaleFragment returns a previously persisted fragment of the same
	// (Order, Operation, Machine, TotalQuantity, QuantityLabel) whose start
	// time differs from start — the prior generation run's copy of this same
	// logical fragment, now superseded by a new activation/cascade time.
	FindStaleFragment(ctx context.Context, orderID, operationID, machineID uuid.UUID, totalQuantity int, quantityLabel string, start time.Time) (*entity.PlannedScheduleItem, error)
	ListByOperation(ctx context.Context, operationID uuid.UUID) ([]*entity.PlannedScheduleItem, error)
	ListByMachine(ctx context.Context, machineID uuid.UUID, from, to time.Time) ([]*entity.PlannedScheduleItem, error)
	ListByPartNumber(ctx context.Context, partNumber string) ([]*entity.PlannedScheduleItem, error)
	Update(ctx context.Context, item *entity.PlannedScheduleItem) error
}

// ScheduleVersionRepository defines data access operations for schedule
// versions.
type ScheduleVersionRepository interface {
	Create(ctx context.Context, version *entity.ScheduleVersion) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ScheduleVersion, error)
	GetActiveByItem(ctx context.Context, itemID uuid.UUID) (*entity.ScheduleVersion, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]*entity.ScheduleVersion, error)
	// Deactivate clears IsActive on the given version; the caller is
	// responsible for ensuring a replacement active version is written in
	// the same transaction (invariant: at most one active version/item).
	Deactivate(ctx context.Context, id uuid.UUID) error
	Update(ctx context.Context, version *entity.ScheduleVersion) error
}

// ProductionLogRepository defines data access operations for production
// logs.
type ProductionLogRepository interface {
	Create(ctx context.Context, log *entity.ProductionLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ProductionLog, error)
	ListByOperation(ctx context.Context, operationID uuid.UUID) ([]*entity.ProductionLog, error)
	ListByScheduleVersion(ctx context.Context, versionID uuid.UUID) ([]*entity.ProductionLog, error)
	ListByMachineAndWindow(ctx context.Context, machineID uuid.UUID, from, to time.Time) ([]*entity.ProductionLog, error)
	SumQuantityCompleted(ctx context.Context, operationID uuid.UUID) (int, error)
}

// MachineRawLiveRepository defines data access operations for the one
// current-state row per machine.
type MachineRawLiveRepository interface {
	Get(ctx context.Context, machineID uuid.UUID) (*entity.MachineRawLive, error)
	Upsert(ctx context.Context, live *entity.MachineRawLive) error
}

// MachineRawRepository defines data access operations for the append-only
// status-transition history.
type MachineRawRepository interface {
	Append(ctx context.Context, raw *entity.MachineRaw) error
	// ListByMachineAndWindow returns rows ordered by ascending Timestamp;
	// used by C6 to replay transitions within a shift.
	ListByMachineAndWindow(ctx context.Context, machineID uuid.UUID, from, to time.Time) ([]*entity.MachineRaw, error)
	// LatestBefore returns the last transition at or before `at`, used to
	// seed C6's replay at the shift boundary.
	LatestBefore(ctx context.Context, machineID uuid.UUID, at time.Time) (*entity.MachineRaw, error)
}

// ShiftSummaryRepository defines data access operations for shift summaries.
// C6 is the sole writer (§9); all other callers only read.
type ShiftSummaryRepository interface {
	GetOrCreate(ctx context.Context, machineID uuid.UUID, shiftID int, shiftStart time.Time) (*entity.ShiftSummary, error)
	Upsert(ctx context.Context, summary *entity.ShiftSummary) error
	ListByMachine(ctx context.Context, machineID uuid.UUID, from, to time.Time) ([]*entity.ShiftSummary, error)
}

// MachineDowntimeRepository defines data access operations for the downtime
// ledger.
type MachineDowntimeRepository interface {
	Create(ctx context.Context, downtime *entity.MachineDowntime) error
	GetOpen(ctx context.Context, machineID uuid.UUID) (*entity.MachineDowntime, error)
	Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error
}

// ConfigInfoRepository defines data access operations for per-machine OEE
// denominators.
type ConfigInfoRepository interface {
	GetByMachine(ctx context.Context, machineID uuid.UUID) (*entity.ConfigInfo, error)
	Upsert(ctx context.Context, cfg *entity.ConfigInfo) error
}

// NotFoundError represents a record not found error
type NotFoundError struct {
	ResourceType string
	ResourceID   string
}

// Error implements the error interface for NotFoundError
func (e *NotFoundError) Error() string {
	return "not found: " + e.ResourceType + " " + e.ResourceID
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// ValidationError represents a validation error
type ValidationError struct {
	Message string
	Field   string
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
