package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
)

// MemoryRepository is a shared in-memory store for all entity types, used by
// unit tests and local development in place of a running Postgres instance.
// A single RWMutex guards every map; this is not meant to scale, only to
// behave correctly for small test fixtures.
type MemoryRepository struct {
	mu sync.RWMutex

	orders               map[uuid.UUID]*entity.Order
	operations           map[uuid.UUID]*entity.Operation
	workCenters          map[uuid.UUID]*entity.WorkCenter
	machines             map[uuid.UUID]*entity.Machine
	partScheduleStatuses map[string]*entity.PartScheduleStatus
	scheduleItems        map[uuid.UUID]*entity.PlannedScheduleItem
	scheduleVersions     map[uuid.UUID]*entity.ScheduleVersion
	productionLogs       map[uuid.UUID]*entity.ProductionLog
	machineRawLive       map[uuid.UUID]*entity.MachineRawLive
	machineRaw           map[uuid.UUID]*entity.MachineRaw
	shiftSummaries       map[string]*entity.ShiftSummary
	machineDowntimes     map[uuid.UUID]*entity.MachineDowntime
	configInfos          map[uuid.UUID]*entity.ConfigInfo
}

// NewMemoryRepository creates a new empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders:               make(map[uuid.UUID]*entity.Order),
		operations:           make(map[uuid.UUID]*entity.Operation),
		workCenters:          make(map[uuid.UUID]*entity.WorkCenter),
		machines:             make(map[uuid.UUID]*entity.Machine),
		partScheduleStatuses: make(map[string]*entity.PartScheduleStatus),
		scheduleItems:        make(map[uuid.UUID]*entity.PlannedScheduleItem),
		scheduleVersions:     make(map[uuid.UUID]*entity.ScheduleVersion),
		productionLogs:       make(map[uuid.UUID]*entity.ProductionLog),
		machineRawLive:       make(map[uuid.UUID]*entity.MachineRawLive),
		machineRaw:           make(map[uuid.UUID]*entity.MachineRaw),
		shiftSummaries:       make(map[string]*entity.ShiftSummary),
		machineDowntimes:     make(map[uuid.UUID]*entity.MachineDowntime),
		configInfos:          make(map[uuid.UUID]*entity.ConfigInfo),
	}
}

func shiftSummaryKey(machineID uuid.UUID, shiftID int, shiftStart time.Time) string {
	return fmt.Sprintf("%s/%d/%d", machineID, shiftID, shiftStart.Unix())
}
