package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type productionLogRepository struct {
	store *MemoryRepository
}

func (r *productionLogRepository) Create(ctx context.Context, log *entity.ProductionLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *log
	r.store.productionLogs[log.ID] = &cp
	return nil
}

func (r *productionLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ProductionLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	l, ok := r.store.productionLogs[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "ProductionLog", ResourceID: id.String()}
	}
	cp := *l
	return &cp, nil
}

func (r *productionLogRepository) ListByOperation(ctx context.Context, operationID uuid.UUID) ([]*entity.ProductionLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.ProductionLog
	for _, l := range r.store.productionLogs {
		if l.OperationID == operationID {
			cp := *l
			result = append(result, &cp)
		}
	}
	sortProductionLogs(result)
	return result, nil
}

func (r *productionLogRepository) ListByScheduleVersion(ctx context.Context, versionID uuid.UUID) ([]*entity.ProductionLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.ProductionLog
	for _, l := range r.store.productionLogs {
		if l.ScheduleVersionID != nil && *l.ScheduleVersionID == versionID {
			cp := *l
			result = append(result, &cp)
		}
	}
	sortProductionLogs(result)
	return result, nil
}

func (r *productionLogRepository) ListByMachineAndWindow(ctx context.Context, machineID uuid.UUID, from, to time.Time) ([]*entity.ProductionLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.ProductionLog
	for _, l := range r.store.productionLogs {
		if l.MachineID == nil || *l.MachineID != machineID {
			continue
		}
		if !l.StartTime.Before(to) {
			continue
		}
		if l.EndTime != nil && !l.EndTime.After(from) {
			continue
		}
		cp := *l
		result = append(result, &cp)
	}
	sortProductionLogs(result)
	return result, nil
}

func (r *productionLogRepository) SumQuantityCompleted(ctx context.Context, operationID uuid.UUID) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	sum := 0
	for _, l := range r.store.productionLogs {
		if l.OperationID == operationID {
			sum += l.QuantityCompleted
		}
	}
	return sum, nil
}

func sortProductionLogs(logs []*entity.ProductionLog) {
	sort.Slice(logs, func(i, j int) bool { return logs[i].StartTime.Before(logs[j].StartTime) })
}
