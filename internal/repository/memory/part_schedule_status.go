package memory

import (
	"context"

	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type partScheduleStatusRepository struct {
	store *MemoryRepository
}

func (r *partScheduleStatusRepository) GetByProductionOrder(ctx context.Context, productionOrder string) (*entity.PartScheduleStatus, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	s, ok := r.store.partScheduleStatuses[productionOrder]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "PartScheduleStatus", ResourceID: productionOrder}
	}
	cp := *s
	return &cp, nil
}

func (r *partScheduleStatusRepository) Upsert(ctx context.Context, status *entity.PartScheduleStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *status
	r.store.partScheduleStatuses[status.ProductionOrder] = &cp
	return nil
}

func (r *partScheduleStatusRepository) ListActive(ctx context.Context) ([]*entity.PartScheduleStatus, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.PartScheduleStatus
	for _, s := range r.store.partScheduleStatuses {
		if s.State == entity.PartStateActive {
			cp := *s
			result = append(result, &cp)
		}
	}
	return result, nil
}
