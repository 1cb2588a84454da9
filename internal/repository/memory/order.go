package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type orderRepository struct {
	store *MemoryRepository
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *o
	r.store.orders[o.ID] = &cp
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	o, ok := r.store.orders[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Order", ResourceID: id.String()}
	}
	cp := *o
	return &cp, nil
}

func (r *orderRepository) GetByKey(ctx context.Context, partNumber, productionOrder string) (*entity.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, o := range r.store.orders {
		if o.PartNumber == partNumber && o.ProductionOrder == productionOrder {
			cp := *o
			return &cp, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "Order", ResourceID: partNumber + "/" + productionOrder}
}

func (r *orderRepository) ListActive(ctx context.Context) ([]*entity.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*entity.Order
	for _, o := range r.store.orders {
		status, ok := r.store.partScheduleStatuses[o.ProductionOrder]
		if !ok || status.State != entity.PartStateActive {
			continue
		}
		cp := *o
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Priority < result[j].Priority })
	return result, nil
}

func (r *orderRepository) Update(ctx context.Context, o *entity.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.orders[o.ID]
	if !ok {
		return &repository.NotFoundError{ResourceType: "Order", ResourceID: o.ID.String()}
	}
	cp := *o
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = entity.Now()
	r.store.orders[o.ID] = &cp
	return nil
}

func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.orders)), nil
}
