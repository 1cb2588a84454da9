package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type plannedScheduleItemRepository struct {
	store *MemoryRepository
}

func (r *plannedScheduleItemRepository) Create(ctx context.Context, item *entity.PlannedScheduleItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *item
	r.store.scheduleItems[item.ID] = &cp
	return nil
}

func (r *plannedScheduleItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.PlannedScheduleItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	i, ok := r.store.scheduleItems[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "PlannedScheduleItem", ResourceID: id.String()}
	}
	cp := *i
	return &cp, nil
}

func (r *plannedScheduleItemRepository) FindDuplicate(ctx context.Context, orderID, operationID, machineID uuid.UUID, totalQuantity int, start, end time.Time) (*entity.PlannedScheduleItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, i := range r.store.scheduleItems {
		if i.OrderID == orderID && i.OperationID == operationID && i.MachineID == machineID &&
			i.TotalQuantity == totalQuantity && i.InitialStartTime.Equal(start) && i.InitialEndTime.Equal(end) {
			cp := *i
			return &cp, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "PlannedScheduleItem", ResourceID: "duplicate-check"}
}

func (r *plannedScheduleItemRepository) FindStaleFragment(ctx context.Context, orderID, operationID, machineID uuid.UUID, totalQuantity int, quantityLabel string, start time.Time) (*entity.PlannedScheduleItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, i := range r.store.scheduleItems {
		if i.OrderID == orderID && i.OperationID == operationID && i.MachineID == machineID &&
			i.TotalQuantity == totalQuantity && i.QuantityLabel == quantityLabel && !i.InitialStartTime.Equal(start) {
			cp := *i
			return &cp, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "PlannedScheduleItem", ResourceID: "stale-fragment-check"}
}

func (r *plannedScheduleItemRepository) ListByOperation(ctx context.Context, operationID uuid.UUID) ([]*entity.PlannedScheduleItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.PlannedScheduleItem
	for _, i := range r.store.scheduleItems {
		if i.OperationID == operationID {
			cp := *i
			result = append(result, &cp)
		}
	}
	sortScheduleItems(result)
	return result, nil
}

func (r *plannedScheduleItemRepository) ListByMachine(ctx context.Context, machineID uuid.UUID, from, to time.Time) ([]*entity.PlannedScheduleItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.PlannedScheduleItem
	for _, i := range r.store.scheduleItems {
		if i.MachineID == machineID && i.InitialStartTime.Before(to) && i.InitialEndTime.After(from) {
			cp := *i
			result = append(result, &cp)
		}
	}
	sortScheduleItems(result)
	return result, nil
}

func (r *plannedScheduleItemRepository) ListByPartNumber(ctx context.Context, partNumber string) ([]*entity.PlannedScheduleItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.PlannedScheduleItem
	for _, i := range r.store.scheduleItems {
		order, ok := r.store.orders[i.OrderID]
		if !ok || order.PartNumber != partNumber {
			continue
		}
		cp := *i
		result = append(result, &cp)
	}
	sortScheduleItems(result)
	return result, nil
}

func (r *plannedScheduleItemRepository) Update(ctx context.Context, item *entity.PlannedScheduleItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.scheduleItems[item.ID]
	if !ok {
		return &repository.NotFoundError{ResourceType: "PlannedScheduleItem", ResourceID: item.ID.String()}
	}
	cp := *item
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = entity.Now()
	r.store.scheduleItems[item.ID] = &cp
	return nil
}

func sortScheduleItems(items []*entity.PlannedScheduleItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].InitialStartTime.Before(items[j].InitialStartTime) })
}
