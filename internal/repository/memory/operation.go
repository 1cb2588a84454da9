package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type operationRepository struct {
	store *MemoryRepository
}

func (r *operationRepository) Create(ctx context.Context, op *entity.Operation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *op
	r.store.operations[op.ID] = &cp
	return nil
}

func (r *operationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Operation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	op, ok := r.store.operations[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Operation", ResourceID: id.String()}
	}
	cp := *op
	return &cp, nil
}

func (r *operationRepository) GetByOrderAndSequence(ctx context.Context, orderID uuid.UUID, operationNumber int) (*entity.Operation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, op := range r.store.operations {
		if op.OrderID == orderID && op.OperationNumber == operationNumber {
			cp := *op
			return &cp, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "Operation", ResourceID: fmt.Sprintf("%s/seq%d", orderID, operationNumber)}
}

func (r *operationRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.Operation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.Operation
	for _, op := range r.store.operations {
		if op.OrderID == orderID {
			cp := *op
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OperationNumber < result[j].OperationNumber })
	return result, nil
}

func (r *operationRepository) ListDownstream(ctx context.Context, orderID uuid.UUID, afterOperationNumber int) ([]*entity.Operation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.Operation
	for _, op := range r.store.operations {
		if op.OrderID == orderID && op.OperationNumber > afterOperationNumber {
			cp := *op
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OperationNumber < result[j].OperationNumber })
	return result, nil
}

func (r *operationRepository) Update(ctx context.Context, op *entity.Operation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.operations[op.ID]; !ok {
		return &repository.NotFoundError{ResourceType: "Operation", ResourceID: op.ID.String()}
	}
	cp := *op
	r.store.operations[op.ID] = &cp
	return nil
}
