package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type machineRepository struct {
	store *MemoryRepository
}

func (r *machineRepository) Create(ctx context.Context, m *entity.Machine) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *m
	r.store.machines[m.ID] = &cp
	return nil
}

func (r *machineRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Machine, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	m, ok := r.store.machines[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Machine", ResourceID: id.String()}
	}
	cp := *m
	return &cp, nil
}

func (r *machineRepository) ListByWorkCenter(ctx context.Context, workCenterID uuid.UUID) ([]*entity.Machine, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.Machine
	for _, m := range r.store.machines {
		if m.WorkCenterID == workCenterID {
			cp := *m
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *machineRepository) ListAll(ctx context.Context) ([]*entity.Machine, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.Machine
	for _, m := range r.store.machines {
		cp := *m
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
