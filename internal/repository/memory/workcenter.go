package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type workCenterRepository struct {
	store *MemoryRepository
}

func (r *workCenterRepository) Create(ctx context.Context, wc *entity.WorkCenter) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *wc
	r.store.workCenters[wc.ID] = &cp
	return nil
}

func (r *workCenterRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.WorkCenter, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	wc, ok := r.store.workCenters[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "WorkCenter", ResourceID: id.String()}
	}
	cp := *wc
	return &cp, nil
}
