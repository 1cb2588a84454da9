package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type machineRawLiveRepository struct {
	store *MemoryRepository
}

func (r *machineRawLiveRepository) Get(ctx context.Context, machineID uuid.UUID) (*entity.MachineRawLive, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	m, ok := r.store.machineRawLive[machineID]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "MachineRawLive", ResourceID: machineID.String()}
	}
	cp := *m
	return &cp, nil
}

func (r *machineRawLiveRepository) Upsert(ctx context.Context, live *entity.MachineRawLive) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *live
	r.store.machineRawLive[live.MachineID] = &cp
	return nil
}
