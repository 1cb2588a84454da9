package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type configInfoRepository struct {
	store *MemoryRepository
}

func (r *configInfoRepository) GetByMachine(ctx context.Context, machineID uuid.UUID) (*entity.ConfigInfo, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.configInfos[machineID]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "ConfigInfo", ResourceID: machineID.String()}
	}
	cp := *c
	return &cp, nil
}

func (r *configInfoRepository) Upsert(ctx context.Context, cfg *entity.ConfigInfo) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *cfg
	r.store.configInfos[cfg.MachineID] = &cp
	return nil
}
