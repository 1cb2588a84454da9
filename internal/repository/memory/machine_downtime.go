package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type machineDowntimeRepository struct {
	store *MemoryRepository
}

func (r *machineDowntimeRepository) Create(ctx context.Context, downtime *entity.MachineDowntime) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *downtime
	r.store.machineDowntimes[downtime.ID] = &cp
	return nil
}

func (r *machineDowntimeRepository) GetOpen(ctx context.Context, machineID uuid.UUID) (*entity.MachineDowntime, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var open *entity.MachineDowntime
	for _, d := range r.store.machineDowntimes {
		if d.MachineID != machineID || d.ClosedDT != nil {
			continue
		}
		if open == nil || d.OpenDT.After(open.OpenDT) {
			open = d
		}
	}
	if open == nil {
		return nil, &repository.NotFoundError{ResourceType: "MachineDowntime", ResourceID: "open/" + machineID.String()}
	}
	cp := *open
	return &cp, nil
}

func (r *machineDowntimeRepository) Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	d, ok := r.store.machineDowntimes[id]
	if !ok {
		return &repository.NotFoundError{ResourceType: "MachineDowntime", ResourceID: id.String()}
	}
	at := closedAt
	d.ClosedDT = &at
	return nil
}
