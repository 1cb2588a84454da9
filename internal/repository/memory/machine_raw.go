package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type machineRawRepository struct {
	store *MemoryRepository
}

func (r *machineRawRepository) Append(ctx context.Context, raw *entity.MachineRaw) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *raw
	r.store.machineRaw[raw.ID] = &cp
	return nil
}

func (r *machineRawRepository) ListByMachineAndWindow(ctx context.Context, machineID uuid.UUID, from, to time.Time) ([]*entity.MachineRaw, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.MachineRaw
	for _, m := range r.store.machineRaw {
		if m.MachineID == machineID && !m.Timestamp.Before(from) && m.Timestamp.Before(to) {
			cp := *m
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.Before(result[j].Timestamp) })
	return result, nil
}

func (r *machineRawRepository) LatestBefore(ctx context.Context, machineID uuid.UUID, at time.Time) (*entity.MachineRaw, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var latest *entity.MachineRaw
	for _, m := range r.store.machineRaw {
		if m.MachineID != machineID || m.Timestamp.After(at) {
			continue
		}
		if latest == nil || m.Timestamp.After(latest.Timestamp) {
			latest = m
		}
	}
	if latest == nil {
		return nil, &repository.NotFoundError{ResourceType: "MachineRaw", ResourceID: machineID.String()}
	}
	cp := *latest
	return &cp, nil
}
