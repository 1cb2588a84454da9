package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type scheduleVersionRepository struct {
	store *MemoryRepository
}

func (r *scheduleVersionRepository) Create(ctx context.Context, version *entity.ScheduleVersion) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *version
	r.store.scheduleVersions[version.ID] = &cp
	return nil
}

func (r *scheduleVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ScheduleVersion, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	v, ok := r.store.scheduleVersions[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "ScheduleVersion", ResourceID: id.String()}
	}
	cp := *v
	return &cp, nil
}

func (r *scheduleVersionRepository) GetActiveByItem(ctx context.Context, itemID uuid.UUID) (*entity.ScheduleVersion, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, v := range r.store.scheduleVersions {
		if v.ItemID == itemID && v.IsActive {
			cp := *v
			return &cp, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "ScheduleVersion", ResourceID: "active/" + itemID.String()}
}

func (r *scheduleVersionRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]*entity.ScheduleVersion, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.ScheduleVersion
	for _, v := range r.store.scheduleVersions {
		if v.ItemID == itemID {
			cp := *v
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].VersionNumber < result[j].VersionNumber })
	return result, nil
}

func (r *scheduleVersionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	v, ok := r.store.scheduleVersions[id]
	if !ok {
		return &repository.NotFoundError{ResourceType: "ScheduleVersion", ResourceID: id.String()}
	}
	v.IsActive = false
	return nil
}

func (r *scheduleVersionRepository) Update(ctx context.Context, version *entity.ScheduleVersion) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.scheduleVersions[version.ID]; !ok {
		return &repository.NotFoundError{ResourceType: "ScheduleVersion", ResourceID: version.ID.String()}
	}
	cp := *version
	r.store.scheduleVersions[version.ID] = &cp
	return nil
}
