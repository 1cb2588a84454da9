package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
)

type shiftSummaryRepository struct {
	store *MemoryRepository
}

func (r *shiftSummaryRepository) GetOrCreate(ctx context.Context, machineID uuid.UUID, shiftID int, shiftStart time.Time) (*entity.ShiftSummary, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := shiftSummaryKey(machineID, shiftID, shiftStart)
	if s, ok := r.store.shiftSummaries[key]; ok {
		cp := *s
		return &cp, nil
	}
	fresh := &entity.ShiftSummary{
		MachineID:          machineID,
		ShiftID:            shiftID,
		ShiftStartDatetime: shiftStart,
		UpdatedAt:          entity.Now(),
	}
	cp := *fresh
	r.store.shiftSummaries[key] = &cp
	return fresh, nil
}

func (r *shiftSummaryRepository) Upsert(ctx context.Context, summary *entity.ShiftSummary) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := shiftSummaryKey(summary.MachineID, summary.ShiftID, summary.ShiftStartDatetime)
	cp := *summary
	r.store.shiftSummaries[key] = &cp
	return nil
}

func (r *shiftSummaryRepository) ListByMachine(ctx context.Context, machineID uuid.UUID, from, to time.Time) ([]*entity.ShiftSummary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.ShiftSummary
	for _, s := range r.store.shiftSummaries {
		if s.MachineID == machineID && !s.ShiftStartDatetime.Before(from) && s.ShiftStartDatetime.Before(to) {
			cp := *s
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ShiftStartDatetime.Before(result[j].ShiftStartDatetime) })
	return result, nil
}
