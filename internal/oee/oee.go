// Package oee implements the shift summary & OEE reconciliation (C6): the
// single writer of ShiftSummary. Collectors only call Update to request a
// refresh; they never write summary fields themselves.
package oee

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesforge/shopfloor/internal/calendar"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/metrics"
	"github.com/mesforge/shopfloor/internal/repository"
)

// Updater recomputes one machine's current-shift summary from the raw
// status history and production logs.
type Updater struct {
	db     repository.Database
	shifts *calendar.ShiftManager
	log    zerolog.Logger
}

// NewUpdater builds an Updater against db, resolving shift windows through
// shifts (ThreeShiftDefault when the deployment has no explicit ShiftInfo).
func NewUpdater(db repository.Database, shifts *calendar.ShiftManager, log zerolog.Logger) *Updater {
	return &Updater{db: db, shifts: shifts, log: log.With().Str("component", "oee").Logger()}
}

// Update recomputes and persists the ShiftSummary row covering now for
// machineID, per §4.6. It is idempotent: replaying the same now twice
// produces the same row.
func (u *Updater) Update(ctx context.Context, now time.Time, machineID uuid.UUID) error {
	shiftID, shiftStart, shiftEnd, err := u.shifts.CurrentShift(now)
	if err != nil {
		return err
	}

	summary, err := u.db.ShiftSummaryRepository().GetOrCreate(ctx, machineID, shiftID, shiftStart)
	if err != nil {
		return err
	}

	shiftLength, err := u.shifts.ShiftLength(shiftID)
	if err != nil {
		return err
	}

	off, idle, production, err := u.replayDurations(ctx, machineID, shiftStart, now)
	if err != nil {
		return err
	}

	clamp := func(d time.Duration) time.Duration {
		if d > shiftLength {
			return shiftLength
		}
		if d < 0 {
			return 0
		}
		return d
	}
	off, idle, production = clamp(off), clamp(idle), clamp(production)

	totalParts, goodParts, badParts, err := u.partCounts(ctx, machineID, shiftStart, now)
	if err != nil {
		return err
	}

	cfg, err := u.db.ConfigInfoRepository().GetByMachine(ctx, machineID)
	if err != nil {
		if !repository.IsNotFound(err) {
			return err
		}
		cfg = &entity.ConfigInfo{MachineID: machineID}
	}

	summary.ShiftEndDatetime = shiftEnd
	summary.OffTime = off
	summary.IdleTime = idle
	summary.ProductionTime = production
	summary.TotalParts = totalParts
	summary.GoodParts = goodParts
	summary.BadParts = badParts

	denominatorMinutes := shiftLength.Minutes() - cfg.PlannedNonProductionMinutes - cfg.PlannedDowntimeMinutes
	if denominatorMinutes > 0 {
		summary.Availability = clampRatio(production.Minutes() / denominatorMinutes)
	} else {
		summary.Availability = 0
	}

	summary.Performance = u.averagePerformance(ctx, machineID, shiftStart, now, production)

	if cfg.LegacyQuality && totalParts > 0 {
		if live, err := u.db.MachineRawLiveRepository().Get(ctx, machineID); err == nil && live.Status == entity.StatusProduction {
			goodParts = totalParts
			summary.GoodParts = goodParts
		}
	}

	if totalParts > 0 {
		summary.Quality = clampRatio(float64(goodParts) / float64(totalParts))
	} else {
		summary.Quality = 1
	}

	summary.OEE = summary.Availability * summary.Performance * summary.Quality
	summary.UpdatedAt = entity.Now()

	if err := u.db.ShiftSummaryRepository().Upsert(ctx, summary); err != nil {
		return err
	}

	machineLabel := machineID.String()
	metrics.OEEAvailability.WithLabelValues(machineLabel).Set(summary.Availability)
	metrics.OEEPerformance.WithLabelValues(machineLabel).Set(summary.Performance)
	metrics.OEEQuality.WithLabelValues(machineLabel).Set(summary.Quality)
	metrics.OEEOverall.WithLabelValues(machineLabel).Set(summary.OEE)

	return nil
}

// replayDurations walks MachineRaw transitions for machineID from the last
// transition at or before shiftStart through now, in timestamp order, and
// accumulates the OFF/IDLE/PRODUCTION duration of each segment keyed by the
// status at the segment's start.
func (u *Updater) replayDurations(ctx context.Context, machineID uuid.UUID, shiftStart, now time.Time) (off, idle, production time.Duration, err error) {
	rows := make([]*entity.MachineRaw, 0, 8)

	seed, err := u.db.MachineRawRepository().LatestBefore(ctx, machineID, shiftStart)
	if err != nil && !repository.IsNotFound(err) {
		return 0, 0, 0, err
	}
	if err == nil {
		rows = append(rows, seed)
	}

	within, err := u.db.MachineRawRepository().ListByMachineAndWindow(ctx, machineID, shiftStart, now)
	if err != nil {
		return 0, 0, 0, err
	}
	rows = append(rows, within...)

	if len(rows) == 0 {
		return 0, 0, 0, nil
	}

	accumulate := func(status entity.StatusCode, d time.Duration) {
		switch status {
		case entity.StatusOff:
			off += d
		case entity.StatusIdle:
			idle += d
		case entity.StatusProduction:
			production += d
		}
	}

	for i, row := range rows {
		segmentStart := row.Timestamp
		if segmentStart.Before(shiftStart) {
			segmentStart = shiftStart
		}
		segmentEnd := now
		if i+1 < len(rows) {
			segmentEnd = rows[i+1].Timestamp
		}
		if segmentEnd.Before(segmentStart) {
			continue
		}
		accumulate(row.Status, segmentEnd.Sub(segmentStart))
	}

	return off, idle, production, nil
}

func (u *Updater) partCounts(ctx context.Context, machineID uuid.UUID, from, to time.Time) (total, good, bad int, err error) {
	logs, err := u.db.ProductionLogRepository().ListByMachineAndWindow(ctx, machineID, from, to)
	if err != nil {
		return 0, 0, 0, err
	}
	for _, l := range logs {
		good += l.QuantityCompleted
		bad += l.QuantityRejected
	}
	return good + bad, good, bad, nil
}

// averagePerformance computes Σ(ideal_cycle_time × total_parts_op) /
// operating_time across the operations logged in this shift, averaged and
// clamped to [0, 1] per §4.6. With no operating time logged, performance is
// undefined and reported as 0 rather than divided by zero.
func (u *Updater) averagePerformance(ctx context.Context, machineID uuid.UUID, from, to time.Time, production time.Duration) float64 {
	operatingSeconds := production.Seconds()
	if operatingSeconds <= 0 {
		return 0
	}

	logs, err := u.db.ProductionLogRepository().ListByMachineAndWindow(ctx, machineID, from, to)
	if err != nil {
		u.log.Warn().Err(err).Str("machine_id", machineID.String()).Msg("failed to load logs for performance ratio")
		return 0
	}

	var idealSeconds float64
	for _, l := range logs {
		op, err := u.db.OperationRepository().GetByID(ctx, l.OperationID)
		if err != nil {
			continue
		}
		idealSeconds += op.IdealCycleMinutes * 60 * float64(l.QuantityCompleted)
	}

	return clampRatio(idealSeconds / operatingSeconds)
}

func clampRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
