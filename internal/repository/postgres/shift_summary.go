package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type shiftSummaryRepository struct {
	q querier
}

const shiftSummaryColumns = `machine_id, shift_id, shift_start_datetime, shift_end_datetime,
	off_time, idle_time, production_time, total_parts, good_parts, bad_parts,
	availability, performance, quality, oee, updated_at`

func scanShiftSummary(row *sql.Row) (*entity.ShiftSummary, error) {
	var s entity.ShiftSummary
	err := row.Scan(&s.MachineID, &s.ShiftID, &s.ShiftStartDatetime, &s.ShiftEndDatetime,
		&s.OffTime, &s.IdleTime, &s.ProductionTime, &s.TotalParts, &s.GoodParts, &s.BadParts,
		&s.Availability, &s.Performance, &s.Quality, &s.OEE, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shiftSummaryRepository) GetOrCreate(ctx context.Context, machineID uuid.UUID, shiftID int, shiftStart time.Time) (*entity.ShiftSummary, error) {
	query := `SELECT ` + shiftSummaryColumns + ` FROM shift_summaries
		WHERE machine_id = $1 AND shift_id = $2 AND shift_start_datetime = $3`
	s, err := scanShiftSummary(r.q.QueryRowContext(ctx, query, machineID, shiftID, shiftStart))
	if err == nil {
		return s, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get shift summary: %w", err)
	}

	fresh := &entity.ShiftSummary{
		MachineID:          machineID,
		ShiftID:            shiftID,
		ShiftStartDatetime: shiftStart,
		UpdatedAt:          entity.Now(),
	}
	if err := r.Upsert(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to create shift summary: %w", err)
	}
	return fresh, nil
}

func (r *shiftSummaryRepository) Upsert(ctx context.Context, summary *entity.ShiftSummary) error {
	query := `
		INSERT INTO shift_summaries (` + shiftSummaryColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (machine_id, shift_id, shift_start_datetime) DO UPDATE SET
			shift_end_datetime = EXCLUDED.shift_end_datetime,
			off_time = EXCLUDED.off_time,
			idle_time = EXCLUDED.idle_time,
			production_time = EXCLUDED.production_time,
			total_parts = EXCLUDED.total_parts,
			good_parts = EXCLUDED.good_parts,
			bad_parts = EXCLUDED.bad_parts,
			availability = EXCLUDED.availability,
			performance = EXCLUDED.performance,
			quality = EXCLUDED.quality,
			oee = EXCLUDED.oee,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.ExecContext(ctx, query, summary.MachineID, summary.ShiftID, summary.ShiftStartDatetime,
		summary.ShiftEndDatetime, summary.OffTime, summary.IdleTime, summary.ProductionTime,
		summary.TotalParts, summary.GoodParts, summary.BadParts, summary.Availability,
		summary.Performance, summary.Quality, summary.OEE, summary.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert shift summary: %w", err)
	}
	return nil
}

func (r *shiftSummaryRepository) ListByMachine(ctx context.Context, machineID uuid.UUID, from, to time.Time) ([]*entity.ShiftSummary, error) {
	query := `SELECT ` + shiftSummaryColumns + ` FROM shift_summaries
		WHERE machine_id = $1 AND shift_start_datetime >= $2 AND shift_start_datetime < $3
		ORDER BY shift_start_datetime ASC`
	rows, err := r.q.QueryContext(ctx, query, machineID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift summaries: %w", err)
	}
	defer rows.Close()

	var result []*entity.ShiftSummary
	for rows.Next() {
		var s entity.ShiftSummary
		if err := rows.Scan(&s.MachineID, &s.ShiftID, &s.ShiftStartDatetime, &s.ShiftEndDatetime,
			&s.OffTime, &s.IdleTime, &s.ProductionTime, &s.TotalParts, &s.GoodParts, &s.BadParts,
			&s.Availability, &s.Performance, &s.Quality, &s.OEE, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shift summary: %w", err)
		}
		result = append(result, &s)
	}
	return result, rows.Err()
}
