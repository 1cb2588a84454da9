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

type machineRawRepository struct {
	q querier
}

const machineRawColumns = `id, machine_id, status, op_mode, selected_program, active_program, part_count,
	scheduled_job, actual_job, timestamp`

func (r *machineRawRepository) Append(ctx context.Context, raw *entity.MachineRaw) error {
	query := `INSERT INTO machine_raw (` + machineRawColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.q.ExecContext(ctx, query, raw.ID, raw.MachineID, raw.Status, raw.OpMode, raw.SelectedProgram,
		raw.ActiveProgram, raw.PartCount, raw.ScheduledJob, raw.ActualJob, raw.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append machine raw: %w", err)
	}
	return nil
}

func (r *machineRawRepository) ListByMachineAndWindow(ctx context.Context, machineID uuid.UUID, from, to time.Time) ([]*entity.MachineRaw, error) {
	query := `SELECT ` + machineRawColumns + ` FROM machine_raw
		WHERE machine_id = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp ASC`
	rows, err := r.q.QueryContext(ctx, query, machineID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list machine raw: %w", err)
	}
	defer rows.Close()

	var result []*entity.MachineRaw
	for rows.Next() {
		var m entity.MachineRaw
		if err := rows.Scan(&m.ID, &m.MachineID, &m.Status, &m.OpMode, &m.SelectedProgram, &m.ActiveProgram,
			&m.PartCount, &m.ScheduledJob, &m.ActualJob, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan machine raw: %w", err)
		}
		result = append(result, &m)
	}
	return result, rows.Err()
}

func (r *machineRawRepository) LatestBefore(ctx context.Context, machineID uuid.UUID, at time.Time) (*entity.MachineRaw, error) {
	query := `SELECT ` + machineRawColumns + ` FROM machine_raw
		WHERE machine_id = $1 AND timestamp <= $2
		ORDER BY timestamp DESC LIMIT 1`
	var m entity.MachineRaw
	err := r.q.QueryRowContext(ctx, query, machineID, at).Scan(&m.ID, &m.MachineID, &m.Status, &m.OpMode,
		&m.SelectedProgram, &m.ActiveProgram, &m.PartCount, &m.ScheduledJob, &m.ActualJob, &m.Timestamp)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "MachineRaw", ResourceID: machineID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest machine raw: %w", err)
	}
	return &m, nil
}
