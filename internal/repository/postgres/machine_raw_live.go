package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type machineRawLiveRepository struct {
	q querier
}

const machineRawLiveColumns = `machine_id, status, op_mode, selected_program, active_program, part_count,
	scheduled_operation_id, actual_operation_id, scheduled_job, actual_job, sample_time`

func (r *machineRawLiveRepository) Get(ctx context.Context, machineID uuid.UUID) (*entity.MachineRawLive, error) {
	query := `SELECT ` + machineRawLiveColumns + ` FROM machine_raw_live WHERE machine_id = $1`
	var m entity.MachineRawLive
	err := r.q.QueryRowContext(ctx, query, machineID).Scan(&m.MachineID, &m.Status, &m.OpMode,
		&m.SelectedProgram, &m.ActiveProgram, &m.PartCount, &m.ScheduledOperationID, &m.ActualOperationID,
		&m.ScheduledJob, &m.ActualJob, &m.SampleTime)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "MachineRawLive", ResourceID: machineID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get machine raw live: %w", err)
	}
	return &m, nil
}

func (r *machineRawLiveRepository) Upsert(ctx context.Context, live *entity.MachineRawLive) error {
	query := `
		INSERT INTO machine_raw_live (` + machineRawLiveColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (machine_id) DO UPDATE SET
			status = EXCLUDED.status,
			op_mode = EXCLUDED.op_mode,
			selected_program = EXCLUDED.selected_program,
			active_program = EXCLUDED.active_program,
			part_count = EXCLUDED.part_count,
			scheduled_operation_id = EXCLUDED.scheduled_operation_id,
			actual_operation_id = EXCLUDED.actual_operation_id,
			scheduled_job = EXCLUDED.scheduled_job,
			actual_job = EXCLUDED.actual_job,
			sample_time = EXCLUDED.sample_time`
	_, err := r.q.ExecContext(ctx, query, live.MachineID, live.Status, live.OpMode, live.SelectedProgram,
		live.ActiveProgram, live.PartCount, live.ScheduledOperationID, live.ActualOperationID,
		live.ScheduledJob, live.ActualJob, live.SampleTime)
	if err != nil {
		return fmt.Errorf("failed to upsert machine raw live: %w", err)
	}
	return nil
}
