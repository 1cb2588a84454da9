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

type machineDowntimeRepository struct {
	q querier
}

func (r *machineDowntimeRepository) Create(ctx context.Context, downtime *entity.MachineDowntime) error {
	query := `INSERT INTO machine_downtimes (id, machine_id, open_dt, closed_dt) VALUES ($1, $2, $3, $4)`
	_, err := r.q.ExecContext(ctx, query, downtime.ID, downtime.MachineID, downtime.OpenDT, downtime.ClosedDT)
	if err != nil {
		return fmt.Errorf("failed to create machine downtime: %w", err)
	}
	return nil
}

func (r *machineDowntimeRepository) GetOpen(ctx context.Context, machineID uuid.UUID) (*entity.MachineDowntime, error) {
	query := `SELECT id, machine_id, open_dt, closed_dt FROM machine_downtimes
		WHERE machine_id = $1 AND closed_dt IS NULL
		ORDER BY open_dt DESC LIMIT 1`
	var d entity.MachineDowntime
	err := r.q.QueryRowContext(ctx, query, machineID).Scan(&d.ID, &d.MachineID, &d.OpenDT, &d.ClosedDT)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "MachineDowntime", ResourceID: "open/" + machineID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open machine downtime: %w", err)
	}
	return &d, nil
}

func (r *machineDowntimeRepository) Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error {
	res, err := r.q.ExecContext(ctx, `UPDATE machine_downtimes SET closed_dt = $2 WHERE id = $1`, id, closedAt)
	if err != nil {
		return fmt.Errorf("failed to close machine downtime: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &repository.NotFoundError{ResourceType: "MachineDowntime", ResourceID: id.String()}
	}
	return nil
}
