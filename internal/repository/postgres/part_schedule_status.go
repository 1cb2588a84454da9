package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type partScheduleStatusRepository struct {
	q querier
}

const partScheduleStatusColumns = `production_order, state, activation_timestamp, updated_at`

func (r *partScheduleStatusRepository) GetByProductionOrder(ctx context.Context, productionOrder string) (*entity.PartScheduleStatus, error) {
	query := `SELECT ` + partScheduleStatusColumns + ` FROM part_schedule_status WHERE production_order = $1`
	var s entity.PartScheduleStatus
	err := r.q.QueryRowContext(ctx, query, productionOrder).Scan(&s.ProductionOrder, &s.State, &s.ActivationTimestamp, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "PartScheduleStatus", ResourceID: productionOrder}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get part schedule status: %w", err)
	}
	return &s, nil
}

func (r *partScheduleStatusRepository) Upsert(ctx context.Context, status *entity.PartScheduleStatus) error {
	query := `
		INSERT INTO part_schedule_status (production_order, state, activation_timestamp, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (production_order) DO UPDATE SET
			state = EXCLUDED.state,
			activation_timestamp = EXCLUDED.activation_timestamp,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.ExecContext(ctx, query, status.ProductionOrder, status.State, status.ActivationTimestamp, status.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert part schedule status: %w", err)
	}
	return nil
}

func (r *partScheduleStatusRepository) ListActive(ctx context.Context) ([]*entity.PartScheduleStatus, error) {
	query := `SELECT ` + partScheduleStatusColumns + ` FROM part_schedule_status WHERE state = 'active'`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active part schedule statuses: %w", err)
	}
	defer rows.Close()

	var result []*entity.PartScheduleStatus
	for rows.Next() {
		var s entity.PartScheduleStatus
		if err := rows.Scan(&s.ProductionOrder, &s.State, &s.ActivationTimestamp, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan part schedule status: %w", err)
		}
		result = append(result, &s)
	}
	return result, rows.Err()
}
