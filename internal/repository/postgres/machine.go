package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type machineRepository struct {
	q querier
}

func (r *machineRepository) Create(ctx context.Context, m *entity.Machine) error {
	query := `INSERT INTO machines (id, name, work_center_id) VALUES ($1, $2, $3)`
	_, err := r.q.ExecContext(ctx, query, m.ID, m.Name, m.WorkCenterID)
	if err != nil {
		return fmt.Errorf("failed to create machine: %w", err)
	}
	return nil
}

func (r *machineRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Machine, error) {
	query := `SELECT id, name, work_center_id FROM machines WHERE id = $1`
	var m entity.Machine
	err := r.q.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Name, &m.WorkCenterID)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Machine", ResourceID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get machine: %w", err)
	}
	return &m, nil
}

func (r *machineRepository) ListByWorkCenter(ctx context.Context, workCenterID uuid.UUID) ([]*entity.Machine, error) {
	return r.list(ctx, `SELECT id, name, work_center_id FROM machines WHERE work_center_id = $1 ORDER BY name ASC`, workCenterID)
}

func (r *machineRepository) ListAll(ctx context.Context) ([]*entity.Machine, error) {
	return r.list(ctx, `SELECT id, name, work_center_id FROM machines ORDER BY name ASC`)
}

func (r *machineRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Machine, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	defer rows.Close()

	var result []*entity.Machine
	for rows.Next() {
		var m entity.Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.WorkCenterID); err != nil {
			return nil, fmt.Errorf("failed to scan machine: %w", err)
		}
		result = append(result, &m)
	}
	return result, rows.Err()
}
