package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type workCenterRepository struct {
	q querier
}

func (r *workCenterRepository) Create(ctx context.Context, wc *entity.WorkCenter) error {
	query := `INSERT INTO work_centers (id, name, is_schedulable) VALUES ($1, $2, $3)`
	_, err := r.q.ExecContext(ctx, query, wc.ID, wc.Name, wc.IsSchedulable)
	if err != nil {
		return fmt.Errorf("failed to create work center: %w", err)
	}
	return nil
}

func (r *workCenterRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.WorkCenter, error) {
	query := `SELECT id, name, is_schedulable FROM work_centers WHERE id = $1`
	var wc entity.WorkCenter
	err := r.q.QueryRowContext(ctx, query, id).Scan(&wc.ID, &wc.Name, &wc.IsSchedulable)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "WorkCenter", ResourceID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work center: %w", err)
	}
	return &wc, nil
}
