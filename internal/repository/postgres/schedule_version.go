package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type scheduleVersionRepository struct {
	q querier
}

const scheduleVersionColumns = `id, item_id, version_number, planned_start_time, planned_end_time,
	planned_quantity, completed_quantity, remaining_quantity, is_active, created_at`

func scanScheduleVersion(row *sql.Row) (*entity.ScheduleVersion, error) {
	var v entity.ScheduleVersion
	err := row.Scan(&v.ID, &v.ItemID, &v.VersionNumber, &v.PlannedStartTime, &v.PlannedEndTime,
		&v.PlannedQuantity, &v.CompletedQuantity, &v.RemainingQuantity, &v.IsActive, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *scheduleVersionRepository) Create(ctx context.Context, version *entity.ScheduleVersion) error {
	query := `INSERT INTO schedule_versions (` + scheduleVersionColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.q.ExecContext(ctx, query, version.ID, version.ItemID, version.VersionNumber,
		version.PlannedStartTime, version.PlannedEndTime, version.PlannedQuantity,
		version.CompletedQuantity, version.RemainingQuantity, version.IsActive, version.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create schedule version: %w", err)
	}
	return nil
}

func (r *scheduleVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ScheduleVersion, error) {
	query := `SELECT ` + scheduleVersionColumns + ` FROM schedule_versions WHERE id = $1`
	v, err := scanScheduleVersion(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "ScheduleVersion", ResourceID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule version: %w", err)
	}
	return v, nil
}

func (r *scheduleVersionRepository) GetActiveByItem(ctx context.Context, itemID uuid.UUID) (*entity.ScheduleVersion, error) {
	query := `SELECT ` + scheduleVersionColumns + ` FROM schedule_versions WHERE item_id = $1 AND is_active = true`
	v, err := scanScheduleVersion(r.q.QueryRowContext(ctx, query, itemID))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "ScheduleVersion", ResourceID: "active/" + itemID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active schedule version: %w", err)
	}
	return v, nil
}

func (r *scheduleVersionRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]*entity.ScheduleVersion, error) {
	query := `SELECT ` + scheduleVersionColumns + ` FROM schedule_versions WHERE item_id = $1 ORDER BY version_number ASC`
	rows, err := r.q.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule versions: %w", err)
	}
	defer rows.Close()

	var result []*entity.ScheduleVersion
	for rows.Next() {
		var v entity.ScheduleVersion
		if err := rows.Scan(&v.ID, &v.ItemID, &v.VersionNumber, &v.PlannedStartTime, &v.PlannedEndTime,
			&v.PlannedQuantity, &v.CompletedQuantity, &v.RemainingQuantity, &v.IsActive, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule version: %w", err)
		}
		result = append(result, &v)
	}
	return result, rows.Err()
}

func (r *scheduleVersionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `UPDATE schedule_versions SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate schedule version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &repository.NotFoundError{ResourceType: "ScheduleVersion", ResourceID: id.String()}
	}
	return nil
}

func (r *scheduleVersionRepository) Update(ctx context.Context, version *entity.ScheduleVersion) error {
	query := `UPDATE schedule_versions SET planned_start_time = $2, planned_end_time = $3,
		planned_quantity = $4, completed_quantity = $5, remaining_quantity = $6, is_active = $7
		WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, version.ID, version.PlannedStartTime, version.PlannedEndTime,
		version.PlannedQuantity, version.CompletedQuantity, version.RemainingQuantity, version.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update schedule version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &repository.NotFoundError{ResourceType: "ScheduleVersion", ResourceID: version.ID.String()}
	}
	return nil
}
