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

type plannedScheduleItemRepository struct {
	q querier
}

const plannedScheduleItemColumns = `id, order_id, operation_id, machine_id, total_quantity,
	initial_start_time, initial_end_time, quantity_label, remaining_quantity, status, current_version,
	created_at, updated_at`

func scanPlannedScheduleItem(row *sql.Row) (*entity.PlannedScheduleItem, error) {
	var i entity.PlannedScheduleItem
	err := row.Scan(&i.ID, &i.OrderID, &i.OperationID, &i.MachineID, &i.TotalQuantity,
		&i.InitialStartTime, &i.InitialEndTime, &i.QuantityLabel, &i.RemainingQuantity, &i.Status, &i.CurrentVersion,
		&i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *plannedScheduleItemRepository) Create(ctx context.Context, item *entity.PlannedScheduleItem) error {
	query := `INSERT INTO planned_schedule_items (` + plannedScheduleItemColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := r.q.ExecContext(ctx, query, item.ID, item.OrderID, item.OperationID, item.MachineID,
		item.TotalQuantity, item.InitialStartTime, item.InitialEndTime, item.QuantityLabel, item.RemainingQuantity,
		item.Status, item.CurrentVersion, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create planned schedule item: %w", err)
	}
	return nil
}

func (r *plannedScheduleItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.PlannedScheduleItem, error) {
	query := `SELECT ` + plannedScheduleItemColumns + ` FROM planned_schedule_items WHERE id = $1`
	item, err := scanPlannedScheduleItem(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "PlannedScheduleItem", ResourceID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get planned schedule item: %w", err)
	}
	return item, nil
}

func (r *plannedScheduleItemRepository) FindDuplicate(ctx context.Context, orderID, operationID, machineID uuid.UUID, totalQuantity int, start, end time.Time) (*entity.PlannedScheduleItem, error) {
	query := `SELECT ` + plannedScheduleItemColumns + ` FROM planned_schedule_items
		WHERE order_id = $1 AND operation_id = $2 AND machine_id = $3 AND total_quantity = $4
		AND initial_start_time = $5 AND initial_end_time = $6
		LIMIT 1`
	item, err := scanPlannedScheduleItem(r.q.QueryRowContext(ctx, query, orderID, operationID, machineID, totalQuantity, start, end))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "PlannedScheduleItem", ResourceID: "duplicate-check"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate planned schedule item: %w", err)
	}
	return item, nil
}

func (r *plannedScheduleItemRepository) FindStaleFragment(ctx context.Context, orderID, operationID, machineID uuid.UUID, totalQuantity int, quantityLabel string, start time.Time) (*entity.PlannedScheduleItem, error) {
	query := `SELECT ` + plannedScheduleItemColumns + ` FROM planned_schedule_items
		WHERE order_id = $1 AND operation_id = $2 AND machine_id = $3 AND total_quantity = $4
		AND quantity_label = $5 AND initial_start_time != $6
		LIMIT 1`
	item, err := scanPlannedScheduleItem(r.q.QueryRowContext(ctx, query, orderID, operationID, machineID, totalQuantity, quantityLabel, start))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "PlannedScheduleItem", ResourceID: "stale-fragment-check"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find stale planned schedule fragment: %w", err)
	}
	return item, nil
}

func (r *plannedScheduleItemRepository) ListByOperation(ctx context.Context, operationID uuid.UUID) ([]*entity.PlannedScheduleItem, error) {
	return r.list(ctx, `SELECT `+plannedScheduleItemColumns+` FROM planned_schedule_items
		WHERE operation_id = $1 ORDER BY initial_start_time ASC`, operationID)
}

func (r *plannedScheduleItemRepository) ListByMachine(ctx context.Context, machineID uuid.UUID, from, to time.Time) ([]*entity.PlannedScheduleItem, error) {
	return r.list(ctx, `SELECT `+plannedScheduleItemColumns+` FROM planned_schedule_items
		WHERE machine_id = $1 AND initial_start_time < $3 AND initial_end_time > $2
		ORDER BY initial_start_time ASC`, machineID, from, to)
}

func (r *plannedScheduleItemRepository) ListByPartNumber(ctx context.Context, partNumber string) ([]*entity.PlannedScheduleItem, error) {
	query := `SELECT i.id, i.order_id, i.operation_id, i.machine_id, i.total_quantity,
			i.initial_start_time, i.initial_end_time, i.quantity_label, i.remaining_quantity, i.status, i.current_version,
			i.created_at, i.updated_at
		FROM planned_schedule_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.part_number = $1
		ORDER BY i.initial_start_time ASC`
	return r.list(ctx, query, partNumber)
}

func (r *plannedScheduleItemRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.PlannedScheduleItem, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list planned schedule items: %w", err)
	}
	defer rows.Close()

	var result []*entity.PlannedScheduleItem
	for rows.Next() {
		var i entity.PlannedScheduleItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.OperationID, &i.MachineID, &i.TotalQuantity,
			&i.InitialStartTime, &i.InitialEndTime, &i.QuantityLabel, &i.RemainingQuantity, &i.Status, &i.CurrentVersion,
			&i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan planned schedule item: %w", err)
		}
		result = append(result, &i)
	}
	return result, rows.Err()
}

func (r *plannedScheduleItemRepository) Update(ctx context.Context, item *entity.PlannedScheduleItem) error {
	query := `UPDATE planned_schedule_items SET remaining_quantity = $2, status = $3,
		current_version = $4, updated_at = $5 WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, item.ID, item.RemainingQuantity, item.Status,
		item.CurrentVersion, entity.Now())
	if err != nil {
		return fmt.Errorf("failed to update planned schedule item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &repository.NotFoundError{ResourceType: "PlannedScheduleItem", ResourceID: item.ID.String()}
	}
	return nil
}
