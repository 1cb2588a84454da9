package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type operationRepository struct {
	q querier
}

const operationColumns = `id, order_id, operation_number, operation_description, machine_id,
	work_center_id, setup_minutes, ideal_cycle_minutes`

func scanOperation(row *sql.Row) (*entity.Operation, error) {
	var op entity.Operation
	err := row.Scan(&op.ID, &op.OrderID, &op.OperationNumber, &op.OperationDescription, &op.MachineID,
		&op.WorkCenterID, &op.SetupMinutes, &op.IdealCycleMinutes)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *operationRepository) Create(ctx context.Context, op *entity.Operation) error {
	query := `INSERT INTO operations (` + operationColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.q.ExecContext(ctx, query, op.ID, op.OrderID, op.OperationNumber, op.OperationDescription,
		op.MachineID, op.WorkCenterID, op.SetupMinutes, op.IdealCycleMinutes)
	if err != nil {
		return fmt.Errorf("failed to create operation: %w", err)
	}
	return nil
}

func (r *operationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE id = $1`
	op, err := scanOperation(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Operation", ResourceID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}
	return op, nil
}

func (r *operationRepository) GetByOrderAndSequence(ctx context.Context, orderID uuid.UUID, operationNumber int) (*entity.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE order_id = $1 AND operation_number = $2`
	op, err := scanOperation(r.q.QueryRowContext(ctx, query, orderID, operationNumber))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Operation", ResourceID: fmt.Sprintf("%s/seq%d", orderID, operationNumber)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operation by sequence: %w", err)
	}
	return op, nil
}

func (r *operationRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE order_id = $1 ORDER BY operation_number ASC`
	return r.queryList(ctx, query, orderID)
}

func (r *operationRepository) ListDownstream(ctx context.Context, orderID uuid.UUID, afterOperationNumber int) ([]*entity.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE order_id = $1 AND operation_number > $2 ORDER BY operation_number ASC`
	return r.queryList(ctx, query, orderID, afterOperationNumber)
}

func (r *operationRepository) queryList(ctx context.Context, query string, args ...interface{}) ([]*entity.Operation, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	var result []*entity.Operation
	for rows.Next() {
		var op entity.Operation
		if err := rows.Scan(&op.ID, &op.OrderID, &op.OperationNumber, &op.OperationDescription, &op.MachineID,
			&op.WorkCenterID, &op.SetupMinutes, &op.IdealCycleMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		result = append(result, &op)
	}
	return result, rows.Err()
}

func (r *operationRepository) Update(ctx context.Context, op *entity.Operation) error {
	query := `UPDATE operations SET operation_description = $2, machine_id = $3, work_center_id = $4,
		setup_minutes = $5, ideal_cycle_minutes = $6 WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, op.ID, op.OperationDescription, op.MachineID, op.WorkCenterID,
		op.SetupMinutes, op.IdealCycleMinutes)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &repository.NotFoundError{ResourceType: "Operation", ResourceID: op.ID.String()}
	}
	return nil
}
