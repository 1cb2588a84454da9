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

type productionLogRepository struct {
	q querier
}

const productionLogColumns = `id, operation_id, schedule_version_id, machine_id, start_time, end_time,
	quantity_completed, quantity_rejected, notes`

func scanProductionLog(row *sql.Row) (*entity.ProductionLog, error) {
	var l entity.ProductionLog
	err := row.Scan(&l.ID, &l.OperationID, &l.ScheduleVersionID, &l.MachineID, &l.StartTime, &l.EndTime,
		&l.QuantityCompleted, &l.QuantityRejected, &l.Notes)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *productionLogRepository) Create(ctx context.Context, log *entity.ProductionLog) error {
	query := `INSERT INTO production_logs (` + productionLogColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.q.ExecContext(ctx, query, log.ID, log.OperationID, log.ScheduleVersionID, log.MachineID,
		log.StartTime, log.EndTime, log.QuantityCompleted, log.QuantityRejected, log.Notes)
	if err != nil {
		return fmt.Errorf("failed to create production log: %w", err)
	}
	return nil
}

func (r *productionLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ProductionLog, error) {
	query := `SELECT ` + productionLogColumns + ` FROM production_logs WHERE id = $1`
	l, err := scanProductionLog(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "ProductionLog", ResourceID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get production log: %w", err)
	}
	return l, nil
}

func (r *productionLogRepository) ListByOperation(ctx context.Context, operationID uuid.UUID) ([]*entity.ProductionLog, error) {
	return r.list(ctx, `SELECT `+productionLogColumns+` FROM production_logs WHERE operation_id = $1 ORDER BY start_time ASC`, operationID)
}

func (r *productionLogRepository) ListByScheduleVersion(ctx context.Context, versionID uuid.UUID) ([]*entity.ProductionLog, error) {
	return r.list(ctx, `SELECT `+productionLogColumns+` FROM production_logs WHERE schedule_version_id = $1 ORDER BY start_time ASC`, versionID)
}

func (r *productionLogRepository) ListByMachineAndWindow(ctx context.Context, machineID uuid.UUID, from, to time.Time) ([]*entity.ProductionLog, error) {
	query := `SELECT ` + productionLogColumns + ` FROM production_logs
		WHERE machine_id = $1 AND start_time < $3 AND (end_time IS NULL OR end_time > $2)
		ORDER BY start_time ASC`
	return r.list(ctx, query, machineID, from, to)
}

func (r *productionLogRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.ProductionLog, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list production logs: %w", err)
	}
	defer rows.Close()

	var result []*entity.ProductionLog
	for rows.Next() {
		var l entity.ProductionLog
		if err := rows.Scan(&l.ID, &l.OperationID, &l.ScheduleVersionID, &l.MachineID, &l.StartTime, &l.EndTime,
			&l.QuantityCompleted, &l.QuantityRejected, &l.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan production log: %w", err)
		}
		result = append(result, &l)
	}
	return result, rows.Err()
}

func (r *productionLogRepository) SumQuantityCompleted(ctx context.Context, operationID uuid.UUID) (int, error) {
	var sum sql.NullInt64
	query := `SELECT SUM(quantity_completed) FROM production_logs WHERE operation_id = $1`
	if err := r.q.QueryRowContext(ctx, query, operationID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum quantity completed: %w", err)
	}
	return int(sum.Int64), nil
}
