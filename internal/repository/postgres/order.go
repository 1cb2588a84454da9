package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type orderRepository struct {
	q querier
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	query := `
		INSERT INTO orders (id, part_number, production_order, required_quantity, launched_quantity,
			priority, delivery_date, raw_material, project, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.ExecContext(ctx, query, o.ID, o.PartNumber, o.ProductionOrder, o.RequiredQuantity,
		o.LaunchedQuantity, o.Priority, o.DeliveryDate, o.RawMaterial, o.Project, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) scan(row *sql.Row) (*entity.Order, error) {
	var o entity.Order
	err := row.Scan(&o.ID, &o.PartNumber, &o.ProductionOrder, &o.RequiredQuantity, &o.LaunchedQuantity,
		&o.Priority, &o.DeliveryDate, &o.RawMaterial, &o.Project, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	query := `
		SELECT id, part_number, production_order, required_quantity, launched_quantity,
			priority, delivery_date, raw_material, project, created_at, updated_at
		FROM orders WHERE id = $1`
	o, err := r.scan(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Order", ResourceID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

func (r *orderRepository) GetByKey(ctx context.Context, partNumber, productionOrder string) (*entity.Order, error) {
	query := `
		SELECT id, part_number, production_order, required_quantity, launched_quantity,
			priority, delivery_date, raw_material, project, created_at, updated_at
		FROM orders WHERE part_number = $1 AND production_order = $2`
	o, err := r.scan(r.q.QueryRowContext(ctx, query, partNumber, productionOrder))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Order", ResourceID: partNumber + "/" + productionOrder}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by key: %w", err)
	}
	return o, nil
}

func (r *orderRepository) ListActive(ctx context.Context) ([]*entity.Order, error) {
	query := `
		SELECT o.id, o.part_number, o.production_order, o.required_quantity, o.launched_quantity,
			o.priority, o.delivery_date, o.raw_material, o.project, o.created_at, o.updated_at
		FROM orders o
		JOIN part_schedule_status s ON s.production_order = o.production_order
		WHERE s.state = 'active'
		ORDER BY o.priority ASC`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active orders: %w", err)
	}
	defer rows.Close()

	var result []*entity.Order
	for rows.Next() {
		var o entity.Order
		if err := rows.Scan(&o.ID, &o.PartNumber, &o.ProductionOrder, &o.RequiredQuantity, &o.LaunchedQuantity,
			&o.Priority, &o.DeliveryDate, &o.RawMaterial, &o.Project, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, &o)
	}
	return result, rows.Err()
}

func (r *orderRepository) Update(ctx context.Context, o *entity.Order) error {
	query := `
		UPDATE orders SET required_quantity = $2, launched_quantity = $3, priority = $4,
			delivery_date = $5, raw_material = $6, project = $7, updated_at = $8
		WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, o.ID, o.RequiredQuantity, o.LaunchedQuantity, o.Priority,
		o.DeliveryDate, o.RawMaterial, o.Project, entity.Now())
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &repository.NotFoundError{ResourceType: "Order", ResourceID: o.ID.String()}
	}
	return nil
}

func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}
