package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/repository"
)

type configInfoRepository struct {
	q querier
}

func (r *configInfoRepository) GetByMachine(ctx context.Context, machineID uuid.UUID) (*entity.ConfigInfo, error) {
	query := `SELECT machine_id, planned_non_production_minutes, planned_downtime_minutes, legacy_quality
		FROM config_info WHERE machine_id = $1`
	var c entity.ConfigInfo
	err := r.q.QueryRowContext(ctx, query, machineID).Scan(&c.MachineID, &c.PlannedNonProductionMinutes,
		&c.PlannedDowntimeMinutes, &c.LegacyQuality)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "ConfigInfo", ResourceID: machineID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config info: %w", err)
	}
	return &c, nil
}

func (r *configInfoRepository) Upsert(ctx context.Context, cfg *entity.ConfigInfo) error {
	query := `
		INSERT INTO config_info (machine_id, planned_non_production_minutes, planned_downtime_minutes, legacy_quality)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (machine_id) DO UPDATE SET
			planned_non_production_minutes = EXCLUDED.planned_non_production_minutes,
			planned_downtime_minutes = EXCLUDED.planned_downtime_minutes,
			legacy_quality = EXCLUDED.legacy_quality`
	_, err := r.q.ExecContext(ctx, query, cfg.MachineID, cfg.PlannedNonProductionMinutes,
		cfg.PlannedDowntimeMinutes, cfg.LegacyQuality)
	if err != nil {
		return fmt.Errorf("failed to upsert config info: %w", err)
	}
	return nil
}
