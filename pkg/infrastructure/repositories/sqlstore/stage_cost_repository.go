package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

const stageColumns = `id, order_id, work_center_id, stage_number, good_quantity, defective_quantity,
	material_cost, labor_cost, overhead_cost, status, updated_at`

func scanStage(row rowScanner) (*entities.StageCost, error) {
	var (
		st                            entities.StageCost
		orderID, workCenterID, status string
		updated                       string
	)
	if err := row.Scan(&st.ID, &orderID, &workCenterID, &st.StageNumber, &st.GoodQuantity,
		&st.DefectiveQuantity, &st.MaterialCost, &st.LaborCost, &st.OverheadCost, &status, &updated); err != nil {
		return nil, err
	}

	var err error
	st.OrderID = entities.OrderID(orderID)
	st.WorkCenterID = entities.WorkCenterID(workCenterID)
	if st.Status, err = entities.ParseStageStatus(status); err != nil {
		return nil, err
	}
	if st.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	st.Recalculate()
	return &st, nil
}

// GetStageCost returns a stage cost row by id
func (s *Store) GetStageCost(ctx context.Context, tenant entities.TenantID, id string) (*entities.StageCost, error) {
	st, err := scanStage(s.queryRow(ctx, s.db,
		"SELECT "+stageColumns+" FROM stage_costs WHERE tenant_id = ? AND id = ?",
		string(tenant), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stage cost %s: %w", id, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, s.wrap("get stage cost", err)
	}
	return st, nil
}

// ListStageCosts returns the order's stages ordered by stage number
func (s *Store) ListStageCosts(ctx context.Context, tenant entities.TenantID, orderID entities.OrderID) ([]*entities.StageCost, error) {
	rows, err := s.query(ctx, s.db,
		"SELECT "+stageColumns+" FROM stage_costs WHERE tenant_id = ? AND order_id = ? ORDER BY stage_number",
		string(tenant), string(orderID))
	if err != nil {
		return nil, s.wrap("list stage costs", err)
	}
	defer rows.Close()

	var stages []*entities.StageCost
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, s.wrap("scan stage cost", err)
		}
		stages = append(stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("iterate stage costs", err)
	}
	return stages, nil
}

// SaveStageCost upserts a stage by (order, stage number), keeping the stored id
func (s *Store) SaveStageCost(ctx context.Context, tenant entities.TenantID, stage *entities.StageCost) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var storedID string
		err := s.queryRow(ctx, tx,
			"SELECT id FROM stage_costs WHERE tenant_id = ? AND order_id = ? AND stage_number = ?",
			string(tenant), string(stage.OrderID), stage.StageNumber).Scan(&storedID)
		switch {
		case err == nil:
			stage.ID = storedID
		case errors.Is(err, sql.ErrNoRows):
		default:
			return err
		}

		result, err := s.exec(ctx, tx, `
			UPDATE stage_costs SET order_id = ?, work_center_id = ?, stage_number = ?, good_quantity = ?,
				defective_quantity = ?, material_cost = ?, labor_cost = ?, overhead_cost = ?,
				total_cost = ?, status = ?, updated_at = ?
			WHERE tenant_id = ? AND id = ?`,
			string(stage.OrderID), string(stage.WorkCenterID), stage.StageNumber, stage.GoodQuantity,
			stage.DefectiveQuantity, stage.MaterialCost, stage.LaborCost, stage.OverheadCost,
			stage.TotalCost, stage.Status.String(), formatTime(stage.UpdatedAt),
			string(tenant), stage.ID)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n > 0 {
			return nil
		}

		_, err = s.exec(ctx, tx, `
			INSERT INTO stage_costs (tenant_id, id, order_id, work_center_id, stage_number, good_quantity,
				defective_quantity, material_cost, labor_cost, overhead_cost, total_cost, status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(tenant), stage.ID, string(stage.OrderID), string(stage.WorkCenterID), stage.StageNumber,
			stage.GoodQuantity, stage.DefectiveQuantity, stage.MaterialCost, stage.LaborCost,
			stage.OverheadCost, stage.TotalCost, stage.Status.String(), formatTime(stage.UpdatedAt))
		return err
	})
	if err != nil {
		return s.wrap(fmt.Sprintf("save stage %d of order %s", stage.StageNumber, stage.OrderID), err)
	}
	return nil
}

// GetWorkCenter returns a work center by id
func (s *Store) GetWorkCenter(ctx context.Context, tenant entities.TenantID, id entities.WorkCenterID) (*entities.WorkCenter, error) {
	var wc entities.WorkCenter
	var wcID string
	err := s.queryRow(ctx, s.db, `
		SELECT id, code, name, cost_per_hour, overhead_rate_percent
		FROM work_centers WHERE tenant_id = ? AND id = ?`,
		string(tenant), string(id)).Scan(&wcID, &wc.Code, &wc.Name, &wc.CostPerHour, &wc.OverheadRatePercent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("work center %s: %w", id, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, s.wrap("get work center", err)
	}
	wc.ID = entities.WorkCenterID(wcID)
	return &wc, nil
}

// SaveWorkCenter inserts or replaces a work center
func (s *Store) SaveWorkCenter(ctx context.Context, tenant entities.TenantID, wc *entities.WorkCenter) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := s.exec(ctx, tx, `
			UPDATE work_centers SET code = ?, name = ?, cost_per_hour = ?, overhead_rate_percent = ?
			WHERE tenant_id = ? AND id = ?`,
			wc.Code, wc.Name, wc.CostPerHour, wc.OverheadRatePercent, string(tenant), string(wc.ID))
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n > 0 {
			return nil
		}
		_, err = s.exec(ctx, tx, `
			INSERT INTO work_centers (tenant_id, id, code, name, cost_per_hour, overhead_rate_percent)
			VALUES (?, ?, ?, ?, ?, ?)`,
			string(tenant), string(wc.ID), wc.Code, wc.Name, wc.CostPerHour, wc.OverheadRatePercent)
		return err
	})
	if err != nil {
		return s.wrap("save work center "+string(wc.ID), err)
	}
	return nil
}

// ListRouting returns the operations of a BOM ordered by sequence
func (s *Store) ListRouting(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID) ([]*entities.RoutingOperation, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT id, bom_id, sequence, work_center_id, run_hours_per_unit
		FROM routing_operations WHERE tenant_id = ? AND bom_id = ? ORDER BY sequence, id`,
		string(tenant), string(bomID))
	if err != nil {
		return nil, s.wrap("list routing", err)
	}
	defer rows.Close()

	var ops []*entities.RoutingOperation
	for rows.Next() {
		var op entities.RoutingOperation
		var bom, wc string
		if err := rows.Scan(&op.ID, &bom, &op.Sequence, &wc, &op.RunHoursPerUnit); err != nil {
			return nil, s.wrap("scan routing operation", err)
		}
		op.BOMID = entities.BOMID(bom)
		op.WorkCenterID = entities.WorkCenterID(wc)
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("iterate routing", err)
	}
	return ops, nil
}

// SaveRoutingOperation inserts or replaces a routing operation
func (s *Store) SaveRoutingOperation(ctx context.Context, tenant entities.TenantID, op *entities.RoutingOperation) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := s.exec(ctx, tx, `
			UPDATE routing_operations SET bom_id = ?, sequence = ?, work_center_id = ?, run_hours_per_unit = ?
			WHERE tenant_id = ? AND id = ?`,
			string(op.BOMID), op.Sequence, string(op.WorkCenterID), op.RunHoursPerUnit, string(tenant), op.ID)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n > 0 {
			return nil
		}
		_, err = s.exec(ctx, tx, `
			INSERT INTO routing_operations (tenant_id, id, bom_id, sequence, work_center_id, run_hours_per_unit)
			VALUES (?, ?, ?, ?, ?, ?)`,
			string(tenant), op.ID, string(op.BOMID), op.Sequence, string(op.WorkCenterID), op.RunHoursPerUnit)
		return err
	})
	if err != nil {
		return s.wrap("save routing operation "+op.ID, err)
	}
	return nil
}
