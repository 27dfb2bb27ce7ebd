package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

const headerColumns = "h.id, h.item_id, h.status, h.version, h.effective_from, h.expires_at, h.created_at, h.updated_at"

func scanHeader(row rowScanner) (*entities.BOMHeader, error) {
	var (
		h                                   entities.BOMHeader
		id, itemID, status                  string
		effectiveFrom, createdAt, updatedAt string
		expiresAt                           sql.NullString
	)
	if err := row.Scan(&id, &itemID, &status, &h.Version, &effectiveFrom, &expiresAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	h.ID = entities.BOMID(id)
	h.ItemID = entities.ItemID(itemID)
	if h.Status, err = entities.ParseBOMStatus(status); err != nil {
		return nil, err
	}
	if h.EffectiveFrom, err = parseTime(effectiveFrom); err != nil {
		return nil, err
	}
	if h.ExpiresAt, err = parseTimePtr(expiresAt); err != nil {
		return nil, err
	}
	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if h.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Store) listHeaders(ctx context.Context, op, query string, args ...any) ([]*entities.BOMHeader, error) {
	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, s.wrap(op, err)
	}
	defer rows.Close()

	var headers []*entities.BOMHeader
	for rows.Next() {
		h, err := scanHeader(rows)
		if err != nil {
			return nil, s.wrap(op, err)
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(op, err)
	}
	return headers, nil
}

// GetHeader returns a BOM header by id
func (s *Store) GetHeader(ctx context.Context, tenant entities.TenantID, id entities.BOMID) (*entities.BOMHeader, error) {
	h, err := scanHeader(s.queryRow(ctx, s.db,
		"SELECT "+headerColumns+" FROM bom_headers h WHERE h.tenant_id = ? AND h.id = ?",
		string(tenant), string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("BOM %s: %w", id, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, s.wrap("get BOM header", err)
	}
	return h, nil
}

// ListHeadersForItem returns every BOM version producing itemID, oldest version first
func (s *Store) ListHeadersForItem(ctx context.Context, tenant entities.TenantID, itemID entities.ItemID) ([]*entities.BOMHeader, error) {
	return s.listHeaders(ctx, "list BOM headers for item",
		"SELECT "+headerColumns+" FROM bom_headers h WHERE h.tenant_id = ? AND h.item_id = ? ORDER BY h.version",
		string(tenant), string(itemID))
}

// ListHeadersUsingItem returns the headers with a line consuming itemID
func (s *Store) ListHeadersUsingItem(ctx context.Context, tenant entities.TenantID, itemID entities.ItemID) ([]*entities.BOMHeader, error) {
	return s.listHeaders(ctx, "list BOM headers using item", `
		SELECT `+headerColumns+` FROM bom_headers h
		WHERE h.tenant_id = ? AND h.id IN (
			SELECT l.bom_id FROM bom_lines l WHERE l.tenant_id = ? AND l.component_item_id = ?
		)
		ORDER BY h.id`,
		string(tenant), string(tenant), string(itemID))
}

const lineColumns = "id, bom_id, sequence, component_item_id, quantity_per, scrap_percent, line_type, is_critical"

func scanLine(row rowScanner) (*entities.BOMLine, error) {
	var (
		line                     entities.BOMLine
		bom, component, lineType string
		critical                 int
	)
	if err := row.Scan(&line.ID, &bom, &line.Sequence, &component,
		&line.QuantityPer, &line.ScrapPercent, &lineType, &critical); err != nil {
		return nil, err
	}
	var err error
	if line.LineType, err = entities.ParseLineType(lineType); err != nil {
		return nil, err
	}
	line.BOMID = entities.BOMID(bom)
	line.ComponentItemID = entities.ItemID(component)
	line.IsCritical = critical != 0
	return &line, nil
}

// GetLine returns a BOM line by id
func (s *Store) GetLine(ctx context.Context, tenant entities.TenantID, lineID string) (*entities.BOMLine, error) {
	line, err := scanLine(s.queryRow(ctx, s.db,
		"SELECT "+lineColumns+" FROM bom_lines WHERE tenant_id = ? AND id = ?",
		string(tenant), lineID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("BOM line %s: %w", lineID, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, s.wrap("get BOM line", err)
	}
	return line, nil
}

// GetLines returns all lines of a BOM ordered by sequence
func (s *Store) GetLines(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID) ([]*entities.BOMLine, error) {
	rows, err := s.query(ctx, s.db,
		"SELECT "+lineColumns+" FROM bom_lines WHERE tenant_id = ? AND bom_id = ? ORDER BY sequence, id",
		string(tenant), string(bomID))
	if err != nil {
		return nil, s.wrap("get BOM lines", err)
	}
	defer rows.Close()

	var lines []*entities.BOMLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, s.wrap("scan BOM line", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("iterate BOM lines", err)
	}
	return lines, nil
}

// SaveHeader inserts or replaces a BOM header
func (s *Store) SaveHeader(ctx context.Context, tenant entities.TenantID, header *entities.BOMHeader) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := s.exec(ctx, tx, `
			UPDATE bom_headers SET item_id = ?, status = ?, version = ?, effective_from = ?,
				expires_at = ?, created_at = ?, updated_at = ?
			WHERE tenant_id = ? AND id = ?`,
			string(header.ItemID), header.Status.String(), header.Version,
			formatTime(header.EffectiveFrom), formatTimePtr(header.ExpiresAt),
			formatTime(header.CreatedAt), formatTime(header.UpdatedAt),
			string(tenant), string(header.ID))
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n > 0 {
			return nil
		}
		_, err = s.exec(ctx, tx, `
			INSERT INTO bom_headers (tenant_id, id, item_id, status, version, effective_from,
				expires_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(tenant), string(header.ID), string(header.ItemID), header.Status.String(),
			header.Version, formatTime(header.EffectiveFrom), formatTimePtr(header.ExpiresAt),
			formatTime(header.CreatedAt), formatTime(header.UpdatedAt))
		return err
	})
	if err != nil {
		return s.wrap("save BOM header "+string(header.ID), err)
	}
	return nil
}

// SaveLine inserts or replaces a BOM line of an existing header
func (s *Store) SaveLine(ctx context.Context, tenant entities.TenantID, line *entities.BOMLine) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := s.queryRow(ctx, tx, "SELECT 1 FROM bom_headers WHERE tenant_id = ? AND id = ?",
			string(tenant), string(line.BOMID)).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("BOM %s: %w", line.BOMID, repositories.ErrNotFound)
		}
		if err != nil {
			return s.wrap("check BOM header", err)
		}

		result, err := s.exec(ctx, tx, `
			UPDATE bom_lines SET bom_id = ?, sequence = ?, component_item_id = ?, quantity_per = ?,
				scrap_percent = ?, line_type = ?, is_critical = ?
			WHERE tenant_id = ? AND id = ?`,
			string(line.BOMID), line.Sequence, string(line.ComponentItemID), line.QuantityPer,
			line.ScrapPercent, line.LineType.String(), boolToInt(line.IsCritical),
			string(tenant), line.ID)
		if err != nil {
			return s.wrap("update BOM line", err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			return nil
		}
		_, err = s.exec(ctx, tx, `
			INSERT INTO bom_lines (tenant_id, id, bom_id, sequence, component_item_id, quantity_per,
				scrap_percent, line_type, is_critical)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(tenant), line.ID, string(line.BOMID), line.Sequence, string(line.ComponentItemID),
			line.QuantityPer, line.ScrapPercent, line.LineType.String(), boolToInt(line.IsCritical))
		if err != nil {
			return s.wrap("insert BOM line", err)
		}
		return nil
	})
}
