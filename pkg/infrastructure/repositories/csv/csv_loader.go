package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

const dateLayout = "2006-01-02"

var (
	itemsHeader       = []string{"item_id", "code", "name", "unit_of_measure", "standard_cost", "on_hand"}
	bomHeader         = []string{"bom_id", "item_id", "version", "status", "effective_from", "expires_at"}
	bomLinesHeader    = []string{"bom_id", "sequence", "component_item_id", "quantity_per", "scrap_percent", "line_type", "is_critical"}
	workCentersHeader = []string{"work_center_id", "code", "name", "cost_per_hour", "overhead_rate_percent"}
	routingsHeader    = []string{"bom_id", "sequence", "work_center_id", "run_hours_per_unit"}
)

// Loader handles loading BOM master data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadItems loads items and their opening on-hand stock
func (l *Loader) LoadItems(filename string) ([]*entities.Item, error) {
	records, err := readRecords(filename, "items", itemsHeader)
	if err != nil {
		return nil, err
	}

	var items []*entities.Item
	for i, record := range records {
		item, err := parseItem(record)
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// LoadBOMHeaders loads BOM header versions
func (l *Loader) LoadBOMHeaders(filename string) ([]*entities.BOMHeader, error) {
	records, err := readRecords(filename, "BOM", bomHeader)
	if err != nil {
		return nil, err
	}

	var headers []*entities.BOMHeader
	for i, record := range records {
		header, err := parseBOMHeader(record)
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}
		headers = append(headers, header)
	}
	return headers, nil
}

// LoadBOMLines loads BOM component lines
func (l *Loader) LoadBOMLines(filename string) ([]*entities.BOMLine, error) {
	records, err := readRecords(filename, "BOM lines", bomLinesHeader)
	if err != nil {
		return nil, err
	}

	var lines []*entities.BOMLine
	for i, record := range records {
		line, err := parseBOMLine(record)
		if err != nil {
			return nil, fmt.Errorf("BOM lines CSV row %d: %w", i+2, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// LoadWorkCenters loads work centers and their hourly rates
func (l *Loader) LoadWorkCenters(filename string) ([]*entities.WorkCenter, error) {
	records, err := readRecords(filename, "work centers", workCentersHeader)
	if err != nil {
		return nil, err
	}

	var centers []*entities.WorkCenter
	for i, record := range records {
		costPerHour, err := parseDecimal("cost_per_hour", record[3])
		if err != nil {
			return nil, fmt.Errorf("work centers CSV row %d: %w", i+2, err)
		}
		overhead, err := parseDecimal("overhead_rate_percent", record[4])
		if err != nil {
			return nil, fmt.Errorf("work centers CSV row %d: %w", i+2, err)
		}
		if costPerHour.IsNegative() || overhead.IsNegative() {
			return nil, fmt.Errorf("work centers CSV row %d: rates cannot be negative", i+2)
		}

		centers = append(centers, &entities.WorkCenter{
			ID:                  entities.WorkCenterID(record[0]),
			Code:                record[1],
			Name:                record[2],
			CostPerHour:         costPerHour,
			OverheadRatePercent: overhead,
		})
	}
	return centers, nil
}

// LoadRouting loads routing operations
func (l *Loader) LoadRouting(filename string) ([]*entities.RoutingOperation, error) {
	records, err := readRecords(filename, "routings", routingsHeader)
	if err != nil {
		return nil, err
	}

	var ops []*entities.RoutingOperation
	for i, record := range records {
		sequence, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("routings CSV row %d: invalid sequence: %s", i+2, record[1])
		}
		hours, err := parseDecimal("run_hours_per_unit", record[3])
		if err != nil {
			return nil, fmt.Errorf("routings CSV row %d: %w", i+2, err)
		}
		if hours.IsNegative() {
			return nil, fmt.Errorf("routings CSV row %d: run hours cannot be negative", i+2)
		}

		ops = append(ops, &entities.RoutingOperation{
			ID:              "op:" + stableID(entities.BOMID(record[0]), sequence),
			BOMID:           entities.BOMID(record[0]),
			Sequence:        sequence,
			WorkCenterID:    entities.WorkCenterID(record[2]),
			RunHoursPerUnit: hours,
		})
	}
	return ops, nil
}

// Helper functions for parsing CSV records

// readRecords reads a CSV file, checks its header row and returns the data rows
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}
	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", field, s)
	}
	return v, nil
}

func parseItem(record []string) (*entities.Item, error) {
	standardCost, err := parseDecimal("standard_cost", record[4])
	if err != nil {
		return nil, err
	}
	onHand, err := parseDecimal("on_hand", record[5])
	if err != nil {
		return nil, err
	}
	if onHand.IsNegative() {
		return nil, fmt.Errorf("on_hand cannot be negative: %s", onHand)
	}

	item, err := entities.NewItem(entities.ItemID(record[0]), record[1], record[2], record[3], standardCost)
	if err != nil {
		return nil, err
	}
	item.OnHand = onHand
	return item, nil
}

func parseBOMHeader(record []string) (*entities.BOMHeader, error) {
	version, err := strconv.Atoi(record[2])
	if err != nil {
		return nil, fmt.Errorf("invalid version: %s", record[2])
	}

	status, err := entities.ParseBOMStatus(record[3])
	if err != nil {
		return nil, err
	}

	effectiveFrom, err := time.Parse(dateLayout, record[4])
	if err != nil {
		return nil, fmt.Errorf("invalid effective_from format: %s (expected YYYY-MM-DD)", record[4])
	}

	var expiresAt *time.Time
	if s := strings.TrimSpace(record[5]); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid expires_at format: %s (expected YYYY-MM-DD)", s)
		}
		expiresAt = &t
	}

	header, err := entities.NewBOMHeader(entities.BOMID(record[0]), entities.ItemID(record[1]), version, effectiveFrom, expiresAt)
	if err != nil {
		return nil, err
	}
	header.Status = status
	return header, nil
}

func parseBOMLine(record []string) (*entities.BOMLine, error) {
	sequence, err := strconv.Atoi(record[1])
	if err != nil {
		return nil, fmt.Errorf("invalid sequence: %s", record[1])
	}
	qtyPer, err := parseDecimal("quantity_per", record[3])
	if err != nil {
		return nil, err
	}
	scrap, err := parseDecimal("scrap_percent", record[4])
	if err != nil {
		return nil, err
	}
	lineType, err := entities.ParseLineType(record[5])
	if err != nil {
		return nil, err
	}
	critical, err := parseBool(record[6])
	if err != nil {
		return nil, err
	}

	line, err := entities.NewBOMLine(entities.BOMID(record[0]), sequence, entities.ItemID(record[2]), qtyPer, scrap, lineType, critical)
	if err != nil {
		return nil, err
	}
	line.ID = stableID(line.BOMID, sequence)
	return line, nil
}

// stableID keys rows by BOM and sequence so reloading a scenario updates
// rather than duplicates them
func stableID(bomID entities.BOMID, sequence int) string {
	return fmt.Sprintf("%s/%d", bomID, sequence)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "no", "0":
		return false, nil
	case "true", "yes", "1":
		return true, nil
	default:
		return false, fmt.Errorf("invalid is_critical: %s (expected true or false)", s)
	}
}
