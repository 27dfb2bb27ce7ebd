package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WorkCenterID represents a unique work center identifier
type WorkCenterID string

// WorkCenter is a processing resource charged by the hour
type WorkCenter struct {
	ID                  WorkCenterID
	Code                string
	Name                string
	CostPerHour         decimal.Decimal
	OverheadRatePercent decimal.Decimal
}

// RoutingOperation is one step of the routing attached to a BOM
type RoutingOperation struct {
	ID              string
	BOMID           BOMID
	Sequence        int
	WorkCenterID    WorkCenterID
	RunHoursPerUnit decimal.Decimal
}

// StageStatus represents how final a stage cost row is
type StageStatus int

const (
	StagePrecosted StageStatus = iota
	StageActual
	StageCompleted
)

// String method for StageStatus enum
func (s StageStatus) String() string {
	switch s {
	case StagePrecosted:
		return "PRECOSTED"
	case StageActual:
		return "ACTUAL"
	case StageCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// ParseStageStatus converts a stored status name back to a StageStatus
func ParseStageStatus(s string) (StageStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PRECOSTED":
		return StagePrecosted, nil
	case "ACTUAL":
		return StageActual, nil
	case "COMPLETED":
		return StageCompleted, nil
	default:
		return StagePrecosted, fmt.Errorf("unknown stage status: %q", s)
	}
}

func (s StageStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *StageStatus) UnmarshalText(b []byte) error {
	v, err := ParseStageStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// StageCost is the cost incurred by one order at one processing stage
type StageCost struct {
	ID                string
	OrderID           OrderID
	WorkCenterID      WorkCenterID
	StageNumber       int
	GoodQuantity      decimal.Decimal
	DefectiveQuantity decimal.Decimal
	MaterialCost      decimal.Decimal
	LaborCost         decimal.Decimal
	OverheadCost      decimal.Decimal
	TotalCost         decimal.Decimal
	UnitCost          Ratio
	Status            StageStatus
	UpdatedAt         time.Time
}

// NewStageCost creates a validated PRECOSTED stage with derived totals
func NewStageCost(
	orderID OrderID,
	workCenterID WorkCenterID,
	stageNumber int,
	good, defective decimal.Decimal,
	material, labor, overhead decimal.Decimal,
) (*StageCost, error) {
	s := &StageCost{
		ID:                NewID(),
		OrderID:           orderID,
		WorkCenterID:      workCenterID,
		StageNumber:       stageNumber,
		GoodQuantity:      good,
		DefectiveQuantity: defective,
		MaterialCost:      material,
		LaborCost:         labor,
		OverheadCost:      overhead,
		Status:            StagePrecosted,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.Recalculate()
	return s, nil
}

// Validate checks identities and that quantities and costs are not negative
func (s *StageCost) Validate() error {
	if string(s.OrderID) == "" {
		return fmt.Errorf("stage order id cannot be empty")
	}
	if string(s.WorkCenterID) == "" {
		return fmt.Errorf("stage work center id cannot be empty")
	}
	if s.StageNumber <= 0 {
		return fmt.Errorf("stage number must be positive, got %d", s.StageNumber)
	}
	for name, v := range map[string]decimal.Decimal{
		"good quantity":      s.GoodQuantity,
		"defective quantity": s.DefectiveQuantity,
		"material cost":      s.MaterialCost,
		"labor cost":         s.LaborCost,
		"overhead cost":      s.OverheadCost,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%s cannot be negative, got %s", name, v)
		}
	}
	return nil
}

// Recalculate derives TotalCost and UnitCost from the three cost fields
func (s *StageCost) Recalculate() {
	s.TotalCost = s.MaterialCost.Add(s.LaborCost).Add(s.OverheadCost)
	s.UnitCost = SafeDivide(s.TotalCost, s.GoodQuantity)
}

// DefectiveRate returns defective / (good + defective) * 100
func (s *StageCost) DefectiveRate() Ratio {
	return Percent(s.DefectiveQuantity, s.GoodQuantity.Add(s.DefectiveQuantity))
}
