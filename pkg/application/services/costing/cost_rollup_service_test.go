package costing

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/dto"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/bom"
	fixtures "github.com/6thd/wardah-process-costing-sub007/pkg/application/services/testing"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

var d = fixtures.Dec

type fixedActuals struct {
	breakdown *dto.CostBreakdown
	err       error
}

func (f fixedActuals) ActualCost(context.Context, entities.TenantID, entities.BOMID, decimal.Decimal) (*dto.CostBreakdown, error) {
	return f.breakdown, f.err
}

func newRollup(f *fixtures.Fixture, actuals ActualCostProvider) *CostRollupService {
	explosion := bom.NewExplosionService(f.Store, f.Store, zerolog.Nop())
	return NewCostRollupService(explosion, NewRoutingCostCalculator(f.Store), actuals, zerolog.Nop())
}

func TestRoutingCostCalculator(t *testing.T) {
	f := fixtures.BuildBicycleScenario()
	f.Routing("BOM-BIKE", "WELDING", 20, "0.1")
	calc := NewRoutingCostCalculator(f.Store)

	tests := []struct {
		bomID    entities.BOMID
		labor    string
		overhead string
	}{
		// 0.5h x 40 at 50%, plus 0.1h x 60 at 25%
		{"BOM-BIKE", "26", "11.5"},
		{"BOM-FRAME", "15", "3.75"},
		{"BOM-WHEEL", "0", "0"},
	}
	for _, tt := range tests {
		labor, overhead, err := calc.ConversionCost(context.Background(), f.Tenant, tt.bomID)
		if err != nil {
			t.Fatalf("ConversionCost(%s) failed: %v", tt.bomID, err)
		}
		if !labor.Equal(d(tt.labor)) || !overhead.Equal(d(tt.overhead)) {
			t.Errorf("ConversionCost(%s): expected %s/%s, got %s/%s", tt.bomID, tt.labor, tt.overhead, labor, overhead)
		}
	}
}

func TestStandardCost_Bicycle(t *testing.T) {
	f := fixtures.BuildBicycleScenario()

	cost, err := newRollup(f, nil).StandardCost(context.Background(), f.Tenant, "BOM-BIKE", d("2"))
	if err != nil {
		t.Fatalf("StandardCost failed: %v", err)
	}

	expected := map[string][2]decimal.Decimal{
		"material": {d("232.9"), cost.MaterialCost},
		// bike assembly 2 x 20, frame welding 2 x 15
		"labor":    {d("70"), cost.LaborCost},
		"overhead": {d("27.5"), cost.OverheadCost},
		"total":    {d("330.4"), cost.TotalCost},
		"unit":     {d("165.2"), cost.UnitCost},
	}
	for name, pair := range expected {
		if !pair[0].Equal(pair[1]) {
			t.Errorf("Expected %s cost %s, got %s", name, pair[0], pair[1])
		}
	}
}

func TestStandardCost_PhantomCarriesNoRouting(t *testing.T) {
	f := fixtures.BuildBicycleScenario()
	// A routing on the phantom kit must not be charged
	f.Routing("BOM-KIT", "ASSEMBLY", 10, "10")

	cost, err := newRollup(f, nil).StandardCost(context.Background(), f.Tenant, "BOM-BIKE", d("2"))
	if err != nil {
		t.Fatalf("StandardCost failed: %v", err)
	}
	if !cost.LaborCost.Equal(d("70")) {
		t.Errorf("Expected labor 70, got %s", cost.LaborCost)
	}
}

func TestStandardCost_RejectsNonPositiveQuantity(t *testing.T) {
	f := fixtures.BuildBicycleScenario()

	for _, qty := range []string{"0", "-1"} {
		_, err := newRollup(f, nil).StandardCost(context.Background(), f.Tenant, "BOM-BIKE", d(qty))
		if !errors.Is(err, entities.ErrInvalidQuantity) {
			t.Errorf("StandardCost(%s): expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestStandardCost_PropagatesCycle(t *testing.T) {
	f := fixtures.NewFixture()
	f.Item("A", "0", "0")
	f.Item("B", "0", "0")
	f.ApprovedBOM("BOM-A", "A")
	f.Line("BOM-A", "B", "1", "0")
	f.ApprovedBOM("BOM-B", "B")
	f.Line("BOM-B", "A", "1", "0")

	_, err := newRollup(f, nil).StandardCost(context.Background(), f.Tenant, "BOM-A", d("1"))
	var cycle *entities.CircularBOMError
	if !errors.As(err, &cycle) {
		t.Fatalf("Expected CircularBOMError, got %v", err)
	}
}

func TestCompareCosts(t *testing.T) {
	f := fixtures.NewFixture()
	f.Item("A", "0", "0")
	f.Item("B", "10", "0")
	f.ApprovedBOM("BOM-A", "A")
	f.Line("BOM-A", "B", "2", "0")

	actual := &dto.CostBreakdown{
		MaterialCost: d("44"),
		LaborCost:    d("5"),
		OverheadCost: d("0"),
		TotalCost:    d("49"),
	}
	variances, err := newRollup(f, fixedActuals{breakdown: actual}).CompareCosts(context.Background(), f.Tenant, "BOM-A", d("2"))
	if err != nil {
		t.Fatalf("CompareCosts failed: %v", err)
	}

	tests := []struct {
		costType dto.CostType
		variance string
		percent  string
		defined  bool
	}{
		{dto.CostMaterial, "4", "10", true},
		{dto.CostLabor, "5", "", false},
		{dto.CostOverhead, "0", "", false},
		{dto.CostTotal, "9", "22.5", true},
	}
	if len(variances) != len(tests) {
		t.Fatalf("Expected %d variances, got %d", len(tests), len(variances))
	}
	for i, tt := range tests {
		v := variances[i]
		if v.CostType != tt.costType {
			t.Errorf("Variance %d: expected %s, got %s", i, tt.costType, v.CostType)
		}
		if !v.Variance.Equal(d(tt.variance)) {
			t.Errorf("%s: expected variance %s, got %s", tt.costType, tt.variance, v.Variance)
		}
		if v.VariancePercent.Defined != tt.defined {
			t.Errorf("%s: expected percent defined=%v, got %v", tt.costType, tt.defined, v.VariancePercent.Defined)
		}
		if tt.defined && !v.VariancePercent.Value.Equal(d(tt.percent)) {
			t.Errorf("%s: expected percent %s, got %s", tt.costType, tt.percent, v.VariancePercent)
		}
	}
}

func TestCompareCosts_NoActuals(t *testing.T) {
	f := fixtures.BuildBicycleScenario()

	_, err := newRollup(f, nil).CompareCosts(context.Background(), f.Tenant, "BOM-BIKE", d("1"))
	if !errors.Is(err, ErrNoActualCost) {
		t.Errorf("Expected ErrNoActualCost without a provider, got %v", err)
	}

	_, err = newRollup(f, fixedActuals{err: ErrNoActualCost}).CompareCosts(context.Background(), f.Tenant, "BOM-BIKE", d("1"))
	if !errors.Is(err, ErrNoActualCost) {
		t.Errorf("Expected ErrNoActualCost from provider, got %v", err)
	}
}
