package entities

import (
	"encoding/json"
	"testing"
)

func TestNewStageCost_Totals(t *testing.T) {
	stage, err := NewStageCost("MO-1", "WC-1", 1, d("100"), d("0"), d("3000"), d("1000"), d("500"))
	if err != nil {
		t.Fatalf("NewStageCost() error = %v", err)
	}
	if !stage.TotalCost.Equal(d("4500")) {
		t.Errorf("TotalCost = %s, want 4500", stage.TotalCost)
	}
	if got := stage.UnitCost.StringFixed(2); got != "45.00" {
		t.Errorf("UnitCost = %s, want 45.00", got)
	}
}

func TestStageCost_ZeroGoodQuantity(t *testing.T) {
	stage, err := NewStageCost("MO-1", "WC-1", 1, d("0"), d("5"), d("100"), d("0"), d("0"))
	if err != nil {
		t.Fatalf("NewStageCost() error = %v", err)
	}
	if stage.UnitCost.Defined {
		t.Errorf("UnitCost = %s, want undefined", stage.UnitCost)
	}
	if rate := stage.DefectiveRate(); !rate.Defined || !rate.Value.Equal(d("100")) {
		t.Errorf("DefectiveRate() = %s, want 100", rate)
	}
}

func TestStageCost_Validation(t *testing.T) {
	if _, err := NewStageCost("MO-1", "WC-1", 0, d("1"), d("0"), d("1"), d("1"), d("1")); err == nil {
		t.Error("expected error for stage number 0")
	}
	if _, err := NewStageCost("MO-1", "WC-1", 1, d("1"), d("-1"), d("1"), d("1"), d("1")); err == nil {
		t.Error("expected error for negative defective quantity")
	}
}

func TestRatio_JSON(t *testing.T) {
	b, err := json.Marshal(SafeDivide(d("1"), d("0")))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != "null" {
		t.Errorf("undefined ratio marshalled as %s, want null", b)
	}

	var r Ratio
	if err := json.Unmarshal([]byte(`"12.5"`), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !r.Defined || !r.Value.Equal(d("12.5")) {
		t.Errorf("Unmarshal() = %+v, want defined 12.5", r)
	}
}

func TestPercent(t *testing.T) {
	if p := Percent(d("50"), d("200")); !p.Value.Equal(d("25")) {
		t.Errorf("Percent(50, 200) = %s, want 25", p)
	}
	if p := Percent(d("50"), d("0")); p.Defined {
		t.Errorf("Percent(50, 0) = %s, want undefined", p)
	}
}
