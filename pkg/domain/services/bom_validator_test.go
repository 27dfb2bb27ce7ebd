package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

func TestBOMValidator_ValidateGraph(t *testing.T) {
	tests := []struct {
		name        string
		adjacency   map[entities.BOMID][]entities.BOMID
		expectCycle bool
	}{
		{
			name: "acyclic",
			adjacency: map[entities.BOMID][]entities.BOMID{
				"A": {"B", "C"},
				"B": {"C"},
			},
			expectCycle: false,
		},
		{
			name: "self_reference",
			adjacency: map[entities.BOMID][]entities.BOMID{
				"A": {"A"},
			},
			expectCycle: true,
		},
		{
			name: "transitive",
			adjacency: map[entities.BOMID][]entities.BOMID{
				"A": {"B"},
				"B": {"C"},
				"C": {"A"},
			},
			expectCycle: true,
		},
	}

	v := NewBOMValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.ValidateGraph(tt.adjacency)
			if result.HasCycles != tt.expectCycle {
				t.Fatalf("HasCycles = %v, want %v (paths %v)", result.HasCycles, tt.expectCycle, result.CyclePaths)
			}
			if !tt.expectCycle {
				return
			}
			var circErr *entities.CircularBOMError
			if !errors.As(result.FirstCycle(), &circErr) {
				t.Fatalf("FirstCycle() = %v, want *CircularBOMError", result.FirstCycle())
			}
			path := circErr.Path
			if path[0] != path[len(path)-1] {
				t.Errorf("cycle path %v does not close on itself", path)
			}
		})
	}
}

func TestBOMValidator_ValidateLines(t *testing.T) {
	one := decimal.NewFromInt(1)
	lines := []*entities.BOMLine{
		{ID: "L1", BOMID: "A", Sequence: 10, ComponentItemID: "X", QuantityPer: one},
		{ID: "L2", BOMID: "A", Sequence: 10, ComponentItemID: "X", QuantityPer: one},
		{ID: "L3", BOMID: "A", Sequence: 20, ComponentItemID: "Y", QuantityPer: decimal.Zero},
	}

	result := NewBOMValidator().ValidateLines(lines)
	if result.Valid() {
		t.Fatal("expected validation errors")
	}
	if len(result.DuplicateLines) != 2 {
		t.Errorf("DuplicateLines = %d, want 2", len(result.DuplicateLines))
	}
	if len(result.InvalidLines) != 1 {
		t.Errorf("InvalidLines = %d, want 1", len(result.InvalidLines))
	}
}
