package csv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/repositories/memory"
)

const bicycleDir = "../../../../scenarios/bicycle"

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestLoadScenario_Bicycle(t *testing.T) {
	scenario, err := NewLoader().LoadScenario(bicycleDir)
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}

	if len(scenario.Items) != 10 {
		t.Errorf("Expected 10 items, got %d", len(scenario.Items))
	}
	if len(scenario.Headers) != 4 {
		t.Errorf("Expected 4 BOMs, got %d", len(scenario.Headers))
	}
	if len(scenario.Lines) != 10 {
		t.Errorf("Expected 10 BOM lines, got %d", len(scenario.Lines))
	}
	if len(scenario.WorkCenters) != 2 || len(scenario.Routing) != 2 {
		t.Errorf("Expected 2 work centers and 2 routings, got %d and %d", len(scenario.WorkCenters), len(scenario.Routing))
	}

	var kit *entities.BOMLine
	for _, line := range scenario.Lines {
		if line.ComponentItemID == "KIT" {
			kit = line
		}
	}
	if kit == nil || kit.LineType != entities.LinePhantom {
		t.Fatalf("Expected KIT to load as a phantom line, got %+v", kit)
	}
	if kit.ID != "BOM-BIKE/30" {
		t.Errorf("Expected stable line id BOM-BIKE/30, got %s", kit.ID)
	}

	tube := scenario.Items[4]
	if tube.ID != "TUBE" || !tube.StandardCost.Equal(decimal.RequireFromString("12.5")) || !tube.OnHand.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Unexpected TUBE item: %+v", tube)
	}
}

func TestScenario_SeedIsRepeatable(t *testing.T) {
	scenario, err := NewLoader().LoadScenario(bicycleDir)
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}

	ctx := context.Background()
	store := memory.NewStore()
	for i := 0; i < 2; i++ {
		if err := scenario.Seed(ctx, "acme", store); err != nil {
			t.Fatalf("Seed %d failed: %v", i+1, err)
		}
	}

	lines, err := store.GetLines(ctx, "acme", "BOM-BIKE")
	if err != nil {
		t.Fatalf("GetLines failed: %v", err)
	}
	if len(lines) != 4 {
		t.Errorf("Expected 4 BIKE lines after seeding twice, got %d", len(lines))
	}

	routing, err := store.ListRouting(ctx, "acme", "BOM-FRAME")
	if err != nil {
		t.Fatalf("ListRouting failed: %v", err)
	}
	if len(routing) != 1 || routing[0].WorkCenterID != "WELDING" {
		t.Errorf("Expected one WELDING operation, got %+v", routing)
	}

	items, err := store.ListItems(ctx, "other")
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no items for another tenant, got %d", len(items))
	}
}

func TestLoadScenario_Errors(t *testing.T) {
	items := "item_id,code,name,unit_of_measure,standard_cost,on_hand\nA,A,Assembly,EA,0,0\nB,B,Bolt,EA,1,10\n"
	boms := "bom_id,item_id,version,status,effective_from,expires_at\nBOM-A,A,1,APPROVED,2020-01-01,\n"
	linesHeader := "bom_id,sequence,component_item_id,quantity_per,scrap_percent,line_type,is_critical\n"

	tests := []struct {
		name    string
		items   string
		boms    string
		lines   string
		wantErr string
	}{
		{"header mismatch", "code,name\nA,Assembly\n", boms, linesHeader + "BOM-A,10,B,1,0,NORMAL,false\n", "header mismatch"},
		{"bad decimal", items, boms, linesHeader + "BOM-A,10,B,one,0,NORMAL,false\n", "invalid quantity_per"},
		{"zero quantity", items, boms, linesHeader + "BOM-A,10,B,0,0,NORMAL,false\n", "must be positive"},
		{"scrap at 100", items, boms, linesHeader + "BOM-A,10,B,1,100,NORMAL,false\n", "scrap factor"},
		{"unknown line type", items, boms, linesHeader + "BOM-A,10,B,1,0,GHOST,false\n", "unknown line type"},
		{"unknown component", items, boms, linesHeader + "BOM-A,10,C,1,0,NORMAL,false\n", "unknown item C"},
		{"unknown BOM", items, boms, linesHeader + "BOM-X,10,B,1,0,NORMAL,false\n", "unknown BOM BOM-X"},
		{"bad status", items, "bom_id,item_id,version,status,effective_from,expires_at\nBOM-A,A,1,LIVE,2020-01-01,\n", linesHeader + "BOM-A,10,B,1,0,NORMAL,false\n", "unknown BOM status"},
		{"bad date", items, "bom_id,item_id,version,status,effective_from,expires_at\nBOM-A,A,1,APPROVED,01/01/2020,\n", linesHeader + "BOM-A,10,B,1,0,NORMAL,false\n", "effective_from"},
		{"no data rows", items, boms, linesHeader, "at least one data row"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, ItemsFile, tt.items)
			writeFile(t, dir, BOMsFile, tt.boms)
			writeFile(t, dir, BOMLinesFile, tt.lines)

			_, err := NewLoader().LoadScenario(dir)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadScenario_RoutingNeedsWorkCenter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ItemsFile, "item_id,code,name,unit_of_measure,standard_cost,on_hand\nA,A,Assembly,EA,0,0\nB,B,Bolt,EA,1,10\n")
	writeFile(t, dir, BOMsFile, "bom_id,item_id,version,status,effective_from,expires_at\nBOM-A,A,1,APPROVED,2020-01-01,2021-01-01\n")
	writeFile(t, dir, BOMLinesFile, "bom_id,sequence,component_item_id,quantity_per,scrap_percent,line_type,is_critical\nBOM-A,10,B,1,0,,yes\n")
	writeFile(t, dir, RoutingsFile, "bom_id,sequence,work_center_id,run_hours_per_unit\nBOM-A,10,PAINT,1\n")

	_, err := NewLoader().LoadScenario(dir)
	if err == nil || !strings.Contains(err.Error(), "unknown work center PAINT") {
		t.Fatalf("Expected unknown work center error, got %v", err)
	}

	writeFile(t, dir, WorkCentersFile, "work_center_id,code,name,cost_per_hour,overhead_rate_percent\nPAINT,PAINT,Paint shop,30,10\n")
	scenario, err := NewLoader().LoadScenario(dir)
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}
	if scenario.Headers[0].ExpiresAt == nil {
		t.Error("Expected expires_at to be parsed")
	}
	if !scenario.Lines[0].IsCritical || scenario.Lines[0].LineType != entities.LineNormal {
		t.Errorf("Expected a critical NORMAL line, got %+v", scenario.Lines[0])
	}
}
