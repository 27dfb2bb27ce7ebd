package commands

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/dto"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

const bicycleDir = "../../../../scenarios/bicycle"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// isolateConfig keeps the host's configuration files and environment out of a test
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{
		"BOMENGINE_DB_DRIVER", "BOMENGINE_DB_DSN", "BOMENGINE_REDIS_ADDR",
		"BOMENGINE_LOG_LEVEL", "BOMENGINE_TENANT", "BOMENGINE_RESERVATION_MAX_RETRIES",
	} {
		t.Setenv(key, "")
	}
}

// execute runs the command tree with args and returns what it wrote to stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand("test")
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("%s failed: %v", strings.Join(args, " "), err)
	}
	return out
}

func decode(t *testing.T, out string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
}

func TestExplode_Scenario(t *testing.T) {
	isolateConfig(t)
	out := mustExecute(t, "explode", "BOM-BIKE", "--qty", "2", "--scenario", bicycleDir, "-f", "json")

	var result dto.ExplosionResult
	decode(t, out, &result)

	want := map[entities.ItemID]string{
		"TUBE":  "6.6",
		"WELD":  "1.5",
		"RIM":   "4",
		"SPOKE": "134.4",
		"BOLT":  "8",
		"SEAT":  "2",
	}
	if len(result.Requirements) != len(want) {
		t.Fatalf("Expected %d leaf requirements, got %d", len(want), len(result.Requirements))
	}
	for item, qty := range want {
		req, ok := result.Requirement(item)
		if !ok {
			t.Errorf("Missing requirement for %s", item)
			continue
		}
		if !req.RequiredQuantity.Equal(d(qty)) {
			t.Errorf("%s: expected %s, got %s", item, qty, req.RequiredQuantity)
		}
	}
	if _, ok := result.Requirement("KIT"); ok {
		t.Error("Phantom KIT must not appear as a requirement")
	}
}

func TestCost_ScenarioCSV(t *testing.T) {
	isolateConfig(t)
	out := mustExecute(t, "cost", "BOM-BIKE", "--qty", "2", "--scenario", bicycleDir, "--format", "csv")

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	got := make(map[string]string)
	for _, row := range rows[1:] {
		got[row[0]] = row[1]
	}

	want := map[string]string{
		"MATERIAL": "232.90",
		"LABOR":    "70.00",
		"OVERHEAD": "27.50",
		"TOTAL":    "330.40",
		"UNIT":     "165.20",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %s, got %q", k, v, got[k])
		}
	}
}

func TestAvailability_ScenarioShortages(t *testing.T) {
	isolateConfig(t)
	out := mustExecute(t, "availability", "BOM-BIKE", "--qty", "40", "--scenario", bicycleDir, "-f", "json")

	var result struct {
		Items     []dto.Availability  `json:"items"`
		Shortages []entities.Shortage `json:"shortages"`
	}
	decode(t, out, &result)

	short := make(map[entities.ItemID]bool)
	for _, s := range result.Shortages {
		short[s.ItemID] = true
	}
	for _, item := range []entities.ItemID{"SEAT", "RIM", "TUBE", "SPOKE"} {
		if !short[item] {
			t.Errorf("Expected %s to be short", item)
		}
	}
	if len(result.Shortages) != 4 {
		t.Errorf("Expected 4 shortages, got %d", len(result.Shortages))
	}
}

func TestTree_SearchScenario(t *testing.T) {
	isolateConfig(t)
	out := mustExecute(t, "tree", "BOM-BIKE", "--search", "weld", "--scenario", bicycleDir, "-f", "json")

	var matches []struct {
		ItemID string `json:"item_id"`
	}
	decode(t, out, &matches)

	// FRAME is a "Welded frame"; WELD appears under FRAME and under the phantom KIT
	counts := make(map[string]int)
	for _, m := range matches {
		counts[m.ItemID]++
	}
	if counts["FRAME"] != 1 || counts["WELD"] != 2 || len(matches) != 3 {
		t.Errorf("Expected FRAME once and WELD twice, got %v", counts)
	}
}

func TestReadCommands_Errors(t *testing.T) {
	isolateConfig(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad quantity", []string{"explode", "BOM-BIKE", "--qty", "two", "--scenario", bicycleDir}, "invalid quantity"},
		{"bad date", []string{"explode", "BOM-BIKE", "--as-of", "01/02/2025", "--scenario", bicycleDir}, "expected YYYY-MM-DD"},
		{"bad format", []string{"cost", "BOM-BIKE", "--scenario", bicycleDir, "-f", "html"}, "unsupported output format"},
		{"missing scenario", []string{"cost", "BOM-BIKE", "--scenario", filepath.Join(t.TempDir(), "nope")}, "items.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestNoDataSource(t *testing.T) {
	isolateConfig(t)

	_, err := execute(t, "explode", "BOM-BIKE")
	if !errors.Is(err, ErrNoDataSource) {
		t.Errorf("Expected ErrNoDataSource without scenario or database, got %v", err)
	}

	// Database-only commands ignore --scenario
	_, err = execute(t, "order", "show", "any", "--scenario", bicycleDir)
	if !errors.Is(err, ErrNoDataSource) {
		t.Errorf("Expected ErrNoDataSource for a database-only command, got %v", err)
	}
}

// sqliteConfig writes a configuration file pointing at a fresh SQLite database
func sqliteConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bomengine.toml")
	content := fmt.Sprintf(`[storage]
driver = "sqlite"
dsn = %q
max_open_conns = 1

[logging]
level = "error"

[tenant]
default = "acme"
`, filepath.Join(dir, "bom.db"))
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

type orderView struct {
	Order struct {
		ID            string
		Status        string
		UnderReserved bool
	} `json:"order"`
	Reservations []struct {
		ID     string
		ItemID string
		Status string
	} `json:"reservations"`
}

func TestOrderLifecycle_SQLite(t *testing.T) {
	isolateConfig(t)
	cfg := sqliteConfig(t)
	db := func(args ...string) string {
		t.Helper()
		return mustExecute(t, append(args, "--config", cfg, "-f", "json")...)
	}

	// Reads before migration report the schema instead of crashing
	if _, err := execute(t, "order", "show", "missing", "--config", cfg); err == nil {
		t.Fatal("Expected error before migrations")
	}

	var migrated map[string]int
	decode(t, db("migrate", "up"), &migrated)
	if migrated["applied"] == 0 {
		t.Fatalf("Expected migrations to be applied, got %v", migrated)
	}
	db("import", bicycleDir)

	// Imported data is readable through the database path
	var cost dto.CostBreakdown
	decode(t, db("cost", "BOM-BIKE", "--qty", "2"), &cost)
	if !cost.TotalCost.Equal(d("330.4")) {
		t.Fatalf("Expected total 330.40 from the database, got %s", cost.TotalCost)
	}

	var created orderView
	decode(t, db("order", "create", "BIKE", "--bom", "BOM-BIKE", "--qty", "2"), &created)
	if created.Order.Status != "DRAFT" || len(created.Reservations) != 6 {
		t.Fatalf("Expected DRAFT order with 6 reservations, got %s with %d", created.Order.Status, len(created.Reservations))
	}
	orderID := created.Order.ID

	// Reserved stock reduces availability
	var avail struct {
		Items []dto.Availability `json:"items"`
	}
	decode(t, db("availability", "BOM-BIKE", "--qty", "1"), &avail)
	for _, a := range avail.Items {
		if a.ItemID == "SEAT" && !a.Reserved.Equal(d("2")) {
			t.Errorf("Expected 2 SEAT reserved, got %s", a.Reserved)
		}
	}

	db("order", "status", orderID, "CONFIRMED")
	db("order", "status", orderID, "IN_PROGRESS")
	db("order", "consume", orderID, "SEAT=2")

	var stage map[string]interface{}
	decode(t, db("stage", "record", orderID, "1",
		"--work-center", "ASSEMBLY", "--good", "2",
		"--material", "232.9", "--labor", "70", "--overhead", "27.5"), &stage)
	stageID, _ := stage["stage_id"].(string)
	if stageID == "" {
		t.Fatalf("Expected stage id in %v", stage)
	}
	db("stage", "advance", stageID, "COMPLETED")

	var completed orderView
	decode(t, db("order", "status", orderID, "COMPLETED", "--end", "2025-03-31"), &completed)
	if completed.Order.Status != "COMPLETED" {
		t.Fatalf("Expected COMPLETED, got %s", completed.Order.Status)
	}
	for _, r := range completed.Reservations {
		if r.Status == "RESERVED" {
			t.Errorf("Reservation of %s still RESERVED after completion", r.ItemID)
		}
	}

	var summary dto.OrderCostSummary
	decode(t, db("order", "cost", orderID), &summary)
	if !summary.TotalCost.Equal(d("330.4")) || !summary.FinalUnitCost.Value.Equal(d("165.2")) {
		t.Errorf("Expected total 330.40 and unit 165.20, got %s and %s", summary.TotalCost, summary.FinalUnitCost)
	}

	var variances []struct {
		CostType dto.CostType    `json:"cost_type"`
		Variance decimal.Decimal `json:"variance"`
	}
	decode(t, db("cost", "BOM-BIKE", "--qty", "2", "--compare"), &variances)
	if len(variances) != 4 {
		t.Fatalf("Expected 4 variance rows, got %d", len(variances))
	}
	for _, v := range variances {
		if !v.Variance.IsZero() {
			t.Errorf("%s: expected zero variance, got %s", v.CostType, v.Variance)
		}
	}
}

func TestOrderCreate_StrictShortageSavesNothing(t *testing.T) {
	isolateConfig(t)
	cfg := sqliteConfig(t)
	mustExecute(t, "migrate", "up", "--config", cfg)
	mustExecute(t, "import", bicycleDir, "--config", cfg)

	if _, err := execute(t, "order", "create", "BIKE", "--bom", "BOM-BIKE", "--qty", "40", "--config", cfg); err == nil {
		t.Fatal("Expected shortage error for 40 bicycles")
	}

	var avail struct {
		Items []dto.Availability `json:"items"`
	}
	decode(t, mustExecute(t, "availability", "BOM-BIKE", "--config", cfg, "-f", "json"), &avail)
	for _, a := range avail.Items {
		if !a.Reserved.IsZero() {
			t.Errorf("%s: expected nothing reserved after a failed order, got %s", a.ItemID, a.Reserved)
		}
	}
}

func TestReceiveAndMaterials(t *testing.T) {
	isolateConfig(t)
	cfg := sqliteConfig(t)
	mustExecute(t, "migrate", "up", "--config", cfg)
	mustExecute(t, "import", bicycleDir, "--config", cfg)
	mustExecute(t, "receive", "SEAT", "25", "--config", cfg)

	var avail struct {
		Items []dto.Availability `json:"items"`
	}
	decode(t, mustExecute(t, "availability", "BOM-BIKE", "--config", cfg, "-f", "json"), &avail)
	for _, a := range avail.Items {
		if a.ItemID == "SEAT" && !a.OnHand.Equal(d("55")) {
			t.Errorf("Expected 55 seats on hand, got %s", a.OnHand)
		}
	}

	if _, err := execute(t, "receive", "SEAT", "0", "--config", cfg); err == nil {
		t.Error("Expected error for an empty receipt")
	}
	if _, err := execute(t, "order", "create", "FRAME", "--material", "TUBE", "--config", cfg); err == nil {
		t.Error("Expected error for a material without quantity")
	}
}

func TestParseMaterials(t *testing.T) {
	got, err := parseMaterials([]string{"TUBE=3.3", "WELD=0.5"})
	if err != nil {
		t.Fatalf("parseMaterials failed: %v", err)
	}
	if len(got) != 2 || got[0].ItemID != "TUBE" || !got[1].Quantity.Equal(d("0.5")) {
		t.Errorf("Unexpected materials %+v", got)
	}

	for _, bad := range []string{"TUBE", "=3", "TUBE=x"} {
		if _, err := parseMaterials([]string{bad}); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}
