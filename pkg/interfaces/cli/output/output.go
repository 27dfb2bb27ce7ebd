package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/dto"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// Format selects how results are rendered
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates an output format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (expected text, json or csv)", s)
	}
}

// Config holds configuration for output generation
type Config struct {
	Format Format
	// Precision is the number of decimal places money and ratios are rounded to
	Precision int32
}

// Renderer writes results to w in the configured format. Values are
// rounded here and nowhere earlier.
type Renderer struct {
	w      io.Writer
	config Config
}

// NewRenderer creates a renderer writing to w
func NewRenderer(w io.Writer, config Config) *Renderer {
	if config.Format == "" {
		config.Format = FormatText
	}
	return &Renderer{w: w, config: config}
}

// Explosion renders the flat material requirements of a BOM explosion
func (r *Renderer) Explosion(result *dto.ExplosionResult) error {
	p := r.config.Precision
	switch r.config.Format {
	case FormatJSON:
		rounded := *result
		rounded.Requirements = roundRequirements(result.Requirements, p)
		rounded.Subassemblies = roundRequirements(result.Subassemblies, p)
		rounded.TotalMaterialCost = result.TotalMaterialCost.Round(p)
		return r.json(rounded)
	case FormatCSV:
		rows := [][]string{{"item_id", "code", "name", "unit_of_measure", "required_quantity", "unit_cost", "cost_contribution", "is_critical"}}
		for _, req := range result.Requirements {
			rows = append(rows, []string{
				string(req.ItemID), req.Code, req.Name, req.UnitOfMeasure,
				req.RequiredQuantity.String(), req.UnitCost.StringFixed(p), req.CostContribution.StringFixed(p),
				strconv.FormatBool(req.IsCritical),
			})
		}
		return r.csv(rows)
	}

	fmt.Fprintf(r.w, "📦 Material Requirements: %s x %s\n", result.BOMID, result.Quantity)
	fmt.Fprintf(r.w, "==============================\n\n")
	fmt.Fprintf(r.w, "%-12s %-24s %14s %6s %12s %14s\n", "Code", "Name", "Required", "UoM", "Unit Cost", "Cost")
	fmt.Fprintf(r.w, "%-12s %-24s %14s %6s %12s %14s\n",
		"------------", "------------------------", "--------------", "------", "------------", "--------------")
	for _, req := range result.Requirements {
		marker := ""
		if req.IsCritical {
			marker = " *"
		}
		fmt.Fprintf(r.w, "%-12s %-24s %14s %6s %12s %14s%s\n",
			req.Code, truncate(req.Name, 24), req.RequiredQuantity.String(), req.UnitOfMeasure,
			req.UnitCost.StringFixed(p), req.CostContribution.StringFixed(p), marker)
	}
	fmt.Fprintln(r.w)

	if len(result.Subassemblies) > 0 {
		fmt.Fprintf(r.w, "🔧 Sub-assemblies:\n")
		for _, sub := range result.Subassemblies {
			fmt.Fprintf(r.w, "  %-12s %14s  (%s)\n", sub.Code, sub.RequiredQuantity.String(), sub.BOMID)
		}
		fmt.Fprintln(r.w)
	}

	fmt.Fprintf(r.w, "Total material cost: %s\n", result.TotalMaterialCost.StringFixed(p))
	return nil
}

// Cost renders a standard cost breakdown
func (r *Renderer) Cost(cost *dto.CostBreakdown) error {
	p := r.config.Precision
	rounded := cost.Rounded(p)
	switch r.config.Format {
	case FormatJSON:
		return r.json(rounded)
	case FormatCSV:
		rows := [][]string{{"cost_type", "amount"}}
		for _, t := range costTypes {
			rows = append(rows, []string{string(t), rounded.ByType(t).StringFixed(p)})
		}
		rows = append(rows, []string{"UNIT", rounded.UnitCost.StringFixed(p)})
		return r.csv(rows)
	}

	fmt.Fprintf(r.w, "💰 Standard Cost: %s x %s\n", cost.BOMID, cost.Quantity)
	fmt.Fprintf(r.w, "==========================\n\n")
	for _, t := range costTypes {
		fmt.Fprintf(r.w, "%-10s %14s\n", t, rounded.ByType(t).StringFixed(p))
	}
	fmt.Fprintf(r.w, "%-10s %14s\n", "UNIT", rounded.UnitCost.StringFixed(p))
	return nil
}

// Variances renders standard-versus-actual cost variances
func (r *Renderer) Variances(variances []dto.CostVariance) error {
	p := r.config.Precision
	rounded := make([]dto.CostVariance, len(variances))
	for i, v := range variances {
		rounded[i] = v.Rounded(p)
	}

	switch r.config.Format {
	case FormatJSON:
		return r.json(rounded)
	case FormatCSV:
		rows := [][]string{{"cost_type", "standard_cost", "actual_cost", "variance", "variance_percent"}}
		for _, v := range rounded {
			rows = append(rows, []string{
				string(v.CostType), v.StandardCost.StringFixed(p), v.ActualCost.StringFixed(p),
				v.Variance.StringFixed(p), v.VariancePercent.StringFixed(p),
			})
		}
		return r.csv(rows)
	}

	fmt.Fprintf(r.w, "\n📊 Cost Variances:\n")
	fmt.Fprintf(r.w, "%-10s %14s %14s %14s %10s\n", "Type", "Standard", "Actual", "Variance", "Pct")
	fmt.Fprintf(r.w, "%-10s %14s %14s %14s %10s\n", "----------", "--------------", "--------------", "--------------", "----------")
	for _, v := range rounded {
		fmt.Fprintf(r.w, "%-10s %14s %14s %14s %10s\n",
			v.CostType, v.StandardCost.StringFixed(p), v.ActualCost.StringFixed(p),
			v.Variance.StringFixed(p), v.VariancePercent.StringFixed(p))
	}
	return nil
}

// Tree renders a BOM tree with its material cost
func (r *Renderer) Tree(tree *entities.BOMTree, materialCost decimal.Decimal) error {
	p := r.config.Precision
	switch r.config.Format {
	case FormatJSON:
		return r.json(struct {
			*entities.BOMTree
			MaterialCost decimal.Decimal `json:"material_cost"`
		}{tree, materialCost.Round(p)})
	case FormatCSV:
		var nodes []entities.BOMTreeNode
		tree.Walk(func(n *entities.BOMTreeNode) { nodes = append(nodes, *n) })
		return r.nodesCSV(nodes)
	}

	fmt.Fprintf(r.w, "🌳 BOM Tree: %s x %s\n", tree.BOMID, tree.Quantity)
	fmt.Fprintf(r.w, "=====================\n\n")
	tree.Walk(func(n *entities.BOMTreeNode) {
		label := fmt.Sprintf("%s%s", strings.Repeat("  ", n.Level), n.Code)
		var tags []string
		if n.LineType == entities.LinePhantom {
			tags = append(tags, "phantom")
		}
		if n.IsCritical {
			tags = append(tags, "critical")
		}
		suffix := ""
		if len(tags) > 0 {
			suffix = " [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Fprintf(r.w, "%-32s %14s @ %-10s = %14s%s\n",
			label, n.RequiredQuantity.String(), n.UnitCost.StringFixed(p), n.TotalCost.StringFixed(p), suffix)
	})
	fmt.Fprintf(r.w, "\nMaterial cost: %s\n", materialCost.StringFixed(p))
	return nil
}

// Matches renders the nodes found by a tree search
func (r *Renderer) Matches(term string, matches []entities.BOMTreeNode) error {
	switch r.config.Format {
	case FormatJSON:
		if matches == nil {
			matches = []entities.BOMTreeNode{}
		}
		return r.json(matches)
	case FormatCSV:
		return r.nodesCSV(matches)
	}

	fmt.Fprintf(r.w, "🔍 %d node(s) matching %q\n", len(matches), term)
	for _, n := range matches {
		fmt.Fprintf(r.w, "  level %-3d %-12s %-24s %14s\n", n.Level, n.Code, truncate(n.Name, 24), n.RequiredQuantity.String())
	}
	return nil
}

// Availability renders stock availability against requirements
func (r *Renderer) Availability(rows []dto.Availability) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(struct {
			Items     []dto.Availability  `json:"items"`
			Shortages []entities.Shortage `json:"shortages"`
		}{rows, dto.Shortages(rows)})
	case FormatCSV:
		out := [][]string{{"item_id", "code", "required", "on_hand", "reserved", "available", "sufficient"}}
		for _, a := range rows {
			out = append(out, []string{
				string(a.ItemID), a.Code, a.Required.String(), a.OnHand.String(),
				a.Reserved.String(), a.Available.String(), strconv.FormatBool(a.Sufficient),
			})
		}
		return r.csv(out)
	}

	fmt.Fprintf(r.w, "📦 Availability\n")
	fmt.Fprintf(r.w, "==============\n\n")
	fmt.Fprintf(r.w, "%-12s %14s %14s %14s %14s  %s\n", "Code", "Required", "On Hand", "Reserved", "Available", "Status")
	fmt.Fprintf(r.w, "%-12s %14s %14s %14s %14s  %s\n",
		"------------", "--------------", "--------------", "--------------", "--------------", "------")
	for _, a := range rows {
		status := "OK"
		if !a.Sufficient {
			status = "SHORT " + a.Required.Sub(a.Available).String()
		}
		fmt.Fprintf(r.w, "%-12s %14s %14s %14s %14s  %s\n",
			a.Code, a.Required.String(), a.OnHand.String(), a.Reserved.String(), a.Available.String(), status)
	}

	if shortages := dto.Shortages(rows); len(shortages) > 0 {
		fmt.Fprintf(r.w, "\n⚠️  %d item(s) short\n", len(shortages))
	}
	return nil
}

// Order renders an order with its reservations
func (r *Renderer) Order(detail *dto.OrderDetail) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(detail)
	case FormatCSV:
		rows := [][]string{{"reservation_id", "item_id", "quantity_reserved", "quantity_consumed", "unit_cost", "status"}}
		for _, res := range detail.Reservations {
			rows = append(rows, []string{
				res.ID, string(res.ItemID), res.QuantityReserved.String(), res.QuantityConsumed.String(),
				res.UnitCost.String(), res.Status.String(),
			})
		}
		return r.csv(rows)
	}

	o := detail.Order
	fmt.Fprintf(r.w, "🏭 Order %s\n", o.ID)
	fmt.Fprintf(r.w, "  Item:     %s\n", o.ItemID)
	if o.BOMID != "" {
		fmt.Fprintf(r.w, "  BOM:      %s\n", o.BOMID)
	}
	fmt.Fprintf(r.w, "  Quantity: %s\n", o.PlannedQuantity)
	fmt.Fprintf(r.w, "  Status:   %s\n", o.Status)
	if o.StartDate != nil {
		fmt.Fprintf(r.w, "  Started:  %s\n", o.StartDate.Format("2006-01-02"))
	}
	if o.EndDate != nil {
		fmt.Fprintf(r.w, "  Ended:    %s\n", o.EndDate.Format("2006-01-02"))
	}
	if o.UnderReserved {
		fmt.Fprintf(r.w, "  ⚠️  Under-reserved\n")
	}

	if len(detail.Reservations) > 0 {
		fmt.Fprintf(r.w, "\n%-12s %14s %14s %-10s\n", "Item", "Reserved", "Consumed", "Status")
		for _, res := range detail.Reservations {
			fmt.Fprintf(r.w, "%-12s %14s %14s %-10s\n",
				res.ItemID, res.QuantityReserved.String(), res.QuantityConsumed.String(), res.Status)
		}
	}
	return nil
}

// OrderCost renders the aggregated stage costs of an order
func (r *Renderer) OrderCost(summary *dto.OrderCostSummary) error {
	p := r.config.Precision
	rounded := summary.Rounded(p)
	switch r.config.Format {
	case FormatJSON:
		return r.json(rounded)
	case FormatCSV:
		rows := [][]string{{"stage_number", "work_center_id", "good_quantity", "defective_quantity", "total_cost", "unit_cost", "defective_rate", "status"}}
		for _, st := range rounded.Stages {
			rows = append(rows, []string{
				strconv.Itoa(st.StageNumber), string(st.WorkCenterID), st.GoodQuantity.String(), st.DefectiveQuantity.String(),
				st.TotalCost.StringFixed(p), st.UnitCost.StringFixed(p), st.DefectiveRate.StringFixed(p), st.Status.String(),
			})
		}
		return r.csv(rows)
	}

	fmt.Fprintf(r.w, "🏭 Stage Costs: order %s\n", summary.OrderID)
	fmt.Fprintf(r.w, "==========================\n\n")
	fmt.Fprintf(r.w, "%-6s %-12s %10s %10s %14s %12s %8s %-10s\n", "Stage", "Work Center", "Good", "Defective", "Cost", "Unit", "Defect%", "Status")
	for _, st := range rounded.Stages {
		fmt.Fprintf(r.w, "%-6d %-12s %10s %10s %14s %12s %8s %-10s\n",
			st.StageNumber, st.WorkCenterID, st.GoodQuantity.String(), st.DefectiveQuantity.String(),
			st.TotalCost.StringFixed(p), st.UnitCost.StringFixed(p), st.DefectiveRate.StringFixed(p), st.Status)
	}
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "%-10s %14s\n", "MATERIAL", rounded.MaterialCost.StringFixed(p))
	fmt.Fprintf(r.w, "%-10s %14s\n", "LABOR", rounded.LaborCost.StringFixed(p))
	fmt.Fprintf(r.w, "%-10s %14s\n", "OVERHEAD", rounded.OverheadCost.StringFixed(p))
	fmt.Fprintf(r.w, "%-10s %14s\n", "TOTAL", rounded.TotalCost.StringFixed(p))
	fmt.Fprintf(r.w, "%-10s %14s (good %s)\n", "UNIT", rounded.FinalUnitCost.StringFixed(p), rounded.FinalGoodQuantity)
	return nil
}

// Done reports a completed maintenance action. JSON output renders v, every
// other format prints message.
func (r *Renderer) Done(message string, v interface{}) error {
	if r.config.Format == FormatJSON {
		return r.json(v)
	}
	_, err := fmt.Fprintf(r.w, "✅ %s\n", message)
	return err
}

// Helper functions for rendering

var costTypes = []dto.CostType{dto.CostMaterial, dto.CostLabor, dto.CostOverhead, dto.CostTotal}

func (r *Renderer) json(v interface{}) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

func (r *Renderer) csv(rows [][]string) error {
	w := csv.NewWriter(r.w)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func (r *Renderer) nodesCSV(nodes []entities.BOMTreeNode) error {
	p := r.config.Precision
	rows := [][]string{{"level", "parent", "item_id", "code", "name", "line_type", "bom_id", "required_quantity", "unit_cost", "total_cost"}}
	for _, n := range nodes {
		rows = append(rows, []string{
			strconv.Itoa(n.Level), strconv.Itoa(n.Parent), string(n.ItemID), n.Code, n.Name,
			n.LineType.String(), string(n.BOMID), n.RequiredQuantity.String(),
			n.UnitCost.StringFixed(p), n.TotalCost.StringFixed(p),
		})
	}
	return r.csv(rows)
}

func roundRequirements(reqs []dto.Requirement, places int32) []dto.Requirement {
	out := make([]dto.Requirement, len(reqs))
	for i, req := range reqs {
		req.UnitCost = req.UnitCost.Round(places)
		req.CostContribution = req.CostContribution.Round(places)
		out[i] = req
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
