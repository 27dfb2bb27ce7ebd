package bom

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// TreeVisitor implements BOMNodeVisitor by appending every node, phantoms
// included, to a BOMTree arena
type TreeVisitor struct {
	tree *entities.BOMTree
}

// NewTreeVisitor creates a visitor filling tree
func NewTreeVisitor(tree *entities.BOMTree) *TreeVisitor {
	return &TreeVisitor{tree: tree}
}

// VisitNode adds the node to the arena and hands its index to ProcessChildren
func (v *TreeVisitor) VisitNode(ctx context.Context, nodeCtx BOMNodeContext) (interface{}, bool, error) {
	item := nodeCtx.Item
	node := entities.BOMTreeNode{
		Parent:           entities.NoParent,
		ItemID:           item.ID,
		Code:             item.Code,
		Name:             item.Name,
		BOMID:            nodeCtx.BOMID,
		LineType:         nodeCtx.LineType(),
		Level:            nodeCtx.Level,
		QuantityPer:      decimal.NewFromInt(1),
		ScrapPercent:     decimal.Zero,
		RequiredQuantity: nodeCtx.Quantity,
		UnitCost:         item.StandardCost,
	}
	if line := nodeCtx.Line; line != nil {
		node.QuantityPer = line.QuantityPer
		node.ScrapPercent = line.ScrapPercent
		node.IsCritical = line.IsCritical
	}
	return v.tree.AddNode(node), true, nil
}

// ProcessChildren links children and rolls their cost up into the node
func (v *TreeVisitor) ProcessChildren(
	ctx context.Context,
	nodeCtx BOMNodeContext,
	nodeData interface{},
	childResults []interface{},
) (interface{}, error) {
	index := nodeData.(int)

	children := make([]int, 0, len(childResults))
	total := decimal.Zero
	for _, childResult := range childResults {
		child := childResult.(int)
		v.tree.Nodes[child].Parent = index
		children = append(children, child)
		total = total.Add(v.tree.Nodes[child].TotalCost)
	}

	node := v.tree.Node(index)
	if len(children) > 0 {
		node.Children = children
	}
	if node.IsLeaf() {
		node.TotalCost = node.RequiredQuantity.Mul(node.UnitCost)
	} else {
		node.TotalCost = total
		node.UnitCost = total.Div(node.RequiredQuantity)
	}
	return index, nil
}
