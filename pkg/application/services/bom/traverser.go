package bom

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/services"
)

// BOMNodeContext provides context information during BOM traversal
type BOMNodeContext struct {
	Tenant entities.TenantID
	Item   *entities.Item
	// Line is the BOM line that led to this node, nil at the root
	Line *entities.BOMLine
	// BOMID is the BOM exploded beneath this node, empty for leaves
	BOMID    entities.BOMID
	Quantity decimal.Decimal
	Level    int
	AsOf     time.Time
}

// LineType returns the line type of the node, NORMAL at the root
func (n BOMNodeContext) LineType() entities.LineType {
	if n.Line == nil {
		return entities.LineNormal
	}
	return n.Line.LineType
}

// BOMNodeVisitor defines the interface for processing nodes during BOM traversal
type BOMNodeVisitor interface {
	// VisitNode is called for each node in the BOM structure
	// Returns data to be passed to children and whether to continue traversal
	VisitNode(ctx context.Context, nodeCtx BOMNodeContext) (interface{}, bool, error)

	// ProcessChildren is called after visiting all children
	// Receives the node context, data from VisitNode, and results from children
	ProcessChildren(
		ctx context.Context,
		nodeCtx BOMNodeContext,
		nodeData interface{},
		childResults []interface{},
	) (interface{}, error)
}

// BOMTraverser walks a BOM depth-first, resolving sub-assembly versions and
// rejecting cycles before any visitor sees a repeated BOM or assembly item
type BOMTraverser struct {
	bomRepo  repositories.BOMRepository
	itemRepo repositories.ItemRepository
	resolver *services.VersionResolver
}

// NewBOMTraverser creates a new BOM traverser
func NewBOMTraverser(bomRepo repositories.BOMRepository, itemRepo repositories.ItemRepository) *BOMTraverser {
	return &BOMTraverser{
		bomRepo:  bomRepo,
		itemRepo: itemRepo,
		resolver: services.NewVersionResolver(bomRepo),
	}
}

// TraverseBOM performs BOM traversal from bomID for quantity using the visitor pattern
func (bt *BOMTraverser) TraverseBOM(
	ctx context.Context,
	tenant entities.TenantID,
	bomID entities.BOMID,
	quantity decimal.Decimal,
	asOf time.Time,
	visitor BOMNodeVisitor,
) (interface{}, error) {
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("order quantity %s: %w", quantity, entities.ErrInvalidQuantity)
	}

	header, err := bt.bomRepo.GetHeader(ctx, tenant, bomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get BOM %s: %w", bomID, err)
	}
	item, err := bt.itemRepo.GetItem(ctx, tenant, header.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", header.ItemID, err)
	}

	root := BOMNodeContext{
		Tenant:   tenant,
		Item:     item,
		BOMID:    bomID,
		Quantity: quantity,
		Level:    0,
		AsOf:     asOf,
	}
	return bt.traverse(ctx, root, nil, visitor)
}

// pathEntry is one exploded assembly on the path from the root
type pathEntry struct {
	bomID  entities.BOMID
	itemID entities.ItemID
}

// findCycle reports a node whose item or BOM is already exploded on the path.
// The item check catches a recipe that lists its own assembly even when that
// item resolves to a different version or to no approved version at all.
func findCycle(path []pathEntry, nodeCtx BOMNodeContext) *entities.CircularBOMError {
	for i, entry := range path {
		if entry.itemID != nodeCtx.Item.ID && (nodeCtx.BOMID == "" || entry.bomID != nodeCtx.BOMID) {
			continue
		}
		cycle := make([]entities.BOMID, 0, len(path)-i+1)
		for _, e := range path[i:] {
			cycle = append(cycle, e.bomID)
		}
		return &entities.CircularBOMError{Path: append(cycle, entry.bomID)}
	}
	return nil
}

func (bt *BOMTraverser) traverse(
	ctx context.Context,
	nodeCtx BOMNodeContext,
	path []pathEntry,
	visitor BOMNodeVisitor,
) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cycle := findCycle(path, nodeCtx); cycle != nil {
		return nil, cycle
	}

	nodeData, shouldContinue, err := visitor.VisitNode(ctx, nodeCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to visit node %s: %w", nodeCtx.Item.Code, err)
	}

	if !shouldContinue || nodeCtx.BOMID == "" {
		return visitor.ProcessChildren(ctx, nodeCtx, nodeData, nil)
	}

	lines, err := bt.bomRepo.GetLines(ctx, nodeCtx.Tenant, nodeCtx.BOMID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lines for BOM %s: %w", nodeCtx.BOMID, err)
	}

	childPath := append(append(make([]pathEntry, 0, len(path)+1), path...), pathEntry{bomID: nodeCtx.BOMID, itemID: nodeCtx.Item.ID})
	childResults := make([]interface{}, 0, len(lines))

	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return nil, err
		}

		component, err := bt.itemRepo.GetItem(ctx, nodeCtx.Tenant, line.ComponentItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to get component %s of BOM %s: %w", line.ComponentItemID, nodeCtx.BOMID, err)
		}

		sub, err := bt.resolver.Resolve(ctx, nodeCtx.Tenant, component.ID, nodeCtx.AsOf)
		if err != nil {
			return nil, err
		}

		child := BOMNodeContext{
			Tenant:   nodeCtx.Tenant,
			Item:     component,
			Line:     line,
			Quantity: line.RequiredFor(nodeCtx.Quantity),
			Level:    nodeCtx.Level + 1,
			AsOf:     nodeCtx.AsOf,
		}
		if sub != nil {
			child.BOMID = sub.ID
		}

		childResult, err := bt.traverse(ctx, child, childPath, visitor)
		if err != nil {
			return nil, err
		}
		childResults = append(childResults, childResult)
	}

	return visitor.ProcessChildren(ctx, nodeCtx, nodeData, childResults)
}
