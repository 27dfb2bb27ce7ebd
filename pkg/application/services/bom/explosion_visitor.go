package bom

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/dto"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// requirementSet aggregates requirements by item, keeping first-seen order
type requirementSet struct {
	order  []entities.ItemID
	byItem map[entities.ItemID]*dto.Requirement
}

func newRequirementSet() *requirementSet {
	return &requirementSet{byItem: make(map[entities.ItemID]*dto.Requirement)}
}

func (s *requirementSet) add(req dto.Requirement) {
	if existing, ok := s.byItem[req.ItemID]; ok {
		existing.RequiredQuantity = existing.RequiredQuantity.Add(req.RequiredQuantity)
		existing.CostContribution = existing.CostContribution.Add(req.CostContribution)
		existing.IsCritical = existing.IsCritical || req.IsCritical
		return
	}
	s.order = append(s.order, req.ItemID)
	s.byItem[req.ItemID] = &req
}

func (s *requirementSet) merge(other *requirementSet) {
	for _, id := range other.order {
		s.add(*other.byItem[id])
	}
}

func (s *requirementSet) list() []dto.Requirement {
	out := make([]dto.Requirement, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byItem[id])
	}
	return out
}

// explosionResult is what every node hands to its parent
type explosionResult struct {
	leaves        *requirementSet
	subassemblies *requirementSet
}

// ExplosionVisitor implements BOMNodeVisitor for flat material explosion
type ExplosionVisitor struct {
	log zerolog.Logger
}

// NewExplosionVisitor creates a new explosion visitor
func NewExplosionVisitor(log zerolog.Logger) *ExplosionVisitor {
	return &ExplosionVisitor{log: log}
}

// VisitNode always continues; all work happens bottom-up
func (v *ExplosionVisitor) VisitNode(ctx context.Context, nodeCtx BOMNodeContext) (interface{}, bool, error) {
	return nil, true, nil
}

// ProcessChildren classifies the node and merges the children's requirements.
// Leaves contribute themselves, NORMAL sub-assemblies are recorded separately,
// and phantoms contribute nothing but their children.
func (v *ExplosionVisitor) ProcessChildren(
	ctx context.Context,
	nodeCtx BOMNodeContext,
	nodeData interface{},
	childResults []interface{},
) (interface{}, error) {
	result := &explosionResult{
		leaves:        newRequirementSet(),
		subassemblies: newRequirementSet(),
	}

	if nodeCtx.Level > 0 {
		req := requirementFor(nodeCtx)
		switch nodeCtx.LineType() {
		case entities.LinePhantom:
			if nodeCtx.BOMID == "" {
				v.log.Warn().
					Str("item_id", string(nodeCtx.Item.ID)).
					Str("bom_id", string(nodeCtx.Line.BOMID)).
					Msg("Phantom component has no effective BOM, treating as leaf")
				result.leaves.add(req)
			}
		case entities.LineNormal:
			if nodeCtx.BOMID == "" {
				result.leaves.add(req)
			} else {
				req.BOMID = nodeCtx.BOMID
				result.subassemblies.add(req)
			}
		}
	}

	for _, childResult := range childResults {
		child := childResult.(*explosionResult)
		result.leaves.merge(child.leaves)
		result.subassemblies.merge(child.subassemblies)
	}

	return result, nil
}

func requirementFor(nodeCtx BOMNodeContext) dto.Requirement {
	item := nodeCtx.Item
	return dto.Requirement{
		ItemID:           item.ID,
		Code:             item.Code,
		Name:             item.Name,
		UnitOfMeasure:    item.UnitOfMeasure,
		RequiredQuantity: nodeCtx.Quantity,
		UnitCost:         item.StandardCost,
		CostContribution: nodeCtx.Quantity.Mul(item.StandardCost),
		IsCritical:       nodeCtx.Line != nil && nodeCtx.Line.IsCritical,
	}
}

func sumContributions(reqs []dto.Requirement) decimal.Decimal {
	total := decimal.Zero
	for _, r := range reqs {
		total = total.Add(r.CostContribution)
	}
	return total
}
