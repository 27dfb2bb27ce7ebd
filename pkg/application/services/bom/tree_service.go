package bom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

// TreeService builds displayable BOM trees and keeps them cached until the
// BOM or one of its descendants is edited
type TreeService struct {
	traverser *BOMTraverser
	bomRepo   repositories.BOMRepository
	cache     TreeCache
	log       zerolog.Logger
	now       func() time.Time
}

// NewTreeService creates a tree service backed by cache
func NewTreeService(
	bomRepo repositories.BOMRepository,
	itemRepo repositories.ItemRepository,
	cache TreeCache,
	log zerolog.Logger,
) *TreeService {
	return &TreeService{
		traverser: NewBOMTraverser(bomRepo, itemRepo),
		bomRepo:   bomRepo,
		cache:     cache,
		log:       log.With().Str("service", "bom_tree").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// BuildTree returns the tree of bomID at quantity, from cache unless forceRebuild is set
func (s *TreeService) BuildTree(
	ctx context.Context,
	tenant entities.TenantID,
	bomID entities.BOMID,
	quantity decimal.Decimal,
	forceRebuild bool,
) (*entities.BOMTree, error) {
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("tree quantity %s: %w", quantity, entities.ErrInvalidQuantity)
	}

	key := NewTreeCacheKey(tenant, bomID, quantity)
	if !forceRebuild {
		tree, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("bom_id", string(bomID)).Msg("Tree cache read failed, rebuilding")
		} else if ok {
			return tree, nil
		}
	}

	now := s.now()
	tree := &entities.BOMTree{
		BOMID:    bomID,
		Quantity: quantity,
		BuiltAt:  now,
	}
	raw, err := s.traverser.TraverseBOM(ctx, tenant, bomID, quantity, now, NewTreeVisitor(tree))
	if err != nil {
		return nil, fmt.Errorf("failed to build tree for BOM %s: %w", bomID, err)
	}
	tree.Root = raw.(int)

	if err := s.cache.Put(ctx, key, tree); err != nil {
		s.log.Warn().Err(err).Str("bom_id", string(bomID)).Msg("Tree cache write failed")
	}

	s.log.Debug().
		Str("tenant", string(tenant)).
		Str("bom_id", string(bomID)).
		Int("nodes", len(tree.Nodes)).
		Bool("forced", forceRebuild).
		Msg("BOM tree built")

	return tree, nil
}

// CalculateTreeCost returns the material cost of the tree, the sum over its leaves
func (s *TreeService) CalculateTreeCost(tree *entities.BOMTree) decimal.Decimal {
	total := decimal.Zero
	for _, leaf := range tree.Leaves() {
		total = total.Add(leaf.TotalCost)
	}
	return total
}

// SearchInTree returns nodes whose code or name contains term, ignoring case
func (s *TreeService) SearchInTree(tree *entities.BOMTree, term string) []entities.BOMTreeNode {
	needle := strings.ToLower(strings.TrimSpace(term))
	var matches []entities.BOMTreeNode
	tree.Walk(func(n *entities.BOMTreeNode) {
		if strings.Contains(strings.ToLower(n.Code), needle) || strings.Contains(strings.ToLower(n.Name), needle) {
			matches = append(matches, *n)
		}
	})
	return matches
}

// InvalidateBOM drops cached trees of bomID and of every BOM that contains
// its item, directly or through other assemblies
func (s *TreeService) InvalidateBOM(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID) error {
	affected, err := s.ancestors(ctx, tenant, bomID)
	if err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, tenant, affected); err != nil {
		return fmt.Errorf("failed to invalidate trees for BOM %s: %w", bomID, err)
	}

	s.log.Debug().
		Str("tenant", string(tenant)).
		Str("bom_id", string(bomID)).
		Int("invalidated_boms", len(affected)).
		Msg("BOM trees invalidated")
	return nil
}

func (s *TreeService) ancestors(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID) ([]entities.BOMID, error) {
	affected := []entities.BOMID{bomID}
	seen := map[entities.BOMID]bool{bomID: true}

	header, err := s.bomRepo.GetHeader(ctx, tenant, bomID)
	if errors.Is(err, repositories.ErrNotFound) {
		return affected, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get BOM %s: %w", bomID, err)
	}

	queue := []entities.ItemID{header.ItemID}
	visitedItems := map[entities.ItemID]bool{header.ItemID: true}
	for len(queue) > 0 {
		itemID := queue[0]
		queue = queue[1:]

		parents, err := s.bomRepo.ListHeadersUsingItem(ctx, tenant, itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to list BOMs using %s: %w", itemID, err)
		}
		for _, parent := range parents {
			if !seen[parent.ID] {
				seen[parent.ID] = true
				affected = append(affected, parent.ID)
			}
			if !visitedItems[parent.ItemID] {
				visitedItems[parent.ItemID] = true
				queue = append(queue, parent.ItemID)
			}
		}
	}
	return affected, nil
}
