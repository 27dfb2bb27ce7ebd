package bom

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/dto"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

// ExplosionService flattens multi-level BOMs into leaf material requirements
type ExplosionService struct {
	traverser *BOMTraverser
	log       zerolog.Logger
	now       func() time.Time
}

// NewExplosionService creates a new explosion service
func NewExplosionService(
	bomRepo repositories.BOMRepository,
	itemRepo repositories.ItemRepository,
	log zerolog.Logger,
) *ExplosionService {
	return &ExplosionService{
		traverser: NewBOMTraverser(bomRepo, itemRepo),
		log:       log.With().Str("service", "bom_explosion").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Explode explodes bomID for quantity using the BOM versions effective now
func (s *ExplosionService) Explode(
	ctx context.Context,
	tenant entities.TenantID,
	bomID entities.BOMID,
	quantity decimal.Decimal,
) (*dto.ExplosionResult, error) {
	return s.ExplodeAsOf(ctx, tenant, bomID, quantity, s.now())
}

// ExplodeAsOf explodes bomID for quantity resolving sub-assembly versions at asOf.
// Structural errors abort the whole explosion; no partial result is returned.
func (s *ExplosionService) ExplodeAsOf(
	ctx context.Context,
	tenant entities.TenantID,
	bomID entities.BOMID,
	quantity decimal.Decimal,
	asOf time.Time,
) (*dto.ExplosionResult, error) {
	started := time.Now()

	raw, err := s.traverser.TraverseBOM(ctx, tenant, bomID, quantity, asOf, NewExplosionVisitor(s.log))
	if err != nil {
		s.log.Warn().Err(err).
			Str("tenant", string(tenant)).
			Str("bom_id", string(bomID)).
			Msg("BOM explosion failed")
		return nil, fmt.Errorf("failed to explode BOM %s: %w", bomID, err)
	}
	exploded := raw.(*explosionResult)

	header, err := s.traverser.bomRepo.GetHeader(ctx, tenant, bomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get BOM %s: %w", bomID, err)
	}

	result := &dto.ExplosionResult{
		BOMID:         bomID,
		ItemID:        header.ItemID,
		Quantity:      quantity,
		Requirements:  exploded.leaves.list(),
		Subassemblies: exploded.subassemblies.list(),
		AsOf:          asOf,
	}
	result.TotalMaterialCost = sumContributions(result.Requirements)

	s.log.Debug().
		Str("tenant", string(tenant)).
		Str("bom_id", string(bomID)).
		Str("quantity", quantity.String()).
		Int("requirements", len(result.Requirements)).
		Dur("elapsed", time.Since(started)).
		Msg("BOM exploded")

	return result, nil
}
