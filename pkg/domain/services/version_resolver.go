package services

import (
	"context"
	"fmt"
	"time"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

// VersionResolver picks the BOM version used for a component item
type VersionResolver struct {
	boms repositories.BOMRepository
}

// NewVersionResolver creates a resolver over a BOM repository
func NewVersionResolver(boms repositories.BOMRepository) *VersionResolver {
	return &VersionResolver{boms: boms}
}

// Resolve returns the single APPROVED header of itemID effective at asOf.
// It returns nil when the item has no such header (a purchased item) and
// *entities.AmbiguousBOMVersionError when more than one qualifies.
func (r *VersionResolver) Resolve(
	ctx context.Context,
	tenant entities.TenantID,
	itemID entities.ItemID,
	asOf time.Time,
) (*entities.BOMHeader, error) {
	headers, err := r.boms.ListHeadersForItem(ctx, tenant, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list BOM versions for %s: %w", itemID, err)
	}

	effective := SelectEffective(headers, asOf)
	switch len(effective) {
	case 0:
		return nil, nil
	case 1:
		return effective[0], nil
	default:
		ids := make([]entities.BOMID, len(effective))
		for i, h := range effective {
			ids[i] = h.ID
		}
		return nil, &entities.AmbiguousBOMVersionError{ItemID: itemID, AsOf: asOf, Candidates: ids}
	}
}

// SelectEffective filters headers down to APPROVED versions effective at asOf
func SelectEffective(headers []*entities.BOMHeader, asOf time.Time) []*entities.BOMHeader {
	var effective []*entities.BOMHeader
	for _, h := range headers {
		if h.Status == entities.BOMApproved && h.EffectiveAt(asOf) {
			effective = append(effective, h)
		}
	}
	return effective
}

// FindOverlaps returns the other APPROVED headers of the candidate's item
// whose effective windows intersect the candidate's
func FindOverlaps(candidate *entities.BOMHeader, headers []*entities.BOMHeader) []*entities.BOMHeader {
	var overlaps []*entities.BOMHeader
	for _, h := range headers {
		if h.ID == candidate.ID || h.ItemID != candidate.ItemID || h.Status != entities.BOMApproved {
			continue
		}
		if candidate.Overlaps(h) {
			overlaps = append(overlaps, h)
		}
	}
	return overlaps
}
