package bom

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/services"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/events"
)

// BOMService maintains BOM headers and lines. Lines change only while a
// header is DRAFT; approved recipes change by creating a new version.
type BOMService struct {
	bomRepo   repositories.BOMRepository
	itemRepo  repositories.ItemRepository
	validator *services.BOMValidator
	publisher events.Publisher
	log       zerolog.Logger
}

// NewBOMService creates a BOM maintenance service; publisher may be nil
func NewBOMService(
	bomRepo repositories.BOMRepository,
	itemRepo repositories.ItemRepository,
	publisher events.Publisher,
	log zerolog.Logger,
) *BOMService {
	return &BOMService{
		bomRepo:   bomRepo,
		itemRepo:  itemRepo,
		validator: services.NewBOMValidator(),
		publisher: publisher,
		log:       log.With().Str("service", "bom").Logger(),
	}
}

// CreateHeader creates the next DRAFT version of a BOM for itemID
func (s *BOMService) CreateHeader(
	ctx context.Context,
	tenant entities.TenantID,
	itemID entities.ItemID,
	effectiveFrom time.Time,
	expiresAt *time.Time,
) (*entities.BOMHeader, error) {
	if _, err := s.itemRepo.GetItem(ctx, tenant, itemID); err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", itemID, err)
	}
	version, err := s.nextVersion(ctx, tenant, itemID)
	if err != nil {
		return nil, err
	}

	header, err := entities.NewBOMHeader(entities.BOMID(entities.NewID()), itemID, version, effectiveFrom, expiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.bomRepo.SaveHeader(ctx, tenant, header); err != nil {
		return nil, fmt.Errorf("failed to save BOM header: %w", err)
	}

	s.log.Info().
		Str("tenant", string(tenant)).
		Str("bom_id", string(header.ID)).
		Str("item_id", string(itemID)).
		Int("version", version).
		Msg("BOM header created")
	return header, s.publish(ctx, events.BOMHeaderCreatedEvent, tenant, header, "")
}

// AddLine appends a validated line to a DRAFT header
func (s *BOMService) AddLine(
	ctx context.Context,
	tenant entities.TenantID,
	bomID entities.BOMID,
	sequence int,
	componentID entities.ItemID,
	quantityPer, scrapPercent decimal.Decimal,
	lineType entities.LineType,
	isCritical bool,
) (*entities.BOMLine, error) {
	header, err := s.editableHeader(ctx, tenant, bomID)
	if err != nil {
		return nil, err
	}
	if componentID == header.ItemID {
		return nil, &entities.CircularBOMError{Path: []entities.BOMID{bomID, bomID}}
	}
	if _, err := s.itemRepo.GetItem(ctx, tenant, componentID); err != nil {
		return nil, fmt.Errorf("failed to get component %s: %w", componentID, err)
	}

	line, err := entities.NewBOMLine(bomID, sequence, componentID, quantityPer, scrapPercent, lineType, isCritical)
	if err != nil {
		return nil, err
	}
	if err := s.bomRepo.SaveLine(ctx, tenant, line); err != nil {
		return nil, fmt.Errorf("failed to save BOM line: %w", err)
	}
	return line, s.publish(ctx, events.BOMLineCreatedEvent, tenant, header, line.ID)
}

// UpdateLine replaces a stored line of a DRAFT header. The line stays on
// the header it was added to.
func (s *BOMService) UpdateLine(ctx context.Context, tenant entities.TenantID, line *entities.BOMLine) error {
	stored, err := s.bomRepo.GetLine(ctx, tenant, line.ID)
	if err != nil {
		return fmt.Errorf("failed to get BOM line %s: %w", line.ID, err)
	}
	if line.BOMID != stored.BOMID {
		return fmt.Errorf("line %s belongs to BOM %s, not %s: %w",
			line.ID, stored.BOMID, line.BOMID, entities.ErrBOMNotEditable)
	}
	header, err := s.editableHeader(ctx, tenant, stored.BOMID)
	if err != nil {
		return err
	}
	if line.ComponentItemID == header.ItemID {
		return &entities.CircularBOMError{Path: []entities.BOMID{header.ID, header.ID}}
	}
	if err := line.Validate(); err != nil {
		return err
	}
	if line.ComponentItemID != stored.ComponentItemID {
		if _, err := s.itemRepo.GetItem(ctx, tenant, line.ComponentItemID); err != nil {
			return fmt.Errorf("failed to get component %s: %w", line.ComponentItemID, err)
		}
	}
	if err := s.bomRepo.SaveLine(ctx, tenant, line); err != nil {
		return fmt.Errorf("failed to save BOM line: %w", err)
	}
	return s.publish(ctx, events.BOMLineUpdatedEvent, tenant, header, line.ID)
}

// Approve freezes a DRAFT header. It refuses invalid lines, an effective
// window overlapping another APPROVED version of the same item, and
// recipes that would make the BOM contain itself.
func (s *BOMService) Approve(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID) error {
	header, err := s.editableHeader(ctx, tenant, bomID)
	if err != nil {
		return err
	}

	lines, err := s.bomRepo.GetLines(ctx, tenant, bomID)
	if err != nil {
		return fmt.Errorf("failed to get lines for BOM %s: %w", bomID, err)
	}
	if result := s.validator.ValidateLines(lines); !result.Valid() {
		if len(result.InvalidLines) > 0 {
			return result.InvalidLines[0]
		}
		return fmt.Errorf("BOM %s failed validation: %s", bomID, strings.Join(result.Errors, "; "))
	}

	versions, err := s.bomRepo.ListHeadersForItem(ctx, tenant, header.ItemID)
	if err != nil {
		return fmt.Errorf("failed to list BOM versions for %s: %w", header.ItemID, err)
	}
	if overlaps := services.FindOverlaps(header, versions); len(overlaps) > 0 {
		return fmt.Errorf("BOM %s overlaps approved version %d (%s) of item %s",
			bomID, overlaps[0].Version, overlaps[0].ID, header.ItemID)
	}

	adjacency, err := s.approvedGraph(ctx, tenant, header)
	if err != nil {
		return err
	}
	if err := s.validator.ValidateGraph(adjacency).FirstCycle(); err != nil {
		return err
	}

	header.Status = entities.BOMApproved
	header.UpdatedAt = time.Now().UTC()
	if err := s.bomRepo.SaveHeader(ctx, tenant, header); err != nil {
		return fmt.Errorf("failed to save BOM header: %w", err)
	}

	s.log.Info().
		Str("tenant", string(tenant)).
		Str("bom_id", string(bomID)).
		Str("item_id", string(header.ItemID)).
		Int("version", header.Version).
		Msg("BOM approved")
	return s.publish(ctx, events.BOMApprovedEvent, tenant, header, "")
}

// Obsolete retires a header; retiring an OBSOLETE header is a no-op
func (s *BOMService) Obsolete(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID) error {
	header, err := s.bomRepo.GetHeader(ctx, tenant, bomID)
	if err != nil {
		return fmt.Errorf("failed to get BOM %s: %w", bomID, err)
	}
	if header.Status == entities.BOMObsolete {
		return nil
	}

	header.Status = entities.BOMObsolete
	header.UpdatedAt = time.Now().UTC()
	if err := s.bomRepo.SaveHeader(ctx, tenant, header); err != nil {
		return fmt.Errorf("failed to save BOM header: %w", err)
	}
	s.log.Info().Str("tenant", string(tenant)).Str("bom_id", string(bomID)).Msg("BOM obsoleted")
	return s.publish(ctx, events.BOMObsoletedEvent, tenant, header, "")
}

// NewVersion copies a header and its lines into a new DRAFT version
func (s *BOMService) NewVersion(
	ctx context.Context,
	tenant entities.TenantID,
	bomID entities.BOMID,
	effectiveFrom time.Time,
) (*entities.BOMHeader, error) {
	source, err := s.bomRepo.GetHeader(ctx, tenant, bomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get BOM %s: %w", bomID, err)
	}
	lines, err := s.bomRepo.GetLines(ctx, tenant, bomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lines for BOM %s: %w", bomID, err)
	}

	header, err := s.CreateHeader(ctx, tenant, source.ItemID, effectiveFrom, nil)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		copied := *line
		copied.ID = entities.NewID()
		copied.BOMID = header.ID
		if err := s.bomRepo.SaveLine(ctx, tenant, &copied); err != nil {
			return nil, fmt.Errorf("failed to copy BOM line: %w", err)
		}
	}
	return header, nil
}

func (s *BOMService) editableHeader(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID) (*entities.BOMHeader, error) {
	header, err := s.bomRepo.GetHeader(ctx, tenant, bomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get BOM %s: %w", bomID, err)
	}
	if !header.Editable() {
		return nil, fmt.Errorf("BOM %s is %s: %w", bomID, header.Status, entities.ErrBOMNotEditable)
	}
	return header, nil
}

func (s *BOMService) nextVersion(ctx context.Context, tenant entities.TenantID, itemID entities.ItemID) (int, error) {
	versions, err := s.bomRepo.ListHeadersForItem(ctx, tenant, itemID)
	if err != nil {
		return 0, fmt.Errorf("failed to list BOM versions for %s: %w", itemID, err)
	}
	next := 1
	for _, h := range versions {
		if h.Version >= next {
			next = h.Version + 1
		}
	}
	return next, nil
}

// approvedGraph maps every BOM reachable from candidate to the BOMs of its
// components, counting candidate as already approved
func (s *BOMService) approvedGraph(
	ctx context.Context,
	tenant entities.TenantID,
	candidate *entities.BOMHeader,
) (map[entities.BOMID][]entities.BOMID, error) {
	adjacency := make(map[entities.BOMID][]entities.BOMID)
	queue := []entities.BOMID{candidate.ID}

	for len(queue) > 0 {
		bomID := queue[0]
		queue = queue[1:]
		if _, done := adjacency[bomID]; done {
			continue
		}
		adjacency[bomID] = nil

		lines, err := s.bomRepo.GetLines(ctx, tenant, bomID)
		if err != nil {
			return nil, fmt.Errorf("failed to get lines for BOM %s: %w", bomID, err)
		}
		for _, line := range lines {
			subs, err := s.bomRepo.ListHeadersForItem(ctx, tenant, line.ComponentItemID)
			if err != nil {
				return nil, fmt.Errorf("failed to list BOM versions for %s: %w", line.ComponentItemID, err)
			}
			for _, sub := range subs {
				if sub.Status != entities.BOMApproved && sub.ID != candidate.ID {
					continue
				}
				adjacency[bomID] = append(adjacency[bomID], sub.ID)
				queue = append(queue, sub.ID)
			}
		}
	}
	return adjacency, nil
}

func (s *BOMService) publish(
	ctx context.Context,
	eventType string,
	tenant entities.TenantID,
	header *entities.BOMHeader,
	lineID string,
) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.AppendEvent(ctx, string(header.ID), events.NewBOMEditedEvent(eventType, tenant, header, lineID)); err != nil {
		return fmt.Errorf("BOM %s saved but %s handling failed: %w", header.ID, eventType, err)
	}
	return nil
}
