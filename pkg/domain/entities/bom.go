package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BOMID represents a unique BOM header identifier
type BOMID string

var hundred = decimal.NewFromInt(100)

// BOMStatus represents the lifecycle status of a BOM header
type BOMStatus int

const (
	BOMDraft BOMStatus = iota
	BOMApproved
	BOMObsolete
)

// String method for BOMStatus enum
func (s BOMStatus) String() string {
	switch s {
	case BOMDraft:
		return "DRAFT"
	case BOMApproved:
		return "APPROVED"
	case BOMObsolete:
		return "OBSOLETE"
	default:
		return "UNKNOWN"
	}
}

// ParseBOMStatus converts a stored status name back to a BOMStatus
func ParseBOMStatus(s string) (BOMStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DRAFT":
		return BOMDraft, nil
	case "APPROVED":
		return BOMApproved, nil
	case "OBSOLETE":
		return BOMObsolete, nil
	default:
		return BOMDraft, fmt.Errorf("unknown BOM status: %q", s)
	}
}

func (s BOMStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *BOMStatus) UnmarshalText(b []byte) error {
	v, err := ParseBOMStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// LineType distinguishes stocked components from phantom assemblies.
// Every switch over LineType handles both variants.
type LineType int

const (
	LineNormal LineType = iota
	LinePhantom
)

// String method for LineType enum
func (t LineType) String() string {
	switch t {
	case LineNormal:
		return "NORMAL"
	case LinePhantom:
		return "PHANTOM"
	default:
		return "UNKNOWN"
	}
}

// ParseLineType converts a stored line type name back to a LineType
func ParseLineType(s string) (LineType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NORMAL":
		return LineNormal, nil
	case "PHANTOM":
		return LinePhantom, nil
	default:
		return LineNormal, fmt.Errorf("unknown line type: %q", s)
	}
}

func (t LineType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *LineType) UnmarshalText(b []byte) error {
	v, err := ParseLineType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// BOMHeader is one version of the recipe for an assembly item
type BOMHeader struct {
	ID            BOMID
	ItemID        ItemID
	Status        BOMStatus
	Version       int
	EffectiveFrom time.Time
	// ExpiresAt is exclusive; nil means open ended
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBOMHeader creates a validated DRAFT BOMHeader
func NewBOMHeader(id BOMID, itemID ItemID, version int, effectiveFrom time.Time, expiresAt *time.Time) (*BOMHeader, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("BOM id cannot be empty")
	}
	if string(itemID) == "" {
		return nil, fmt.Errorf("BOM item id cannot be empty")
	}
	if version <= 0 {
		return nil, fmt.Errorf("BOM version must be positive, got %d", version)
	}
	if expiresAt != nil && !expiresAt.After(effectiveFrom) {
		return nil, fmt.Errorf("BOM expiry %v must be after effective date %v", *expiresAt, effectiveFrom)
	}

	now := time.Now().UTC()
	return &BOMHeader{
		ID:            id,
		ItemID:        itemID,
		Status:        BOMDraft,
		Version:       version,
		EffectiveFrom: effectiveFrom,
		ExpiresAt:     expiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Editable reports whether lines may still be added or changed
func (h *BOMHeader) Editable() bool {
	return h.Status == BOMDraft
}

// EffectiveAt reports whether the header's date window contains t
func (h *BOMHeader) EffectiveAt(t time.Time) bool {
	if t.Before(h.EffectiveFrom) {
		return false
	}
	return h.ExpiresAt == nil || t.Before(*h.ExpiresAt)
}

// Overlaps reports whether two headers' effective windows intersect
func (h *BOMHeader) Overlaps(other *BOMHeader) bool {
	if h.ExpiresAt != nil && !h.ExpiresAt.After(other.EffectiveFrom) {
		return false
	}
	if other.ExpiresAt != nil && !other.ExpiresAt.After(h.EffectiveFrom) {
		return false
	}
	return true
}

// BOMLine represents a single component line of a BOM header
type BOMLine struct {
	ID              string
	BOMID           BOMID
	Sequence        int
	ComponentItemID ItemID
	QuantityPer     decimal.Decimal
	ScrapPercent    decimal.Decimal
	LineType        LineType
	IsCritical      bool
}

// NewBOMLine creates a validated BOMLine
func NewBOMLine(
	bomID BOMID,
	sequence int,
	componentItemID ItemID,
	quantityPer, scrapPercent decimal.Decimal,
	lineType LineType,
	isCritical bool,
) (*BOMLine, error) {
	if string(bomID) == "" {
		return nil, fmt.Errorf("BOM id cannot be empty")
	}
	if string(componentItemID) == "" {
		return nil, fmt.Errorf("component item id cannot be empty")
	}
	if sequence <= 0 {
		return nil, fmt.Errorf("sequence must be positive, got %d", sequence)
	}

	line := &BOMLine{
		ID:              NewID(),
		BOMID:           bomID,
		Sequence:        sequence,
		ComponentItemID: componentItemID,
		QuantityPer:     quantityPer,
		ScrapPercent:    scrapPercent,
		LineType:        lineType,
		IsCritical:      isCritical,
	}
	if err := line.Validate(); err != nil {
		return nil, err
	}
	return line, nil
}

// Validate checks the quantity and scrap invariants of the line
func (l *BOMLine) Validate() error {
	if !l.QuantityPer.IsPositive() {
		return &InvalidBOMLineError{
			BOMID:           l.BOMID,
			LineID:          l.ID,
			ComponentItemID: l.ComponentItemID,
			Reason:          fmt.Sprintf("quantity per parent unit must be positive, got %s", l.QuantityPer),
		}
	}
	if l.ScrapPercent.IsNegative() || l.ScrapPercent.GreaterThanOrEqual(hundred) {
		return &InvalidBOMLineError{
			BOMID:           l.BOMID,
			LineID:          l.ID,
			ComponentItemID: l.ComponentItemID,
			Reason:          fmt.Sprintf("scrap factor must be in [0, 100), got %s", l.ScrapPercent),
		}
	}
	return nil
}

// RequiredFor returns the component quantity needed for parentQty units of
// the parent including the scrap markup
func (l *BOMLine) RequiredFor(parentQty decimal.Decimal) decimal.Decimal {
	scrap := decimal.NewFromInt(1).Add(l.ScrapPercent.Div(hundred))
	return parentQty.Mul(l.QuantityPer).Mul(scrap)
}
