package testing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/repositories/memory"
)

// Tenant is the tenant every fixture writes under
const Tenant entities.TenantID = "acme"

// EffectiveFrom is the effective date of fixture BOMs
var EffectiveFrom = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Dec parses a decimal literal - panics on malformed input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Fixture seeds an in-memory store. Item ids equal item codes so tests can
// refer to components by code.
type Fixture struct {
	Store  *memory.Store
	Tenant entities.TenantID

	sequences map[entities.BOMID]int
}

// NewFixture creates an empty fixture
func NewFixture() *Fixture {
	return &Fixture{
		Store:     memory.NewStore(),
		Tenant:    Tenant,
		sequences: make(map[entities.BOMID]int),
	}
}

// mustCreateItem is a helper for tests - panics on validation error
func mustCreateItem(code, standardCost string) *entities.Item {
	item, err := entities.NewItem(entities.ItemID(code), code, code+" part", "EA", Dec(standardCost))
	if err != nil {
		panic(err)
	}
	return item
}

// mustCreateHeader is a helper for tests - panics on validation error
func mustCreateHeader(id, itemCode string, version int) *entities.BOMHeader {
	header, err := entities.NewBOMHeader(entities.BOMID(id), entities.ItemID(itemCode), version, EffectiveFrom, nil)
	if err != nil {
		panic(err)
	}
	return header
}

// Item seeds an item with the given standard cost and on-hand stock
func (f *Fixture) Item(code, standardCost, onHand string) *entities.Item {
	item := mustCreateItem(code, standardCost)
	item.OnHand = Dec(onHand)
	if err := f.Store.LoadItems(context.Background(), f.Tenant, []*entities.Item{item}); err != nil {
		panic(err)
	}
	return item
}

// ApprovedBOM seeds version 1 of an APPROVED BOM producing itemCode
func (f *Fixture) ApprovedBOM(id, itemCode string) *entities.BOMHeader {
	header := mustCreateHeader(id, itemCode, 1)
	header.Status = entities.BOMApproved
	f.saveHeader(header)
	return header
}

// DraftBOM seeds a DRAFT BOM producing itemCode
func (f *Fixture) DraftBOM(id, itemCode string, version int) *entities.BOMHeader {
	header := mustCreateHeader(id, itemCode, version)
	f.saveHeader(header)
	return header
}

// Line adds a NORMAL line; sequences are assigned in call order
func (f *Fixture) Line(bomID, componentCode, qtyPer, scrap string) *entities.BOMLine {
	return f.addLine(bomID, componentCode, qtyPer, scrap, entities.LineNormal)
}

// Phantom adds a PHANTOM line
func (f *Fixture) Phantom(bomID, componentCode, qtyPer, scrap string) *entities.BOMLine {
	return f.addLine(bomID, componentCode, qtyPer, scrap, entities.LinePhantom)
}

// RawLine stores a line without validating it
func (f *Fixture) RawLine(bomID, componentCode, qtyPer, scrap string) *entities.BOMLine {
	id := entities.BOMID(bomID)
	f.sequences[id]++
	line := &entities.BOMLine{
		ID:              entities.NewID(),
		BOMID:           id,
		Sequence:        f.sequences[id] * 10,
		ComponentItemID: entities.ItemID(componentCode),
		QuantityPer:     Dec(qtyPer),
		ScrapPercent:    Dec(scrap),
		LineType:        entities.LineNormal,
	}
	if err := f.Store.SaveLine(context.Background(), f.Tenant, line); err != nil {
		panic(err)
	}
	return line
}

// WorkCenter seeds a work center
func (f *Fixture) WorkCenter(id, costPerHour, overheadPercent string) *entities.WorkCenter {
	wc := &entities.WorkCenter{
		ID:                  entities.WorkCenterID(id),
		Code:                id,
		Name:                id + " cell",
		CostPerHour:         Dec(costPerHour),
		OverheadRatePercent: Dec(overheadPercent),
	}
	if err := f.Store.SaveWorkCenter(context.Background(), f.Tenant, wc); err != nil {
		panic(err)
	}
	return wc
}

// Routing adds an operation of hoursPerUnit at workCenter to bomID
func (f *Fixture) Routing(bomID, workCenter string, sequence int, hoursPerUnit string) *entities.RoutingOperation {
	op := &entities.RoutingOperation{
		ID:              entities.NewID(),
		BOMID:           entities.BOMID(bomID),
		Sequence:        sequence,
		WorkCenterID:    entities.WorkCenterID(workCenter),
		RunHoursPerUnit: Dec(hoursPerUnit),
	}
	if err := f.Store.SaveRoutingOperation(context.Background(), f.Tenant, op); err != nil {
		panic(err)
	}
	return op
}

// Order seeds a manufacturing order for bomID in the given status. A
// non-nil end date is stamped on the order.
func (f *Fixture) Order(id, bomID, quantity string, status entities.OrderStatus, end *time.Time) *entities.ManufacturingOrder {
	ctx := context.Background()
	header, err := f.Store.GetHeader(ctx, f.Tenant, entities.BOMID(bomID))
	if err != nil {
		panic(err)
	}
	order, err := entities.NewManufacturingOrder(entities.OrderID(id), header.ItemID, header.ID, Dec(quantity))
	if err != nil {
		panic(err)
	}
	order.Status = status
	order.EndDate = end
	if err := f.Store.InsertOrder(ctx, f.Tenant, order); err != nil {
		panic(err)
	}
	return order
}

func (f *Fixture) saveHeader(header *entities.BOMHeader) {
	if err := f.Store.SaveHeader(context.Background(), f.Tenant, header); err != nil {
		panic(err)
	}
}

func (f *Fixture) addLine(bomID, componentCode, qtyPer, scrap string, lineType entities.LineType) *entities.BOMLine {
	id := entities.BOMID(bomID)
	f.sequences[id]++
	line, err := entities.NewBOMLine(id, f.sequences[id]*10, entities.ItemID(componentCode), Dec(qtyPer), Dec(scrap), lineType, false)
	if err != nil {
		panic(err)
	}
	if err := f.Store.SaveLine(context.Background(), f.Tenant, line); err != nil {
		panic(err)
	}
	return line
}

// BuildBicycleScenario seeds a three-level bicycle:
//
//	BIKE (BOM-BIKE)
//	  FRAME x1 (BOM-FRAME): TUBE x3 scrap 10%, WELD x0.5
//	  WHEEL x2 (BOM-WHEEL): RIM x1, SPOKE x32 scrap 5%
//	  KIT x1 phantom (BOM-KIT): BOLT x4, WELD x0.25
//	  SEAT x1
//
// with routings on BIKE and FRAME over two work centers.
func BuildBicycleScenario() *Fixture {
	f := NewFixture()

	f.Item("BIKE", "0", "0")
	f.Item("FRAME", "0", "0")
	f.Item("WHEEL", "0", "0")
	f.Item("KIT", "0", "0")
	f.Item("TUBE", "12.50", "100")
	f.Item("WELD", "4", "50")
	f.Item("RIM", "20", "40")
	f.Item("SPOKE", "0.25", "2000")
	f.Item("BOLT", "0.10", "500")
	f.Item("SEAT", "15", "30")

	f.ApprovedBOM("BOM-BIKE", "BIKE")
	f.Line("BOM-BIKE", "FRAME", "1", "0")
	f.Line("BOM-BIKE", "WHEEL", "2", "0")
	f.Phantom("BOM-BIKE", "KIT", "1", "0")
	f.Line("BOM-BIKE", "SEAT", "1", "0")

	f.ApprovedBOM("BOM-FRAME", "FRAME")
	f.Line("BOM-FRAME", "TUBE", "3", "10")
	f.Line("BOM-FRAME", "WELD", "0.5", "0")

	f.ApprovedBOM("BOM-WHEEL", "WHEEL")
	f.Line("BOM-WHEEL", "RIM", "1", "0")
	f.Line("BOM-WHEEL", "SPOKE", "32", "5")

	f.ApprovedBOM("BOM-KIT", "KIT")
	f.Line("BOM-KIT", "BOLT", "4", "0")
	f.Line("BOM-KIT", "WELD", "0.25", "0")

	f.WorkCenter("ASSEMBLY", "40", "50")
	f.WorkCenter("WELDING", "60", "25")
	f.Routing("BOM-BIKE", "ASSEMBLY", 10, "0.5")
	f.Routing("BOM-FRAME", "WELDING", 10, "0.25")

	return f
}
