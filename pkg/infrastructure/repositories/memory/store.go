package memory

import (
	"sync"
	"time"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

// Store provides in-memory storage for every repository contract. One mutex
// serializes all access, so multi-row operations are atomic.
type Store struct {
	mu      sync.Mutex
	tenants map[entities.TenantID]*tenantData
	now     func() time.Time
}

type stageKey struct {
	orderID entities.OrderID
	stage   int
}

type tenantData struct {
	items     []entities.Item
	itemIndex map[entities.ItemID]int
	codeIndex map[string]int

	headers     []entities.BOMHeader
	headerIndex map[entities.BOMID]int
	lines       []entities.BOMLine
	lineIndexes map[entities.BOMID][]int
	lineByID    map[string]int

	orders     []entities.ManufacturingOrder
	orderIndex map[entities.OrderID]int

	reservations       []entities.MaterialReservation
	reservationIndexes map[entities.OrderID][]int

	stages     []entities.StageCost
	stageIndex map[string]int
	stageKeys  map[stageKey]int

	workCenters map[entities.WorkCenterID]entities.WorkCenter
	routing     map[entities.BOMID][]entities.RoutingOperation
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		tenants: make(map[entities.TenantID]*tenantData),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Verify interface compliance
var _ repositories.ItemRepository = (*Store)(nil)
var _ repositories.BOMRepository = (*Store)(nil)
var _ repositories.InventoryRepository = (*Store)(nil)
var _ repositories.OrderRepository = (*Store)(nil)
var _ repositories.StageCostRepository = (*Store)(nil)
var _ repositories.RoutingRepository = (*Store)(nil)

// tenant returns the tenant's data, creating it on first use. Callers hold s.mu.
func (s *Store) tenant(id entities.TenantID) *tenantData {
	t, ok := s.tenants[id]
	if !ok {
		t = &tenantData{
			itemIndex:          make(map[entities.ItemID]int),
			codeIndex:          make(map[string]int),
			headerIndex:        make(map[entities.BOMID]int),
			lineIndexes:        make(map[entities.BOMID][]int),
			lineByID:           make(map[string]int),
			orderIndex:         make(map[entities.OrderID]int),
			reservationIndexes: make(map[entities.OrderID][]int),
			stageIndex:         make(map[string]int),
			stageKeys:          make(map[stageKey]int),
			workCenters:        make(map[entities.WorkCenterID]entities.WorkCenter),
			routing:            make(map[entities.BOMID][]entities.RoutingOperation),
		}
		s.tenants[id] = t
	}
	return t
}
