package manufacturing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/dto"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/bom"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/inventory"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/events"
)

// ErrOrderNotInProgress is returned when production is recorded against an
// order that is not IN_PROGRESS
var ErrOrderNotInProgress = errors.New("order is not in progress")

// OrderService coordinates BOM explosion, stock reservation and order
// persistence over the manufacturing order lifecycle
type OrderService struct {
	orders       repositories.OrderRepository
	items        repositories.ItemRepository
	explosion    *bom.ExplosionService
	reservations *inventory.ReservationService
	publisher    events.Publisher
	log          zerolog.Logger
	now          func() time.Time
}

// NewOrderService creates a new order service; publisher may be nil
func NewOrderService(
	orders repositories.OrderRepository,
	items repositories.ItemRepository,
	explosion *bom.ExplosionService,
	reservations *inventory.ReservationService,
	publisher events.Publisher,
	log zerolog.Logger,
) *OrderService {
	return &OrderService{
		orders:       orders,
		items:        items,
		explosion:    explosion,
		reservations: reservations,
		publisher:    publisher,
		log:          log.With().Str("service", "manufacturing_order").Logger(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder creates a DRAFT order with its material reservations. In
// ReserveBeforeCreate mode nothing is persisted unless every material is
// reserved. In ReserveAfterCreate mode stock shortages found up front still
// abort, but a failed reservation leaves the persisted order flagged
// UnderReserved. When that failure is a shortage that appeared after the
// availability check, the flagged order is returned together with the
// InsufficientStockError.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	tenant entities.TenantID,
	req dto.CreateOrderRequest,
) (*dto.OrderDetail, error) {
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("order quantity %s: %w", req.Quantity, entities.ErrInvalidQuantity)
	}

	// Step 1: Derive materials from the BOM unless given explicitly
	itemID := req.ItemID
	materials := req.Materials
	if len(materials) == 0 && req.BOMID != "" {
		exploded, err := s.explosion.Explode(ctx, tenant, req.BOMID, req.Quantity)
		if err != nil {
			return nil, err
		}
		materials = exploded.MaterialRequirements()
		if itemID == "" {
			itemID = exploded.ItemID
		}
	}
	if _, err := s.items.GetItem(ctx, tenant, itemID); err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", itemID, err)
	}

	order, err := entities.NewManufacturingOrder(entities.OrderID(entities.NewID()), itemID, req.BOMID, req.Quantity)
	if err != nil {
		return nil, err
	}
	order.StartDate = req.StartDate

	// Step 2: Reserve and persist
	var reservations []*entities.MaterialReservation
	switch req.Mode {
	case dto.ReserveAfterCreate:
		reservations, err = s.createThenReserve(ctx, tenant, order, materials)
	default:
		reservations, err = s.reserveThenCreate(ctx, tenant, order, materials)
	}
	if err != nil && !order.UnderReserved {
		return nil, err
	}

	s.log.Info().
		Str("tenant", string(tenant)).
		Str("order_id", string(order.ID)).
		Str("item_id", string(order.ItemID)).
		Str("quantity", order.PlannedQuantity.String()).
		Int("reservations", len(reservations)).
		Bool("under_reserved", order.UnderReserved).
		Msg("Manufacturing order created")
	s.publish(ctx, events.NewOrderCreatedEvent(tenant, order, len(reservations)))

	return &dto.OrderDetail{Order: order, Reservations: reservations}, err
}

func (s *OrderService) reserveThenCreate(
	ctx context.Context,
	tenant entities.TenantID,
	order *entities.ManufacturingOrder,
	materials []entities.MaterialRequirement,
) ([]*entities.MaterialReservation, error) {
	reservations, err := s.reservations.ReserveMaterials(ctx, tenant, order.ID, materials)
	if err != nil {
		return nil, err
	}

	if err := s.orders.InsertOrder(ctx, tenant, order); err != nil {
		if _, releaseErr := s.reservations.ReleaseMaterials(ctx, tenant, order.ID); releaseErr != nil {
			s.log.Error().Err(releaseErr).
				Str("order_id", string(order.ID)).
				Msg("Failed to release reservations of an order that was not persisted")
		}
		return nil, fmt.Errorf("failed to insert order %s: %w", order.ID, err)
	}
	return reservations, nil
}

func (s *OrderService) createThenReserve(
	ctx context.Context,
	tenant entities.TenantID,
	order *entities.ManufacturingOrder,
	materials []entities.MaterialRequirement,
) ([]*entities.MaterialReservation, error) {
	rows, err := s.reservations.CheckAvailability(ctx, tenant, materials)
	if err != nil {
		return nil, err
	}
	if shortages := dto.Shortages(rows); len(shortages) > 0 {
		return nil, &entities.InsufficientStockError{Shortages: shortages}
	}

	if err := s.orders.InsertOrder(ctx, tenant, order); err != nil {
		return nil, fmt.Errorf("failed to insert order %s: %w", order.ID, err)
	}

	reservations, reserveErr := s.reservations.ReserveMaterials(ctx, tenant, order.ID, materials)
	if reserveErr == nil {
		return reservations, nil
	}

	s.log.Error().Err(reserveErr).
		Str("tenant", string(tenant)).
		Str("order_id", string(order.ID)).
		Msg("Order persisted without reservations, reconcile manually")

	order.UnderReserved = true
	order.UpdatedAt = s.now()
	if err := s.orders.UpdateOrder(ctx, tenant, order, order.Status); err != nil {
		s.log.Error().Err(err).Str("order_id", string(order.ID)).Msg("Failed to flag order as under-reserved")
	}

	// Stock taken by a concurrent order is reported, other failures are left
	// to reconciliation
	var stockErr *entities.InsufficientStockError
	if errors.As(reserveErr, &stockErr) {
		return nil, reserveErr
	}
	return nil, nil
}

// GetByID returns an order with its reservations
func (s *OrderService) GetByID(ctx context.Context, tenant entities.TenantID, id entities.OrderID) (*dto.OrderDetail, error) {
	order, err := s.orders.GetOrder(ctx, tenant, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	reservations, err := s.reservations.GetReservations(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	return &dto.OrderDetail{Order: order, Reservations: reservations}, nil
}

// UpdateStatus moves an order one step along its lifecycle. IN_PROGRESS and
// COMPLETED stamp the start and end dates unless already set; COMPLETED and
// CANCELLED release whatever is still reserved.
func (s *OrderService) UpdateStatus(
	ctx context.Context,
	tenant entities.TenantID,
	id entities.OrderID,
	target entities.OrderStatus,
	opts dto.StatusOptions,
) (*entities.ManufacturingOrder, error) {
	order, err := s.orders.GetOrder(ctx, tenant, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	previous := order.Status
	if !previous.CanTransitionTo(target) {
		return nil, &entities.InvalidTransitionError{From: previous, To: target}
	}

	now := s.now()
	switch target {
	case entities.OrderInProgress:
		if order.StartDate == nil {
			order.StartDate = stamp(opts.StartDate, now)
		}
	case entities.OrderCompleted:
		if order.EndDate == nil {
			order.EndDate = stamp(opts.EndDate, now)
		}
	}
	order.Status = target
	order.UpdatedAt = now

	if err := s.orders.UpdateOrder(ctx, tenant, order, previous); err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}

	s.log.Info().
		Str("tenant", string(tenant)).
		Str("order_id", string(id)).
		Str("from", previous.String()).
		Str("to", target.String()).
		Msg("Order status changed")
	s.publish(ctx, events.NewOrderStatusChangedEvent(tenant, id, previous, target))

	if target == entities.OrderCompleted || target == entities.OrderCancelled {
		if _, err := s.reservations.ReleaseMaterials(ctx, tenant, id); err != nil {
			return order, fmt.Errorf("order %s is %s but releasing its reservations failed: %w", id, target, err)
		}
	}
	return order, nil
}

// RecordConsumption books material used by production against the order's
// reservations
func (s *OrderService) RecordConsumption(
	ctx context.Context,
	tenant entities.TenantID,
	id entities.OrderID,
	consumptions []entities.MaterialRequirement,
) error {
	order, err := s.orders.GetOrder(ctx, tenant, id)
	if err != nil {
		return fmt.Errorf("failed to get order %s: %w", id, err)
	}
	if order.Status != entities.OrderInProgress {
		return fmt.Errorf("order %s is %s: %w", id, order.Status, ErrOrderNotInProgress)
	}
	return s.reservations.ConsumeReservedMaterials(ctx, tenant, id, consumptions)
}

func (s *OrderService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.AppendEvent(ctx, event.StreamID(), event); err != nil {
		s.log.Warn().Err(err).Str("event", event.Type()).Msg("Event handler failed")
	}
}

func stamp(supplied *time.Time, now time.Time) *time.Time {
	if supplied != nil {
		t := *supplied
		return &t
	}
	return &now
}
