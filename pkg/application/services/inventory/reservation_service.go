package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/dto"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/events"
)

// RetryPolicy bounds the retries of a storage operation that lost an
// optimistic-lock race
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// DefaultRetryPolicy retries three times, backing off 10ms, 20ms, 30ms
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Backoff: 10 * time.Millisecond}
}

// ReservationService checks, reserves, consumes and releases stock for
// manufacturing orders. Reservation is the only path by which orders claim
// stock, so concurrent orders cannot oversell a shared material.
type ReservationService struct {
	items     repositories.ItemRepository
	inventory repositories.InventoryRepository
	publisher events.Publisher
	retry     RetryPolicy
	log       zerolog.Logger
}

// NewReservationService creates a reservation service; publisher may be nil
func NewReservationService(
	items repositories.ItemRepository,
	inventory repositories.InventoryRepository,
	publisher events.Publisher,
	retry RetryPolicy,
	log zerolog.Logger,
) *ReservationService {
	return &ReservationService{
		items:     items,
		inventory: inventory,
		publisher: publisher,
		retry:     retry,
		log:       log.With().Str("service", "reservation").Logger(),
	}
}

// CheckAvailability reports available = onHand - reserved against each
// requirement, aggregated by item
func (s *ReservationService) CheckAvailability(
	ctx context.Context,
	tenant entities.TenantID,
	reqs []entities.MaterialRequirement,
) ([]dto.Availability, error) {
	reqs = entities.AggregateRequirements(reqs)
	rows := make([]dto.Availability, 0, len(reqs))
	for _, req := range reqs {
		item, err := s.items.GetItem(ctx, tenant, req.ItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to get item %s: %w", req.ItemID, err)
		}
		available := item.Available()
		rows = append(rows, dto.Availability{
			ItemID:     item.ID,
			Code:       item.Code,
			Required:   req.Quantity,
			OnHand:     item.OnHand,
			Reserved:   item.Reserved,
			Available:  available,
			Sufficient: available.GreaterThanOrEqual(req.Quantity),
		})
	}
	return rows, nil
}

// ReserveMaterials reserves every material for orderID or nothing. Shortages
// are returned together as *entities.InsufficientStockError. Calling it
// twice for the same order reserves twice.
func (s *ReservationService) ReserveMaterials(
	ctx context.Context,
	tenant entities.TenantID,
	orderID entities.OrderID,
	materials []entities.MaterialRequirement,
) ([]*entities.MaterialReservation, error) {
	if err := validateQuantities(materials); err != nil {
		return nil, err
	}
	if len(materials) == 0 {
		return nil, nil
	}

	var reservations []*entities.MaterialReservation
	err := s.withRetry(ctx, "reserve", orderID, func() error {
		var err error
		reservations, err = s.inventory.ReserveAll(ctx, tenant, orderID, materials)
		return err
	})

	var stockErr *entities.InsufficientStockError
	if errors.As(err, &stockErr) {
		s.log.Warn().
			Str("tenant", string(tenant)).
			Str("order_id", string(orderID)).
			Int("short_items", len(stockErr.Shortages)).
			Msg("Reservation rejected")
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reserve materials for order %s: %w", orderID, err)
	}

	s.log.Info().
		Str("tenant", string(tenant)).
		Str("order_id", string(orderID)).
		Int("reservations", len(reservations)).
		Msg("Materials reserved")
	return reservations, nil
}

// ReleaseMaterials releases the order's outstanding reservations, limited to
// itemIDs when given. Releasing twice is a no-op.
func (s *ReservationService) ReleaseMaterials(
	ctx context.Context,
	tenant entities.TenantID,
	orderID entities.OrderID,
	itemIDs ...entities.ItemID,
) ([]*entities.MaterialReservation, error) {
	var released []*entities.MaterialReservation
	err := s.withRetry(ctx, "release", orderID, func() error {
		var err error
		released, err = s.inventory.Release(ctx, tenant, orderID, itemIDs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to release materials for order %s: %w", orderID, err)
	}
	if len(released) == 0 {
		return nil, nil
	}

	s.log.Info().
		Str("tenant", string(tenant)).
		Str("order_id", string(orderID)).
		Int("released", len(released)).
		Msg("Reservations released")
	s.publish(ctx, string(orderID), events.NewReservationsReleasedEvent(tenant, orderID, len(released)))
	return released, nil
}

// ConsumeReservedMaterials deducts consumed stock against the order's
// reservations. Consuming without a reservation or beyond it fails.
func (s *ReservationService) ConsumeReservedMaterials(
	ctx context.Context,
	tenant entities.TenantID,
	orderID entities.OrderID,
	consumptions []entities.MaterialRequirement,
) error {
	if err := validateQuantities(consumptions); err != nil {
		return err
	}
	if len(consumptions) == 0 {
		return nil
	}

	err := s.withRetry(ctx, "consume", orderID, func() error {
		return s.inventory.Consume(ctx, tenant, orderID, consumptions)
	})
	if err != nil {
		return fmt.Errorf("failed to consume materials for order %s: %w", orderID, err)
	}

	s.log.Info().
		Str("tenant", string(tenant)).
		Str("order_id", string(orderID)).
		Int("items", len(consumptions)).
		Msg("Reserved materials consumed")
	return nil
}

// GetReservations lists the order's reservations. Before the reservation
// table exists it returns an empty list.
func (s *ReservationService) GetReservations(
	ctx context.Context,
	tenant entities.TenantID,
	orderID entities.OrderID,
) ([]*entities.MaterialReservation, error) {
	reservations, err := s.inventory.ListReservations(ctx, tenant, orderID)
	if errors.Is(err, repositories.ErrSchemaNotReady) {
		s.log.Warn().Err(err).Str("order_id", string(orderID)).Msg("Reservation storage not ready, returning no reservations")
		return []*entities.MaterialReservation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations for order %s: %w", orderID, err)
	}
	return reservations, nil
}

// ReceiveStock adds a goods receipt to on-hand stock
func (s *ReservationService) ReceiveStock(
	ctx context.Context,
	tenant entities.TenantID,
	itemID entities.ItemID,
	quantity decimal.Decimal,
) error {
	if !quantity.IsPositive() {
		return fmt.Errorf("receipt of %s: %w", quantity, entities.ErrInvalidQuantity)
	}

	err := s.withRetry(ctx, "receive", "", func() error {
		return s.inventory.AdjustOnHand(ctx, tenant, itemID, quantity)
	})
	if err != nil {
		return fmt.Errorf("failed to receive stock of %s: %w", itemID, err)
	}

	s.log.Info().
		Str("tenant", string(tenant)).
		Str("item_id", string(itemID)).
		Str("quantity", quantity.String()).
		Msg("Stock received")
	s.publish(ctx, string(itemID), events.NewInventoryReceivedEvent(tenant, itemID, quantity))
	return nil
}

// withRetry runs op again after ErrConflict. A conflicting attempt commits
// nothing, so retrying never double-applies.
func (s *ReservationService) withRetry(ctx context.Context, name string, orderID entities.OrderID, op func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if !errors.Is(err, repositories.ErrConflict) || attempt >= s.retry.MaxRetries {
			return err
		}

		s.log.Debug().
			Str("operation", name).
			Str("order_id", string(orderID)).
			Int("attempt", attempt+1).
			Msg("Storage conflict, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retry.Backoff * time.Duration(attempt+1)):
		}
	}
}

func (s *ReservationService) publish(ctx context.Context, streamID string, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.AppendEvent(ctx, streamID, event); err != nil {
		s.log.Warn().Err(err).Str("event", event.Type()).Msg("Event handler failed")
	}
}

func validateQuantities(reqs []entities.MaterialRequirement) error {
	for _, req := range reqs {
		if !req.Quantity.IsPositive() {
			return fmt.Errorf("quantity %s of item %s: %w", req.Quantity, req.ItemID, entities.ErrInvalidQuantity)
		}
	}
	return nil
}
