package inventory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	fixtures "github.com/6thd/wardah-process-costing-sub007/pkg/application/services/testing"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/events"
)

var d = fixtures.Dec

func req(item, qty string) entities.MaterialRequirement {
	return entities.MaterialRequirement{ItemID: entities.ItemID(item), Quantity: d(qty), UnitCost: d("1")}
}

func newService(f *fixtures.Fixture) *ReservationService {
	return NewReservationService(f.Store, f.Store, nil, RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}, zerolog.Nop())
}

func TestCheckAvailability(t *testing.T) {
	f := fixtures.NewFixture()
	f.Item("X", "1", "100")
	svc := newService(f)
	ctx := context.Background()

	if _, err := svc.ReserveMaterials(ctx, f.Tenant, "MO-0", []entities.MaterialRequirement{req("X", "40")}); err != nil {
		t.Fatalf("ReserveMaterials failed: %v", err)
	}

	tests := []struct {
		required   string
		sufficient bool
	}{
		{"60", true},
		{"61", false},
	}
	for _, tt := range tests {
		rows, err := svc.CheckAvailability(ctx, f.Tenant, []entities.MaterialRequirement{req("X", tt.required)})
		if err != nil {
			t.Fatalf("CheckAvailability failed: %v", err)
		}
		row := rows[0]
		if !row.OnHand.Equal(d("100")) || !row.Reserved.Equal(d("40")) || !row.Available.Equal(d("60")) {
			t.Errorf("Expected 100/40/60, got %s/%s/%s", row.OnHand, row.Reserved, row.Available)
		}
		if row.Sufficient != tt.sufficient {
			t.Errorf("Required %s: expected sufficient=%v, got %v", tt.required, tt.sufficient, row.Sufficient)
		}
	}
}

func TestCheckAvailability_AggregatesByItem(t *testing.T) {
	f := fixtures.NewFixture()
	f.Item("X", "1", "10")

	rows, err := newService(f).CheckAvailability(context.Background(), f.Tenant,
		[]entities.MaterialRequirement{req("X", "6"), req("X", "6")})
	if err != nil {
		t.Fatalf("CheckAvailability failed: %v", err)
	}
	if len(rows) != 1 || !rows[0].Required.Equal(d("12")) || rows[0].Sufficient {
		t.Errorf("Expected one insufficient row for 12, got %+v", rows)
	}
}

func TestReserveMaterials_AllOrNothing(t *testing.T) {
	f := fixtures.NewFixture()
	f.Item("X", "1", "10")
	f.Item("Y", "1", "5")
	f.Item("Z", "1", "1")
	svc := newService(f)
	ctx := context.Background()

	_, err := svc.ReserveMaterials(ctx, f.Tenant, "MO-1",
		[]entities.MaterialRequirement{req("X", "8"), req("Y", "7"), req("Z", "2")})

	var stockErr *entities.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if len(stockErr.Shortages) != 2 {
		t.Fatalf("Expected Y and Z short, got %+v", stockErr.Shortages)
	}
	if stockErr.Shortages[0].ItemID != "Y" || !stockErr.Shortages[0].Shortfall.Equal(d("2")) {
		t.Errorf("Expected Y short by 2, got %+v", stockErr.Shortages[0])
	}

	reservations, err := svc.GetReservations(ctx, f.Tenant, "MO-1")
	if err != nil {
		t.Fatalf("GetReservations failed: %v", err)
	}
	if len(reservations) != 0 {
		t.Errorf("Expected no reservations after a rejected request, got %d", len(reservations))
	}
	item, _ := f.Store.GetItem(ctx, f.Tenant, "X")
	if !item.Reserved.IsZero() {
		t.Errorf("Expected nothing reserved on X, got %s", item.Reserved)
	}
}

func TestReserveMaterials_RejectsNonPositiveQuantity(t *testing.T) {
	f := fixtures.NewFixture()
	f.Item("X", "1", "10")

	_, err := newService(f).ReserveMaterials(context.Background(), f.Tenant, "MO-1", []entities.MaterialRequirement{req("X", "0")})
	if !errors.Is(err, entities.ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity, got %v", err)
	}
}

func TestReserveMaterials_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := fixtures.NewFixture()
	f.Item("STEEL", "1", "100")
	svc := newService(f)
	ctx := context.Background()

	var wg sync.WaitGroup
	var succeeded int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			orderID := entities.OrderID(entities.NewID())
			if _, err := svc.ReserveMaterials(ctx, f.Tenant, orderID, []entities.MaterialRequirement{req("STEEL", "7")}); err == nil {
				atomic.AddInt64(&succeeded, 1)
			}
		}()
	}
	wg.Wait()

	if succeeded != 14 {
		t.Errorf("Expected exactly 14 reservations of 7 against 100, got %d", succeeded)
	}
	item, _ := f.Store.GetItem(ctx, f.Tenant, "STEEL")
	if item.Reserved.GreaterThan(item.OnHand) {
		t.Errorf("Reserved %s exceeds on-hand %s", item.Reserved, item.OnHand)
	}
	if !item.Reserved.Equal(d("98")) {
		t.Errorf("Expected 98 reserved, got %s", item.Reserved)
	}
}

func TestReleaseMaterials_Idempotent(t *testing.T) {
	f := fixtures.NewFixture()
	f.Item("X", "1", "10")
	f.Item("Y", "1", "10")
	svc := newService(f)
	ctx := context.Background()

	if _, err := svc.ReserveMaterials(ctx, f.Tenant, "MO-1", []entities.MaterialRequirement{req("X", "4"), req("Y", "3")}); err != nil {
		t.Fatalf("ReserveMaterials failed: %v", err)
	}

	released, err := svc.ReleaseMaterials(ctx, f.Tenant, "MO-1", "X")
	if err != nil || len(released) != 1 {
		t.Fatalf("Expected X released, got %d rows (err %v)", len(released), err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.ReleaseMaterials(ctx, f.Tenant, "MO-1"); err != nil {
			t.Fatalf("ReleaseMaterials #%d failed: %v", i+1, err)
		}
	}
	if _, err := svc.ReleaseMaterials(ctx, f.Tenant, "MO-UNKNOWN"); err != nil {
		t.Errorf("Releasing an order without reservations should be a no-op, got %v", err)
	}

	for _, id := range []entities.ItemID{"X", "Y"} {
		item, _ := f.Store.GetItem(ctx, f.Tenant, id)
		if !item.Reserved.IsZero() || !item.OnHand.Equal(d("10")) {
			t.Errorf("%s: expected 10 on hand and nothing reserved, got %s/%s", id, item.OnHand, item.Reserved)
		}
	}

	reservations, _ := svc.GetReservations(ctx, f.Tenant, "MO-1")
	for _, r := range reservations {
		if r.Status != entities.ReservationReleased {
			t.Errorf("Expected %s RELEASED, got %s", r.ItemID, r.Status)
		}
	}
}

func TestConsumeReservedMaterials(t *testing.T) {
	f := fixtures.NewFixture()
	f.Item("X", "1", "10")
	f.Item("Y", "1", "10")
	svc := newService(f)
	ctx := context.Background()

	if _, err := svc.ReserveMaterials(ctx, f.Tenant, "MO-1", []entities.MaterialRequirement{req("X", "6")}); err != nil {
		t.Fatalf("ReserveMaterials failed: %v", err)
	}

	var notFound *entities.ReservationNotFoundError
	if err := svc.ConsumeReservedMaterials(ctx, f.Tenant, "MO-1", []entities.MaterialRequirement{req("Y", "1")}); !errors.As(err, &notFound) {
		t.Errorf("Expected ReservationNotFoundError for unreserved Y, got %v", err)
	}
	var over *entities.OverConsumptionError
	if err := svc.ConsumeReservedMaterials(ctx, f.Tenant, "MO-1", []entities.MaterialRequirement{req("X", "7")}); !errors.As(err, &over) {
		t.Errorf("Expected OverConsumptionError, got %v", err)
	}

	if err := svc.ConsumeReservedMaterials(ctx, f.Tenant, "MO-1", []entities.MaterialRequirement{req("X", "2")}); err != nil {
		t.Fatalf("ConsumeReservedMaterials failed: %v", err)
	}
	item, _ := f.Store.GetItem(ctx, f.Tenant, "X")
	if !item.OnHand.Equal(d("8")) || !item.Reserved.Equal(d("4")) {
		t.Errorf("Expected 8 on hand and 4 reserved, got %s/%s", item.OnHand, item.Reserved)
	}

	if err := svc.ConsumeReservedMaterials(ctx, f.Tenant, "MO-1", []entities.MaterialRequirement{req("X", "4")}); err != nil {
		t.Fatalf("ConsumeReservedMaterials failed: %v", err)
	}
	reservations, _ := svc.GetReservations(ctx, f.Tenant, "MO-1")
	if len(reservations) != 1 || reservations[0].Status != entities.ReservationConsumed {
		t.Fatalf("Expected the reservation CONSUMED, got %+v", reservations)
	}

	// A consumed reservation cannot be released
	if released, err := svc.ReleaseMaterials(ctx, f.Tenant, "MO-1"); err != nil || len(released) != 0 {
		t.Errorf("Expected release of consumed order to be a no-op, got %d rows (err %v)", len(released), err)
	}
	item, _ = f.Store.GetItem(ctx, f.Tenant, "X")
	if !item.OnHand.Equal(d("4")) || !item.Reserved.IsZero() {
		t.Errorf("Expected 4 on hand and nothing reserved, got %s/%s", item.OnHand, item.Reserved)
	}
}

func TestReceiveStock(t *testing.T) {
	f := fixtures.NewFixture()
	f.Item("X", "1", "10")
	store := events.NewInMemoryEventStore(zerolog.Nop())
	svc := NewReservationService(f.Store, f.Store, store, DefaultRetryPolicy(), zerolog.Nop())
	ctx := context.Background()

	if err := svc.ReceiveStock(ctx, f.Tenant, "X", d("5")); err != nil {
		t.Fatalf("ReceiveStock failed: %v", err)
	}
	if err := svc.ReceiveStock(ctx, f.Tenant, "X", d("-5")); !errors.Is(err, entities.ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity for a negative receipt, got %v", err)
	}

	item, _ := f.Store.GetItem(ctx, f.Tenant, "X")
	if !item.OnHand.Equal(d("15")) {
		t.Errorf("Expected 15 on hand, got %s", item.OnHand)
	}
	received, _ := store.ReadEvents("X", 0)
	if len(received) != 1 || received[0].Type() != events.InventoryReceivedEvent {
		t.Errorf("Expected one %s event, got %d", events.InventoryReceivedEvent, len(received))
	}
}

// flakyInventory fails its first conflicts calls with ErrConflict
type flakyInventory struct {
	repositories.InventoryRepository
	conflicts int32
	calls     int32
	listErr   error
}

func (f *flakyInventory) ReserveAll(
	ctx context.Context,
	tenant entities.TenantID,
	orderID entities.OrderID,
	reqs []entities.MaterialRequirement,
) ([]*entities.MaterialReservation, error) {
	if atomic.AddInt32(&f.calls, 1) <= f.conflicts {
		return nil, repositories.ErrConflict
	}
	return f.InventoryRepository.ReserveAll(ctx, tenant, orderID, reqs)
}

func (f *flakyInventory) ListReservations(ctx context.Context, tenant entities.TenantID, orderID entities.OrderID) ([]*entities.MaterialReservation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.InventoryRepository.ListReservations(ctx, tenant, orderID)
}

func TestReserveMaterials_RetriesConflicts(t *testing.T) {
	tests := []struct {
		name      string
		conflicts int32
		wantErr   bool
		wantCalls int32
	}{
		{"succeeds after two conflicts", 2, false, 3},
		{"gives up after max retries", 10, true, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fixtures.NewFixture()
			f.Item("X", "1", "10")
			inv := &flakyInventory{InventoryRepository: f.Store, conflicts: tt.conflicts}
			svc := NewReservationService(f.Store, inv, nil, RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}, zerolog.Nop())

			_, err := svc.ReserveMaterials(context.Background(), f.Tenant, "MO-1", []entities.MaterialRequirement{req("X", "1")})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr && !errors.Is(err, repositories.ErrConflict) {
				t.Errorf("Expected ErrConflict, got %v", err)
			}
			if inv.calls != tt.wantCalls {
				t.Errorf("Expected %d attempts, got %d", tt.wantCalls, inv.calls)
			}
		})
	}
}

func TestGetReservations_DegradesWhenSchemaMissing(t *testing.T) {
	f := fixtures.NewFixture()
	inv := &flakyInventory{InventoryRepository: f.Store, listErr: repositories.ErrSchemaNotReady}
	svc := NewReservationService(f.Store, inv, nil, DefaultRetryPolicy(), zerolog.Nop())

	reservations, err := svc.GetReservations(context.Background(), f.Tenant, "MO-1")
	if err != nil {
		t.Fatalf("Expected degraded read, got %v", err)
	}
	if reservations == nil || len(reservations) != 0 {
		t.Errorf("Expected an empty list, got %v", reservations)
	}

	inv.listErr = errors.New("connection refused")
	if _, err := svc.GetReservations(context.Background(), f.Tenant, "MO-1"); err == nil {
		t.Error("Expected other storage errors to surface")
	}
}
