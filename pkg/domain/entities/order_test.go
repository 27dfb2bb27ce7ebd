package entities

import "testing"

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderDraft, OrderConfirmed, true},
		{OrderConfirmed, OrderInProgress, true},
		{OrderInProgress, OrderCompleted, true},
		{OrderDraft, OrderInProgress, false},
		{OrderDraft, OrderCompleted, false},
		{OrderConfirmed, OrderDraft, false},
		{OrderDraft, OrderCancelled, true},
		{OrderConfirmed, OrderCancelled, true},
		{OrderInProgress, OrderCancelled, true},
		{OrderCompleted, OrderCancelled, false},
		{OrderCancelled, OrderDraft, false},
		{OrderDraft, OrderDraft, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"_to_"+tt.to.String(), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestNewManufacturingOrder(t *testing.T) {
	if _, err := NewManufacturingOrder("MO-1", "A", "", d("0")); err == nil {
		t.Error("expected error for zero quantity")
	}
	order, err := NewManufacturingOrder("MO-1", "A", "BOM-A", d("5"))
	if err != nil {
		t.Fatalf("NewManufacturingOrder() error = %v", err)
	}
	if order.Status != OrderDraft {
		t.Errorf("Status = %s, want DRAFT", order.Status)
	}
	if order.StartDate != nil || order.EndDate != nil {
		t.Error("expected dates to be unset")
	}
}

func TestMaterialReservation_ConsumeAndRelease(t *testing.T) {
	r := NewMaterialReservation("MO-1", MaterialRequirement{ItemID: "X", Quantity: d("10")})

	r.Consume(d("4"), r.CreatedAt)
	if r.Status != ReservationReserved {
		t.Fatalf("partial consumption status = %s, want RESERVED", r.Status)
	}
	if !r.Outstanding().Equal(d("6")) {
		t.Errorf("Outstanding() = %s, want 6", r.Outstanding())
	}

	freed := r.Release(r.CreatedAt)
	if !freed.Equal(d("6")) {
		t.Errorf("Release() freed %s, want 6", freed)
	}
	if again := r.Release(r.CreatedAt); !again.IsZero() {
		t.Errorf("second Release() freed %s, want 0", again)
	}
	if r.Status != ReservationReleased {
		t.Errorf("Status = %s, want RELEASED", r.Status)
	}
}
