package events

import (
	"context"
	"fmt"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// BOMInvalidator drops cached data derived from a BOM and its ancestors
type BOMInvalidator interface {
	InvalidateBOM(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID) error
}

// TreeInvalidationHandler invalidates cached BOM trees whenever a BOM is edited
type TreeInvalidationHandler struct {
	invalidator BOMInvalidator
}

func NewTreeInvalidationHandler(invalidator BOMInvalidator) *TreeInvalidationHandler {
	return &TreeInvalidationHandler{invalidator: invalidator}
}

func (h *TreeInvalidationHandler) CanHandle(eventType string) bool {
	return IsBOMEdit(eventType)
}

func (h *TreeInvalidationHandler) Handle(ctx context.Context, event Event) error {
	edit, ok := event.Data().(BOMEdited)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Data(), event.Type())
	}
	return h.invalidator.InvalidateBOM(ctx, edit.Tenant, edit.BOMID)
}
