package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

// GetStageCost returns a stage cost row by id
func (s *Store) GetStageCost(_ context.Context, tenant entities.TenantID, id string) (*entities.StageCost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	index, exists := t.stageIndex[id]
	if !exists {
		return nil, fmt.Errorf("stage cost %s: %w", id, repositories.ErrNotFound)
	}
	stage := t.stages[index]
	return &stage, nil
}

// ListStageCosts returns the order's stages ordered by stage number
func (s *Store) ListStageCosts(_ context.Context, tenant entities.TenantID, orderID entities.OrderID) ([]*entities.StageCost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	var stages []*entities.StageCost
	for i := range t.stages {
		if t.stages[i].OrderID == orderID {
			stage := t.stages[i]
			stages = append(stages, &stage)
		}
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].StageNumber < stages[j].StageNumber })
	return stages, nil
}

// SaveStageCost upserts a stage by (order, stage number), keeping the stored id
func (s *Store) SaveStageCost(_ context.Context, tenant entities.TenantID, stage *entities.StageCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	key := stageKey{orderID: stage.OrderID, stage: stage.StageNumber}
	if index, exists := t.stageKeys[key]; exists {
		stage.ID = t.stages[index].ID
		t.stages[index] = *stage
		return nil
	}
	if index, exists := t.stageIndex[stage.ID]; exists {
		old := t.stages[index]
		delete(t.stageKeys, stageKey{orderID: old.OrderID, stage: old.StageNumber})
		t.stages[index] = *stage
		t.stageKeys[key] = index
		return nil
	}
	index := len(t.stages)
	t.stages = append(t.stages, *stage)
	t.stageIndex[stage.ID] = index
	t.stageKeys[key] = index
	return nil
}

// GetWorkCenter returns a work center by id
func (s *Store) GetWorkCenter(_ context.Context, tenant entities.TenantID, id entities.WorkCenterID) (*entities.WorkCenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wc, exists := s.tenant(tenant).workCenters[id]
	if !exists {
		return nil, fmt.Errorf("work center %s: %w", id, repositories.ErrNotFound)
	}
	return &wc, nil
}

// SaveWorkCenter inserts or replaces a work center
func (s *Store) SaveWorkCenter(_ context.Context, tenant entities.TenantID, wc *entities.WorkCenter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tenant(tenant).workCenters[wc.ID] = *wc
	return nil
}

// ListRouting returns the BOM's operations ordered by sequence
func (s *Store) ListRouting(_ context.Context, tenant entities.TenantID, bomID entities.BOMID) ([]*entities.RoutingOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops := s.tenant(tenant).routing[bomID]
	out := make([]*entities.RoutingOperation, 0, len(ops))
	for i := range ops {
		op := ops[i]
		out = append(out, &op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

// SaveRoutingOperation inserts or replaces a routing operation
func (s *Store) SaveRoutingOperation(_ context.Context, tenant entities.TenantID, op *entities.RoutingOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	ops := t.routing[op.BOMID]
	for i := range ops {
		if ops[i].ID == op.ID {
			ops[i] = *op
			return nil
		}
	}
	t.routing[op.BOMID] = append(ops, *op)
	return nil
}
