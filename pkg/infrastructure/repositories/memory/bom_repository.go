package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

// GetHeader returns a BOM header by id
func (s *Store) GetHeader(_ context.Context, tenant entities.TenantID, id entities.BOMID) (*entities.BOMHeader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	index, exists := t.headerIndex[id]
	if !exists {
		return nil, fmt.Errorf("BOM %s: %w", id, repositories.ErrNotFound)
	}
	header := t.headers[index]
	return &header, nil
}

// ListHeadersForItem returns every BOM version producing itemID, oldest version first
func (s *Store) ListHeadersForItem(_ context.Context, tenant entities.TenantID, itemID entities.ItemID) ([]*entities.BOMHeader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	var headers []*entities.BOMHeader
	for i := range t.headers {
		if t.headers[i].ItemID == itemID {
			header := t.headers[i]
			headers = append(headers, &header)
		}
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].Version < headers[j].Version })
	return headers, nil
}

// ListHeadersUsingItem returns the headers with a line consuming itemID
func (s *Store) ListHeadersUsingItem(_ context.Context, tenant entities.TenantID, itemID entities.ItemID) ([]*entities.BOMHeader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	seen := make(map[entities.BOMID]bool)
	var headers []*entities.BOMHeader
	for _, line := range t.lines {
		if line.ComponentItemID != itemID || seen[line.BOMID] {
			continue
		}
		seen[line.BOMID] = true
		if index, ok := t.headerIndex[line.BOMID]; ok {
			header := t.headers[index]
			headers = append(headers, &header)
		}
	}
	return headers, nil
}

// GetLine returns a BOM line by id
func (s *Store) GetLine(_ context.Context, tenant entities.TenantID, lineID string) (*entities.BOMLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	index, exists := t.lineByID[lineID]
	if !exists {
		return nil, fmt.Errorf("BOM line %s: %w", lineID, repositories.ErrNotFound)
	}
	line := t.lines[index]
	return &line, nil
}

// GetLines returns all lines of a BOM ordered by sequence
func (s *Store) GetLines(_ context.Context, tenant entities.TenantID, bomID entities.BOMID) ([]*entities.BOMLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	indexes := t.lineIndexes[bomID]
	lines := make([]*entities.BOMLine, 0, len(indexes))
	for _, index := range indexes {
		line := t.lines[index]
		lines = append(lines, &line)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Sequence < lines[j].Sequence })
	return lines, nil
}

// SaveHeader inserts or replaces a BOM header
func (s *Store) SaveHeader(_ context.Context, tenant entities.TenantID, header *entities.BOMHeader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	if index, exists := t.headerIndex[header.ID]; exists {
		t.headers[index] = *header
		return nil
	}
	t.headerIndex[header.ID] = len(t.headers)
	t.headers = append(t.headers, *header)
	return nil
}

// SaveLine inserts or replaces a BOM line
func (s *Store) SaveLine(_ context.Context, tenant entities.TenantID, line *entities.BOMLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	if _, exists := t.headerIndex[line.BOMID]; !exists {
		return fmt.Errorf("BOM %s: %w", line.BOMID, repositories.ErrNotFound)
	}
	if index, exists := t.lineByID[line.ID]; exists {
		t.lines[index] = *line
		return nil
	}
	index := len(t.lines)
	t.lines = append(t.lines, *line)
	t.lineByID[line.ID] = index
	t.lineIndexes[line.BOMID] = append(t.lineIndexes[line.BOMID], index)
	return nil
}
