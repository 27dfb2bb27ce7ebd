package csv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

// Scenario file names inside a scenario directory. Work centers and routings
// are optional.
const (
	ItemsFile       = "items.csv"
	BOMsFile        = "boms.csv"
	BOMLinesFile    = "bom_lines.csv"
	WorkCentersFile = "work_centers.csv"
	RoutingsFile    = "routings.csv"
)

// Scenario is the master data of one scenario directory
type Scenario struct {
	Items       []*entities.Item
	Headers     []*entities.BOMHeader
	Lines       []*entities.BOMLine
	WorkCenters []*entities.WorkCenter
	Routing     []*entities.RoutingOperation
}

// Sink is the storage a scenario is seeded into
type Sink interface {
	repositories.ItemRepository
	repositories.BOMRepository
	repositories.RoutingRepository
}

// LoadScenario reads every scenario file found in dir
func (l *Loader) LoadScenario(dir string) (*Scenario, error) {
	var (
		s   Scenario
		err error
	)

	if s.Items, err = l.LoadItems(filepath.Join(dir, ItemsFile)); err != nil {
		return nil, fmt.Errorf("error loading items: %w", err)
	}
	if s.Headers, err = l.LoadBOMHeaders(filepath.Join(dir, BOMsFile)); err != nil {
		return nil, fmt.Errorf("error loading BOMs: %w", err)
	}
	if s.Lines, err = l.LoadBOMLines(filepath.Join(dir, BOMLinesFile)); err != nil {
		return nil, fmt.Errorf("error loading BOM lines: %w", err)
	}

	if path := filepath.Join(dir, WorkCentersFile); exists(path) {
		if s.WorkCenters, err = l.LoadWorkCenters(path); err != nil {
			return nil, fmt.Errorf("error loading work centers: %w", err)
		}
	}
	if path := filepath.Join(dir, RoutingsFile); exists(path) {
		if s.Routing, err = l.LoadRouting(path); err != nil {
			return nil, fmt.Errorf("error loading routings: %w", err)
		}
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// validate checks that every reference in the scenario resolves
func (s *Scenario) validate() error {
	items := make(map[entities.ItemID]bool, len(s.Items))
	for _, item := range s.Items {
		items[item.ID] = true
	}
	boms := make(map[entities.BOMID]bool, len(s.Headers))
	for _, h := range s.Headers {
		if !items[h.ItemID] {
			return fmt.Errorf("BOM %s produces unknown item %s", h.ID, h.ItemID)
		}
		boms[h.ID] = true
	}
	centers := make(map[entities.WorkCenterID]bool, len(s.WorkCenters))
	for _, wc := range s.WorkCenters {
		centers[wc.ID] = true
	}

	var errs []error
	for _, line := range s.Lines {
		if !boms[line.BOMID] {
			errs = append(errs, fmt.Errorf("line %d references unknown BOM %s", line.Sequence, line.BOMID))
		}
		if !items[line.ComponentItemID] {
			errs = append(errs, fmt.Errorf("BOM %s line %d references unknown item %s", line.BOMID, line.Sequence, line.ComponentItemID))
		}
	}
	for _, op := range s.Routing {
		if !boms[op.BOMID] {
			errs = append(errs, fmt.Errorf("routing %d references unknown BOM %s", op.Sequence, op.BOMID))
		}
		if !centers[op.WorkCenterID] {
			errs = append(errs, fmt.Errorf("BOM %s routing %d references unknown work center %s", op.BOMID, op.Sequence, op.WorkCenterID))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("scenario consistency validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// Seed writes the scenario into sink under tenant. Items come first so BOM
// lines resolve.
func (s *Scenario) Seed(ctx context.Context, tenant entities.TenantID, sink Sink) error {
	for _, item := range s.Items {
		if err := sink.SaveItem(ctx, tenant, item); err != nil {
			return fmt.Errorf("failed to save item %s: %w", item.ID, err)
		}
	}
	for _, header := range s.Headers {
		if err := sink.SaveHeader(ctx, tenant, header); err != nil {
			return fmt.Errorf("failed to save BOM %s: %w", header.ID, err)
		}
	}
	for _, line := range s.Lines {
		if err := sink.SaveLine(ctx, tenant, line); err != nil {
			return fmt.Errorf("failed to save BOM %s line %d: %w", line.BOMID, line.Sequence, err)
		}
	}
	for _, wc := range s.WorkCenters {
		if err := sink.SaveWorkCenter(ctx, tenant, wc); err != nil {
			return fmt.Errorf("failed to save work center %s: %w", wc.ID, err)
		}
	}
	for _, op := range s.Routing {
		if err := sink.SaveRoutingOperation(ctx, tenant, op); err != nil {
			return fmt.Errorf("failed to save routing %s/%d: %w", op.BOMID, op.Sequence, err)
		}
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
