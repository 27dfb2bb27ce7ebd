package bom

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	fixtures "github.com/6thd/wardah-process-costing-sub007/pkg/application/services/testing"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

func newTreeService(f *fixtures.Fixture, cache TreeCache) *TreeService {
	return NewTreeService(f.Store, f.Store, cache, zerolog.Nop())
}

func TestBuildTree_AgreesWithExplosion(t *testing.T) {
	f := fixtures.BuildBicycleScenario()
	ctx := context.Background()

	tree, err := newTreeService(f, NewMemoryTreeCache(0)).BuildTree(ctx, f.Tenant, "BOM-BIKE", d("2"), false)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	flat, err := newExplosionService(f).Explode(ctx, f.Tenant, "BOM-BIKE", d("2"))
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	leafQty := make(map[entities.ItemID]decimal.Decimal)
	leafCost := make(map[entities.ItemID]decimal.Decimal)
	for _, leaf := range tree.Leaves() {
		leafQty[leaf.ItemID] = leafQty[leaf.ItemID].Add(leaf.RequiredQuantity)
		leafCost[leaf.ItemID] = leafCost[leaf.ItemID].Add(leaf.TotalCost)
	}

	if len(leafQty) != len(flat.Requirements) {
		t.Fatalf("Expected %d distinct leaf items, got %d", len(flat.Requirements), len(leafQty))
	}
	for _, req := range flat.Requirements {
		if !leafQty[req.ItemID].Equal(req.RequiredQuantity) {
			t.Errorf("%s: tree quantity %s, flat quantity %s", req.ItemID, leafQty[req.ItemID], req.RequiredQuantity)
		}
		if !leafCost[req.ItemID].Equal(req.CostContribution) {
			t.Errorf("%s: tree cost %s, flat cost %s", req.ItemID, leafCost[req.ItemID], req.CostContribution)
		}
	}

	root := tree.Node(tree.Root)
	if !root.TotalCost.Equal(flat.TotalMaterialCost) {
		t.Errorf("Expected root cost %s, got %s", flat.TotalMaterialCost, root.TotalCost)
	}
	if !root.UnitCost.Equal(d("116.45")) {
		t.Errorf("Expected root unit cost 116.45, got %s", root.UnitCost)
	}
}

func TestBuildTree_RejectsCycleUnderDraftRoot(t *testing.T) {
	f := fixtures.NewFixture()
	f.Item("A", "0", "0")
	f.Item("B", "1", "0")
	f.DraftBOM("BOM-A", "A", 1)
	f.Line("BOM-A", "B", "1", "0")
	f.Line("BOM-A", "A", "1", "0")
	ctx := context.Background()

	var treeCycle, flatCycle *entities.CircularBOMError
	_, err := newTreeService(f, NewMemoryTreeCache(0)).BuildTree(ctx, f.Tenant, "BOM-A", d("1"), false)
	if !errors.As(err, &treeCycle) {
		t.Fatalf("Expected BuildTree to fail with CircularBOMError, got %v", err)
	}
	_, err = newExplosionService(f).Explode(ctx, f.Tenant, "BOM-A", d("1"))
	if !errors.As(err, &flatCycle) {
		t.Fatalf("Expected Explode to fail with CircularBOMError, got %v", err)
	}
	if treeCycle.Error() != flatCycle.Error() {
		t.Errorf("Expected the same cycle, tree reported %v and explosion %v", treeCycle.Path, flatCycle.Path)
	}
}

func TestBuildTree_ShowsPhantomNodes(t *testing.T) {
	f := fixtures.BuildBicycleScenario()

	tree, err := newTreeService(f, NewMemoryTreeCache(0)).BuildTree(context.Background(), f.Tenant, "BOM-BIKE", d("2"), false)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}

	if len(tree.Nodes) != 11 {
		t.Fatalf("Expected 11 nodes, got %d", len(tree.Nodes))
	}

	var kit *entities.BOMTreeNode
	for i := range tree.Nodes {
		if tree.Nodes[i].ItemID == "KIT" {
			kit = &tree.Nodes[i]
		}
	}
	if kit == nil {
		t.Fatal("Expected phantom KIT node in tree")
	}
	if kit.LineType != entities.LinePhantom {
		t.Errorf("Expected KIT to be PHANTOM, got %s", kit.LineType)
	}
	if kit.IsLeaf() {
		t.Error("Phantom with a BOM should not be a leaf")
	}
	if kit.Parent != tree.Root || kit.Level != 1 {
		t.Errorf("Expected KIT under root at level 1, got parent %d level %d", kit.Parent, kit.Level)
	}
	// BOLT 8 x 0.10 + WELD 0.5 x 4
	if !kit.TotalCost.Equal(d("2.8")) {
		t.Errorf("Expected KIT cost 2.8, got %s", kit.TotalCost)
	}
	if len(kit.Children) != 2 {
		t.Errorf("Expected KIT to have 2 children, got %d", len(kit.Children))
	}
}

func TestCalculateTreeCost(t *testing.T) {
	f := fixtures.BuildBicycleScenario()
	svc := newTreeService(f, NewMemoryTreeCache(0))

	tree, err := svc.BuildTree(context.Background(), f.Tenant, "BOM-BIKE", d("2"), false)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	if cost := svc.CalculateTreeCost(tree); !cost.Equal(d("232.9")) {
		t.Errorf("Expected tree cost 232.9, got %s", cost)
	}
}

func TestSearchInTree(t *testing.T) {
	f := fixtures.BuildBicycleScenario()
	svc := newTreeService(f, NewMemoryTreeCache(0))

	tree, err := svc.BuildTree(context.Background(), f.Tenant, "BOM-BIKE", d("1"), false)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}

	tests := []struct {
		term string
		want int
	}{
		{"weld", 2},
		{"WhEeL", 1},
		{"spoke part", 1},
		{"", 11},
		{"gear", 0},
	}
	for _, tt := range tests {
		if got := svc.SearchInTree(tree, tt.term); len(got) != tt.want {
			t.Errorf("SearchInTree(%q): expected %d matches, got %d", tt.term, tt.want, len(got))
		}
	}
}

func TestBuildTree_CacheAndForceRebuild(t *testing.T) {
	f := fixtures.BuildBicycleScenario()
	ctx := context.Background()
	cache := NewMemoryTreeCache(0)
	svc := newTreeService(f, cache)

	if _, err := svc.BuildTree(ctx, f.Tenant, "BOM-BIKE", d("2"), false); err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("Expected 1 cached tree, got %d", cache.Len())
	}

	// Edit the store behind the service's back; the cached tree is served
	f.Item("PAINT", "3", "10")
	f.Line("BOM-FRAME", "PAINT", "1", "0")

	cached, err := svc.BuildTree(ctx, f.Tenant, "BOM-BIKE", d("2.00"), false)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	if len(cached.Nodes) != 11 {
		t.Errorf("Expected cached tree with 11 nodes, got %d", len(cached.Nodes))
	}

	rebuilt, err := svc.BuildTree(ctx, f.Tenant, "BOM-BIKE", d("2"), true)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	if len(rebuilt.Nodes) != 12 {
		t.Errorf("Expected rebuilt tree with 12 nodes, got %d", len(rebuilt.Nodes))
	}
}

func TestInvalidateBOM_DropsAncestors(t *testing.T) {
	f := fixtures.BuildBicycleScenario()
	ctx := context.Background()
	cache := NewMemoryTreeCache(0)
	svc := newTreeService(f, cache)

	for _, id := range []entities.BOMID{"BOM-BIKE", "BOM-FRAME", "BOM-WHEEL"} {
		if _, err := svc.BuildTree(ctx, f.Tenant, id, d("1"), false); err != nil {
			t.Fatalf("BuildTree(%s) failed: %v", id, err)
		}
	}
	if cache.Len() != 3 {
		t.Fatalf("Expected 3 cached trees, got %d", cache.Len())
	}

	if err := svc.InvalidateBOM(ctx, f.Tenant, "BOM-FRAME"); err != nil {
		t.Fatalf("InvalidateBOM failed: %v", err)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected only BOM-WHEEL to stay cached, got %d entries", cache.Len())
	}
	if _, ok, _ := cache.Get(ctx, NewTreeCacheKey(f.Tenant, "BOM-WHEEL", d("1"))); !ok {
		t.Error("Expected BOM-WHEEL tree to survive invalidation")
	}
}

func TestMemoryTreeCache_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryTreeCache(0)
	tree := &entities.BOMTree{BOMID: "BOM-A", Quantity: d("1")}

	if err := cache.Put(ctx, NewTreeCacheKey("t1", "BOM-A", d("1")), tree); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cache.Put(ctx, NewTreeCacheKey("t2", "BOM-A", d("1")), tree); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cache.Invalidate(ctx, "t1", []entities.BOMID{"BOM-A"}); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	if _, ok, _ := cache.Get(ctx, NewTreeCacheKey("t1", "BOM-A", d("1"))); ok {
		t.Error("Expected t1 entry to be invalidated")
	}
	if _, ok, _ := cache.Get(ctx, NewTreeCacheKey("t2", "BOM-A", d("1"))); !ok {
		t.Error("Expected t2 entry to survive")
	}
}
