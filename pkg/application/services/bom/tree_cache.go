package bom

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// TreeCacheKey identifies one built tree. Quantity is the canonical decimal
// string, so 5 and 5.00 share an entry.
type TreeCacheKey struct {
	Tenant   entities.TenantID
	BOMID    entities.BOMID
	Quantity string
}

// NewTreeCacheKey builds the key for a tree of bomID at quantity
func NewTreeCacheKey(tenant entities.TenantID, bomID entities.BOMID, quantity decimal.Decimal) TreeCacheKey {
	return TreeCacheKey{Tenant: tenant, BOMID: bomID, Quantity: quantity.String()}
}

// TreeCache stores built trees until they are explicitly invalidated
type TreeCache interface {
	Get(ctx context.Context, key TreeCacheKey) (*entities.BOMTree, bool, error)
	Put(ctx context.Context, key TreeCacheKey, tree *entities.BOMTree) error
	// Invalidate drops every quantity cached for each of bomIDs
	Invalidate(ctx context.Context, tenant entities.TenantID, bomIDs []entities.BOMID) error
}

// MemoryTreeCache is a process-local TreeCache
type MemoryTreeCache struct {
	mu         sync.RWMutex
	entries    map[TreeCacheKey]*entities.BOMTree
	maxEntries int
}

// NewMemoryTreeCache creates a cache holding at most maxEntries trees (0 = unlimited)
func NewMemoryTreeCache(maxEntries int) *MemoryTreeCache {
	return &MemoryTreeCache{
		entries:    make(map[TreeCacheKey]*entities.BOMTree),
		maxEntries: maxEntries,
	}
}

var _ TreeCache = (*MemoryTreeCache)(nil)

func (c *MemoryTreeCache) Get(_ context.Context, key TreeCacheKey) (*entities.BOMTree, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tree, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return tree.Clone(), true, nil
}

func (c *MemoryTreeCache) Put(_ context.Context, key TreeCacheKey, tree *entities.BOMTree) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = tree.Clone()
	return nil
}

func (c *MemoryTreeCache) Invalidate(_ context.Context, tenant entities.TenantID, bomIDs []entities.BOMID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	drop := make(map[entities.BOMID]bool, len(bomIDs))
	for _, id := range bomIDs {
		drop[id] = true
	}
	for key := range c.entries {
		if key.Tenant == tenant && drop[key.BOMID] {
			delete(c.entries, key)
		}
	}
	return nil
}

// Len returns the number of cached trees
func (c *MemoryTreeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
