// Package cache holds shared cache backends.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/bom"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

const treeKeyPrefix = "bomtree:"

// invalidateTreesScript deletes every tree listed in each index set, then
// the index sets themselves, in one atomic step
var invalidateTreesScript = redis.NewScript(`
local removed = 0
for _, index in ipairs(KEYS) do
	local members = redis.call('SMEMBERS', index)
	for _, key in ipairs(members) do
		removed = removed + redis.call('DEL', key)
	end
	redis.call('DEL', index)
end
return removed
`)

// RedisTreeCache shares built BOM trees between processes. Each tree is a
// JSON value; a per-BOM index set lists the quantities cached for it.
type RedisTreeCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisTreeCache creates a cache whose entries expire after ttl (0 = never)
func NewRedisTreeCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisTreeCache {
	return &RedisTreeCache{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "redis_tree_cache").Logger(),
	}
}

var _ bom.TreeCache = (*RedisTreeCache)(nil)

func treeKey(key bom.TreeCacheKey) string {
	return fmt.Sprintf("%s%s:%s:%s", treeKeyPrefix, key.Tenant, key.BOMID, key.Quantity)
}

func indexKey(tenant entities.TenantID, bomID entities.BOMID) string {
	return fmt.Sprintf("%sidx:%s:%s", treeKeyPrefix, tenant, bomID)
}

func (c *RedisTreeCache) Get(ctx context.Context, key bom.TreeCacheKey) (*entities.BOMTree, bool, error) {
	data, err := c.client.Get(ctx, treeKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached tree: %w", err)
	}

	var tree entities.BOMTree
	if err := json.Unmarshal(data, &tree); err != nil {
		// Unreadable payloads count as misses
		c.log.Warn().Err(err).Str("key", treeKey(key)).Msg("Discarding unreadable cached tree")
		return nil, false, nil
	}
	return &tree, true, nil
}

func (c *RedisTreeCache) Put(ctx context.Context, key bom.TreeCacheKey, tree *entities.BOMTree) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}

	k, idx := treeKey(key), indexKey(key.Tenant, key.BOMID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, k, data, c.ttl)
		pipe.SAdd(ctx, idx, k)
		if c.ttl > 0 {
			pipe.Expire(ctx, idx, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache tree: %w", err)
	}
	return nil
}

func (c *RedisTreeCache) Invalidate(ctx context.Context, tenant entities.TenantID, bomIDs []entities.BOMID) error {
	if len(bomIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(bomIDs))
	for _, id := range bomIDs {
		keys = append(keys, indexKey(tenant, id))
	}

	removed, err := invalidateTreesScript.Run(ctx, c.client, keys).Int()
	if err != nil {
		return fmt.Errorf("invalidate trees: %w", err)
	}
	c.log.Debug().Str("tenant", string(tenant)).Int("boms", len(bomIDs)).Int("trees", removed).Msg("Invalidated cached trees")
	return nil
}
