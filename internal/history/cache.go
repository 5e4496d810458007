package history

// The snapshot cache keeps the newest snapshot of each classroom in Redis
// so that rendering and page loads do not hit the database.  It follows the
// same degrade-gracefully rule as the rate limiter: a nil client or a
// disabled config turns every call into a miss.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/classroom-seating/internal/config"
	"github.com/iliyamo/classroom-seating/internal/model"
)

// SnapshotCache is a cache-aside store for the latest record of a class.
type SnapshotCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSnapshotCache returns nil when caching is disabled or Redis is absent;
// a nil *SnapshotCache is valid and always misses.
func NewSnapshotCache(cfg config.SnapshotCacheConfig, rdb *redis.Client) *SnapshotCache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SnapshotCache{rdb: rdb, prefix: cfg.Prefix, ttl: ttl}
}

func (c *SnapshotCache) key(classID uint64) string {
	return fmt.Sprintf("%s:latest:%d", c.prefix, classID)
}

// Get returns the cached record, or ok=false on a miss.
func (c *SnapshotCache) Get(ctx context.Context, classID uint64) (rec model.SeatingRecord, ok bool, err error) {
	if c == nil {
		return rec, false, nil
	}
	vals, err := c.rdb.HGetAll(ctx, c.key(classID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return rec, false, nil
		}
		return rec, false, err
	}
	if len(vals) == 0 {
		return rec, false, nil
	}
	var id, ms int64
	if _, err := fmt.Sscan(vals["id"], &id); err != nil {
		return rec, false, nil
	}
	if _, err := fmt.Sscan(vals["created_at_ms"], &ms); err != nil {
		return rec, false, nil
	}
	return model.SeatingRecord{
		ID:             uint64(id),
		ClassID:        classID,
		RecordName:     vals["record_name"],
		LayoutSnapshot: vals["snapshot"],
		CreatedAt:      time.UnixMilli(ms).UTC(),
	}, true, nil
}

// putIfNewer writes the record hash unless the cached entry already holds
// a higher record id.  Record ids grow with creation order, so a slow
// read-path fill can never replace a record written by a later Save.
var putIfNewer = redis.NewScript(`
	local cur = redis.call('HGET', KEYS[1], 'id')
	if cur and tonumber(cur) > tonumber(ARGV[1]) then
		return 0
	end
	redis.call('HSET', KEYS[1], 'id', ARGV[1], 'record_name', ARGV[2], 'snapshot', ARGV[3], 'created_at_ms', ARGV[4])
	redis.call('PEXPIRE', KEYS[1], ARGV[5])
	return 1
`)

// Put stores rec as the latest record of its class unless a newer record
// is already cached.  stored reports whether the entry was written.
func (c *SnapshotCache) Put(ctx context.Context, rec model.SeatingRecord) (stored bool, err error) {
	if c == nil {
		return false, nil
	}
	n, err := putIfNewer.Run(ctx, c.rdb, []string{c.key(rec.ClassID)},
		rec.ID,
		rec.RecordName,
		rec.LayoutSnapshot,
		rec.CreatedAt.UnixMilli(),
		c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Invalidate drops the cached entry for a class.
func (c *SnapshotCache) Invalidate(ctx context.Context, classID uint64) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, c.key(classID)).Err()
}
