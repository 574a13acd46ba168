package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis holds the table-occupancy fast path. A table lock lives for the
// whole visit, keyed by the owning session, so a second Open on the
// same table fails before ever hitting the database. The open-session
// row in the database stays authoritative.
type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

// getTableLockDuration returns the lock TTL. The default is generous
// because a tab can legitimately stay open for hours; the TTL only
// protects against a crashed service never releasing the key.
func (r *Redis) getTableLockDuration() time.Duration {
	defaultDuration := 12 * time.Hour

	ttlStr := os.Getenv("TABLE_LOCK_TTL_HOURS")
	if ttlStr == "" {
		return defaultDuration
	}

	ttlHours, err := strconv.Atoi(ttlStr)
	if err != nil {
		return defaultDuration
	}
	return time.Duration(ttlHours) * time.Hour
}

// LockTable claims a table for a session. Returns false when another
// session already holds it.
func (r *Redis) LockTable(tableID, sessionID string) (bool, error) {
	key := "table_lock:" + tableID
	ok, err := r.Client.SetNX(context.Background(), key, sessionID, r.getTableLockDuration()).Result()
	return ok, err
}

// UnlockTable releases a table, but only if the given session holds it.
func (r *Redis) UnlockTable(tableID, sessionID string) error {
	ctx := context.Background()
	key := fmt.Sprintf("table_lock:%s", tableID)

	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released
	}
	if err != nil {
		return err
	}

	if val == sessionID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// CheckTableAvailability reports whether a table is currently unclaimed,
// without claiming it.
func (r *Redis) CheckTableAvailability(tableID string) (bool, error) {
	key := "table_lock:" + tableID
	_, err := r.Client.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}
