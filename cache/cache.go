// Package cache keeps per-user room history in Redis: the last
// accessed room and a short list of recently visited rooms. This is
// convenience state, not source of truth; every operation is safe to
// lose.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient connects to Redis and verifies the connection.
func NewClient(addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

const (
	maxRecentRooms = 10
	recentRoomsTTL = 30 * 24 * time.Hour
)

// RecentRooms tracks which rooms a user visited most recently.
type RecentRooms struct {
	rdb *redis.Client
}

func NewRecentRooms(rdb *redis.Client) *RecentRooms {
	return &RecentRooms{rdb: rdb}
}

func recentKey(userID string) string {
	return fmt.Sprintf("user:%s:recentRooms", userID)
}

func lastKey(userID string) string {
	return fmt.Sprintf("user:%s:lastRoom", userID)
}

// RecordVisit marks roomID as the user's most recent room. The recent
// list is deduplicated and capped at maxRecentRooms newest-first.
func (c *RecentRooms) RecordVisit(ctx context.Context, userID, roomID string) error {
	key := recentKey(userID)
	pipe := c.rdb.TxPipeline()
	pipe.LRem(ctx, key, 0, roomID)
	pipe.LPush(ctx, key, roomID)
	pipe.LTrim(ctx, key, 0, maxRecentRooms-1)
	pipe.Expire(ctx, key, recentRoomsTTL)
	pipe.Set(ctx, lastKey(userID), roomID, recentRoomsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the user's recent room ids, newest first.
func (c *RecentRooms) List(ctx context.Context, userID string) ([]string, error) {
	return c.rdb.LRange(ctx, recentKey(userID), 0, maxRecentRooms-1).Result()
}

// LastAccessed returns the id of the room the user visited last, or ""
// when none is recorded.
func (c *RecentRooms) LastAccessed(ctx context.Context, userID string) (string, error) {
	roomID, err := c.rdb.Get(ctx, lastKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return roomID, err
}

// Forget drops a room from the user's history, e.g. after the sweeper
// reclaimed it.
func (c *RecentRooms) Forget(ctx context.Context, userID, roomID string) error {
	if err := c.rdb.LRem(ctx, recentKey(userID), 0, roomID).Err(); err != nil {
		return err
	}
	last, err := c.LastAccessed(ctx, userID)
	if err != nil {
		return err
	}
	if last == roomID {
		return c.rdb.Del(ctx, lastKey(userID)).Err()
	}
	return nil
}
