// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/rachel/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list finished games are pushed to for the historian.
const DefaultQueueName = "rachel_games"

// Connect opens a client and checks it with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Queue is the Redis list between game servers and the historian. Servers push finished
// games with RecordGame; the historian drains them with Pop.
type Queue struct {
	rdb  *redis.Client
	name string
}

// NewQueue wraps rdb. An empty name uses DefaultQueueName.
func NewQueue(rdb *redis.Client, name string) *Queue {
	if name == "" {
		name = DefaultQueueName
	}
	return &Queue{rdb: rdb, name: name}
}

// Name is the Redis key of the list.
func (q *Queue) Name() string { return q.name }

// RecordGame serializes the record to JSON and pushes it onto the queue.
func (q *Queue) RecordGame(ctx context.Context, rec models.GameRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal GameRecord: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.name, err)
	}
	return nil
}

// Pop blocks up to timeout for the next record. It returns nil, nil when the wait times out.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*models.GameRecord, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop %s: %w", q.name, err)
	}
	// res[0] is the list name and res[1] the payload.
	if len(res) < 2 {
		return nil, nil
	}
	var rec models.GameRecord
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return nil, fmt.Errorf("invalid game record: %w", err)
	}
	return &rec, nil
}

// Len reports how many records are waiting.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
