package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LJTian/GrantHub/internal/aggregator"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisStore 把整轮快照以 JSON 形式存放在单个 key 下，不设置过期时间
type RedisStore struct {
	Redis *redis.Client
	addr  string
	key   string
}

func NewRedisStore(addr, key string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnf("redis ping failed: %v", err)
	}

	return &RedisStore{Redis: rdb, addr: addr, key: key}, nil
}

func (r *RedisStore) Save(ctx context.Context, snap *aggregator.Snapshot) error {
	bs, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("storage: encode snapshot: %w", err)
	}
	if err := r.Redis.Set(ctx, r.key, bs, 0).Err(); err != nil {
		return fmt.Errorf("storage: redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Latest(ctx context.Context) (*aggregator.Snapshot, error) {
	bs, err := r.Redis.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("storage: redis get %s: %w", r.key, err)
	}

	var snap aggregator.Snapshot
	if err := json.Unmarshal(bs, &snap); err != nil {
		return nil, fmt.Errorf("storage: decode snapshot: %w", err)
	}
	return &snap, nil
}

func (r *RedisStore) Location() string {
	return fmt.Sprintf("redis://%s/%s", r.addr, r.key)
}

func (r *RedisStore) Persistent() bool {
	return true
}
