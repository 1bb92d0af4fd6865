package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const watchedPrefix = "watched:"

func NewRedisClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// RedisWatchedStore 每个会话一个 set，SADD 保证并发下不丢更新
type RedisWatchedStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisWatchedStore(client *goredis.Client, ttl time.Duration) *RedisWatchedStore {
	return &RedisWatchedStore{client: client, ttl: ttl}
}

func (r *RedisWatchedStore) AddIfAbsent(ctx context.Context, sessionID string, postID uint) (int, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}

	key := watchedKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, key, strconv.FormatUint(uint64(postID), 10))
	card := pipe.SCard(ctx, key)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("add watched post: %w", err)
	}
	return int(card.Val()), nil
}

func (r *RedisWatchedStore) Members(ctx context.Context, sessionID string) ([]uint, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	values, err := r.client.SMembers(ctx, watchedKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list watched posts: %w", err)
	}

	ids := make([]uint, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func (r *RedisWatchedStore) Clear(ctx context.Context, sessionID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, watchedKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear watched posts: %w", err)
	}
	return nil
}

func watchedKey(sessionID string) string {
	return watchedPrefix + sessionID
}
