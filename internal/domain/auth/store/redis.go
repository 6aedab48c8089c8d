package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis 创建Redis令牌存储。过期由Redis的键TTL承担。
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "auth:token:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisStore{client: client, ttl: ttl, prefix: prefix}, nil
}

func (s *redisStore) key(token string) string {
	return s.prefix + token
}

func (s *redisStore) Save(ctx context.Context, info TokenInfo) error {
	if info.Token == "" {
		return fmt.Errorf("token required")
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now()
	}
	data, err := sonic.Marshal(info)
	if err != nil {
		return err
	}
	expiry := s.ttl
	if info.ExpiresAt != nil {
		expiry = time.Until(*info.ExpiresAt)
	}
	return s.client.Set(ctx, s.key(info.Token), data, expiry).Err()
}

func (s *redisStore) Validate(ctx context.Context, token string) (TokenInfo, bool, error) {
	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return TokenInfo{}, false, nil
		}
		return TokenInfo{}, false, err
	}
	var info TokenInfo
	if err := sonic.Unmarshal(raw, &info); err != nil {
		return TokenInfo{}, false, err
	}
	if info.ExpiresAt != nil && time.Now().After(*info.ExpiresAt) {
		_ = s.Remove(ctx, token)
		return TokenInfo{}, false, nil
	}
	return info, true, nil
}

func (s *redisStore) Remove(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *redisStore) List(ctx context.Context) ([]TokenInfo, error) {
	var cursor uint64
	infos := make([]TokenInfo, 0)
	pattern := s.prefix + "*"
	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			raw, err := s.client.Get(ctx, key).Bytes()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				return nil, err
			}
			var info TokenInfo
			if err := sonic.Unmarshal(raw, &info); err != nil {
				return nil, err
			}
			if info.Token == "" {
				info.Token = strings.TrimPrefix(key, s.prefix)
			}
			infos = append(infos, info)
		}
		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}
	return infos, nil
}

func (s *redisStore) CleanupExpired(context.Context) error {
	// Redis键TTL自动过期
	return nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
