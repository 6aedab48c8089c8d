package store

import (
	"context"
	"time"
)

// TokenInfo API访问令牌记录
type TokenInfo struct {
	Token     string     `json:"token"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Store 令牌存储端口
type Store interface {
	Save(ctx context.Context, info TokenInfo) error
	// Validate 校验令牌；不存在或已过期返回 (TokenInfo{}, false, nil)
	Validate(ctx context.Context, token string) (TokenInfo, bool, error)
	Remove(ctx context.Context, token string) error
	List(ctx context.Context) ([]TokenInfo, error)
	CleanupExpired(ctx context.Context) error
	Close(ctx context.Context) error
}

// Config 存储选择参数
type Config struct {
	Driver string
	TTL    time.Duration
	Redis  *RedisConfig
	Memory *MemoryConfig
}

// MemoryConfig 内存存储参数
type MemoryConfig struct {
	GCInterval time.Duration
}

// RedisConfig 连接参数
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
