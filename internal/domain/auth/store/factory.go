package store

import "fmt"

// 支持的存储驱动
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// New 按配置创建令牌存储
func New(cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(cfg), nil
	case DriverRedis:
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unsupported auth store driver: %s", driver)
	}
}
