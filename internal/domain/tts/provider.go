package tts

import (
	"context"
	"sync"

	"audiopaas-server-go/internal/platform/errors"
)

// Provider 提供商适配器统一接口，每种 ProviderType 一个实现
type Provider interface {
	// Type 返回该适配器服务的提供商类型
	Type() ProviderType

	// Synthesize 按给定凭证配置执行一次合成
	Synthesize(ctx context.Context, req Request, cfg *ProviderConfig) (*Response, error)
}

// Registry 类型到适配器的静态注册表。启动时构建，此后只读。
// 同一类型的重复注册会被拒绝（先注册者生效），保证选择确定性。
type Registry struct {
	mu        sync.RWMutex
	providers map[ProviderType]Provider
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[ProviderType]Provider),
	}
}

// Register 注册一个适配器；该类型已有适配器时返回错误
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errors.New(errors.KindBootstrap, "registry.register", "provider cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[p.Type()]; exists {
		return errors.New(errors.KindBootstrap, "registry.register",
			"provider already registered for type "+string(p.Type()))
	}
	r.providers[p.Type()] = p
	return nil
}

// Get 按类型取适配器
func (r *Registry) Get(t ProviderType) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[t]
	return p, ok
}

// Types 列出已注册的提供商类型
func (r *Registry) Types() []ProviderType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]ProviderType, 0, len(r.providers))
	for t := range r.providers {
		types = append(types, t)
	}
	return types
}
