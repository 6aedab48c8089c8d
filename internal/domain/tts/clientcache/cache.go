// Package clientcache 缓存按凭证索引的后端客户端句柄。
//
// 多数云端语音协议需要一个创建昂贵（鉴权往返）但可在有效期内复用的
// 客户端/令牌会话。本包把该模式做成通用组件：各适配器注入各自的工厂，
// 共享同一套过期与并发刷新约束。
package clientcache

import (
	"sync"
	"time"

	"audiopaas-server-go/internal/platform/errors"
)

// DefaultSafetyMargin 从真实过期时间中扣除的缓冲，强制提前刷新，
// 避免在途请求撞上刚好过期的令牌。
const DefaultSafetyMargin = 60 * time.Second

// Factory 执行真正的鉴权往返。返回句柄与其有效时长。
type Factory[T any] func() (handle T, validity time.Duration, err error)

type entry[T any] struct {
	handle T
	expiry time.Time
}

// Cache 凭证键 -> 带过期的客户端句柄。
// 快路径为共享读锁查询；仅过期/缺失时进入粗粒度互斥的刷新路径，
// 刷新路径内二次检查，保证同一键任一时刻至多一个工厂调用在途。
type Cache[T any] struct {
	mu           sync.RWMutex
	entries      map[string]entry[T]
	safetyMargin time.Duration
	// now 可注入的时钟，测试用
	now func() time.Time
	// closer 替换过期句柄前的尽力关闭回调，失败忽略
	closer func(T)
}

// Option 配置缓存
type Option[T any] func(*Cache[T])

// WithSafetyMargin 覆盖默认刷新缓冲
func WithSafetyMargin[T any](d time.Duration) Option[T] {
	return func(c *Cache[T]) { c.safetyMargin = d }
}

// WithClock 注入时钟（测试用）
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *Cache[T]) { c.now = now }
}

// WithCloser 注册被替换句柄的关闭回调
func WithCloser[T any](closer func(T)) Option[T] {
	return func(c *Cache[T]) { c.closer = closer }
}

// New 创建客户端缓存
func New[T any](opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		entries:      make(map[string]entry[T]),
		safetyMargin: DefaultSafetyMargin,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreate 返回该凭证键下的有效句柄，必要时调用工厂重建。
// 工厂失败不缓存任何条目，错误包装为 KindClientCreation 返回。
func (c *Cache[T]) GetOrCreate(key string, factory Factory[T]) (T, error) {
	// 快路径：共享读锁，绝大多数调用到此为止
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiry) {
		return e.handle, nil
	}

	// 慢路径：独占锁下二次检查，等待期间可能已有人刷新过
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok = c.entries[key]
	if ok && c.now().Before(e.expiry) {
		return e.handle, nil
	}

	// 尽力关停被替换的旧句柄，失败不阻塞新句柄的获取
	if ok && c.closer != nil {
		func() {
			defer func() { _ = recover() }()
			c.closer(e.handle)
		}()
	}

	handle, validity, err := factory()
	if err != nil {
		delete(c.entries, key)
		var zero T
		return zero, errors.Wrap(errors.KindClientCreation, "clientcache.create",
			"failed to create client for credential key", err)
	}

	expiry := c.now().Add(validity - c.safetyMargin)
	c.entries[key] = entry[T]{handle: handle, expiry: expiry}
	return handle, nil
}

// Invalidate 主动失效某个凭证键的缓存条目（凭证被轮换/删除时使用）
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && c.closer != nil {
		func() {
			defer func() { _ = recover() }()
			c.closer(e.handle)
		}()
	}
	delete(c.entries, key)
}

// Len 当前缓存条目数（含已过期未清理的条目）
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
