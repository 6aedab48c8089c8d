package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryStore struct {
	items       map[string]TokenInfo
	mutex       sync.RWMutex
	ttl         time.Duration
	cleanupFreq time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewMemory 创建内存令牌存储，后台定期清理过期条目。
func NewMemory(cfg Config) Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cleanup := 5 * time.Minute
	if cfg.Memory != nil && cfg.Memory.GCInterval > 0 {
		cleanup = cfg.Memory.GCInterval
	}
	s := &memoryStore{
		items:       make(map[string]TokenInfo),
		ttl:         ttl,
		cleanupFreq: cleanup,
		stop:        make(chan struct{}),
	}
	go s.gcLoop()
	return s
}

func (s *memoryStore) gcLoop() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.CleanupExpired(context.Background())
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore) Save(_ context.Context, info TokenInfo) error {
	if info.Token == "" {
		return fmt.Errorf("token required")
	}
	now := time.Now()
	if info.CreatedAt.IsZero() {
		info.CreatedAt = now
	}
	if info.ExpiresAt == nil && s.ttl > 0 {
		exp := now.Add(s.ttl)
		info.ExpiresAt = &exp
	}

	s.mutex.Lock()
	s.items[info.Token] = info
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Validate(_ context.Context, token string) (TokenInfo, bool, error) {
	s.mutex.RLock()
	info, ok := s.items[token]
	s.mutex.RUnlock()
	if !ok {
		return TokenInfo{}, false, nil
	}
	if info.ExpiresAt != nil && time.Now().After(*info.ExpiresAt) {
		return TokenInfo{}, false, nil
	}
	return info, true, nil
}

func (s *memoryStore) Remove(_ context.Context, token string) error {
	s.mutex.Lock()
	delete(s.items, token)
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]TokenInfo, error) {
	now := time.Now()
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	infos := make([]TokenInfo, 0, len(s.items))
	for _, item := range s.items {
		if item.ExpiresAt == nil || now.Before(*item.ExpiresAt) {
			infos = append(infos, item)
		}
	}
	return infos, nil
}

func (s *memoryStore) CleanupExpired(_ context.Context) error {
	now := time.Now()
	s.mutex.Lock()
	for token, item := range s.items {
		if item.ExpiresAt != nil && now.After(*item.ExpiresAt) {
			delete(s.items, token)
		}
	}
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Close(_ context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	return nil
}
