// Package auth API访问令牌的签发与校验。
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"audiopaas-server-go/internal/domain/auth/store"
	"audiopaas-server-go/internal/platform/errors"
	"audiopaas-server-go/internal/platform/logging"
)

const (
	defaultCleanupInterval = 10 * time.Minute
	minCleanupInterval     = 30 * time.Second
)

// TokenInfo 对外复用存储层的令牌记录
type TokenInfo = store.TokenInfo

// Options Manager的构造依赖
type Options struct {
	Store           store.Store
	Logger          *logging.Logger
	TokenTTL        time.Duration
	CleanupInterval time.Duration
}

// Manager 令牌管理器。签发的令牌即凭证本身，不含用户体系。
type Manager struct {
	store    store.Store
	logger   *logging.Logger
	tokenTTL time.Duration

	cleanupStop chan struct{}
	cleanupOnce sync.Once
}

// NewManager 创建令牌管理器并启动后台清理
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New(errors.KindBootstrap, "auth.manager", "auth manager requires a store")
	}
	if opts.Logger == nil {
		return nil, errors.New(errors.KindBootstrap, "auth.manager", "auth manager requires a logger")
	}

	tokenTTL := opts.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	cleanupInterval := opts.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	} else if cleanupInterval < minCleanupInterval {
		cleanupInterval = minCleanupInterval
	}

	m := &Manager{
		store:       opts.Store,
		logger:      opts.Logger,
		tokenTTL:    tokenTTL,
		cleanupStop: make(chan struct{}),
	}
	go m.runCleanup(cleanupInterval)
	return m, nil
}

func (m *Manager) runCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := m.store.CleanupExpired(context.Background()); err != nil {
				m.logger.WarnTag("认证", "令牌清理失败: %v", err)
			}
		case <-m.cleanupStop:
			return
		}
	}
}

// IssueToken 为命名调用方签发新令牌
func (m *Manager) IssueToken(ctx context.Context, name string) (TokenInfo, error) {
	now := time.Now()
	expiresAt := now.Add(m.tokenTTL)
	info := TokenInfo{
		Token:     "ap-" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Name:      name,
		CreatedAt: now,
		ExpiresAt: &expiresAt,
	}
	if err := m.store.Save(ctx, info); err != nil {
		return TokenInfo{}, errors.Wrap(errors.KindDomain, "auth.issue", "failed to persist token", err)
	}
	m.logger.InfoTag("认证", "签发令牌 name=%s", name)
	return info, nil
}

// Validate 校验令牌有效性
func (m *Manager) Validate(ctx context.Context, token string) (TokenInfo, bool, error) {
	if token == "" {
		return TokenInfo{}, false, nil
	}
	return m.store.Validate(ctx, token)
}

// Revoke 吊销令牌
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if err := m.store.Remove(ctx, token); err != nil {
		return errors.Wrap(errors.KindDomain, "auth.revoke", "failed to remove token", err)
	}
	m.logger.InfoTag("认证", "吊销令牌")
	return nil
}

// List 列出当前有效令牌
func (m *Manager) List(ctx context.Context) ([]TokenInfo, error) {
	return m.store.List(ctx)
}

// Close 停止后台清理并关闭存储
func (m *Manager) Close() error {
	m.cleanupOnce.Do(func() {
		close(m.cleanupStop)
	})
	return m.store.Close(context.Background())
}
