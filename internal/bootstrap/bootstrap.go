// Package bootstrap 负责装配整个服务：配置、日志、存储、遥测、认证、
// 路由核心与HTTP入口，并处理优雅关停。
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	domainauth "audiopaas-server-go/internal/domain/auth"
	authstore "audiopaas-server-go/internal/domain/auth/store"
	"audiopaas-server-go/internal/domain/telemetry"
	"audiopaas-server-go/internal/domain/tts"
	"audiopaas-server-go/internal/domain/tts/adapters"
	"audiopaas-server-go/internal/domain/tts/adapters/aliyun"
	"audiopaas-server-go/internal/domain/tts/adapters/aws"
	"audiopaas-server-go/internal/domain/tts/adapters/selfhosted"
	"audiopaas-server-go/internal/domain/tts/adapters/tencent"
	platformconfig "audiopaas-server-go/internal/platform/config"
	platformerrors "audiopaas-server-go/internal/platform/errors"
	platformlogging "audiopaas-server-go/internal/platform/logging"
	platformstorage "audiopaas-server-go/internal/platform/storage"
	httptransport "audiopaas-server-go/internal/transport/http"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config     *platformconfig.Config
	configPath string
	logger     *platformlogging.Logger
	store      *platformstorage.Store
	emitter    *telemetry.Emitter
	recorder   *telemetry.Recorder
	auth       *domainauth.Manager
	router     *tts.Router
}

// Run 启动整个服务生命周期：按依赖顺序初始化、拉起HTTP服务并等待关停信号。
func Run(ctx context.Context) error {
	state := &appState{}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	logger := state.logger
	defer func() {
		if state.auth != nil {
			if err := state.auth.Close(); err != nil {
				logger.ErrorTag("认证", "认证管理器未正常关闭: %v", err)
			}
		}
		if state.emitter != nil {
			state.emitter.Close()
		}
		if state.store != nil {
			if err := state.store.Close(); err != nil {
				logger.ErrorTag("存储", "数据库未正常关闭: %v", err)
			}
		}
		logger.Close()
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)
	if err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	return waitForShutdown(signalCtx, cancel, logger, group)
}

// InitGraph 返回带依赖声明的初始化步骤序列
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:open",
			Title:     "Open database",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   openStorageStep,
		},
		{
			ID:        "telemetry:init",
			Title:     "Initialise telemetry pipeline",
			DependsOn: []string{"storage:open"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initTelemetryStep,
		},
		{
			ID:        "auth:init",
			Title:     "Initialise token auth",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initAuthStep,
		},
		{
			ID:        "tts:init-router",
			Title:     "Initialise synthesis router",
			DependsOn: []string{"storage:open", "telemetry:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initRouterStep,
		},
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "execute init steps", "nil bootstrap state")
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(platformerrors.KindBootstrap, step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep))
			}
		}
		if step.Execute == nil {
			return platformerrors.New(platformerrors.KindBootstrap, step.ID, "missing execute function")
		}
		if err := step.Execute(ctx, state); err != nil {
			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().Load()
	if err != nil {
		return err
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	logger, err := platformlogging.New(platformlogging.Config{
		Level: state.config.Log.Level,
		Dir:   state.config.Log.Dir,
		File:  state.config.Log.File,
	})
	if err != nil {
		return err
	}
	state.logger = logger
	platformlogging.DefaultLogger = logger

	source := state.configPath
	if source == "" {
		source = "defaults"
	}
	logger.InfoTag("引导", "日志模块就绪 [%s] %s", state.config.Log.Level, source)
	return nil
}

func openStorageStep(_ context.Context, state *appState) error {
	store, err := platformstorage.Open(state.config, state.logger)
	if err != nil {
		return err
	}
	state.store = store
	return nil
}

func initTelemetryStep(_ context.Context, state *appState) error {
	emitter := telemetry.NewEmitter(
		state.config.Telemetry.Workers,
		state.config.Telemetry.QueueSize,
		state.logger,
	)
	recorder, err := telemetry.NewRecorder(emitter, state.store.RequestLogs, state.logger)
	if err != nil {
		emitter.Close()
		return err
	}
	state.emitter = emitter
	state.recorder = recorder
	return nil
}

func initAuthStep(_ context.Context, state *appState) error {
	authCfg := state.config.Security.Auth
	if !authCfg.Enabled {
		state.logger.InfoTag("引导", "API令牌校验未启用")
		return nil
	}

	manager, err := buildAuthManager(state.config, state.logger)
	if err != nil {
		return err
	}
	state.auth = manager
	return nil
}

func buildAuthManager(config *platformconfig.Config, logger *platformlogging.Logger) (*domainauth.Manager, error) {
	storeCfg := authstore.Config{
		Driver: strings.ToLower(strings.TrimSpace(config.Security.Auth.Store.Type)),
		TTL:    config.Security.Auth.Store.Expiry,
	}

	cleanupInterval := config.Security.Auth.Store.Memory.Cleanup
	switch storeCfg.Driver {
	case "", authstore.DriverMemory:
		storeCfg.Driver = authstore.DriverMemory
		storeCfg.Memory = &authstore.MemoryConfig{GCInterval: cleanupInterval}
	case authstore.DriverRedis:
		storeCfg.Redis = &authstore.RedisConfig{
			Addr:     config.Security.Auth.Store.Redis.Addr,
			Username: config.Security.Auth.Store.Redis.Username,
			Password: config.Security.Auth.Store.Redis.Password,
			DB:       config.Security.Auth.Store.Redis.DB,
			Prefix:   config.Security.Auth.Store.Redis.Prefix,
		}
	default:
		logger.WarnTag("认证", "不支持的存储类型 %s，已自动回退至内存模式", storeCfg.Driver)
		storeCfg.Driver = authstore.DriverMemory
		storeCfg.Memory = &authstore.MemoryConfig{GCInterval: cleanupInterval}
	}

	tokenStore, err := authstore.New(storeCfg)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindBootstrap, "auth:init", "failed to create token store", err)
	}

	return domainauth.NewManager(domainauth.Options{
		Store:           tokenStore,
		Logger:          logger,
		TokenTTL:        storeCfg.TTL,
		CleanupInterval: cleanupInterval,
	})
}

func initRouterStep(_ context.Context, state *appState) error {
	registry, err := buildRegistry(state.config, state.logger)
	if err != nil {
		return err
	}

	resolver := tts.NewResolver(state.store.Voices, state.logger)
	state.router = tts.NewRouter(registry, resolver, state.store.Providers, state.emitter, state.logger)

	state.logger.InfoTag("引导", "路由核心就绪，已注册 %d 种提供商", len(registry.Types()))
	return nil
}

// buildRegistry 注册全部提供商适配器。共享一个带超时的HTTP客户端。
func buildRegistry(config *platformconfig.Config, logger *platformlogging.Logger) (*tts.Registry, error) {
	httpClient := adapters.NewHTTPClient(config.Providers.HTTPTimeout)
	safetyMargin := time.Duration(config.Providers.TokenSafetySecs) * time.Second

	registry := tts.NewRegistry()
	providers := []tts.Provider{
		aliyun.NewProvider(aliyun.Options{
			TokenURL:     config.Providers.AliyunTokenURL,
			GatewayURL:   config.Providers.AliyunGatewayURL,
			HTTPClient:   httpClient,
			SafetyMargin: safetyMargin,
		}, logger),
		aliyun.NewCosyVoiceProvider(httpClient, logger),
		aws.NewProvider(logger),
		tencent.NewProvider(httpClient, logger),
		selfhosted.NewVibeVoiceProvider(httpClient, logger),
		selfhosted.NewQwenProvider(httpClient, logger),
	}
	for _, p := range providers {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	config := state.config
	logger := state.logger

	opts := httptransport.Options{
		Config: config,
		Logger: logger,
	}
	if state.auth != nil {
		opts.AuthMiddleware = httptransport.TokenAuthMiddleware(state.auth, logger)
	}

	router, err := httptransport.Build(opts)
	if err != nil {
		return err
	}

	httptransport.NewSpeechService(state.router, state.store.Voices, logger).Register(router.V1)
	httptransport.NewAdminService(state.store, state.auth, logger).Register(router.Secured)

	httpServer := &http.Server{
		Addr:    state.config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler: router.Engine,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "服务已启动，监听 %s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "HTTP服务关闭失败: %v", err)
			} else {
				logger.InfoTag("HTTP", "HTTP服务已优雅关闭")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "HTTP服务启动失败: %v", err)
			return err
		}
		return nil
	})
	return nil
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, logger *platformlogging.Logger, g *errgroup.Group) error {
	<-ctx.Done()
	logger.InfoTag("引导", "收到系统信号，正在进行资源清理")

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("引导", "服务关闭过程中出现错误: %v", err)
			return err
		}
		logger.InfoTag("引导", "所有服务已成功关闭")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("引导", "服务关闭超时，已强制退出")
		return errors.New("shutdown timed out")
	}
	return nil
}
