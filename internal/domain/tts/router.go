package tts

import (
	"context"
	"time"

	"audiopaas-server-go/internal/domain/telemetry"
	"audiopaas-server-go/internal/platform/errors"
	"audiopaas-server-go/internal/platform/logging"
)

// Router 路由分发器：解析音色 -> 取启用配置 -> 选适配器 -> 调用 -> 发遥测。
// 每次分发无论成败都恰好发出一条结果事件；遥测失败只记日志，不影响调用方。
type Router struct {
	registry *Registry
	resolver *Resolver
	configs  ConfigSource
	sink     telemetry.Sink
	logger   *logging.Logger
}

// NewRouter 创建路由分发器
func NewRouter(registry *Registry, resolver *Resolver, configs ConfigSource, sink telemetry.Sink, logger *logging.Logger) *Router {
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	return &Router{
		registry: registry,
		resolver: resolver,
		configs:  configs,
		sink:     sink,
		logger:   logger,
	}
}

// Dispatch 执行一次合成分发。入参不会被修改：解析出的原生音色ID写入
// 请求副本后交给适配器。
func (r *Router) Dispatch(ctx context.Context, req Request) (*Response, error) {
	r.logger.InfoTag("路由", "收到合成请求 voice=%s", req.VoiceID)

	// 1. 音色解析
	providerType, nativeVoiceID, err := r.resolver.Resolve(req.VoiceID, req.Model)
	if err != nil {
		return nil, err
	}

	// 2. 取该类型的启用配置；没有则快速失败，不触碰适配器
	cfg, err := r.configs.FindActiveConfig(providerType)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "router.config", "active config lookup failed", err)
	}
	if cfg == nil {
		return nil, errors.New(errors.KindNoActiveConfig, "router.config",
			"no active provider configuration found for type: "+string(providerType))
	}

	// 3. 选适配器
	provider, ok := r.registry.Get(providerType)
	if !ok {
		return nil, errors.New(errors.KindNoAdapter, "router.provider",
			"no implementation found for provider type: "+string(providerType))
	}

	// 4. 以解析结果构造请求副本并调用
	resolved := req
	resolved.VoiceID = nativeVoiceID

	start := time.Now()
	resp, synthErr := provider.Synthesize(ctx, resolved, cfg)

	// 5. 无论成败恰好发一条结果事件；发射本身绝不抛出
	r.emitOutcome(cfg.Name, start, synthErr)

	if synthErr != nil {
		return nil, errors.Wrap(errors.KindProvider, "router.synthesize",
			"synthesis failed via "+cfg.Name, synthErr)
	}
	r.logger.InfoTag("路由", "合成完成 provider=%s voice=%s 耗时=%v", cfg.Name, nativeVoiceID, time.Since(start))
	return resp, nil
}

func (r *Router) emitOutcome(providerName string, start time.Time, synthErr error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorTag("遥测", "结果事件发射panic: %v", rec)
		}
	}()

	event := telemetry.OutcomeEvent{
		ProviderName: providerName,
		Success:      synthErr == nil,
		LatencyMs:    time.Since(start).Milliseconds(),
		Timestamp:    time.Now(),
	}
	if synthErr != nil {
		event.ErrorMessage = synthErr.Error()
	}
	r.sink.Emit(event)
}
