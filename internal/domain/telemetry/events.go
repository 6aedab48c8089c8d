package telemetry

import "time"

// 事件主题定义
const (
	TopicProviderRequest = "provider:request"
)

// OutcomeEvent 每次分发尝试产生一条结果事件，异步消费，不在响应路径上
type OutcomeEvent struct {
	ProviderName string    `json:"provider_name"`
	Success      bool      `json:"success"`
	LatencyMs    int64     `json:"latency_ms"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Sink 结果事件的发布端口。实现必须尽力而为：不阻塞、不向调用方抛错。
type Sink interface {
	Emit(event OutcomeEvent)
}

// NopSink 丢弃全部事件，用于测试与禁用遥测的场景
type NopSink struct{}

func (NopSink) Emit(OutcomeEvent) {}
