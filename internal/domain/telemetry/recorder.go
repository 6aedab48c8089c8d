package telemetry

import (
	"audiopaas-server-go/internal/platform/logging"
)

// RequestLogStore 结果事件的持久化端口（storage包实现）
type RequestLogStore interface {
	SaveRequestLog(event OutcomeEvent) error
}

// ProviderStats 单个提供商的聚合统计
type ProviderStats struct {
	ProviderName  string  `json:"provider_name"`
	TotalRequests int64   `json:"total_requests"`
	SuccessCount  int64   `json:"success_count"`
	FailureCount  int64   `json:"failure_count"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
	SuccessRate   float64 `json:"success_rate"`
}

// StatsSource 聚合统计的查询端口
type StatsSource interface {
	ProviderStatistics() ([]ProviderStats, error)
}

// Recorder 订阅结果事件并落库。持久化失败只记日志，绝不影响请求方。
type Recorder struct {
	store  RequestLogStore
	logger *logging.Logger
}

// NewRecorder 创建落库订阅者并挂到发射器上
func NewRecorder(emitter *Emitter, store RequestLogStore, logger *logging.Logger) (*Recorder, error) {
	r := &Recorder{store: store, logger: logger}
	if err := emitter.Subscribe(r.handle); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Recorder) handle(event OutcomeEvent) {
	if err := r.store.SaveRequestLog(event); err != nil {
		r.logger.ErrorTag("遥测", "请求日志落库失败 provider=%s: %v", event.ProviderName, err)
	}
}
