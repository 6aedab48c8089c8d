package storage

import (
	"gorm.io/gorm"

	"audiopaas-server-go/internal/domain/telemetry"
	"audiopaas-server-go/internal/platform/errors"
)

// RequestLogRepository 合成结果记录仓库。
// 实现遥测侧的 RequestLogStore（写入）与 StatsSource（聚合查询）。
type RequestLogRepository struct {
	db *gorm.DB
}

// SaveRequestLog 持久化一条结果事件
func (r *RequestLogRepository) SaveRequestLog(event telemetry.OutcomeEvent) error {
	record := ProviderRequestLog{
		ProviderName: event.ProviderName,
		Success:      event.Success,
		LatencyMs:    event.LatencyMs,
		ErrorMessage: event.ErrorMessage,
		CreatedAt:    event.Timestamp,
	}
	if err := r.db.Create(&record).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "storage.requestlog", "insert failed", err)
	}
	return nil
}

// ProviderStatistics 按提供商聚合请求量、成败数与平均时延
func (r *RequestLogRepository) ProviderStatistics() ([]telemetry.ProviderStats, error) {
	type row struct {
		ProviderName  string
		TotalRequests int64
		SuccessCount  int64
		AvgLatencyMs  float64
	}

	var rows []row
	err := r.db.Model(&ProviderRequestLog{}).
		Select("provider_name, COUNT(*) AS total_requests, " +
			"SUM(CASE WHEN success THEN 1 ELSE 0 END) AS success_count, " +
			"AVG(latency_ms) AS avg_latency_ms").
		Group("provider_name").
		Order("provider_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.requestlog", "statistics query failed", err)
	}

	stats := make([]telemetry.ProviderStats, 0, len(rows))
	for _, rw := range rows {
		s := telemetry.ProviderStats{
			ProviderName:  rw.ProviderName,
			TotalRequests: rw.TotalRequests,
			SuccessCount:  rw.SuccessCount,
			FailureCount:  rw.TotalRequests - rw.SuccessCount,
			AvgLatencyMs:  rw.AvgLatencyMs,
		}
		if rw.TotalRequests > 0 {
			s.SuccessRate = float64(rw.SuccessCount) / float64(rw.TotalRequests)
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// RecentFailures 最近的失败记录，排障接口用
func (r *RequestLogRepository) RecentFailures(limit int) ([]ProviderRequestLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []ProviderRequestLog
	err := r.db.Where("success = ?", false).
		Order("created_at DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.requestlog", "recent failures query failed", err)
	}
	return records, nil
}
