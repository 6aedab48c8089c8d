package storage

import (
	"time"

	"gorm.io/datatypes"
)

// ProviderConfigRecord 提供商凭证配置记录。
// AccessKey/SecretKey 落库前由Codec加密，读取时解密。
type ProviderConfigRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Type      string    `gorm:"type:varchar(32);index;not null" json:"type"`
	BaseURL   string    `gorm:"type:varchar(512)" json:"base_url"`
	AccessKey string    `gorm:"type:text" json:"access_key"`
	SecretKey string    `gorm:"type:text" json:"secret_key"`
	// Metadata JSON，承载 region/appKey 等提供商专属字段
	Metadata datatypes.JSON `json:"metadata,omitempty"`
	IsActive bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// TableName 指定表名
func (ProviderConfigRecord) TableName() string {
	return "provider_configs"
}

// VoiceDefinitionRecord 对外音色ID到提供商原生音色的映射记录
type VoiceDefinitionRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	VoiceID       string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"voice_id"`
	Type          string         `gorm:"type:varchar(32);index;not null" json:"type"`
	NativeVoiceID string         `gorm:"type:varchar(255);not null" json:"native_voice_id"`
	DisplayName   string         `gorm:"type:varchar(255)" json:"display_name"`
	Gender        string         `gorm:"type:varchar(16)" json:"gender"`
	Styles        datatypes.JSON `json:"styles,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (VoiceDefinitionRecord) TableName() string {
	return "voice_definitions"
}

// ProviderRequestLog 每次合成分发的结果记录，统计接口据此聚合
type ProviderRequestLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProviderName string    `gorm:"type:varchar(255);index;not null" json:"provider_name"`
	Success      bool      `gorm:"index" json:"success"`
	LatencyMs    int64     `json:"latency_ms"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (ProviderRequestLog) TableName() string {
	return "provider_request_logs"
}
