package config

import "time"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Security  SecurityConfig  `yaml:"security"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Providers ProvidersConfig `yaml:"providers"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type DatabaseConfig struct {
	Dir  string `yaml:"dir"`
	File string `yaml:"file"`
}

// SecurityConfig 安全配置：凭证加密密钥与API令牌校验
type SecurityConfig struct {
	// EncryptionKey AES密钥（16/24/32字节），用于加密存储的 access_key/secret_key
	EncryptionKey string     `yaml:"encryption_key"`
	Auth          AuthConfig `yaml:"auth"`
}

type AuthConfig struct {
	Enabled bool        `yaml:"enabled"`
	Store   StoreConfig `yaml:"store"`
}

type StoreConfig struct {
	Type   string         `yaml:"type"` // memory / redis
	Expiry time.Duration  `yaml:"expiry"`
	Redis  RedisStoreCfg  `yaml:"redis,omitempty"`
	Memory MemoryStoreCfg `yaml:"memory,omitempty"`
}

type RedisStoreCfg struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type MemoryStoreCfg struct {
	Cleanup time.Duration `yaml:"cleanup"`
}

// TelemetryConfig 遥测配置：异步事件队列参数
type TelemetryConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// ProvidersConfig 提供商全局参数（各凭证记录存于数据库，见 storage 包）
type ProvidersConfig struct {
	HTTPTimeout      time.Duration `yaml:"http_timeout"`
	TokenSafetySecs  int           `yaml:"token_safety_seconds"`
	AliyunTokenURL   string        `yaml:"aliyun_token_url,omitempty"`
	AliyunGatewayURL string        `yaml:"aliyun_gateway_url,omitempty"`
}
