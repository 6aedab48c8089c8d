package config

import "time"

// Default returns the baseline configuration applied before any file or
// environment overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "logs",
			File:  "server.log",
		},
		Database: DatabaseConfig{
			Dir:  "data",
			File: "audiopaas.db",
		},
		Security: SecurityConfig{
			Auth: AuthConfig{
				Enabled: false,
				Store: StoreConfig{
					Type:   "memory",
					Expiry: 24 * time.Hour,
					Memory: MemoryStoreCfg{Cleanup: 10 * time.Minute},
				},
			},
		},
		Telemetry: TelemetryConfig{
			Workers:   4,
			QueueSize: 1000,
		},
		Providers: ProvidersConfig{
			HTTPTimeout:      30 * time.Second,
			TokenSafetySecs:  60,
			AliyunTokenURL:   "https://nls-meta.cn-shanghai.aliyuncs.com/",
			AliyunGatewayURL: "https://nls-gateway-cn-shanghai.aliyuncs.com/stream/v1/tts",
		},
	}
}
