// Package adapters 提供各提供商适配器共用的小工具。
package adapters

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
)

// MetadataField 从配置的metadata JSON中取出字符串字段；解析失败或缺失返回空串。
func MetadataField(metadataJSON, key string) string {
	if metadataJSON == "" {
		return ""
	}
	var m map[string]interface{}
	if err := sonic.UnmarshalString(metadataJSON, &m); err != nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// ToInt 宽松数值转换，调参字段可能以 float64 或字符串形式到达
func ToInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return parsed
	}
	return 0
}

// NewHTTPClient 统一构造各适配器使用的HTTP客户端
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
