// Package selfhosted 自托管语音后端适配器（VibeVoice与Qwen）。
// 两者共用简单的JSON进、音频字节出协议，仅路径与字段名不同。
package selfhosted

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"audiopaas-server-go/internal/domain/tts"
	"audiopaas-server-go/internal/domain/tts/adapters"
	"audiopaas-server-go/internal/platform/errors"
	"audiopaas-server-go/internal/platform/logging"
)

// VibeVoiceProvider 自托管VibeVoice适配器
type VibeVoiceProvider struct {
	http   *http.Client
	logger *logging.Logger
}

// NewVibeVoiceProvider 创建VibeVoice适配器
func NewVibeVoiceProvider(httpClient *http.Client, logger *logging.Logger) *VibeVoiceProvider {
	if httpClient == nil {
		httpClient = adapters.NewHTTPClient(0)
	}
	return &VibeVoiceProvider{http: httpClient, logger: logger}
}

// Type 返回提供商类型
func (p *VibeVoiceProvider) Type() tts.ProviderType {
	return tts.ProviderVibeVoice
}

// Synthesize POST {base_url}/tts，返回WAV音频字节
func (p *VibeVoiceProvider) Synthesize(ctx context.Context, req tts.Request, cfg *tts.ProviderConfig) (*tts.Response, error) {
	payload := map[string]interface{}{
		"text":     req.Text,
		"voice_id": req.VoiceID,
	}
	return postAudio(ctx, p.http, p.logger, "vibevoice.synthesize", cfg, cfg.BaseURL+"/tts", payload)
}

// QwenProvider 自托管Qwen语音后端适配器
type QwenProvider struct {
	http   *http.Client
	logger *logging.Logger
}

// NewQwenProvider 创建Qwen适配器
func NewQwenProvider(httpClient *http.Client, logger *logging.Logger) *QwenProvider {
	if httpClient == nil {
		httpClient = adapters.NewHTTPClient(0)
	}
	return &QwenProvider{http: httpClient, logger: logger}
}

// Type 返回提供商类型
func (p *QwenProvider) Type() tts.ProviderType {
	return tts.ProviderQwen
}

// Synthesize POST {base_url}/api/tts，返回WAV音频字节
func (p *QwenProvider) Synthesize(ctx context.Context, req tts.Request, cfg *tts.ProviderConfig) (*tts.Response, error) {
	payload := map[string]interface{}{
		"input": req.Text,
		"voice": req.VoiceID,
	}
	return postAudio(ctx, p.http, p.logger, "qwen.synthesize", cfg, cfg.BaseURL+"/api/tts", payload)
}

// postAudio 共用的自托管后端调用：JSON请求，可选Bearer鉴权，音频字节响应。
// 空响应体视为失败。
func postAudio(ctx context.Context, client *http.Client, logger *logging.Logger,
	op string, cfg *tts.ProviderConfig, url string, payload map[string]interface{}) (*tts.Response, error) {

	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "encode request failed", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "build request failed", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if cfg.AccessKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+cfg.AccessKey)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "request failed", err)
	}
	defer httpResp.Body.Close()

	audio, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "read response failed", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.KindProvider, op,
			"backend returned status "+httpResp.Status+": "+truncate(string(audio), 200))
	}
	if len(audio) == 0 {
		return nil, errors.New(errors.KindProvider, op, "empty response from provider")
	}

	logger.DebugTag("TTS", "自托管后端合成成功 url=%s bytes=%d", url, len(audio))
	return &tts.Response{
		Audio:         io.NopCloser(bytes.NewReader(audio)),
		Format:        tts.FormatWAV,
		ContentLength: int64(len(audio)),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
