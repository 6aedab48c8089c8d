// Package aliyun 阿里云语音合成适配器：NLS语音网关（短文本）与DashScope CosyVoice。
package aliyun

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"audiopaas-server-go/internal/domain/tts"
	"audiopaas-server-go/internal/domain/tts/adapters"
	"audiopaas-server-go/internal/domain/tts/clientcache"
	"audiopaas-server-go/internal/platform/errors"
	"audiopaas-server-go/internal/platform/logging"
)

// Options 阿里云适配器参数
type Options struct {
	TokenURL   string
	GatewayURL string
	HTTPClient *http.Client
	// SafetyMargin 令牌提前刷新缓冲；零值用缓存默认值
	SafetyMargin time.Duration
}

// Provider NLS语音网关适配器。令牌按AccessKey缓存复用，
// 过期前由安全缓冲强制提前换新。
type Provider struct {
	opts   Options
	tokens *clientcache.Cache[string]
	token  *TokenClient
	logger *logging.Logger
}

// NewProvider 创建NLS网关适配器
func NewProvider(opts Options, logger *logging.Logger) *Provider {
	if opts.HTTPClient == nil {
		opts.HTTPClient = adapters.NewHTTPClient(0)
	}
	cacheOpts := []clientcache.Option[string]{}
	if opts.SafetyMargin > 0 {
		cacheOpts = append(cacheOpts, clientcache.WithSafetyMargin[string](opts.SafetyMargin))
	}
	return &Provider{
		opts:   opts,
		tokens: clientcache.New(cacheOpts...),
		token:  NewTokenClient(opts.TokenURL, opts.HTTPClient),
		logger: logger,
	}
}

// Type 返回提供商类型
func (p *Provider) Type() tts.ProviderType {
	return tts.ProviderAliyun
}

// Synthesize 调用语音网关合成。网关返回audio/*即为音频流；
// 返回JSON则视为网关错误。
func (p *Provider) Synthesize(ctx context.Context, req tts.Request, cfg *tts.ProviderConfig) (*tts.Response, error) {
	const op = "aliyun.synthesize"

	appKey := adapters.MetadataField(cfg.Metadata, "appKey")
	if appKey == "" {
		return nil, errors.New(errors.KindProvider, op, "aliyun appKey is missing in provider config metadata")
	}

	token, err := p.tokens.GetOrCreate(cfg.AccessKey, func() (string, time.Duration, error) {
		return p.token.CreateToken(ctx, cfg.AccessKey, cfg.SecretKey)
	})
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"appkey":      appKey,
		"token":       token,
		"text":        req.Text,
		"format":      mapGatewayFormat(req.Format),
		"sample_rate": 16000,
	}
	if req.VoiceID != "" {
		payload["voice"] = req.VoiceID
	}
	for k, v := range tts.ToAliyunParams(req.Extra) {
		payload[k] = v
	}
	if req.Extra != nil {
		if v, ok := req.Extra["volume"]; ok {
			payload["volume"] = adapters.ToInt(v)
		}
		if v, ok := req.Extra["speech_rate"]; ok {
			payload["speech_rate"] = adapters.ToInt(v)
		}
		if v, ok := req.Extra["pitch_rate"]; ok {
			payload["pitch_rate"] = adapters.ToInt(v)
		}
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "encode gateway request failed", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "build gateway request failed", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.opts.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "gateway request failed", err)
	}

	contentType := httpResp.Header.Get("Content-Type")
	if httpResp.StatusCode != http.StatusOK || !strings.HasPrefix(contentType, "audio/") {
		defer httpResp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		// 鉴权失效立即作废缓存令牌，下次请求重新换取
		if httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden {
			p.tokens.Invalidate(cfg.AccessKey)
		}
		return nil, errors.New(errors.KindProvider, op,
			"gateway returned non-audio response: status="+httpResp.Status+" body="+truncate(string(errBody), 200))
	}

	p.logger.DebugTag("TTS", "阿里云网关合成成功 voice=%s content_length=%d", req.VoiceID, httpResp.ContentLength)
	return &tts.Response{
		Audio:         httpResp.Body,
		Format:        req.Format,
		ContentLength: httpResp.ContentLength,
	}, nil
}

// mapGatewayFormat 网关仅支持 pcm/wav/mp3，其余回落mp3
func mapGatewayFormat(f tts.AudioFormat) string {
	switch f {
	case tts.FormatWAV:
		return "wav"
	case tts.FormatPCM:
		return "pcm"
	default:
		return "mp3"
	}
}
