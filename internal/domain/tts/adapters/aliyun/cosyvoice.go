package aliyun

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"audiopaas-server-go/internal/domain/tts"
	"audiopaas-server-go/internal/domain/tts/adapters"
	"audiopaas-server-go/internal/platform/errors"
	"audiopaas-server-go/internal/platform/logging"
)

// DefaultCosyVoiceURL DashScope语音合成服务地址
const DefaultCosyVoiceURL = "https://dashscope.aliyuncs.com/api/v1/services/audio/tts/generation"

const (
	defaultCosyModel = "cosyvoice-v1"
	defaultCosyVoice = "longxiaochun"
)

// CosyVoiceProvider DashScope CosyVoice适配器。
// API Key取配置的SecretKey，缺失时回落metadata的apiKey字段。
type CosyVoiceProvider struct {
	http   *http.Client
	logger *logging.Logger
}

// NewCosyVoiceProvider 创建CosyVoice适配器
func NewCosyVoiceProvider(httpClient *http.Client, logger *logging.Logger) *CosyVoiceProvider {
	if httpClient == nil {
		httpClient = adapters.NewHTTPClient(0)
	}
	return &CosyVoiceProvider{http: httpClient, logger: logger}
}

// Type 返回提供商类型
func (p *CosyVoiceProvider) Type() tts.ProviderType {
	return tts.ProviderAliyunCosyVoice
}

type cosyRequest struct {
	Model      string         `json:"model"`
	Input      cosyInput      `json:"input"`
	Parameters cosyParameters `json:"parameters"`
}

type cosyInput struct {
	Text string `json:"text"`
}

type cosyParameters struct {
	Voice      string `json:"voice"`
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
	Volume     int    `json:"volume,omitempty"`
	Rate       int    `json:"rate,omitempty"`
	Pitch      int    `json:"pitch,omitempty"`
}

type cosyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Synthesize 同步调用DashScope合成，响应体即完整音频。
func (p *CosyVoiceProvider) Synthesize(ctx context.Context, req tts.Request, cfg *tts.ProviderConfig) (*tts.Response, error) {
	const op = "cosyvoice.synthesize"

	apiKey := cfg.SecretKey
	if apiKey == "" {
		apiKey = adapters.MetadataField(cfg.Metadata, "apiKey")
	}
	if apiKey == "" {
		return nil, errors.New(errors.KindProvider, op,
			"dashscope api key is missing, configure it as secret key or metadata apiKey")
	}

	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = DefaultCosyVoiceURL
	}

	model := defaultCosyModel
	sampleRate := 22050
	if req.Extra != nil {
		if m, ok := req.Extra["model"].(string); ok && m != "" {
			model = m
		}
		if v, ok := req.Extra["sample_rate"]; ok {
			if n := adapters.ToInt(v); n > 0 {
				sampleRate = n
			}
		}
	}
	voice := req.VoiceID
	if voice == "" {
		voice = defaultCosyVoice
	}

	isPCM := req.Format == tts.FormatPCM
	format := "mp3"
	if isPCM {
		format = "pcm"
	}

	body := cosyRequest{
		Model: model,
		Input: cosyInput{Text: req.Text},
		Parameters: cosyParameters{
			Voice:      voice,
			Format:     format,
			SampleRate: sampleRate,
		},
	}
	if req.Extra != nil {
		if v, ok := req.Extra["volume"]; ok {
			body.Parameters.Volume = adapters.ToInt(v)
		}
		if v, ok := req.Extra["speech_rate"]; ok {
			body.Parameters.Rate = adapters.ToInt(v)
		}
		if v, ok := req.Extra["pitch_rate"]; ok {
			body.Parameters.Pitch = adapters.ToInt(v)
		}
	}

	payload, err := sonic.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "encode dashscope request failed", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "build dashscope request failed", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("X-DashScope-Async", "disable")

	httpResp, err := p.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "dashscope request failed", err)
	}
	defer httpResp.Body.Close()

	contentType := httpResp.Header.Get("Content-Type")
	if httpResp.StatusCode != http.StatusOK || strings.Contains(contentType, "application/json") {
		errBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		var ce cosyError
		if sonic.Unmarshal(errBody, &ce) == nil && ce.Message != "" {
			return nil, errors.New(errors.KindProvider, op,
				"cosyvoice synthesis failed: "+ce.Code+": "+ce.Message)
		}
		return nil, errors.New(errors.KindProvider, op,
			"cosyvoice synthesis failed: status="+httpResp.Status+" body="+truncate(string(errBody), 200))
	}

	audio, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "read dashscope audio failed", err)
	}
	if len(audio) == 0 {
		return nil, errors.New(errors.KindProvider, op, "cosyvoice returned empty audio")
	}

	outFormat := tts.FormatMP3
	if isPCM {
		outFormat = tts.FormatPCM
	}
	p.logger.InfoTag("TTS", "CosyVoice合成完成 voice=%s bytes=%d", voice, len(audio))
	return &tts.Response{
		Audio:         io.NopCloser(bytes.NewReader(audio)),
		Format:        outFormat,
		ContentLength: int64(len(audio)),
	}, nil
}
