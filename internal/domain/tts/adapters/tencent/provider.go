// Package tencent 腾讯云语音合成适配器。
//
// 腾讯云没有可用的Go语音SDK依赖，这里直接实现TC3-HMAC-SHA256签名
// 调用 TextToVoice 接口，响应中的Base64音频解码后返回。
package tencent

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"audiopaas-server-go/internal/domain/tts"
	"audiopaas-server-go/internal/domain/tts/adapters"
	"audiopaas-server-go/internal/platform/errors"
	"audiopaas-server-go/internal/platform/logging"
)

const (
	defaultEndpoint = "https://tts.tencentcloudapi.com"
	defaultRegion   = "ap-shanghai"
	apiAction       = "TextToVoice"
	apiVersion      = "2019-08-23"
	apiService      = "tts"

	// defaultVoiceType 音色无法解析为数字时回落的默认女声
	defaultVoiceType = 101001
)

// Provider 腾讯云TTS适配器
type Provider struct {
	http   *http.Client
	logger *logging.Logger
	// now 可注入的时钟，签名测试用
	now func() time.Time
}

// NewProvider 创建腾讯云适配器
func NewProvider(httpClient *http.Client, logger *logging.Logger) *Provider {
	if httpClient == nil {
		httpClient = adapters.NewHTTPClient(0)
	}
	return &Provider{http: httpClient, logger: logger, now: time.Now}
}

// Type 返回提供商类型
func (p *Provider) Type() tts.ProviderType {
	return tts.ProviderTencent
}

type textToVoiceRequest struct {
	Text      string  `json:"Text"`
	SessionID string  `json:"SessionId"`
	ModelType int64   `json:"ModelType"`
	VoiceType int64   `json:"VoiceType"`
	Codec     string  `json:"Codec"`
	Volume    float64 `json:"Volume,omitempty"`
	Speed     float64 `json:"Speed,omitempty"`
	ProjectID int64   `json:"ProjectId,omitempty"`
}

type textToVoiceResponse struct {
	Response struct {
		Audio     string `json:"Audio"`
		SessionID string `json:"SessionId"`
		RequestID string `json:"RequestId"`
		Error     *struct {
			Code    string `json:"Code"`
			Message string `json:"Message"`
		} `json:"Error"`
	} `json:"Response"`
}

// Synthesize 调用TextToVoice接口合成
func (p *Provider) Synthesize(ctx context.Context, req tts.Request, cfg *tts.ProviderConfig) (*tts.Response, error) {
	const op = "tencent.synthesize"

	region := adapters.MetadataField(cfg.Metadata, "region")
	if region == "" {
		region = defaultRegion
	}
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	voiceType := int64(defaultVoiceType)
	if n, err := strconv.ParseInt(req.VoiceID, 10, 64); err == nil {
		voiceType = n
	} else {
		p.logger.WarnTag("TTS", "腾讯云音色ID须为数字，收到 %q，回落默认音色 %d", req.VoiceID, defaultVoiceType)
	}

	apiReq := textToVoiceRequest{
		Text:      req.Text,
		SessionID: uuid.New().String(),
		ModelType: 1,
		VoiceType: voiceType,
		Codec:     mapCodec(req.Format),
	}
	if req.Extra != nil {
		if v, ok := req.Extra["volume"]; ok {
			apiReq.Volume = float64(adapters.ToInt(v))
		}
		if v, ok := req.Extra["speed"]; ok {
			apiReq.Speed = float64(adapters.ToInt(v))
		}
		if v, ok := req.Extra["projectId"]; ok {
			apiReq.ProjectID = int64(adapters.ToInt(v))
		}
	}

	payload, err := sonic.Marshal(apiReq)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "encode request failed", err)
	}

	host := strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	now := p.now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "build request failed", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Host", host)
	httpReq.Header.Set("X-TC-Action", apiAction)
	httpReq.Header.Set("X-TC-Version", apiVersion)
	httpReq.Header.Set("X-TC-Region", region)
	httpReq.Header.Set("X-TC-Timestamp", strconv.FormatInt(now.Unix(), 10))
	httpReq.Header.Set("Authorization", signTC3(cfg.AccessKey, cfg.SecretKey, host, payload, now))

	httpResp, err := p.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "request failed", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "read response failed", err)
	}

	var apiResp textToVoiceResponse
	if err := sonic.Unmarshal(body, &apiResp); err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "decode response failed", err)
	}
	if apiResp.Response.Error != nil {
		return nil, errors.New(errors.KindProvider, op,
			"tencent tts failed: "+apiResp.Response.Error.Code+": "+apiResp.Response.Error.Message)
	}
	if apiResp.Response.Audio == "" {
		return nil, errors.New(errors.KindProvider, op, "tencent tts returned empty audio")
	}

	audio, err := base64.StdEncoding.DecodeString(apiResp.Response.Audio)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "decode audio failed", err)
	}

	p.logger.DebugTag("TTS", "腾讯云合成成功 voice=%d bytes=%d request_id=%s",
		voiceType, len(audio), apiResp.Response.RequestID)
	return &tts.Response{
		Audio:         io.NopCloser(bytes.NewReader(audio)),
		Format:        req.Format,
		ContentLength: int64(len(audio)),
	}, nil
}

// mapCodec 仅支持 wav/pcm/mp3，其余回落mp3
func mapCodec(f tts.AudioFormat) string {
	switch f {
	case tts.FormatWAV:
		return "wav"
	case tts.FormatPCM:
		return "pcm"
	default:
		return "mp3"
	}
}

// signTC3 腾讯云TC3-HMAC-SHA256签名
func signTC3(secretID, secretKey, host string, payload []byte, now time.Time) string {
	date := now.UTC().Format("2006-01-02")

	// 1. 规范请求串
	hashedPayload := sha256Hex(payload)
	canonicalRequest := strings.Join([]string{
		http.MethodPost,
		"/",
		"",
		"content-type:application/json\nhost:" + host + "\n",
		"content-type;host",
		hashedPayload,
	}, "\n")

	// 2. 待签字符串
	credentialScope := date + "/" + apiService + "/tc3_request"
	stringToSign := strings.Join([]string{
		"TC3-HMAC-SHA256",
		strconv.FormatInt(now.Unix(), 10),
		credentialScope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	// 3. 派生签名密钥并计算签名
	secretDate := hmacSHA256([]byte("TC3"+secretKey), date)
	secretService := hmacSHA256(secretDate, apiService)
	secretSigning := hmacSHA256(secretService, "tc3_request")
	signature := hex.EncodeToString(hmacSHA256(secretSigning, stringToSign))

	return fmt.Sprintf("TC3-HMAC-SHA256 Credential=%s/%s, SignedHeaders=content-type;host, Signature=%s",
		secretID, credentialScope, signature)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
