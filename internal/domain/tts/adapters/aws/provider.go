// Package aws Amazon Polly语音合成适配器。
package aws

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"

	"audiopaas-server-go/internal/domain/tts"
	"audiopaas-server-go/internal/domain/tts/adapters"
	"audiopaas-server-go/internal/domain/tts/clientcache"
	"audiopaas-server-go/internal/platform/errors"
	"audiopaas-server-go/internal/platform/logging"
)

const defaultRegion = "us-east-1"

// clientValidity Polly客户端本身无令牌过期，按天滚动重建以回收连接
const clientValidity = 24 * time.Hour

// pollyAPI 便于测试替换的最小客户端面
type pollyAPI interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// Provider Amazon Polly适配器。客户端按 accessKey:region 缓存复用。
type Provider struct {
	clients *clientcache.Cache[pollyAPI]
	logger  *logging.Logger
	// newClient 可注入的客户端构造，测试用
	newClient func(accessKey, secretKey, region string) pollyAPI
}

// NewProvider 创建Polly适配器
func NewProvider(logger *logging.Logger) *Provider {
	return &Provider{
		clients:   clientcache.New[pollyAPI](),
		logger:    logger,
		newClient: newPollyClient,
	}
}

func newPollyClient(accessKey, secretKey, region string) pollyAPI {
	cfg := aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
	}
	return polly.NewFromConfig(cfg)
}

// Type 返回提供商类型
func (p *Provider) Type() tts.ProviderType {
	return tts.ProviderAWS
}

// Synthesize 调用Polly合成。带emotion扩展参数的文本先包装为SSML。
func (p *Provider) Synthesize(ctx context.Context, req tts.Request, cfg *tts.ProviderConfig) (*tts.Response, error) {
	const op = "aws.synthesize"

	region := adapters.MetadataField(cfg.Metadata, "region")
	if region == "" {
		region = defaultRegion
	}

	client, err := p.clients.GetOrCreate(cfg.AccessKey+":"+region, func() (pollyAPI, time.Duration, error) {
		return p.newClient(cfg.AccessKey, cfg.SecretKey, region), clientValidity, nil
	})
	if err != nil {
		return nil, err
	}

	text := tts.ToAwsSSML(req.Text, req.Extra)
	textType := types.TextTypeText
	if strings.Contains(text, "<speak>") {
		textType = types.TextTypeSsml
	}

	input := &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		TextType:     textType,
		OutputFormat: mapFormat(req.Format),
	}
	if req.VoiceID != "" {
		input.VoiceId = types.VoiceId(req.VoiceID)
	}
	if engine := adapters.MetadataField(cfg.Metadata, "engine"); engine != "" {
		input.Engine = types.Engine(engine)
	}

	out, err := client.SynthesizeSpeech(ctx, input)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "polly synthesis failed", err)
	}

	p.logger.DebugTag("TTS", "Polly合成成功 voice=%s region=%s", req.VoiceID, region)
	// Polly流式返回，长度未知
	return &tts.Response{
		Audio:         out.AudioStream,
		Format:        req.Format,
		ContentLength: 0,
	}, nil
}

// mapFormat Polly仅接受 mp3/ogg_vorbis/pcm，其余回落mp3
func mapFormat(f tts.AudioFormat) types.OutputFormat {
	switch f {
	case tts.FormatPCM:
		return types.OutputFormatPcm
	case tts.FormatOpus:
		return types.OutputFormatOggVorbis
	default:
		return types.OutputFormatMp3
	}
}
