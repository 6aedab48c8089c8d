package tts

import (
	"io"
	"strings"
)

// ProviderType 后端提供商类型（封闭枚举）
type ProviderType string

const (
	ProviderAliyun          ProviderType = "ALIYUN"
	ProviderAliyunCosyVoice ProviderType = "ALIYUN_COSYVOICE"
	ProviderAWS             ProviderType = "AWS"
	ProviderTencent         ProviderType = "TENCENT"
	ProviderVibeVoice       ProviderType = "VIBEVOICE"
	ProviderQwen            ProviderType = "QWEN"
)

// ProviderTypes 返回全部提供商类型，声明顺序
func ProviderTypes() []ProviderType {
	return []ProviderType{
		ProviderAliyun,
		ProviderAliyunCosyVoice,
		ProviderAWS,
		ProviderTencent,
		ProviderVibeVoice,
		ProviderQwen,
	}
}

// ParseProviderType 大小写不敏感地解析提供商类型；不认识的名称返回 false。
func ParseProviderType(s string) (ProviderType, bool) {
	switch ProviderType(strings.ToUpper(s)) {
	case ProviderAliyun:
		return ProviderAliyun, true
	case ProviderAliyunCosyVoice:
		return ProviderAliyunCosyVoice, true
	case ProviderAWS:
		return ProviderAWS, true
	case ProviderTencent:
		return ProviderTencent, true
	case ProviderVibeVoice:
		return ProviderVibeVoice, true
	case ProviderQwen:
		return ProviderQwen, true
	}
	return "", false
}

// AudioFormat 输出音频容器/编码
type AudioFormat string

const (
	FormatMP3  AudioFormat = "mp3"
	FormatOpus AudioFormat = "opus"
	FormatAAC  AudioFormat = "aac"
	FormatFLAC AudioFormat = "flac"
	FormatWAV  AudioFormat = "wav"
	FormatPCM  AudioFormat = "pcm"
)

// contentTypes 由本核心持有的固定MIME映射表，HTTP层据此设置响应头
var contentTypes = map[AudioFormat]string{
	FormatMP3:  "audio/mpeg",
	FormatOpus: "audio/opus",
	FormatAAC:  "audio/aac",
	FormatFLAC: "audio/flac",
	FormatWAV:  "audio/wav",
	FormatPCM:  "audio/pcm",
}

// ContentType 返回该格式的MIME类型
func (f AudioFormat) ContentType() string {
	if ct, ok := contentTypes[f]; ok {
		return ct
	}
	return contentTypes[FormatMP3]
}

// ParseAudioFormat 解析格式名，未知值回落到MP3
func ParseAudioFormat(s string) AudioFormat {
	switch strings.ToLower(s) {
	case "opus":
		return FormatOpus
	case "aac":
		return FormatAAC
	case "flac":
		return FormatFLAC
	case "wav":
		return FormatWAV
	case "pcm":
		return FormatPCM
	default:
		return FormatMP3
	}
}

// VoiceGender 音色性别
type VoiceGender string

const (
	GenderFemale  VoiceGender = "FEMALE"
	GenderMale    VoiceGender = "MALE"
	GenderNeutral VoiceGender = "NEUTRAL"
)

// Request 单次合成请求
type Request struct {
	Text    string
	VoiceID string
	// Model 可选提示，亦可作为显式提供商覆盖（如 "aws"）
	Model  string
	Speed  float32
	Format AudioFormat
	Stream bool
	// Extra 提供商专属调参（emotion、pitch、volume等）
	Extra map[string]interface{}
}

// Response 合成结果。Audio 的所有权转移给调用方，由调用方读尽并关闭。
type Response struct {
	Audio  io.ReadCloser
	Format AudioFormat
	// ContentLength 小于等于0表示长度未知（可能为流式响应）
	ContentLength int64
}

// ContentType 返回响应音频的MIME类型
func (r *Response) ContentType() string {
	return r.Format.ContentType()
}

// ProviderConfig 某一提供商类型的具名凭证端点记录（由管理层维护，本核心只读）
type ProviderConfig struct {
	ID        string
	Name      string
	Type      ProviderType
	BaseURL   string
	AccessKey string
	SecretKey string
	// Metadata JSON字符串，承载 region/appKey 等提供商专属信息
	Metadata string
	IsActive bool
}

// VoiceDefinition 对外音色ID到 (提供商, 原生音色ID) 的映射记录
type VoiceDefinition struct {
	ID            string
	Type          ProviderType
	NativeVoiceID string
	DisplayName   string
	Gender        VoiceGender
	Styles        []string
}

// ConfigSource 配置存储的只读查询端口
type ConfigSource interface {
	// FindActiveConfig 返回该类型的首个启用配置；无则返回 (nil, nil)
	FindActiveConfig(providerType ProviderType) (*ProviderConfig, error)
}

// VoiceSource 音色映射表的只读查询端口
type VoiceSource interface {
	// FindVoiceDefinition 按对外ID查找映射；无则返回 (nil, nil)
	FindVoiceDefinition(voiceID string) (*VoiceDefinition, error)
}
