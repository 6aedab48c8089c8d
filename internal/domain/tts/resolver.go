package tts

import (
	"strings"

	"audiopaas-server-go/internal/platform/errors"
	"audiopaas-server-go/internal/platform/logging"
)

// 阿里云通用请求的默认音色：调用方只写 "aliyun" 时改写为该音色
const aliyunDefaultVoice = "xiaoyun"

// Resolver 音色解析器：把调用方音色ID解析为 (提供商类型, 原生音色ID)。
// 解析顺序固定：映射表 > 显式覆盖 > 启发式 > 默认改写。
type Resolver struct {
	voices VoiceSource
	logger *logging.Logger
}

// NewResolver 创建音色解析器
func NewResolver(voices VoiceSource, logger *logging.Logger) *Resolver {
	return &Resolver{voices: voices, logger: logger}
}

// Resolve 解析音色。modelHint 为调用方传入的model参数，可作为显式提供商覆盖。
// 无法确定提供商时返回 KindInvalidVoice 错误。
func (r *Resolver) Resolve(voiceID, modelHint string) (ProviderType, string, error) {
	// 1. 映射表命中即为权威结果，跳过全部启发式
	if r.voices != nil {
		def, err := r.voices.FindVoiceDefinition(voiceID)
		if err != nil {
			return "", "", errors.Wrap(errors.KindStorage, "resolver.lookup", "voice definition lookup failed", err)
		}
		if def != nil {
			r.logger.DebugTag("路由", "映射音色 %s -> %s/%s", voiceID, def.Type, def.NativeVoiceID)
			return def.Type, def.NativeVoiceID, nil
		}
	}

	// 2. model参数显式指定提供商（调试/直连模式）
	providerType, ok := ProviderType(""), false
	if modelHint != "" {
		providerType, ok = ParseProviderType(modelHint)
		if ok {
			r.logger.DebugTag("路由", "model参数显式指定提供商: %s", providerType)
		}
	}

	// 3. 按音色名启发式推断
	if !ok {
		inferred, err := inferProvider(voiceID)
		if err != nil {
			return "", "", err
		}
		providerType = inferred
		r.logger.DebugTag("路由", "未映射音色 %s 推断为 %s", voiceID, providerType)
	}

	// 4. 默认音色改写：仅阿里云通用类型且音色名就是 "aliyun" 时生效
	nativeVoiceID := voiceID
	if providerType == ProviderAliyun && strings.EqualFold(nativeVoiceID, "aliyun") {
		nativeVoiceID = aliyunDefaultVoice
	}

	return providerType, nativeVoiceID, nil
}

// inferProvider 按前缀/子串规则推断提供商。CosyVoice规则必须先查，
// 否则部分音色名会落入通用推断。
func inferProvider(voiceID string) (ProviderType, error) {
	if voiceID == "" {
		return "", errors.New(errors.KindInvalidVoice, "resolver.infer", "voice id cannot be empty")
	}
	lower := strings.ToLower(voiceID)

	if strings.HasPrefix(lower, "long") || strings.HasPrefix(lower, "loong") ||
		strings.HasSuffix(lower, "_v2") || strings.HasPrefix(lower, "libai") {
		return ProviderAliyunCosyVoice, nil
	}

	if strings.HasPrefix(lower, "aliyun") || strings.Contains(lower, "xiaoyun") {
		return ProviderAliyun, nil
	}
	if strings.HasPrefix(lower, "aws") || lower == "joanna" {
		return ProviderAWS, nil
	}
	if strings.HasPrefix(lower, "tencent") {
		return ProviderTencent, nil
	}

	return "", errors.New(errors.KindInvalidVoice, "resolver.infer",
		"cannot infer provider for voice id: "+voiceID)
}
