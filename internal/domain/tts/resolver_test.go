package tts

import (
	"testing"

	platformerrors "audiopaas-server-go/internal/platform/errors"
	platformtesting "audiopaas-server-go/internal/platform/testing"
)

type stubVoiceSource struct {
	defs map[string]*VoiceDefinition
	err  error
}

func (s *stubVoiceSource) FindVoiceDefinition(voiceID string) (*VoiceDefinition, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.defs[voiceID], nil
}

func newTestResolver(t *testing.T, defs map[string]*VoiceDefinition) *Resolver {
	t.Helper()
	return NewResolver(&stubVoiceSource{defs: defs}, platformtesting.SetupTestLogger(t))
}

func TestResolveMappedVoiceIsAuthoritative(t *testing.T) {
	// "longwan-pro" 按启发式会落到CosyVoice，映射表必须抢占
	resolver := newTestResolver(t, map[string]*VoiceDefinition{
		"longwan-pro": {
			ID:            "longwan-pro",
			Type:          ProviderTencent,
			NativeVoiceID: "101002",
		},
		"aliyun": {
			ID:            "aliyun",
			Type:          ProviderAWS,
			NativeVoiceID: "Matthew",
		},
	})

	providerType, native, err := resolver.Resolve("longwan-pro", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if providerType != ProviderTencent || native != "101002" {
		t.Errorf("mapped lookup not authoritative: got %s/%s", providerType, native)
	}

	// 映射命中时 "aliyun" 默认改写也不得生效
	providerType, native, err = resolver.Resolve("aliyun", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if providerType != ProviderAWS || native != "Matthew" {
		t.Errorf("mapping should pre-empt defaulting: got %s/%s", providerType, native)
	}
}

func TestResolveExplicitModelOverride(t *testing.T) {
	resolver := newTestResolver(t, nil)

	tests := []struct {
		name      string
		voiceID   string
		modelHint string
		wantType  ProviderType
		wantVoice string
	}{
		{"uppercase override", "my-voice-42_v9", "AWS", ProviderAWS, "my-voice-42_v9"},
		{"lowercase override", "voice-x", "tencent", ProviderTencent, "voice-x"},
		{"mixed case override", "voice-y", "VibeVoice", ProviderVibeVoice, "voice-y"},
		{"override wins over heuristics", "tencent-zhiyu", "QWEN", ProviderQwen, "tencent-zhiyu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providerType, native, err := resolver.Resolve(tt.voiceID, tt.modelHint)
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if providerType != tt.wantType || native != tt.wantVoice {
				t.Errorf("got %s/%s, expected %s/%s", providerType, native, tt.wantType, tt.wantVoice)
			}
		})
	}
}

func TestResolveHeuristics(t *testing.T) {
	resolver := newTestResolver(t, nil)

	tests := []struct {
		voiceID  string
		wantType ProviderType
	}{
		{"longxiaochun", ProviderAliyunCosyVoice},
		{"loongstella", ProviderAliyunCosyVoice},
		{"stella_v2", ProviderAliyunCosyVoice},
		{"libai-narrator", ProviderAliyunCosyVoice},
		{"aliyun-siqi", ProviderAliyun},
		{"pro-xiaoyun-hd", ProviderAliyun},
		{"aws-standard", ProviderAWS},
		{"Joanna", ProviderAWS},
		{"tencent-zhiwei", ProviderTencent},
	}

	for _, tt := range tests {
		t.Run(tt.voiceID, func(t *testing.T) {
			providerType, native, err := resolver.Resolve(tt.voiceID, "tts-1")
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", tt.voiceID, err)
			}
			if providerType != tt.wantType {
				t.Errorf("Resolve(%q) type = %s, expected %s", tt.voiceID, providerType, tt.wantType)
			}
			if native != tt.voiceID {
				t.Errorf("Resolve(%q) native = %s, expected unchanged", tt.voiceID, native)
			}
		})
	}
}

func TestResolveAliyunDefaultNormalization(t *testing.T) {
	resolver := newTestResolver(t, nil)

	for _, voiceID := range []string{"aliyun", "ALIYUN", "Aliyun"} {
		providerType, native, err := resolver.Resolve(voiceID, "")
		if err != nil {
			t.Fatalf("Resolve(%q) returned error: %v", voiceID, err)
		}
		if providerType != ProviderAliyun {
			t.Errorf("Resolve(%q) type = %s, expected ALIYUN", voiceID, providerType)
		}
		if native != "xiaoyun" {
			t.Errorf("Resolve(%q) native = %s, expected xiaoyun", voiceID, native)
		}
	}

	// 改写只针对字面量 "aliyun"，其他阿里云音色不受影响
	_, native, err := resolver.Resolve("aliyun-siqi", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if native != "aliyun-siqi" {
		t.Errorf("normalization must only apply to the literal, got %s", native)
	}
}

func TestResolveUnknownVoiceFails(t *testing.T) {
	resolver := newTestResolver(t, nil)

	for _, voiceID := range []string{"zzz-unknown", ""} {
		_, _, err := resolver.Resolve(voiceID, "tts-1")
		if err == nil {
			t.Fatalf("Resolve(%q) should fail", voiceID)
		}
		if !platformerrors.IsKind(err, platformerrors.KindInvalidVoice) {
			t.Errorf("Resolve(%q) expected KindInvalidVoice, got: %v", voiceID, err)
		}
	}
}

func TestResolveInvalidModelHintFallsBackToHeuristics(t *testing.T) {
	resolver := newTestResolver(t, nil)

	providerType, native, err := resolver.Resolve("longyue", "tts-1-hd")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if providerType != ProviderAliyunCosyVoice || native != "longyue" {
		t.Errorf("got %s/%s, expected ALIYUN_COSYVOICE/longyue", providerType, native)
	}
}
