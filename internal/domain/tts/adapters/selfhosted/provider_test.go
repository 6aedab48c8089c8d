package selfhosted

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"

	"audiopaas-server-go/internal/domain/tts"
	platformerrors "audiopaas-server-go/internal/platform/errors"
	platformtesting "audiopaas-server-go/internal/platform/testing"
)

func TestVibeVoiceSynthesize(t *testing.T) {
	audio := []byte("RIFF-fake-wav-bytes")
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(audio)
	}))
	defer server.Close()

	provider := NewVibeVoiceProvider(server.Client(), platformtesting.SetupTestLogger(t))
	cfg := &tts.ProviderConfig{Name: "vibe-local", BaseURL: server.URL, AccessKey: "vv-key"}

	resp, err := provider.Synthesize(context.Background(), tts.Request{Text: "你好", VoiceID: "alice"}, cfg)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	defer resp.Audio.Close()

	if gotPath != "/tts" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer vv-key" {
		t.Errorf("unexpected auth header: %s", gotAuth)
	}
	if gotBody["text"] != "你好" || gotBody["voice_id"] != "alice" {
		t.Errorf("unexpected payload: %v", gotBody)
	}
	if resp.Format != tts.FormatWAV || resp.ContentLength != int64(len(audio)) {
		t.Errorf("unexpected response meta: format=%s length=%d", resp.Format, resp.ContentLength)
	}
	got, _ := io.ReadAll(resp.Audio)
	if string(got) != string(audio) {
		t.Error("audio bytes mangled in transit")
	}
}

func TestQwenSynthesizeFieldNames(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte("audio"))
	}))
	defer server.Close()

	provider := NewQwenProvider(server.Client(), platformtesting.SetupTestLogger(t))
	cfg := &tts.ProviderConfig{Name: "qwen-local", BaseURL: server.URL}

	resp, err := provider.Synthesize(context.Background(), tts.Request{Text: "hi", VoiceID: "cherry"}, cfg)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	defer resp.Audio.Close()

	if gotPath != "/api/tts" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	// Qwen后端用 input/voice 字段而非 text/voice_id
	if gotBody["input"] != "hi" || gotBody["voice"] != "cherry" {
		t.Errorf("unexpected payload: %v", gotBody)
	}
}

func TestSelfhostedEmptyResponseFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := NewVibeVoiceProvider(server.Client(), platformtesting.SetupTestLogger(t))
	cfg := &tts.ProviderConfig{Name: "vibe-local", BaseURL: server.URL}

	_, err := provider.Synthesize(context.Background(), tts.Request{Text: "hi", VoiceID: "alice"}, cfg)
	if err == nil {
		t.Fatal("empty body must be an error")
	}
	if !platformerrors.IsKind(err, platformerrors.KindProvider) {
		t.Errorf("expected KindProvider, got: %v", err)
	}
}

func TestSelfhostedHTTPErrorPropagated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := NewQwenProvider(server.Client(), platformtesting.SetupTestLogger(t))
	cfg := &tts.ProviderConfig{Name: "qwen-local", BaseURL: server.URL}

	_, err := provider.Synthesize(context.Background(), tts.Request{Text: "hi", VoiceID: "cherry"}, cfg)
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !platformerrors.IsKind(err, platformerrors.KindProvider) {
		t.Errorf("expected KindProvider, got: %v", err)
	}
}

func TestSelfhostedNoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("audio"))
	}))
	defer server.Close()

	provider := NewVibeVoiceProvider(server.Client(), platformtesting.SetupTestLogger(t))
	cfg := &tts.ProviderConfig{Name: "vibe-local", BaseURL: server.URL}

	resp, err := provider.Synthesize(context.Background(), tts.Request{Text: "hi", VoiceID: "alice"}, cfg)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	defer resp.Audio.Close()

	if gotAuth != "" {
		t.Errorf("no Authorization header expected, got %q", gotAuth)
	}
}
