package httptransport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"audiopaas-server-go/internal/domain/tts"
	"audiopaas-server-go/internal/platform/errors"
	platformtesting "audiopaas-server-go/internal/platform/testing"
)

type stubDispatcher struct {
	lastReq tts.Request
	resp    *tts.Response
	err     error
}

func (d *stubDispatcher) Dispatch(_ context.Context, req tts.Request) (*tts.Response, error) {
	d.lastReq = req
	if d.err != nil {
		return nil, d.err
	}
	return d.resp, nil
}

type stubVoiceLister struct {
	defs []*tts.VoiceDefinition
	err  error
}

func (l *stubVoiceLister) List() ([]*tts.VoiceDefinition, error) {
	return l.defs, l.err
}

func newSpeechRouter(t *testing.T, dispatcher Dispatcher, voices VoiceLister) http.Handler {
	t.Helper()
	router, err := Build(Options{
		Config: platformtesting.SetupTestConfig(t),
		Logger: platformtesting.SetupTestLogger(t),
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	svc := NewSpeechService(dispatcher, voices, platformtesting.SetupTestLogger(t))
	svc.Register(router.V1)
	return router.Engine
}

func postSpeech(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/audio/speech", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSpeechReturnsAudio(t *testing.T) {
	audio := []byte("fake-mp3-bytes")
	dispatcher := &stubDispatcher{
		resp: &tts.Response{
			Audio:         io.NopCloser(bytes.NewReader(audio)),
			Format:        tts.FormatMP3,
			ContentLength: int64(len(audio)),
		},
	}
	handler := newSpeechRouter(t, dispatcher, &stubVoiceLister{})

	rec := postSpeech(t, handler, `{"model":"tts-1","input":"你好","voice":"xiaoyun","speed":1.5}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="speech.mp3"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), audio) {
		t.Error("response body must be the provider audio")
	}

	if dispatcher.lastReq.Text != "你好" || dispatcher.lastReq.VoiceID != "xiaoyun" {
		t.Errorf("dispatched request mismatch: %+v", dispatcher.lastReq)
	}
	if dispatcher.lastReq.Speed != 1.5 {
		t.Errorf("speed = %v", dispatcher.lastReq.Speed)
	}
	if dispatcher.lastReq.Model != "tts-1" {
		t.Errorf("model = %q", dispatcher.lastReq.Model)
	}
}

func TestSpeechDefaults(t *testing.T) {
	dispatcher := &stubDispatcher{
		resp: &tts.Response{Audio: io.NopCloser(bytes.NewReader([]byte("x"))), Format: tts.FormatMP3},
	}
	handler := newSpeechRouter(t, dispatcher, &stubVoiceLister{})

	rec := postSpeech(t, handler, `{"model":"tts-1","input":"hello","voice":"joanna"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if dispatcher.lastReq.Format != tts.FormatMP3 {
		t.Errorf("default format = %q", dispatcher.lastReq.Format)
	}
	if dispatcher.lastReq.Speed != 1.0 {
		t.Errorf("default speed = %v", dispatcher.lastReq.Speed)
	}
}

func TestSpeechValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing model", `{"input":"hi","voice":"xiaoyun"}`},
		{"missing input", `{"model":"tts-1","voice":"xiaoyun"}`},
		{"missing voice", `{"model":"tts-1","input":"hello"}`},
		{"malformed json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &stubDispatcher{}
			handler := newSpeechRouter(t, dispatcher, &stubVoiceLister{})
			rec := postSpeech(t, handler, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if dispatcher.lastReq.Text != "" {
				t.Error("rejected request must not reach the dispatcher")
			}
		})
	}
}

func TestSpeechErrorStatusMapping(t *testing.T) {
	tests := []struct {
		kind errors.Kind
		want int
	}{
		{errors.KindInvalidVoice, http.StatusBadRequest},
		{errors.KindNoActiveConfig, http.StatusServiceUnavailable},
		{errors.KindNoAdapter, http.StatusInternalServerError},
		{errors.KindClientCreation, http.StatusBadGateway},
		{errors.KindProvider, http.StatusBadGateway},
		{errors.KindUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			dispatcher := &stubDispatcher{err: errors.New(tt.kind, "tts.router", "boom")}
			handler := newSpeechRouter(t, dispatcher, &stubVoiceLister{})
			rec := postSpeech(t, handler, `{"model":"tts-1","input":"hi","voice":"xiaoyun"}`)
			if rec.Code != tt.want {
				t.Fatalf("kind %s: status = %d, want %d", tt.kind, rec.Code, tt.want)
			}
		})
	}
}

func TestDebugProvidersEndpoint(t *testing.T) {
	handler := newSpeechRouter(t, &stubDispatcher{}, &stubVoiceLister{})

	req := httptest.NewRequest(http.MethodGet, "/v1/debug/providers", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"ALIYUN", "ALIYUN_COSYVOICE", "AWS", "TENCENT", "VIBEVOICE", "QWEN"} {
		if !strings.Contains(body, `"`+want+`"`) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}
}

func TestVoicesEndpoint(t *testing.T) {
	lister := &stubVoiceLister{defs: []*tts.VoiceDefinition{
		{ID: "xiaoyun", Type: tts.ProviderAliyun, DisplayName: "小云", Gender: tts.GenderFemale, Styles: []string{"general"}},
		{ID: "joanna", Type: tts.ProviderAWS, DisplayName: "Joanna", Gender: tts.GenderFemale},
	}}
	handler := newSpeechRouter(t, &stubDispatcher{}, lister)

	req := httptest.NewRequest(http.MethodGet, "/v1/audio/voices", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"xiaoyun"`, `"joanna"`, `"ALIYUN"`, `"AWS"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}
}
