package aws

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"

	"audiopaas-server-go/internal/domain/tts"
	platformtesting "audiopaas-server-go/internal/platform/testing"
)

type fakePolly struct {
	calls int
	last  *polly.SynthesizeSpeechInput
	audio []byte
	err   error
}

func (f *fakePolly) SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	f.calls++
	f.last = params
	if f.err != nil {
		return nil, f.err
	}
	return &polly.SynthesizeSpeechOutput{
		AudioStream: io.NopCloser(bytes.NewReader(f.audio)),
		ContentType: aws.String("audio/mpeg"),
	}, nil
}

func newTestProvider(t *testing.T, fake *fakePolly) (*Provider, *int) {
	t.Helper()
	provider := NewProvider(platformtesting.SetupTestLogger(t))
	constructed := 0
	provider.newClient = func(accessKey, secretKey, region string) pollyAPI {
		constructed++
		return fake
	}
	return provider, &constructed
}

func TestSynthesizePlainText(t *testing.T) {
	fake := &fakePolly{audio: []byte("mp3")}
	provider, _ := newTestProvider(t, fake)

	cfg := &tts.ProviderConfig{Name: "aws-prod", AccessKey: "AKIA", SecretKey: "sk", Metadata: `{"region":"eu-west-1"}`}
	resp, err := provider.Synthesize(context.Background(),
		tts.Request{Text: "Hello", VoiceID: "Joanna", Format: tts.FormatMP3}, cfg)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	defer resp.Audio.Close()

	if fake.last.TextType != types.TextTypeText {
		t.Errorf("plain text must use TextType=text, got %s", fake.last.TextType)
	}
	if aws.ToString(fake.last.Text) != "Hello" {
		t.Errorf("unexpected text: %s", aws.ToString(fake.last.Text))
	}
	if fake.last.VoiceId != types.VoiceId("Joanna") {
		t.Errorf("unexpected voice: %s", fake.last.VoiceId)
	}
	if fake.last.OutputFormat != types.OutputFormatMp3 {
		t.Errorf("unexpected format: %s", fake.last.OutputFormat)
	}
}

func TestSynthesizeEmotionProducesSSML(t *testing.T) {
	fake := &fakePolly{audio: []byte("mp3")}
	provider, _ := newTestProvider(t, fake)

	cfg := &tts.ProviderConfig{Name: "aws-prod", AccessKey: "AKIA", SecretKey: "sk"}
	req := tts.Request{
		Text:    "Great news",
		VoiceID: "Joanna",
		Format:  tts.FormatMP3,
		Extra:   map[string]interface{}{"emotion": "excited"},
	}
	resp, err := provider.Synthesize(context.Background(), req, cfg)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	defer resp.Audio.Close()

	if fake.last.TextType != types.TextTypeSsml {
		t.Errorf("emotion extra must switch to SSML, got %s", fake.last.TextType)
	}
	want := `<speak><amazon:emotion name="excited" intensity="medium">Great news</amazon:emotion></speak>`
	if aws.ToString(fake.last.Text) != want {
		t.Errorf("unexpected ssml: %s", aws.ToString(fake.last.Text))
	}
}

func TestClientCachedPerCredentialAndRegion(t *testing.T) {
	fake := &fakePolly{audio: []byte("mp3")}
	provider, constructed := newTestProvider(t, fake)

	cfg := &tts.ProviderConfig{Name: "aws-prod", AccessKey: "AKIA", SecretKey: "sk", Metadata: `{"region":"us-east-1"}`}
	for i := 0; i < 3; i++ {
		resp, err := provider.Synthesize(context.Background(),
			tts.Request{Text: "hi", VoiceID: "Joanna", Format: tts.FormatMP3}, cfg)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		resp.Audio.Close()
	}
	if *constructed != 1 {
		t.Errorf("client must be built once per accessKey:region, built %d times", *constructed)
	}

	// 不同region另起客户端
	other := &tts.ProviderConfig{Name: "aws-eu", AccessKey: "AKIA", SecretKey: "sk", Metadata: `{"region":"eu-west-1"}`}
	resp, err := provider.Synthesize(context.Background(),
		tts.Request{Text: "hi", VoiceID: "Joanna", Format: tts.FormatMP3}, other)
	if err != nil {
		t.Fatalf("eu request failed: %v", err)
	}
	resp.Audio.Close()
	if *constructed != 2 {
		t.Errorf("different region must build a new client, built %d times", *constructed)
	}
}

func TestFormatMapping(t *testing.T) {
	tests := []struct {
		in   tts.AudioFormat
		want types.OutputFormat
	}{
		{tts.FormatMP3, types.OutputFormatMp3},
		{tts.FormatPCM, types.OutputFormatPcm},
		{tts.FormatOpus, types.OutputFormatOggVorbis},
		{tts.FormatFLAC, types.OutputFormatMp3},
	}
	for _, tt := range tests {
		if got := mapFormat(tt.in); got != tt.want {
			t.Errorf("mapFormat(%s) = %s, expected %s", tt.in, got, tt.want)
		}
	}
}
