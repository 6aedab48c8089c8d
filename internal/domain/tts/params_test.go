package tts

import "testing"

func TestToAwsSSML(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		extra map[string]interface{}
		want  string
	}{
		{
			name: "no extra returns plain text",
			text: "hello",
			want: "hello",
		},
		{
			name:  "emotion wraps in ssml",
			text:  "hello",
			extra: map[string]interface{}{"emotion": "excited"},
			want:  `<speak><amazon:emotion name="excited" intensity="medium">hello</amazon:emotion></speak>`,
		},
		{
			name:  "empty emotion ignored",
			text:  "hello",
			extra: map[string]interface{}{"emotion": ""},
			want:  "hello",
		},
		{
			name:  "non-string emotion ignored",
			text:  "hello",
			extra: map[string]interface{}{"emotion": 3},
			want:  "hello",
		},
		{
			name:  "unrelated keys ignored",
			text:  "hello",
			extra: map[string]interface{}{"pitch": "+2st"},
			want:  "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToAwsSSML(tt.text, tt.extra); got != tt.want {
				t.Errorf("got %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestToAliyunParams(t *testing.T) {
	if got := ToAliyunParams(nil); len(got) != 0 {
		t.Errorf("nil extra should yield empty params, got %v", got)
	}

	got := ToAliyunParams(map[string]interface{}{"emotion": "gentle", "other": true})
	if got["emotion"] != "gentle" {
		t.Errorf("emotion not passed through: %v", got)
	}
	if _, ok := got["other"]; ok {
		t.Error("unsupported keys must not leak into provider params")
	}
}
