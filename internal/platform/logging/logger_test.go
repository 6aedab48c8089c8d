package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()

	dir := t.TempDir()
	logger, err := New(Config{
		Level: "debug",
		Dir:   dir,
		File:  "server.log",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() {
		_ = logger.Close()
	})
	return logger
}

func TestLoggerWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Level: "info", Dir: dir, File: "server.log"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("合成请求完成 voice=%s", "xiaoyun")
	logger.InfoTag("TTS", "provider %s ok", "aliyun-prod")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "server.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "xiaoyun") {
		t.Errorf("log file missing formatted message: %s", content)
	}
	if !strings.Contains(content, "[TTS] provider aliyun-prod ok") {
		t.Errorf("log file missing tagged message: %s", content)
	}
}

func TestFormatLog(t *testing.T) {
	tests := []struct {
		tag      string
		message  string
		expected string
	}{
		{"路由", "解析完成", "[路由] 解析完成"},
		{"", "无标签", "无标签"},
		{"TTS", "[TTS] 已有标签", "[TTS] 已有标签"},
	}

	for _, tt := range tests {
		if got := FormatLog(tt.tag, tt.message); got != tt.expected {
			t.Errorf("FormatLog(%q, %q) = %q, expected %q", tt.tag, tt.message, got, tt.expected)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Level: "error", Dir: dir, File: "server.log"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("should be dropped")
	logger.Error("should be kept")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "server.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if strings.Contains(string(data), "should be dropped") {
		t.Error("debug message written despite error level")
	}
	if !strings.Contains(string(data), "should be kept") {
		t.Error("error message missing from log file")
	}
}

func TestLoggerNilTagSafety(t *testing.T) {
	var logger *Logger
	// 空指针调用不应崩溃
	logger.InfoTag("TTS", "noop")
	logger.WarnTag("TTS", "noop")
	logger.ErrorTag("TTS", "noop")
	logger.DebugTag("TTS", "noop")

	real := newTestLogger(t)
	real.DebugTag("存储", "迁移完成")
}
