package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetup_OutputsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelInfo)

	l.Info("テストメッセージ", slog.String("key", "value"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("ログ出力がJSONとしてパースできない: %v", err)
	}
	if entry["msg"] != "テストメッセージ" {
		t.Errorf("msg = %v, want テストメッセージ", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelWarn)

	l.Info("infoは出力されない")
	if buf.Len() != 0 {
		t.Errorf("info レベルのログが出力された: %s", buf.String())
	}

	l.Warn("warnは出力される")
	if buf.Len() == 0 {
		t.Error("warn レベルのログが出力されなかった")
	}
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)
			if got := LevelFromEnv(); got != tt.want {
				t.Errorf("LevelFromEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}
