package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type httpStatusStub struct {
	codes []int
}

func (s *httpStatusStub) RecordHTTPStatus(statusCode int) {
	s.codes = append(s.codes, statusCode)
}

func TestLoggingMiddleware_RecordsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	metrics := &httpStatusStub{}

	handler := NewLoggingMiddleware(logger, metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("ログがJSONとしてパースできない: %v\n%s", err, buf.String())
	}

	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", entry["msg"])
	}
	if entry["method"] != "GET" {
		t.Errorf("method = %v, want GET", entry["method"])
	}
	if entry["path"] != "/feed" {
		t.Errorf("path = %v, want /feed", entry["path"])
	}
	if entry["status"] != float64(404) {
		t.Errorf("status = %v, want 404", entry["status"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("4xxのログレベル = %v, want WARN", entry["level"])
	}
	if entry["request_id"] == nil || entry["request_id"] == "" {
		t.Error("request_idがログに含まれない")
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("duration_msがログに含まれない")
	}

	if got := rec.Header().Get("X-Request-Id"); got == "" {
		t.Error("X-Request-Idヘッダーが設定されていない")
	} else if got != entry["request_id"] {
		t.Errorf("ヘッダーとログのrequest_idが一致しない: %q vs %v", got, entry["request_id"])
	}

	if len(metrics.codes) != 1 || metrics.codes[0] != 404 {
		t.Errorf("メトリクスに記録されたステータス = %v, want [404]", metrics.codes)
	}
}

func TestLoggingMiddleware_LogLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{502, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		handler := NewLoggingMiddleware(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("ログがJSONとしてパースできない: %v", err)
		}
		if entry["level"] != tt.level {
			t.Errorf("ステータス%dのログレベル = %v, want %s", tt.status, entry["level"], tt.level)
		}
	}
}

func TestLoggingMiddleware_DefaultStatus200(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := NewLoggingMiddleware(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("ログがJSONとしてパースできない: %v", err)
	}
	if entry["status"] != float64(200) {
		t.Errorf("明示的なWriteHeaderなしのstatus = %v, want 200", entry["status"])
	}
}
