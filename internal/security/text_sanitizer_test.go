package security

import (
	"strings"
	"testing"
)

func TestSanitize_StripsMarkup(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Fix flaky test", "Fix flaky test"},
		{"タグは除去される", "Fix <b>flaky</b> test", "Fix flaky test"},
		{"scriptタグは内容ごと除去される", `<script>alert("x")</script>title`, "title"},
		{"空文字列は空文字列", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_EscapesSpecialCharacters(t *testing.T) {
	s := NewTextSanitizer()

	got := s.Sanitize("tokio & serde <1.0")
	if strings.Contains(got, "<") {
		t.Errorf("出力に生の < が残っている: %q", got)
	}
	if !strings.Contains(got, "&amp;") {
		t.Errorf("& がエスケープされていない: %q", got)
	}
}

func TestSanitize_RemovesEventAttributes(t *testing.T) {
	s := NewTextSanitizer()

	got := s.Sanitize(`<img src=x onerror=alert(1)>release notes`)
	if strings.Contains(got, "onerror") {
		t.Errorf("onerror 属性が除去されていない: %q", got)
	}
	if !strings.Contains(got, "release notes") {
		t.Errorf("テキスト内容が失われた: %q", got)
	}
}
