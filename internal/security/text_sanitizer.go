package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は通知由来のテキスト（タイトル、リポジトリ名、ラベル）を
// フィードのHTML説明文へ埋め込む前にサニタイズするインターフェースを定義する。
// bluemondayのStrictPolicyにより全てのタグを除去し、残ったテキストを
// HTMLエスケープ済みの形で返すため、出力はそのままHTMLに埋め込める。
type TextSanitizerService interface {
	// Sanitize はテキストから全てのマークアップを除去し、
	// HTML埋め込みに安全なエスケープ済みテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等なHTML表現）。
	Sanitize(text string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフであり、プロセス全体で共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たないため、scriptタグやイベント属性を含む
// あらゆるマークアップが除去される。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はテキストから全てのマークアップを除去する。
func (s *textSanitizer) Sanitize(text string) string {
	return s.policy.Sanitize(text)
}
