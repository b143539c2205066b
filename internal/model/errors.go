// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrTokenNotConfigured はGitHubトークンが未設定であることを示す。
// このエラーはネットワークアクセスを伴わず即座に返され、
// HTTP層では503（Service Unavailable）にマッピングされる。
var ErrTokenNotConfigured = errors.New("GITHUB_TOKEN が設定されていません")

// TransportError はGitHub APIへのネットワーク/HTTPエラーを表す。
// キャッシュマネージャーはこのエラーを受けてステイル配信へのフォールバックを判断する。
// HTTP層では（キャッシュ不在時のみ）502（Bad Gateway）にマッピングされる。
type TransportError struct {
	// Status はGitHub APIが返したHTTPステータスコード。
	// ネットワークレベルの失敗（接続不可、タイムアウト等）の場合は0。
	Status int
	Err    error
}

// Error はerrorインターフェースを実装する。
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("GitHub APIへのリクエストに失敗しました: %v", e.Err)
	}
	return fmt.Sprintf("GitHub APIがステータス %d を返しました", e.Status)
}

// Unwrap はラップされたエラーを返す。
func (e *TransportError) Unwrap() error {
	return e.Err
}

// RenderError はフィルタ・レンダリング中の予期しない失敗を表す。
// フォールバック方針はTransportErrorと同一（ステイル配信を試みてから伝播）。
type RenderError struct {
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *RenderError) Error() string {
	return fmt.Sprintf("フィードの生成に失敗しました: %v", e.Err)
}

// Unwrap はラップされたエラーを返す。
func (e *RenderError) Unwrap() error {
	return e.Err
}
