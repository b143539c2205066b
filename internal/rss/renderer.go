// Package rss は通知リストからRSS 2.0フィードドキュメントを生成する。
// 同一の通知リストと現在時刻に対して決定的な出力を生成する。
package rss

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"github.com/hitoshi/notifeed/internal/model"
)

// channelImageURL はチャンネル画像として使用するGitHubファビコンのURL。
const channelImageURL = "https://github.githubassets.com/favicons/favicon.png"

// Sanitizer は通知由来テキストのサニタイズインターフェース。
// 戻り値はHTML埋め込みに安全なエスケープ済みテキスト。
type Sanitizer interface {
	Sanitize(text string) string
}

// Config はフィードのチャンネルメタデータと描画オプション。
type Config struct {
	// Title / Link / Description はチャンネルレベルのメタデータ。
	Title       string
	Link        string
	Description string
	// APIURL はリンク解決で照合するGitHub APIのベースURL（末尾スラッシュなし）。
	APIURL string
	// HTMLDescription が真の場合、説明文をHTMLブロックとして描画する。
	// 偽の場合は同等の内容を改行区切りのプレーンテキストで描画する。
	HTMLDescription bool
}

// Renderer は通知リストをRSS 2.0ドキュメントへ変換する。
type Renderer struct {
	config    Config
	sanitizer Sanitizer
	now       func() time.Time // テスト用に差し替え可能
}

// NewRenderer はRendererの新しいインスタンスを生成する。
func NewRenderer(config Config, sanitizer Sanitizer) *Renderer {
	return &Renderer{
		config:    config,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Render は通知リストからRSS 2.0のXMLドキュメントを生成する。
// 通知が0件でもチャンネルメタデータを持つ構造的に妥当なフィードを返す。
func (r *Renderer) Render(notifications []model.Notification) (string, error) {
	now := r.now().UTC()

	feed := &feeds.RssFeed{
		Title:         r.config.Title,
		Link:          r.config.Link,
		Description:   r.config.Description,
		LastBuildDate: now.Format(time.RFC1123Z),
		Image: &feeds.RssImage{
			Url:   channelImageURL,
			Title: r.config.Title,
			Link:  r.config.Link,
		},
	}

	for _, n := range notifications {
		feed.Items = append(feed.Items, r.renderItem(n, now))
	}

	document, err := feeds.ToXML(feed)
	if err != nil {
		return "", &model.RenderError{Err: err}
	}
	return document, nil
}

// renderItem は1件の通知をフィードエントリへ変換する。
func (r *Renderer) renderItem(n model.Notification, now time.Time) *feeds.RssItem {
	repoFullName := n.Repository.FullName
	if repoFullName == "" {
		repoFullName = "unknown/repo"
	}
	subjectTitle := n.Subject.Title
	if subjectTitle == "" {
		subjectTitle = "(no title)"
	}

	// タイムスタンプがパースできない場合は描画時点の現在時刻を使用する
	updatedAt, hasUpdated := parseUpdatedAt(n.UpdatedAt)
	pubDate := now
	if hasUpdated {
		pubDate = updatedAt
	}

	item := &feeds.RssItem{
		Title:   fmt.Sprintf("[%s] %s", repoFullName, subjectTitle),
		Link:    r.resolveLink(n),
		Guid:    &feeds.RssGuid{Id: n.ID, IsPermaLink: "false"},
		PubDate: pubDate.Format(time.RFC1123Z),
	}

	if r.config.HTMLDescription {
		item.Description = r.htmlDescription(n, repoFullName, subjectTitle, updatedAt, hasUpdated)
	} else {
		item.Description = plainDescription(n, repoFullName, subjectTitle, updatedAt, hasUpdated)
	}

	return item
}

// parseUpdatedAt はISO-8601のタイムスタンプをパースする。
// GitHubはUTCオフセットの異なる形式を返すことがあるためRFC 3339として解釈する。
func parseUpdatedAt(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// resolveLink は通知対象のAPI URLから人間向けのHTML URLを導出する。
//
// 例:
//
//	API:  https://api.github.com/repos/owner/repo/issues/123
//	HTML: https://github.com/owner/repo/issues/123
//
// コミット通知は末尾が commits/<sha> の形式で届くため commit/<sha> に書き換える。
// API URLが解決できない場合はリポジトリのHTML URLへ、それもない場合は
// チャンネルのリンクへフォールバックする。
func (r *Renderer) resolveLink(n model.Notification) string {
	apiURL := n.Subject.URL
	repoHTML := n.Repository.HTMLURL

	prefix := r.config.APIURL + "/repos/"
	if apiURL != "" && repoHTML != "" && strings.HasPrefix(apiURL, prefix) {
		rest := strings.TrimPrefix(apiURL, prefix)

		// rest は owner/repo/<tail> の形式
		parts := strings.SplitN(rest, "/", 3)
		var tail string
		if len(parts) >= 3 {
			tail = parts[2]
		}

		if after, ok := strings.CutPrefix(tail, "commits/"); ok {
			return repoHTML + "/commit/" + after
		}
		if tail != "" {
			return repoHTML + "/" + tail
		}
	}

	if repoHTML != "" {
		return repoHTML
	}
	return r.config.Link
}

// htmlDescription はHTMLブロック形式の説明文を構築する。
// テキスト値はサニタイザ経由で、属性値はhtml.EscapeStringでエスケープする。
func (r *Renderer) htmlDescription(n model.Notification, repoFullName, subjectTitle string, updatedAt time.Time, hasUpdated bool) string {
	reasonRaw := n.Reason
	if reasonRaw == "" {
		reasonRaw = "unknown"
	}
	unreadTag := ""
	if n.Unread {
		unreadTag = "🔔"
	}

	esc := r.sanitizer.Sanitize
	typeLabel := subjectTypeLabel(n.Subject.Type)

	var b strings.Builder
	fmt.Fprintf(&b, "<p><strong>[%s]</strong> <span>[%s]</span> <span>%s</span></p>\n",
		esc(reasonLabel(n.Reason)), esc(typeLabel), unreadTag)
	fmt.Fprintf(&b, "<p>%s</p>\n", esc(subjectTitle))
	b.WriteString("<p>\n")
	fmt.Fprintf(&b, "  <strong>Repo:</strong> %s<br>\n", esc(repoFullName))
	fmt.Fprintf(&b, "  <strong>Reason:</strong> %s<br>\n", esc(reasonRaw))
	fmt.Fprintf(&b, "  <strong>Type:</strong> %s<br>\n", esc(typeLabel))
	fmt.Fprintf(&b, "  <strong>Unread:</strong> %s<br>\n", yesNo(n.Unread))
	if n.Repository.HTMLURL != "" {
		fmt.Fprintf(&b, "  <strong>Repo link:</strong> <a href=\"%s\">%s</a><br>\n",
			html.EscapeString(n.Repository.HTMLURL), esc(repoFullName))
	}
	if hasUpdated {
		fmt.Fprintf(&b, "  <strong>Updated:</strong> %s<br>\n", updatedAt.Format(time.RFC3339))
	}
	b.WriteString("</p>")

	return b.String()
}

// plainDescription は改行区切りのプレーンテキスト形式の説明文を構築する。
// XMLへの埋め込み時のエスケープはエンコーダーが行うため、ここではエスケープしない。
func plainDescription(n model.Notification, repoFullName, subjectTitle string, updatedAt time.Time, hasUpdated bool) string {
	reasonRaw := n.Reason
	if reasonRaw == "" {
		reasonRaw = "unknown"
	}
	typeLabel := subjectTypeLabel(n.Subject.Type)

	tags := fmt.Sprintf("[%s] [%s]", reasonLabel(n.Reason), typeLabel)
	if n.Unread {
		tags += " 🔔"
	}

	lines := []string{
		tags,
		"Title: " + subjectTitle,
		"Repo: " + repoFullName,
		"Reason: " + reasonRaw,
		"Type: " + typeLabel,
		"Unread: " + yesNo(n.Unread),
	}
	if n.Repository.HTMLURL != "" {
		lines = append(lines, "Repo link: "+n.Repository.HTMLURL)
	}
	if hasUpdated {
		lines = append(lines, "Updated: "+updatedAt.Format(time.RFC3339))
	}

	return strings.Join(lines, "\n")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
