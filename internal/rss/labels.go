package rss

// reasonLabels は既知の通知理由コードから表示ラベルへの対応表。
var reasonLabels = map[string]string{
	"mention":            "mention",
	"author":             "author",
	"assign":             "assigned",
	"review_requested":   "review requested",
	"approval_requested": "approval requested",
	"comment":            "comment",
	"state_change":       "state change",
	"subscribed":         "subscribed",
	"ci_activity":        "CI",
	"team_mention":       "team mention",
	"security_alert":     "security alert",
	"manual":             "manual",
	"invitation":         "invitation",
}

// subjectTypeLabels は既知の通知対象タイプから表示ラベルへの対応表。
var subjectTypeLabels = map[string]string{
	"Issue":       "Issue",
	"PullRequest": "Pull request",
	"Commit":      "Commit",
	"Release":     "Release",
}

// reasonLabel は理由コードを表示ラベルへ変換する。
// 未知のコードはそのまま返し、空文字列は "other" とする。
func reasonLabel(reason string) string {
	if reason == "" {
		return "other"
	}
	if label, ok := reasonLabels[reason]; ok {
		return label
	}
	return reason
}

// subjectTypeLabel は対象タイプコードを表示ラベルへ変換する。
// 未知のコードはそのまま返し、空文字列は "Other" とする。
func subjectTypeLabel(subjectType string) string {
	if subjectType == "" {
		return "Other"
	}
	if label, ok := subjectTypeLabels[subjectType]; ok {
		return label
	}
	return subjectType
}
