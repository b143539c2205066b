// Package model はドメインモデルを定義する。
package model

// Notification はGitHub通知APIから取得した1件の通知を表す。
// フェッチしたパイプライン実行の中でのみ使用され、取得後は変更されない。
type Notification struct {
	ID         string     `json:"id"`
	Unread     bool       `json:"unread"`
	Reason     string     `json:"reason"`
	UpdatedAt  string     `json:"updated_at"`
	Subject    Subject    `json:"subject"`
	Repository Repository `json:"repository"`
}

// Subject は通知の対象（Issue、Pull Request、Commit等）を表す。
// URLはAPI向けのURLであり、人間向けURLへの変換はレンダラーが行う。
type Subject struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// Repository は通知が属するリポジトリを表す。
type Repository struct {
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}

// FilterCriteria は通知のフィルタ条件を保持する。
// 起動時に1回構築され、以降は読み取り専用として共有される。
// 包含条件が空の場合は制限なしとして扱い、除外条件は常に包含条件より優先される。
type FilterCriteria struct {
	IncludeReasons map[string]bool
	ExcludeReasons map[string]bool
	IncludeRepos   map[string]bool
	ExcludeRepos   map[string]bool
}

// NewFilterCriteria は文字列リストからFilterCriteriaを構築する。
func NewFilterCriteria(includeReasons, excludeReasons, includeRepos, excludeRepos []string) FilterCriteria {
	return FilterCriteria{
		IncludeReasons: toSet(includeReasons),
		ExcludeReasons: toSet(excludeReasons),
		IncludeRepos:   toSet(includeRepos),
		ExcludeRepos:   toSet(excludeRepos),
	}
}

// Match は理由とリポジトリ名がフィルタ条件を満たすかを判定する。
func (c FilterCriteria) Match(reason, repoFullName string) bool {
	if len(c.IncludeReasons) > 0 && !c.IncludeReasons[reason] {
		return false
	}
	if c.ExcludeReasons[reason] {
		return false
	}
	if len(c.IncludeRepos) > 0 && !c.IncludeRepos[repoFullName] {
		return false
	}
	if c.ExcludeRepos[repoFullName] {
		return false
	}
	return true
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
