// Package filter は通知のフィルタリングを提供する。
package filter

import (
	"github.com/hitoshi/notifeed/internal/model"
)

// Apply はフィルタ条件に基づいて通知を絞り込む。
// 入力の順序を保持し、入力スライスを変更しない純粋関数。
// 同一条件での再適用は同一結果を返す（冪等）。
func Apply(notifications []model.Notification, criteria model.FilterCriteria) []model.Notification {
	filtered := make([]model.Notification, 0, len(notifications))
	for _, n := range notifications {
		if !criteria.Match(n.Reason, n.Repository.FullName) {
			continue
		}
		filtered = append(filtered, n)
	}
	return filtered
}
