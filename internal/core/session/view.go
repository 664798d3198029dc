package session

import (
	"meal-companion/internal/core/recommendation"
)

// View 畫面狀態
type View string

const (
	EditingPreferences View = "editing_preferences"
	GeneratingInitial  View = "generating_initial"
	ViewingResults     View = "viewing_results"
	AppendingMore      View = "appending_more"
)

// HasAny 列表或任一餐別已有推薦
func HasAny(s recommendation.Snapshot) bool {
	if len(s.Recommendations) > 0 {
		return true
	}
	for _, slot := range s.Meals {
		if slot.Recipe != nil {
			return true
		}
	}
	return false
}

// AnyLoading 列表或任一餐別正在載入
func AnyLoading(s recommendation.Snapshot) bool {
	if s.Loading {
		return true
	}
	for _, slot := range s.Meals {
		if slot.Loading {
			return true
		}
	}
	return false
}

// ShouldShowPreferencesForm 沒有任何推薦且沒有請求進行中時顯示偏好表單
func ShouldShowPreferencesForm(s recommendation.Snapshot) bool {
	return !HasAny(s) && !AnyLoading(s)
}

// Derive 由推薦狀態推導畫面
func Derive(s recommendation.Snapshot) View {
	hasAny, loading := HasAny(s), AnyLoading(s)
	switch {
	case loading && !hasAny:
		return GeneratingInitial
	case loading:
		return AppendingMore
	case hasAny:
		return ViewingResults
	default:
		return EditingPreferences
	}
}
