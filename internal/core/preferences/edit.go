package preferences

import (
	"meal-companion/internal/pkg/common"
)

// Edit 對草稿的單一欄位修改
type Edit func(p *DietaryPreferences)

// SetCaloriesMin 設定下限，超過上限時把上限拉到同一值
func SetCaloriesMin(v int) Edit {
	return func(p *DietaryPreferences) {
		p.CaloriesMin = v
		if p.CaloriesMax < v {
			p.CaloriesMax = v
		}
	}
}

// SetCaloriesMax 設定上限，低於下限時把下限壓到同一值
func SetCaloriesMax(v int) Edit {
	return func(p *DietaryPreferences) {
		p.CaloriesMax = v
		if p.CaloriesMin > v {
			p.CaloriesMin = v
		}
	}
}

// SetMaxCookingTime 設定烹飪時間上限（分鐘）
func SetMaxCookingTime(minutes int) Edit {
	return func(p *DietaryPreferences) {
		p.MaxCookingTime = minutes
	}
}

// SetMealsPerDay 設定每日餐數
func SetMealsPerDay(n int) Edit {
	return func(p *DietaryPreferences) {
		p.MealsPerDay = n
	}
}

// ToggleDietType 切換飲食類型
func ToggleDietType(tag string) Edit {
	return func(p *DietaryPreferences) {
		p.DietType = common.Toggle(p.DietType, tag)
	}
}

// ToggleCuisineType 切換菜系
func ToggleCuisineType(tag string) Edit {
	return func(p *DietaryPreferences) {
		p.CuisineType = common.Toggle(p.CuisineType, tag)
	}
}

// ToggleAllergy 切換過敏原
func ToggleAllergy(tag string) Edit {
	return func(p *DietaryPreferences) {
		p.Allergies = common.Toggle(p.Allergies, tag)
	}
}

// ToggleRestriction 切換其他限制
func ToggleRestriction(tag string) Edit {
	return func(p *DietaryPreferences) {
		p.Restrictions = common.Toggle(p.Restrictions, tag)
	}
}

// Patch 閘道 PATCH 請求的欄位，nil 表示不變
type Patch struct {
	DietType       []string `json:"diet_type,omitempty"`
	CuisineType    []string `json:"cuisine_type,omitempty"`
	Allergies      []string `json:"allergies,omitempty"`
	Restrictions   []string `json:"restrictions,omitempty"`
	CaloriesMin    *int     `json:"calories_min,omitempty"`
	CaloriesMax    *int     `json:"calories_max,omitempty"`
	MaxCookingTime *int     `json:"max_cooking_time,omitempty"`
	MealsPerDay    *int     `json:"meals_per_day,omitempty"`
}

// Edits 轉成依序套用的修改
func (p Patch) Edits() []Edit {
	var edits []Edit
	if p.DietType != nil {
		tags := common.MergeUnique(p.DietType)
		edits = append(edits, func(d *DietaryPreferences) { d.DietType = tags })
	}
	if p.CuisineType != nil {
		tags := common.MergeUnique(p.CuisineType)
		edits = append(edits, func(d *DietaryPreferences) { d.CuisineType = tags })
	}
	if p.Allergies != nil {
		tags := common.MergeUnique(p.Allergies)
		edits = append(edits, func(d *DietaryPreferences) { d.Allergies = tags })
	}
	if p.Restrictions != nil {
		tags := common.MergeUnique(p.Restrictions)
		edits = append(edits, func(d *DietaryPreferences) { d.Restrictions = tags })
	}
	if p.CaloriesMin != nil {
		edits = append(edits, SetCaloriesMin(*p.CaloriesMin))
	}
	if p.CaloriesMax != nil {
		edits = append(edits, SetCaloriesMax(*p.CaloriesMax))
	}
	if p.MaxCookingTime != nil {
		edits = append(edits, SetMaxCookingTime(*p.MaxCookingTime))
	}
	if p.MealsPerDay != nil {
		edits = append(edits, SetMealsPerDay(*p.MealsPerDay))
	}
	return edits
}
