package preferences

import (
	"meal-companion/internal/pkg/common"
)

// 預設值
const (
	DefaultCaloriesMin    = 300
	DefaultCaloriesMax    = 600
	DefaultMaxCookingTime = 45
	DefaultMealsPerDay    = 3
)

// DietaryPreferences 飲食偏好草稿
type DietaryPreferences struct {
	DietType       []string `json:"diet_type"`
	CuisineType    []string `json:"cuisine_type"`
	Allergies      []string `json:"allergies"`
	Restrictions   []string `json:"restrictions"`
	CaloriesMin    int      `json:"calories_min"`
	CaloriesMax    int      `json:"calories_max"`
	MaxCookingTime int      `json:"max_cooking_time"`
	MealsPerDay    int      `json:"meals_per_day"`
	CreatedAt      string   `json:"createdAt,omitempty"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}

// Defaults 第一次載入時使用的偏好
func Defaults() DietaryPreferences {
	return DietaryPreferences{
		DietType:       []string{},
		CuisineType:    []string{},
		Allergies:      []string{},
		Restrictions:   []string{},
		CaloriesMin:    DefaultCaloriesMin,
		CaloriesMax:    DefaultCaloriesMax,
		MaxCookingTime: DefaultMaxCookingTime,
		MealsPerDay:    DefaultMealsPerDay,
	}
}

// Clone 深拷貝；nil 陣列轉為空陣列，送出的 JSON 一律是 []
func (p DietaryPreferences) Clone() DietaryPreferences {
	c := p
	c.DietType = cloneStrings(p.DietType)
	c.CuisineType = cloneStrings(p.CuisineType)
	c.Allergies = cloneStrings(p.Allergies)
	c.Restrictions = cloneStrings(p.Restrictions)
	return c
}

// WithoutTimestamps 去掉伺服器管理的時間欄位
func (p DietaryPreferences) WithoutTimestamps() DietaryPreferences {
	c := p.Clone()
	c.CreatedAt = ""
	c.UpdatedAt = ""
	return c
}

// Normalize 補齊 nil 陣列並去除重複標籤，遠端回傳 null 時使用
func (p DietaryPreferences) Normalize() DietaryPreferences {
	c := p.Clone()
	c.DietType = common.MergeUnique(c.DietType)
	c.CuisineType = common.MergeUnique(c.CuisineType)
	c.Allergies = common.MergeUnique(c.Allergies)
	c.Restrictions = common.MergeUnique(c.Restrictions)
	return c
}

// Validate 送出前的本地檢查
func (p DietaryPreferences) Validate() error {
	if p.CaloriesMin < 0 || p.CaloriesMax < 0 {
		return common.NewValidationError("calories must not be negative")
	}
	if p.CaloriesMin > p.CaloriesMax {
		return common.NewValidationError("calories_min must not exceed calories_max")
	}
	if p.MaxCookingTime <= 0 {
		return common.NewValidationError("max_cooking_time must be positive")
	}
	if p.MealsPerDay < 0 {
		return common.NewValidationError("meals_per_day must not be negative")
	}
	return nil
}

func cloneStrings(s []string) []string {
	return append([]string{}, s...)
}
