package mealplan

import (
	"fmt"
	"time"

	"meal-companion/internal/core/recipe"
)

// DateLayout 餐單日期格式
const DateLayout = "2006-01-02"

// MealType 餐單的餐別，比推薦多了點心
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// MealTypes 依一天的順序排列
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snack}

// ParseMealType 解析餐別
func ParseMealType(s string) (MealType, error) {
	for _, m := range MealTypes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}

// ParseDate 解析 YYYY-MM-DD，空字串時使用今天
func ParseDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.UTC().Truncate(24 * time.Hour), nil
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// DayRange 當天的起訖時間，遠端以 UTC ISO 字串查詢
func DayRange(day time.Time) (start, end string) {
	d := day.Format(DateLayout)
	return d + "T00:00:00.000Z", d + "T23:59:59.999Z"
}

// Entry 餐單中的一餐
type Entry struct {
	ID       string        `json:"id"`
	Date     string        `json:"date"`
	MealType MealType      `json:"meal_type"`
	Recipe   recipe.Recipe `json:"recipe"`
	Portions float64       `json:"portions"`
	Notes    string        `json:"notes,omitempty"`
}

// AddRequest 新增餐點的請求
type AddRequest struct {
	Date     string   `json:"date"`
	MealType MealType `json:"meal_type"`
	RecipeID string   `json:"recipe_id"`
}

// DailyPlan 依餐別分組的一天餐單，四個餐別一律存在
type DailyPlan map[MealType][]Entry

// Group 依餐別分組，未知餐別的項目略過並回傳略過數量
func Group(entries []Entry) (DailyPlan, int) {
	plan := make(DailyPlan, len(MealTypes))
	for _, m := range MealTypes {
		plan[m] = []Entry{}
	}
	skipped := 0
	for _, e := range entries {
		list, ok := plan[e.MealType]
		if !ok {
			skipped++
			continue
		}
		plan[e.MealType] = append(list, e)
	}
	return plan, skipped
}
