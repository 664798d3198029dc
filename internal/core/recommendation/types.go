package recommendation

import (
	"fmt"

	"meal-companion/internal/core/preferences"
)

// Ingredient 推薦食譜的食材
type Ingredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// NutritionFacts 營養資訊
type NutritionFacts struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	Fiber    *float64 `json:"fiber,omitempty"`
}

// Recipe 生成服務回傳的推薦食譜，尚未保存
//
// 同一個 session 內以 Name 判斷是否為同一道菜。
type Recipe struct {
	Name           string         `json:"name"`
	Calories       float64        `json:"calories"`
	CookingTime    int            `json:"cookingTime"`
	CuisineType    []string       `json:"cuisineType"`
	DietType       []string       `json:"dietType"`
	Ingredients    []Ingredient   `json:"ingredients"`
	NutritionFacts NutritionFacts `json:"nutritionFacts"`
	Steps          []string       `json:"steps"`
	Img            string         `json:"img,omitempty"`
}

// MealType 具名餐別
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
)

// MealTypes 每日推薦使用的三個餐別，順序即發出順序
var MealTypes = []MealType{Breakfast, Lunch, Dinner}

// ParseMealType 解析餐別
func ParseMealType(s string) (MealType, error) {
	for _, m := range MealTypes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}

// GenerateRequest 單次生成請求
type GenerateRequest struct {
	Preferences    preferences.DietaryPreferences `json:"preferences"`
	ExcludeRecipes []string                       `json:"excludeRecipes,omitempty"`
	Provider       string                         `json:"provider"`
}

// Names 取得食譜名稱
func Names(recipes []Recipe) []string {
	names := make([]string, 0, len(recipes))
	for _, r := range recipes {
		names = append(names, r.Name)
	}
	return names
}
