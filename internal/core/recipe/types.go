package recipe

import (
	"strings"

	"meal-companion/internal/core/recommendation"
)

// 保存推薦時使用的預設值
const (
	DefaultDifficulty = "medium"
	DefaultServings   = 2
	DefaultCategory   = "主料"
)

// Ingredient 已保存食譜的食材
type Ingredient struct {
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
}

// Step 已保存食譜的步驟
type Step struct {
	Order       int    `json:"order"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
}

// NutritionFacts 已保存食譜的營養資訊
type NutritionFacts struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
}

// Recipe 遠端保存的食譜，以 ID 識別
type Recipe struct {
	ID             string         `json:"id,omitempty"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Difficulty     string         `json:"difficulty"`
	CookingTime    int            `json:"cooking_time"`
	Calories       float64        `json:"calories"`
	Servings       int            `json:"servings"`
	NutritionFacts NutritionFacts `json:"nutrition_facts"`
	Ingredients    []Ingredient   `json:"ingredients"`
	Steps          []Step         `json:"steps"`
	Images         []string       `json:"images"`
	IsFavorite     *bool          `json:"is_favorite,omitempty"`
}

// Query 食譜列表查詢
type Query struct {
	Page     int    `form:"page"`
	Category string `form:"category"`
	Search   string `form:"search"`
}

// Normalize 頁碼從 1 開始，文字條件去除空白
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	q.Category = strings.TrimSpace(q.Category)
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// FromRecommendation 將推薦轉成待保存的食譜
func FromRecommendation(r recommendation.Recipe) Recipe {
	ingredients := make([]Ingredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ingredients = append(ingredients, Ingredient{
			Name:     ing.Name,
			Amount:   ing.Amount,
			Unit:     ing.Unit,
			Category: DefaultCategory,
		})
	}

	steps := make([]Step, 0, len(r.Steps))
	for i, s := range r.Steps {
		steps = append(steps, Step{Order: i + 1, Description: s})
	}

	nutrition := NutritionFacts{
		Protein: r.NutritionFacts.Protein,
		Carbs:   r.NutritionFacts.Carbs,
		Fat:     r.NutritionFacts.Fat,
	}
	if r.NutritionFacts.Fiber != nil {
		nutrition.Fiber = *r.NutritionFacts.Fiber
	}

	images := []string{}
	if r.Img != "" {
		images = append(images, r.Img)
	}

	return Recipe{
		Name:           r.Name,
		Description:    strings.Join(r.CuisineType, "/") + " - " + strings.Join(r.DietType, "/"),
		Difficulty:     DefaultDifficulty,
		CookingTime:    r.CookingTime,
		Calories:       r.Calories,
		Servings:       DefaultServings,
		NutritionFacts: nutrition,
		Ingredients:    ingredients,
		Steps:          steps,
		Images:         images,
	}
}
