package session

import (
	"context"
	"fmt"

	"meal-companion/internal/core/preferences"
	"meal-companion/internal/core/recommendation"
	"meal-companion/internal/pkg/common"

	"go.uber.org/zap"
)

// State 閘道回傳給 UI 的完整 session 狀態
type State struct {
	View                View                    `json:"view"`
	ShowPreferencesForm bool                    `json:"show_preferences_form"`
	Preferences         preferences.State       `json:"preferences"`
	Recommendations     recommendation.Snapshot `json:"recommendations"`
}

// Controller 串接偏好設定與推薦協調器，處理畫面之間的轉換
type Controller struct {
	prefs        *preferences.Store
	coord        *recommendation.Coordinator
	defaultCount int
}

// NewController 創建 session 控制器
func NewController(prefs *preferences.Store, coord *recommendation.Coordinator, defaultCount int) *Controller {
	if defaultCount <= 0 {
		defaultCount = preferences.DefaultMealsPerDay
	}
	return &Controller{
		prefs:        prefs,
		coord:        coord,
		defaultCount: defaultCount,
	}
}

// Preferences 偏好設定儲存
func (c *Controller) Preferences() *preferences.Store {
	return c.prefs
}

// Coordinator 推薦協調器
func (c *Controller) Coordinator() *recommendation.Coordinator {
	return c.coord
}

// Start 先保存偏好，成功後才取得第一批推薦
//
// count <= 0 時使用偏好的每日餐數，再退回設定的預設值。
func (c *Controller) Start(ctx context.Context, p preferences.DietaryPreferences, count int) error {
	if c.coord.Snapshot().Loading {
		return common.ErrBusy
	}
	if count <= 0 {
		count = p.MealsPerDay
	}
	if count <= 0 {
		count = c.defaultCount
	}

	if err := c.prefs.Update(ctx, p); err != nil {
		common.LogWarn("偏好設定未保存，不發出推薦請求", zap.Error(err))
		return err
	}
	return c.coord.Fetch(ctx, c.prefs.Get(), count)
}

// StartDaily 先保存偏好，再並行取得三餐推薦
func (c *Controller) StartDaily(ctx context.Context, p preferences.DietaryPreferences) error {
	if AnyLoading(c.coord.Snapshot()) {
		return common.ErrBusy
	}
	if err := c.prefs.Update(ctx, p); err != nil {
		common.LogWarn("偏好設定未保存，不發出每日推薦請求", zap.Error(err))
		return err
	}
	return c.coord.FetchAllMeals(ctx, c.prefs.Get())
}

// LoadMore 以目前草稿追加推薦
func (c *Controller) LoadMore(ctx context.Context, count int, exclude []string) error {
	if count <= 0 {
		count = c.defaultCount
	}
	return c.coord.Append(ctx, c.prefs.Get(), count, exclude)
}

// ReplaceMeal 換掉某一餐，排除目前這道
func (c *Controller) ReplaceMeal(ctx context.Context, meal recommendation.MealType) error {
	slot, ok := c.coord.Snapshot().Meals[meal]
	if !ok {
		return common.NewValidationError(fmt.Sprintf("unknown meal type %q", meal))
	}
	var exclude []string
	if slot.Recipe != nil {
		exclude = []string{slot.Recipe.Name}
	}
	return c.coord.FetchMeal(ctx, meal, c.prefs.Get(), exclude)
}

// ModifyPreferences 回到偏好表單；草稿保留
func (c *Controller) ModifyPreferences() {
	c.coord.Clear()
	common.LogInfo("回到偏好設定")
}

// View 目前畫面
func (c *Controller) View() View {
	return Derive(c.coord.Snapshot())
}

// State 目前完整狀態
func (c *Controller) State() State {
	snap := c.coord.Snapshot()
	return State{
		View:                Derive(snap),
		ShowPreferencesForm: ShouldShowPreferencesForm(snap),
		Preferences:         c.prefs.State(),
		Recommendations:     snap,
	}
}
