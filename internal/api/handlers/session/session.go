package session

import (
	"net/http"

	"meal-companion/internal/api/handlers"
	"meal-companion/internal/core/preferences"
	"meal-companion/internal/core/recipe"
	"meal-companion/internal/core/recommendation"
	coreSession "meal-companion/internal/core/session"
	"meal-companion/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StartRequest 開始推薦；preferences 省略時使用目前草稿
type StartRequest struct {
	Preferences *preferences.DietaryPreferences `json:"preferences,omitempty"`
	Count       int                             `json:"count,omitempty"`
}

// MoreRequest 追加推薦
type MoreRequest struct {
	Count   int      `json:"count,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// SaveRequest 保存一則推薦，以名稱指定
type SaveRequest struct {
	Name string `json:"name" binding:"required"`
}

// Handler session 處理程序
type Handler struct {
	controller *coreSession.Controller
	recipes    *recipe.Service
}

// NewHandler 創建 session 處理程序
func NewHandler(controller *coreSession.Controller, recipes *recipe.Service) *Handler {
	return &Handler{
		controller: controller,
		recipes:    recipes,
	}
}

// HandleGet 目前 session 狀態
func (h *Handler) HandleGet(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.State())
}

// HandleStart 保存偏好並取得第一批推薦
func (h *Handler) HandleStart(c *gin.Context) {
	var req StartRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	p := h.controller.Preferences().Get()
	if req.Preferences != nil {
		p = req.Preferences.Normalize()
	}

	common.LogInfo("開始推薦 session",
		zap.String("request_id", handlers.RequestID(c)),
		zap.Int("count", req.Count),
	)

	ctx, cancel := handlers.OperationContext(c)
	defer cancel()
	if err := h.controller.Start(ctx, p, req.Count); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.State())
}

// HandleDaily 保存偏好並取得三餐推薦
func (h *Handler) HandleDaily(c *gin.Context) {
	var req StartRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	p := h.controller.Preferences().Get()
	if req.Preferences != nil {
		p = req.Preferences.Normalize()
	}

	ctx, cancel := handlers.OperationContext(c)
	defer cancel()
	if err := h.controller.StartDaily(ctx, p); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.State())
}

// HandleMore 追加推薦
func (h *Handler) HandleMore(c *gin.Context) {
	var req MoreRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	ctx, cancel := handlers.OperationContext(c)
	defer cancel()
	if err := h.controller.LoadMore(ctx, req.Count, req.Exclude); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.State())
}

// HandleModify 回到偏好表單
func (h *Handler) HandleModify(c *gin.Context) {
	h.controller.ModifyPreferences()
	c.JSON(http.StatusOK, h.controller.State())
}

// HandleReplaceMeal 換掉某一餐
func (h *Handler) HandleReplaceMeal(c *gin.Context) {
	meal, err := recommendation.ParseMealType(c.Param("meal"))
	if err != nil {
		handlers.RespondError(c, common.NewValidationError(err.Error()))
		return
	}

	ctx, cancel := handlers.OperationContext(c)
	defer cancel()
	if err := h.controller.ReplaceMeal(ctx, meal); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.State())
}

// HandleSave 將 session 中的一則推薦保存為食譜
func (h *Handler) HandleSave(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondError(c, common.NewValidationError("name is required"))
		return
	}

	r, ok := h.controller.Coordinator().Find(req.Name)
	if !ok {
		handlers.RespondError(c, common.ErrNotFound.WithMessage("recommendation not found in session"))
		return
	}

	ctx, cancel := handlers.OperationContext(c)
	defer cancel()
	saved, err := h.recipes.SaveRecommendation(ctx, r, h.controller.Preferences().Get())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// HandleApplyDaily 保存目前的三餐推薦
func (h *Handler) HandleApplyDaily(c *gin.Context) {
	snap := h.controller.Coordinator().Snapshot()

	meals := make([]recommendation.Recipe, 0, len(recommendation.MealTypes))
	for _, m := range recommendation.MealTypes {
		if slot := snap.Meals[m]; slot.Recipe != nil {
			meals = append(meals, *slot.Recipe)
		}
	}

	ctx, cancel := handlers.OperationContext(c)
	defer cancel()
	saved, err := h.recipes.ApplyDaily(ctx, meals, h.controller.Preferences().Get())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipes": saved})
}
