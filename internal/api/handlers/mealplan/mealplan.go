package mealplan

import (
	"net/http"
	"time"

	"meal-companion/internal/api/handlers"
	coreMealPlan "meal-companion/internal/core/mealplan"
	"meal-companion/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AddRequest 新增餐點
type AddRequest struct {
	Date     string                `json:"date"`
	MealType coreMealPlan.MealType `json:"meal_type" binding:"required"`
	RecipeID string                `json:"recipe_id" binding:"required"`
}

// PortionsRequest 修改份量
type PortionsRequest struct {
	Date     string  `json:"date"`
	Portions float64 `json:"portions" binding:"required"`
}

// Handler 餐單處理程序
type Handler struct {
	store *coreMealPlan.Store
	now   func() time.Time
}

// NewHandler 創建餐單處理程序
func NewHandler(store *coreMealPlan.Store) *Handler {
	return &Handler{
		store: store,
		now:   time.Now,
	}
}

// HandleGet 取得某一天的餐單，?date=YYYY-MM-DD，預設今天
func (h *Handler) HandleGet(c *gin.Context) {
	day, ok := h.parseDate(c, c.Query("date"))
	if !ok {
		return
	}
	if err := h.store.FetchDay(c.Request.Context(), day); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.State())
}

// HandleAdd 新增餐點
func (h *Handler) HandleAdd(c *gin.Context) {
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondError(c, common.ErrInvalidRequest.WithCause(err))
		return
	}
	day, ok := h.parseDate(c, req.Date)
	if !ok {
		return
	}

	common.LogInfo("新增餐點",
		zap.String("request_id", handlers.RequestID(c)),
		zap.String("meal_type", string(req.MealType)),
	)

	ctx, cancel := handlers.OperationContext(c)
	defer cancel()
	if err := h.store.AddMeal(ctx, day, req.MealType, req.RecipeID); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.store.State())
}

// HandleDelete 刪除餐點，?date= 指定重新載入的日期
func (h *Handler) HandleDelete(c *gin.Context) {
	day, ok := h.parseDate(c, c.Query("date"))
	if !ok {
		return
	}

	ctx, cancel := handlers.OperationContext(c)
	defer cancel()
	if err := h.store.DeleteMeal(ctx, c.Param("id"), day); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.State())
}

// HandleUpdatePortions 修改份量
func (h *Handler) HandleUpdatePortions(c *gin.Context) {
	var req PortionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondError(c, common.ErrInvalidRequest.WithCause(err))
		return
	}
	day, ok := h.parseDate(c, req.Date)
	if !ok {
		return
	}

	ctx, cancel := handlers.OperationContext(c)
	defer cancel()
	if err := h.store.UpdatePortions(ctx, c.Param("id"), req.Portions, day); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.State())
}

func (h *Handler) parseDate(c *gin.Context, s string) (time.Time, bool) {
	day, err := coreMealPlan.ParseDate(s, h.now())
	if err != nil {
		handlers.RespondError(c, common.NewValidationError(err.Error()))
		return time.Time{}, false
	}
	return day, true
}
