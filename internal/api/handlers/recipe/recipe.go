package recipe

import (
	"net/http"

	"meal-companion/internal/api/handlers"
	recipeService "meal-companion/internal/core/recipe"
	"meal-companion/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// Handler 食譜與收藏處理程序
type Handler struct {
	recipes *recipeService.Service
}

// NewHandler 創建食譜處理程序
func NewHandler(recipes *recipeService.Service) *Handler {
	return &Handler{recipes: recipes}
}

// HandleFavorites 取得收藏
func (h *Handler) HandleFavorites(c *gin.Context) {
	favorites, err := h.recipes.Favorites(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favorites})
}

// HandleToggleFavorite 切換收藏
func (h *Handler) HandleToggleFavorite(c *gin.Context) {
	if err := h.recipes.ToggleFavorite(c.Request.Context(), c.Param("id")); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleList 分頁取得食譜
func (h *Handler) HandleList(c *gin.Context) {
	var q recipeService.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		handlers.RespondError(c, common.ErrInvalidRequest.WithCause(err))
		return
	}
	recipes, err := h.recipes.Recipes(c.Request.Context(), q)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":    q.Normalize().Page,
		"recipes": recipes,
	})
}

// HandleGet 取得單一食譜，含收藏標記
func (h *Handler) HandleGet(c *gin.Context) {
	r, err := h.recipes.Recipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
