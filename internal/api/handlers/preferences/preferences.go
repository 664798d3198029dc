package preferences

import (
	"net/http"

	"meal-companion/internal/api/handlers"
	corePreferences "meal-companion/internal/core/preferences"

	"github.com/gin-gonic/gin"
)

// Handler 偏好設定處理程序
type Handler struct {
	store *corePreferences.Store
}

// NewHandler 創建偏好設定處理程序
func NewHandler(store *corePreferences.Store) *Handler {
	return &Handler{store: store}
}

// HandleGet 目前草稿與狀態
func (h *Handler) HandleGet(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.State())
}

// HandlePut 驗證並保存到遠端
func (h *Handler) HandlePut(c *gin.Context) {
	var p corePreferences.DietaryPreferences
	if !handlers.BindJSON(c, &p) {
		return
	}
	if err := h.store.Update(c.Request.Context(), p.Normalize()); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.State())
}

// HandlePatch 只修改草稿，不送到遠端；熱量上下限會互相夾緊
func (h *Handler) HandlePatch(c *gin.Context) {
	var patch corePreferences.Patch
	if !handlers.BindJSON(c, &patch) {
		return
	}
	h.store.Edit(patch.Edits()...)
	c.JSON(http.StatusOK, h.store.State())
}

// HandleSync 從遠端重新載入
func (h *Handler) HandleSync(c *gin.Context) {
	if err := h.store.Fetch(c.Request.Context()); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.State())
}
