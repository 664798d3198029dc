package settings

import (
	"errors"
	"net/http"

	"meal-companion/internal/api/handlers"
	"meal-companion/internal/core/preferences"
	coreSettings "meal-companion/internal/core/settings"
	"meal-companion/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// Handler 使用者設定處理程序
type Handler struct {
	store *coreSettings.Store
	prefs *preferences.Store
}

// NewHandler 創建設定處理程序
func NewHandler(store *coreSettings.Store, prefs *preferences.Store) *Handler {
	return &Handler{
		store: store,
		prefs: prefs,
	}
}

// HandleGet 載入使用者資訊；草稿尚未載入時一併帶入遠端偏好
func (h *Handler) HandleGet(c *gin.Context) {
	info, err := h.store.FetchUserInfo(c.Request.Context())
	if err != nil && !errors.Is(err, common.ErrAuthMissing) {
		handlers.RespondError(c, err)
		return
	}
	if info != nil {
		h.prefs.Hydrate(info.Preferences)
	}
	c.JSON(http.StatusOK, h.store.State())
}

// HandlePut 更新生成服務設定
func (h *Handler) HandlePut(c *gin.Context) {
	var u coreSettings.Update
	if !handlers.BindJSON(c, &u) {
		return
	}
	if err := h.store.UpdateSettings(c.Request.Context(), u); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.State())
}

// HandleProfile 更新使用者名稱或頭像
func (h *Handler) HandleProfile(c *gin.Context) {
	var u coreSettings.ProfileUpdate
	if !handlers.BindJSON(c, &u) {
		return
	}
	if err := h.store.UpdateProfile(c.Request.Context(), u); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.State())
}
