package auth

import (
	"net/http"

	"meal-companion/internal/api/handlers"
	coreAuth "meal-companion/internal/core/auth"
	"meal-companion/internal/core/preferences"
	"meal-companion/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 認證處理程序
type Handler struct {
	manager *coreAuth.Manager
	prefs   *preferences.Store
}

// NewHandler 創建認證處理程序
func NewHandler(manager *coreAuth.Manager, prefs *preferences.Store) *Handler {
	return &Handler{
		manager: manager,
		prefs:   prefs,
	}
}

// HandleState 目前登入狀態
func (h *Handler) HandleState(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.State())
}

// HandleLogin 登入，成功後載入遠端偏好
func (h *Handler) HandleLogin(c *gin.Context) {
	var req coreAuth.Credentials
	if !handlers.BindJSON(c, &req) {
		return
	}
	if err := h.manager.Login(c.Request.Context(), req); err != nil {
		handlers.RespondError(c, err)
		return
	}
	h.syncPreferences(c)
	c.JSON(http.StatusOK, h.manager.State())
}

// HandleRegister 註冊
func (h *Handler) HandleRegister(c *gin.Context) {
	var req coreAuth.Registration
	if !handlers.BindJSON(c, &req) {
		return
	}
	if err := h.manager.Register(c.Request.Context(), req); err != nil {
		handlers.RespondError(c, err)
		return
	}
	h.syncPreferences(c)
	c.JSON(http.StatusOK, h.manager.State())
}

// HandleLogout 登出
func (h *Handler) HandleLogout(c *gin.Context) {
	if err := h.manager.Logout(c.Request.Context()); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.manager.State())
}

// HandleRefresh 刷新 token
func (h *Handler) HandleRefresh(c *gin.Context) {
	if err := h.manager.Refresh(c.Request.Context()); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.manager.State())
}

// syncPreferences 登入後載入偏好，失敗不影響登入結果
func (h *Handler) syncPreferences(c *gin.Context) {
	if err := h.prefs.Fetch(c.Request.Context()); err != nil {
		common.LogWarn("登入後載入偏好設定失敗",
			zap.String("request_id", handlers.RequestID(c)),
			zap.Error(err),
		)
	}
}
