package health

import (
	"net/http"
	"runtime"
	"time"

	"meal-companion/internal/core/cache"
	"meal-companion/internal/core/session"
	"meal-companion/internal/core/settings"
	"meal-companion/internal/infrastructure/config"
	"meal-companion/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Session   *SessionStatus         `json:"session,omitempty"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// SessionStatus session 摘要
type SessionStatus struct {
	View            session.View `json:"view"`
	Recommendations int          `json:"recommendations"`
	Provider        string       `json:"provider"`
}

// Handler 健康檢查處理程序
type Handler struct {
	config     *config.Config
	store      cache.Store
	settings   *settings.Store
	controller *session.Controller
}

// NewHandler 創建健康檢查處理程序
func NewHandler(cfg *config.Config, store cache.Store, settingsStore *settings.Store, controller *session.Controller) *Handler {
	return &Handler{
		config:     cfg,
		store:      store,
		settings:   settingsStore,
		controller: controller,
	}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.config.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if h.controller != nil {
		st := h.controller.State()
		response.Session = &SessionStatus{
			View:            st.View,
			Recommendations: len(st.Recommendations.Recommendations),
		}
		if h.settings != nil {
			response.Session.Provider = h.settings.Provider()
		}
	}
	if h.store != nil {
		response.Cache = h.store.Stats()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：本地儲存可用且已設定生成服務
func (h *Handler) ReadinessCheck(c *gin.Context) {
	checks := gin.H{}
	ready := true

	if h.store != nil {
		if err := h.store.Set(c.Request.Context(), "readiness", []byte("ok"), time.Minute); err != nil {
			checks["cache"] = err.Error()
			ready = false
		} else {
			checks["cache"] = "ok"
		}
	}

	if h.settings != nil && h.settings.Provider() == "" {
		checks["provider"] = common.ErrNoProvider.Message
		ready = false
	} else {
		checks["provider"] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"checks": checks,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": checks,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
