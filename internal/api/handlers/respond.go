package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"meal-companion/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OperationTimeout 單次 session 操作的上限，涵蓋整批並行的遠端請求
const OperationTimeout = 180 * time.Second

// RequestID 取得請求 ID
func RequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// OperationContext 與用戶端連線脫鉤的 context
//
// session 狀態由所有用戶端共用，用戶端斷線不應讓進行中的批次失敗。
func OperationContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), OperationTimeout)
}

// BindJSON 解析請求體；空請求體視為零值
func BindJSON(c *gin.Context, v interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", RequestID(c)),
			zap.String("path", c.Request.URL.Path),
		)
		RespondError(c, common.ErrInvalidRequest.WithCause(err))
		return false
	}
	return true
}

// RespondError 依錯誤類型回傳狀態碼與 {code, error}
func RespondError(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	resp := common.ToErrorResponse(err)

	var ce *common.CustomError
	if errors.As(err, &ce) && ce.Err != nil && gin.IsDebugging() {
		resp.Details = ce.Err.Error()
	}

	fields := []zap.Field{
		zap.String("request_id", RequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.String("code", resp.Code),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogDebug("請求被拒絕", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}
