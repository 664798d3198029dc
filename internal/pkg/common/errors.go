package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"error"`             // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

// Unwrap 返回原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 errors.Is(err, ErrAuthMissing) 之類的判斷成立
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// WithCause 複製預定義錯誤並附上原始錯誤
func (e *CustomError) WithCause(err error) *CustomError {
	c := *e
	c.Err = err
	return &c
}

// WithMessage 複製預定義錯誤並替換訊息，錯誤代碼不變
func (e *CustomError) WithMessage(message string) *CustomError {
	c := *e
	c.Message = message
	return &c
}

// RemoteStatus 遠端回應的原始狀態碼，非遠端錯誤時回傳 0
func RemoteStatus(err error) int {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Code == ErrCodeNetworkOrServer {
		return ce.Status
	}
	return 0
}

// ValidationError 表示本地驗證錯誤，不會送到遠端
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// 預定義錯誤代碼
const (
	ErrCodeInvalidRequest  = "INVALID_REQUEST"         // 400
	ErrCodeValidation      = "VALIDATION_ERROR"        // 400
	ErrCodeAuthMissing     = "AUTH_MISSING"            // 401
	ErrCodeNotFound        = "NOT_FOUND"               // 404
	ErrCodeRequestInFlight = "REQUEST_IN_FLIGHT"       // 409
	ErrCodeConfiguration   = "CONFIGURATION_ERROR"     // 412
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"       // 429
	ErrCodeInternalError   = "INTERNAL_ERROR"          // 500
	ErrCodeNetworkOrServer = "NETWORK_OR_SERVER_ERROR" // 502
	ErrCodePersistence     = "PERSISTENCE_ERROR"       // 502
	ErrCodeCacheMiss       = "CACHE_MISS"
)

// 預定義錯誤
var (
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrAuthMissing     = NewError(ErrCodeAuthMissing, "not signed in", http.StatusUnauthorized, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrBusy            = NewError(ErrCodeRequestInFlight, "a request is already in flight", http.StatusConflict, nil)
	ErrNoProvider      = NewError(ErrCodeConfiguration, "please configure a generation provider", http.StatusPreconditionFailed, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)
	ErrInternalError   = NewError(ErrCodeInternalError, "internal error", http.StatusInternalServerError, nil)
	ErrCacheMiss       = NewError(ErrCodeCacheMiss, "cache miss", http.StatusNotFound, nil)
)

// NewNetworkError 遠端非 2xx 或連線失敗
func NewNetworkError(message string, status int, err error) *CustomError {
	return NewError(ErrCodeNetworkOrServer, message, status, err)
}

// NewPersistenceError 偏好設定等資料儲存失敗
func NewPersistenceError(message string, err error) *CustomError {
	return NewError(ErrCodePersistence, message, http.StatusBadGateway, err)
}

// HTTPStatus 將錯誤轉為閘道回應的狀態碼
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if IsValidationError(err) {
		return http.StatusBadRequest
	}
	var ce *CustomError
	if errors.As(err, &ce) {
		switch ce.Code {
		case ErrCodeNetworkOrServer, ErrCodePersistence:
			// 遠端錯誤一律以 502 回給 UI，原始狀態碼只用於日誌
			return http.StatusBadGateway
		}
		if ce.Status != 0 {
			return ce.Status
		}
	}
	return http.StatusInternalServerError
}

// ErrorCode 取得錯誤代碼
func ErrorCode(err error) string {
	if IsValidationError(err) {
		return ErrCodeValidation
	}
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternalError
}

// ToErrorResponse 轉為 API 錯誤響應
func ToErrorResponse(err error) ErrorResponse {
	return ErrorResponse{
		Code:    ErrorCode(err),
		Message: err.Error(),
	}
}
